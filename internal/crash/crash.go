/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a process-level panic into a report file and a short
// message on stderr.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"gopkg.in/yaml.v3"

	"memeditor/internal/annotation"
	applog "memeditor/internal/log"
	"memeditor/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// reportDir is where reports are written; tests point it at a temp dir.
var reportDir = os.TempDir

// Source exposes the editor state included in a report.
type Source interface {
	Snapshot() annotation.Snapshot
}

// Recover captures a panic, logs an error with stacktrace, writes an error
// report file including the current annotations (if src is non-nil), and
// exits with code 2.
//
// Usage: defer crash.Recover(store)
func Recover(src Source) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, err := writeReport(src, r, stack)
		if err != nil {
			l.Error("crash report failed", slog.Any("err", err), slog.String("path", reportPath))
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

// reportItem is the YAML shape of one annotation in a report.
type reportItem struct {
	ID     string  `yaml:"id"`
	Text   string  `yaml:"text"`
	Top    float32 `yaml:"top"`
	Left   float32 `yaml:"left"`
	DX     float32 `yaml:"dx"`
	DY     float32 `yaml:"dy"`
	Color  string  `yaml:"color"`
	Size   int     `yaml:"size"`
	Weight string  `yaml:"weight"`
	Font   string  `yaml:"font"`
}

func writeReport(src Source, panicVal any, stack []byte) (string, error) {
	dir := reportDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dir, err
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("memeditor-crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "MemEditor Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))
	if src != nil {
		snap := src.Snapshot()
		_, _ = fmt.Fprintf(&buf, "Annotations (version %d, %d items):\n", snap.Version, snap.Len())
		items := make([]reportItem, 0, snap.Len())
		for _, a := range snap.Items {
			items = append(items, reportItem{
				ID: a.ID, Text: a.Value,
				Top: a.Position.Top, Left: a.Position.Left,
				DX: a.BaseOffset.X, DY: a.BaseOffset.Y,
				Color: a.Style.Color, Size: a.Style.FontSizePx, Weight: a.Style.Weight(), Font: a.Style.FontFamily,
			})
		}
		if out, err := yaml.Marshal(items); err == nil {
			buf.Write(out)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	return path, nil
}
