/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"gopkg.in/yaml.v3"

	"memeditor/internal/annotation"
	"memeditor/internal/config"
	"memeditor/internal/crash"
	"memeditor/internal/editor"
	applog "memeditor/internal/log"
	"memeditor/internal/script"
	"memeditor/internal/ui"
	"memeditor/internal/version"
)

func usage() {
	fmt.Println("MemEditor - image caption editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  memeditor version|-v|--version     Show version")
	fmt.Println("  memeditor ui [<image>]             Launch desktop UI (build with -tags fyne for full UI)")
	fmt.Println("  memeditor replay <script.yaml>     Replay a gesture script headless and print the captions")
	fmt.Println("  memeditor config                   Print the effective configuration")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")

	cfg, err := config.Load()
	if err != nil {
		l.Warn("config not applied completely", slog.Any("err", err))
	}
	applog.Init(cfg.Logging.Options())
	l = applog.WithComponent("cli")

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("MemEditor")
			fmt.Println(version.String())
			return
		case "ui":
			opts := ui.Options{Config: cfg}
			if len(args) >= 3 {
				opts.ImagePath = args[2]
			}
			if err := ui.Run(opts); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "replay":
			if len(args) < 3 {
				fmt.Println("replay requires <script.yaml>")
				usage()
				os.Exit(2)
			}
			if err := replay(l, cfg, args[2]); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "config":
			if err := printConfig(cfg); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func replay(l *slog.Logger, cfg config.AppConfig, path string) error {
	s, err := script.ParseFile(path)
	if err != nil {
		return err
	}
	opts, err := editor.OptionsFromConfig(cfg)
	if err != nil {
		l.Warn("editor options", slog.Any("err", err))
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l.Info("replay", slog.String("script", path), slog.Int("steps", len(s.Steps)))
	var snap annotation.Snapshot
	err = func() error {
		defer crash.Recover(nil)
		var rerr error
		snap, rerr = script.Replay(ctx, s, opts)
		return rerr
	}()
	if perr := printSnapshot(snap); perr != nil {
		return perr
	}
	return err
}

type captionOut struct {
	Text   string     `yaml:"text"`
	Top    float32    `yaml:"top"`
	Left   float32    `yaml:"left"`
	Offset [2]float32 `yaml:"offset,flow"`
	Style  string     `yaml:"style"`
}

func printSnapshot(snap annotation.Snapshot) error {
	out := make([]captionOut, 0, snap.Len())
	for _, a := range snap.Items {
		out = append(out, captionOut{
			Text:   a.Value,
			Top:    a.Position.Top,
			Left:   a.Position.Left,
			Offset: [2]float32{a.BaseOffset.X, a.BaseOffset.Y},
			Style:  fmt.Sprintf("%s %dpx %s %s", a.Style.Color, a.Style.FontSizePx, a.Style.Weight(), a.Style.FontFamily),
		})
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(map[string]any{"version": snap.Version, "captions": out})
}

func printConfig(cfg config.AppConfig) error {
	if path, err := config.ConfigPath(); err == nil {
		fmt.Println("# file:", path)
	}
	for _, key := range []string{"toolbar.color", "toolbar.font_size", "toolbar.bold", "toolbar.font", "toolbar.drag",
		"focus.policy", "drag.frame_ms", "drag.coalesce", "logging.level", "logging.format", "logging.source", "logging.file"} {
		if name, ok := config.EnvOverrideFor(key); ok {
			fmt.Printf("# %s overridden by %s\n", key, name)
		}
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(cfg)
}
