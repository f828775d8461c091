/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"memeditor/internal/annotation"
)

var (
	ErrInvalidFontSize = errors.New("font size must be positive")
	ErrUnknownFont     = errors.New("unknown font family")
	// ErrInvalidColor is annotation.ErrInvalidColor, re-exported for hosts.
	ErrInvalidColor = annotation.ErrInvalidColor
)

// Toolbar holds the selections applied to annotations created from now on.
type Toolbar struct {
	Color       string
	FontSizePx  int
	Bold        bool
	FontFamily  string
	DragEnabled bool
}

func (e *Editor) Toolbar() Toolbar { return e.tb }

// Fonts lists the families offered by the font selector.
func (e *Editor) Fonts() []string { return append([]string(nil), e.fonts...) }

// Style is the style a new annotation would get.
func (e *Editor) Style() annotation.Style {
	return annotation.Style{
		Color:      e.tb.Color,
		FontSizePx: e.tb.FontSizePx,
		Bold:       e.tb.Bold,
		FontFamily: e.tb.FontFamily,
	}
}

// SetDragEnabled switches drag mode. Turning it off mid-gesture freezes the
// annotation where it is.
func (e *Editor) SetDragEnabled(v bool) {
	e.tb.DragEnabled = v
	e.ctrl.SetEnabled(v)
	e.log.Debug("drag mode", slog.Bool("enabled", v))
}

func (e *Editor) ToggleDrag() bool {
	e.SetDragEnabled(!e.tb.DragEnabled)
	return e.tb.DragEnabled
}

func (e *Editor) ToggleBold() bool {
	e.tb.Bold = !e.tb.Bold
	return e.tb.Bold
}

// SetColor accepts #rgb or #rrggbb and stores the six-digit lowercase form.
func (e *Editor) SetColor(s string) error {
	c, err := annotation.ParseHexColor(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	e.tb.Color = fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	return nil
}

func (e *Editor) SetFontSize(px int) error {
	if px <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFontSize, px)
	}
	e.tb.FontSizePx = px
	return nil
}

// SetFont selects one of Fonts (case-insensitive) and stores its canonical name.
func (e *Editor) SetFont(family string) error {
	for _, f := range e.fonts {
		if strings.EqualFold(f, strings.TrimSpace(family)) {
			e.tb.FontFamily = f
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownFont, family)
}
