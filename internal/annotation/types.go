/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package annotation holds the text overlays placed on an image and is the
// only place their state is mutated.
package annotation

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
)

// Position is the pixel offset of an annotation relative to the image container.
// It is fixed when the annotation is created.
type Position struct {
	Top  float32 `json:"top" yaml:"top"`
	Left float32 `json:"left" yaml:"left"`
}

// Offset is a drag displacement.
type Offset struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
}

func (o Offset) Add(d Offset) Offset { return Offset{X: o.X + d.X, Y: o.Y + d.Y} }
func (o Offset) Sub(d Offset) Offset { return Offset{X: o.X - d.X, Y: o.Y - d.Y} }

// Resize controls the resize affordance of the editable region.
type Resize uint8

const (
	ResizeNone Resize = iota
	ResizeBoth
)

func (r Resize) String() string {
	if r == ResizeBoth {
		return "both"
	}
	return "none"
}

// Style is captured from the toolbar when an annotation is created and never
// changes afterwards.
type Style struct {
	Color      string `json:"color" yaml:"color"` // #rrggbb
	FontSizePx int    `json:"fontSizePx" yaml:"font_size_px"`
	Bold       bool   `json:"bold" yaml:"bold"`
	FontFamily string `json:"fontFamily" yaml:"font_family"`
}

// Weight returns the CSS-style weight keyword.
func (s Style) Weight() string {
	if s.Bold {
		return "bold"
	}
	return "normal"
}

// RGBA resolves the style color, falling back to opaque black.
func (s Style) RGBA() color.RGBA {
	c, err := ParseHexColor(s.Color)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return c
}

// Annotation is one placed text overlay.
type Annotation struct {
	ID         string   `json:"id"`
	Value      string   `json:"value"`
	Position   Position `json:"position"`
	Style      Style    `json:"style"`
	Resize     Resize   `json:"resize"`
	BaseOffset Offset   `json:"baseOffset"`
	LiveOffset Offset   `json:"liveOffset"`
}

// ResizeVisible reports whether the resize affordance is shown (the annotation has focus).
func (a Annotation) ResizeVisible() bool { return a.Resize == ResizeBoth }

// Rendered is the on-screen position: the creation position translated by the live offset.
func (a Annotation) Rendered() Position {
	return Position{Top: a.Position.Top + a.LiveOffset.Y, Left: a.Position.Left + a.LiveOffset.X}
}

// Dragging reports whether an uncommitted drag displacement is showing.
func (a Annotation) Dragging() bool { return a.LiveOffset != a.BaseOffset }

func (a Annotation) String() string {
	r := a.Rendered()
	return fmt.Sprintf("%q at (%g,%g) %s %dpx %s %s resize=%s base=(%g,%g) live=(%g,%g)",
		a.Value, r.Top, r.Left, a.Style.Color, a.Style.FontSizePx, a.Style.Weight(), a.Style.FontFamily,
		a.Resize, a.BaseOffset.X, a.BaseOffset.Y, a.LiveOffset.X, a.LiveOffset.Y)
}

// ErrInvalidColor is returned for colors that are not #rgb or #rrggbb.
var ErrInvalidColor = errors.New("invalid color")

// ParseHexColor parses #rrggbb or #rgb (case-insensitive) into an opaque color.
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	hex := s[1:]
	var digits []uint8
	for i := 0; i < len(hex); i++ {
		v, ok := hexDigit(hex[i])
		if !ok {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		digits = append(digits, v)
	}
	switch len(digits) {
	case 3:
		return color.RGBA{R: digits[0] * 17, G: digits[1] * 17, B: digits[2] * 17, A: 255}, nil
	case 6:
		return color.RGBA{
			R: digits[0]<<4 | digits[1],
			G: digits[2]<<4 | digits[3],
			B: digits[4]<<4 | digits[5],
			A: 255,
		}, nil
	}
	return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
