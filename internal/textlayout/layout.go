/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Measurement of annotation text boxes. The renderer re-measures an
// annotation whenever its text changes so the editable region grows with the
// content instead of clipping it.

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"memeditor/internal/annotation"
	"memeditor/internal/geom"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string
	SizePx float32
	Bold   bool
}

// SpecFor derives the font request from an annotation style.
func SpecFor(st annotation.Style) FontSpec {
	return FontSpec{Family: st.FontFamily, SizePx: float32(st.FontSizePx), Bold: st.Bold}
}

// Metrics are in pixels at the requested size. Scale converts the face's own
// advances to the requested size (1 for faces rasterised at that size) and
// Embolden is extra width added per glyph when a bold face is synthesised.
type Metrics struct {
	Ascent, Descent, LineGap float32
	Scale                    float32
	Embolden                 float32
}

// LineHeight is the distance between consecutive baselines.
func (m Metrics) LineHeight() float32 { return m.Ascent + m.Descent + m.LineGap }

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image basicfont Face7x13 scaled to the requested size.
// It is deterministic and needs no font files, which makes it the test default.
type BasicProvider struct{}

const basicCellHeight = 13

func (BasicProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	size := spec.SizePx
	if size <= 0 {
		size = DefaultSizePx
	}
	scale := size / basicCellHeight
	m := f.Metrics()
	met := Metrics{
		Ascent:  float32(m.Ascent.Round()) * scale,
		Descent: float32(m.Descent.Round()) * scale,
		LineGap: float32(m.Height.Round()-m.Ascent.Round()-m.Descent.Round()) * scale,
		Scale:   scale,
	}
	if spec.Bold {
		met.Embolden = 1
	}
	return f, met
}

const (
	DefaultSizePx = 16
	// Padding is the inner margin of the editable region on each side.
	Padding = 4
	// minChars keeps an empty annotation wide enough to click into.
	minChars = 2
)

// Measure returns the box needed to show text without clipping, including padding.
// Lines are split on '\n'; an empty line still takes a line of height.
func Measure(p Provider, spec FontSpec, text string) geom.Size {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(spec)
	d := &font.Drawer{Face: face}
	lines := strings.Split(text, "\n")
	var w float32
	for _, ln := range lines {
		lw := advance(d, ln)*met.Scale + met.Embolden*float32(utf8.RuneCountInString(ln))
		w = max(w, lw)
	}
	w = max(w, advance(d, strings.Repeat("M", minChars))*met.Scale)
	h := float32(len(lines)) * met.LineHeight()
	return geom.Size{
		W: geom.FloatRound(w+2*Padding, 2),
		H: geom.FloatRound(h+2*Padding, 2),
	}
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}
