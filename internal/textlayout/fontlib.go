/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores parsed OpenType fonts by family and weight.
// Family lookups are case-insensitive.
type FontLibrary struct {
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	bold   bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// GoFontFamily is the family name under which the bundled Go fonts are registered.
const GoFontFamily = "Go"

// DefaultLibrary returns a library holding the bundled Go fonts, so there is
// always an outline font to measure with.
func DefaultLibrary() (*FontLibrary, error) {
	fl := NewFontLibrary()
	if err := fl.LoadBytes(GoFontFamily, false, goregular.TTF); err != nil {
		return nil, err
	}
	if err := fl.LoadBytes(GoFontFamily, true, gobold.TTF); err != nil {
		return nil, err
	}
	return fl, nil
}

// LoadTTF loads a font file into the library under the given family and weight.
func (fl *FontLibrary) LoadTTF(family string, bold bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	if err := fl.LoadBytes(family, bold, data); err != nil {
		return fmt.Errorf("font %s: %w", path, err)
	}
	return nil
}

// LoadBytes parses an in-memory TTF/OTF.
func (fl *FontLibrary) LoadBytes(family string, bold bool, data []byte) error {
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	fl.fonts[fontKey{family: strings.ToLower(family), bold: bold}] = f
	return nil
}

// Len returns how many family/weight entries are loaded.
func (fl *FontLibrary) Len() int {
	if fl == nil {
		return 0
	}
	return len(fl.fonts)
}

func (fl *FontLibrary) find(spec FontSpec) (f *opentype.Font, synthBold bool) {
	if fl == nil || fl.fonts == nil {
		return nil, false
	}
	fam := strings.ToLower(spec.Family)
	if f, ok := fl.fonts[fontKey{family: fam, bold: spec.Bold}]; ok {
		return f, false
	}
	// same family, other weight: bold is synthesised on top of regular
	if f, ok := fl.fonts[fontKey{family: fam, bold: !spec.Bold}]; ok {
		return f, spec.Bold
	}
	return nil, false
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another
// Provider for families it does not hold.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 so that 1pt == 1px
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.SizePx <= 0 {
		spec.SizePx = DefaultSizePx
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if f, synth := p.Lib.find(spec); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(spec.SizePx), DPI: dpi, Hinting: font.HintingFull})
		if err == nil {
			m := face.Metrics()
			met := Metrics{
				Ascent:  float32(m.Ascent.Round()),
				Descent: float32(m.Descent.Round()),
				LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
				Scale:   1,
			}
			if synth {
				met.Embolden = 1
			}
			return face, met
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
