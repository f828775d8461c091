/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"log/slog"

	"memeditor/internal/config"
	"memeditor/internal/focus"
	"memeditor/internal/textlayout"
)

// Options configures a new Editor.
type Options struct {
	Toolbar     Toolbar
	Fonts       []string
	FocusPolicy focus.Policy
	Coalesce    bool
	Provider    textlayout.Provider
	Logger      *slog.Logger
}

// DefaultOptions mirrors config.Defaults.
func DefaultOptions() Options {
	o, _ := OptionsFromConfig(config.Defaults())
	return o
}

func (o Options) withDefaults() Options {
	if len(o.Fonts) == 0 {
		o.Fonts = config.Defaults().Fonts
	}
	if o.Toolbar.FontFamily == "" {
		o.Toolbar.FontFamily = o.Fonts[0]
	}
	if o.Toolbar.FontSizePx <= 0 {
		o.Toolbar.FontSizePx = textlayout.DefaultSizePx
	}
	if o.Toolbar.Color == "" {
		o.Toolbar.Color = "#000000"
	}
	if o.Provider == nil {
		o.Provider = textlayout.BasicProvider{}
	}
	return o
}

// OptionsFromConfig maps the user configuration onto editor options. Font
// files listed in the config are loaded for measurement next to the bundled
// Go fonts; a font that fails to load is reported and measurement falls back
// to the basic face for that family.
func OptionsFromConfig(cfg config.AppConfig) (Options, error) {
	policy, err := focus.ParsePolicy(cfg.Focus.Policy)
	if err != nil {
		return Options{}, err
	}
	o := Options{
		Toolbar: Toolbar{
			Color:       cfg.Toolbar.Color,
			FontSizePx:  cfg.Toolbar.FontSize,
			Bold:        cfg.Toolbar.Bold,
			FontFamily:  cfg.Toolbar.Font,
			DragEnabled: cfg.Toolbar.Drag,
		},
		Fonts:       append([]string(nil), cfg.Fonts...),
		FocusPolicy: policy,
		Coalesce:    cfg.Drag.Coalesce,
	}
	lib, err := textlayout.DefaultLibrary()
	if err != nil {
		return o.withDefaults(), fmt.Errorf("bundled fonts: %w", err)
	}
	var loadErr error
	for _, ff := range cfg.FontFiles {
		if err := lib.LoadTTF(ff.Family, ff.Bold, ff.Path); err != nil && loadErr == nil {
			loadErr = err
		}
	}
	o.Provider = textlayout.OTProvider{Lib: lib}
	return o.withDefaults(), loadErr
}
