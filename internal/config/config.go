/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	applog "memeditor/internal/log"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type ToolbarConfig struct {
	Color    string `yaml:"color" json:"color"`
	FontSize int    `yaml:"font_size" json:"font_size"`
	Bold     bool   `yaml:"bold" json:"bold"`
	Font     string `yaml:"font" json:"font"`
	Drag     bool   `yaml:"drag" json:"drag"` // drag mode at startup
}

// FontFile registers an outline font for text measurement.
type FontFile struct {
	Family string `yaml:"family" json:"family"`
	Bold   bool   `yaml:"bold" json:"bold"`
	Path   string `yaml:"path" json:"path"`
}

type FocusConfig struct {
	Policy string `yaml:"policy" json:"policy"` // "last" | "created"
}

type DragConfig struct {
	FrameMs  int  `yaml:"frame_ms" json:"frame_ms"`
	Coalesce bool `yaml:"coalesce" json:"coalesce"` // batch pointer moves per frame
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Source bool   `yaml:"source" json:"source"`
	File   string `yaml:"file" json:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version" json:"config_version"`
	Toolbar       ToolbarConfig `yaml:"toolbar" json:"toolbar"`
	Fonts         []string      `yaml:"fonts" json:"fonts"`
	FontFiles     []FontFile    `yaml:"font_files,omitempty" json:"font_files,omitempty"`
	Focus         FocusConfig   `yaml:"focus" json:"focus"`
	Drag          DragConfig    `yaml:"drag" json:"drag"`
	Logging       LoggingConfig `yaml:"logging" json:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Toolbar:       ToolbarConfig{Color: "#000000", FontSize: 16, Bold: false, Font: "Arial", Drag: false},
		Fonts:         []string{"Arial", "Times New Roman", "Courier New"},
		Focus:         FocusConfig{Policy: "last"},
		Drag:          DragConfig{FrameMs: 16, Coalesce: false},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath   = "MED_CONFIG"
	EnvColor        = "MED_TOOLBAR_COLOR"
	EnvFontSize     = "MED_TOOLBAR_FONT_SIZE"
	EnvBold         = "MED_TOOLBAR_BOLD"
	EnvFont         = "MED_TOOLBAR_FONT"
	EnvDragEnabled  = "MED_DRAG_ENABLED"
	EnvFocusPolicy  = "MED_FOCUS_POLICY"
	EnvDragFrameMs  = "MED_DRAG_FRAME_MS"
	EnvDragCoalesce = "MED_DRAG_COALESCE"
	// EnvLogLevel Logging envs, shared with internal/log
	EnvLogLevel  = "MED_LOG_LEVEL"
	EnvLogFormat = "MED_LOG_FORMAT"
	EnvLogSource = "MED_LOG_SOURCE"
	EnvLogFile   = "MED_LOG_FILE"
)

// envKeys maps dotted config keys to the variable overriding them.
var envKeys = map[string]string{
	"toolbar.color":     EnvColor,
	"toolbar.font_size": EnvFontSize,
	"toolbar.bold":      EnvBold,
	"toolbar.font":      EnvFont,
	"toolbar.drag":      EnvDragEnabled,
	"focus.policy":      EnvFocusPolicy,
	"drag.frame_ms":     EnvDragFrameMs,
	"drag.coalesce":     EnvDragCoalesce,
	"logging.level":     EnvLogLevel,
	"logging.format":    EnvLogFormat,
	"logging.source":    EnvLogSource,
	"logging.file":      EnvLogFile,
}

// ErrInvalidConfig wraps schema and consistency failures.
var ErrInvalidConfig = errors.New("invalid config")

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// ConfigPath returns the per-user config file path. MED_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "MemEditor")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "MemEditor")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "memeditor")
		} else if home := os.Getenv("HOME"); home != "" {
			base = filepath.Join(home, ".config", "memeditor")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path. A missing file is not an error. A file
// that fails to parse or validate is reported, and the returned config then
// holds defaults plus env overrides so callers can still start.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		applyEnvOverrides(&cfg)
		return cfg, Validate(cfg)
	case err != nil:
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	fileCfg, err := parse(data)
	if err != nil {
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	mergeInto(&cfg, &fileCfg)
	applyEnvOverrides(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// parse decodes YAML and checks the raw document against the schema, so
// unknown keys and wrong types are caught before merging.
func parse(data []byte) (AppConfig, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return AppConfig{}, fmt.Errorf("parse yaml: %w", err)
	}
	if raw != nil {
		if err := validateDoc(gojsonschema.NewGoLoader(raw)); err != nil {
			return AppConfig{}, err
		}
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// Validate checks a complete config: the schema plus cross-field rules.
func Validate(cfg AppConfig) error {
	if err := validateDoc(gojsonschema.NewGoLoader(cfg)); err != nil {
		return err
	}
	for _, f := range cfg.Fonts {
		if strings.EqualFold(f, cfg.Toolbar.Font) {
			return nil
		}
	}
	return fmt.Errorf("%w: toolbar.font %q is not one of fonts %v", ErrInvalidConfig, cfg.Toolbar.Font, cfg.Fonts)
}

func validateDoc(doc gojsonschema.JSONLoader) error {
	res, err := gojsonschema.Validate(schemaLoader, doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg AppConfig) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.TrimSpace(src.Toolbar.Color); s != "" {
		dst.Toolbar.Color = s
	}
	if src.Toolbar.FontSize != 0 {
		dst.Toolbar.FontSize = src.Toolbar.FontSize
	}
	if s := strings.TrimSpace(src.Toolbar.Font); s != "" {
		dst.Toolbar.Font = s
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Toolbar.Bold = src.Toolbar.Bold
	dst.Toolbar.Drag = src.Toolbar.Drag
	if len(src.Fonts) > 0 {
		dst.Fonts = append([]string(nil), src.Fonts...)
	}
	if len(src.FontFiles) > 0 {
		dst.FontFiles = append([]FontFile(nil), src.FontFiles...)
	}
	if s := strings.TrimSpace(src.Focus.Policy); s != "" {
		dst.Focus.Policy = strings.ToLower(s)
	}
	if src.Drag.FrameMs != 0 {
		dst.Drag.FrameMs = src.Drag.FrameMs
	}
	dst.Drag.Coalesce = src.Drag.Coalesce
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := env(EnvColor); v != "" {
		cfg.Toolbar.Color = v
	}
	if v := env(EnvFontSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Toolbar.FontSize = n
		}
	}
	if v := env(EnvBold); v != "" {
		cfg.Toolbar.Bold = truthy(v)
	}
	if v := env(EnvFont); v != "" {
		cfg.Toolbar.Font = v
	}
	if v := env(EnvDragEnabled); v != "" {
		cfg.Toolbar.Drag = truthy(v)
	}
	if v := env(EnvFocusPolicy); v != "" {
		cfg.Focus.Policy = strings.ToLower(v)
	}
	if v := env(EnvDragFrameMs); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Drag.FrameMs = n
		}
	}
	if v := env(EnvDragCoalesce); v != "" {
		cfg.Drag.Coalesce = truthy(v)
	}
	// logging overrides
	if v := env(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := env(EnvLogFormat); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := env(EnvLogSource); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := env(EnvLogFile); v != "" {
		cfg.Logging.File = v
	}
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// FrameInterval is the drag coalescing interval.
func (d DragConfig) FrameInterval() time.Duration {
	if d.FrameMs <= 0 {
		return time.Duration(Defaults().Drag.FrameMs) * time.Millisecond
	}
	return time.Duration(d.FrameMs) * time.Millisecond
}

// Options converts the logging section for internal/log.
func (l LoggingConfig) Options() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}
