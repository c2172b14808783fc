// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package config loads the markitdown CLI configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backends accepted for DOCX conversion.
const (
	BackendNative = "native"
	BackendPandoc = "pandoc"
)

// Config mirrors the CLI flags. Zero values mean "not set".
type Config struct {
	Backend       string        `yaml:"backend"`
	StyleMap      string        `yaml:"style_map"`
	StyleMapFile  string        `yaml:"style_map_file"`
	ImagesDir     string        `yaml:"images_dir"`
	KeepDataURIs  bool          `yaml:"keep_data_uris"`
	Jobs          int           `yaml:"jobs"`
	LogLevel      string        `yaml:"log_level"`
	PandocPath    string        `yaml:"pandoc_path"`
	PandocTimeout time.Duration `yaml:"pandoc_timeout"`
}

// Load reads and validates the YAML file at path. Unknown keys are rejected.
// Relative file references are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.StyleMapFile = resolve(base, cfg.StyleMapFile)
	cfg.ImagesDir = resolve(base, cfg.ImagesDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Validate checks the field values.
func (c *Config) Validate() error {
	switch c.Backend {
	case "", BackendNative, BackendPandoc:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendNative, BackendPandoc)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.PandocTimeout < 0 {
		return fmt.Errorf("pandoc_timeout must not be negative, got %s", c.PandocTimeout)
	}
	if c.StyleMap != "" && c.StyleMapFile != "" {
		return errors.New("style_map and style_map_file are mutually exclusive")
	}
	return nil
}

// StyleMapRules returns the inline style map, or the contents of
// StyleMapFile when that is set.
func (c *Config) StyleMapRules() (string, error) {
	if c.StyleMapFile == "" {
		return c.StyleMap, nil
	}
	data, err := os.ReadFile(c.StyleMapFile)
	if err != nil {
		return "", fmt.Errorf("failed to read style map: %w", err)
	}
	return string(data), nil
}
