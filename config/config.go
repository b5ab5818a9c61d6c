// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config contains the configuration struct of the texture
// engine, which can be loaded from a TOML file on top of [Default].
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/tlahitte/karamove-texture-drawing/base/errors"
	"github.com/tlahitte/karamove-texture-drawing/base/iox/imagex"
	"github.com/tlahitte/karamove-texture-drawing/base/iox/tomlx"
	"github.com/tlahitte/karamove-texture-drawing/report"
)

// MatchPolicy selects how a new image finds its target object.
type MatchPolicy string

const (
	// MatchSelected applies every new image to the currently selected object.
	MatchSelected MatchPolicy = "selected"

	// MatchFileName applies an image to the bound object whose identifier
	// best matches the file name, falling back to the selected object.
	MatchFileName MatchPolicy = "filename"
)

// Duration is a [time.Duration] that reads and writes as a string
// such as "300ms" in config files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the engine configuration.
type Config struct {

	// TextureFolder is the texture asset folder, relative to the project root.
	TextureFolder string `toml:"texture_folder"`

	// StateFile is the state document name in the project root.
	// Its extension selects the encoding: .json, .toml, .yaml or .yml.
	StateFile string `toml:"state_file"`

	// SlotPrefix is prepended to the object identifier to name its texture slot.
	SlotPrefix string `toml:"slot_prefix"`

	// Extensions are the accepted image file extensions, without dot.
	Extensions []string `toml:"extensions"`

	// ProcessedPrefix marks consumed files in the watch folder.
	ProcessedPrefix string `toml:"processed_prefix"`

	// ArchiveFolder, if set, is a subfolder of the watch folder that
	// consumed files are moved into, instead of being renamed in place.
	ArchiveFolder string `toml:"archive_folder"`

	// Settle is how long a file must have been left unmodified
	// before it is picked up, so that half-written files are skipped.
	Settle Duration `toml:"settle"`

	// MinInterval, MaxInterval and DefaultInterval bound the
	// auto-refresh interval, in seconds.
	MinInterval     int `toml:"min_interval"`
	MaxInterval     int `toml:"max_interval"`
	DefaultInterval int `toml:"default_interval"`

	// Match is the new-image to object matching policy.
	Match MatchPolicy `toml:"match"`

	// MatchThreshold is the minimum Jaro-Winkler similarity for [MatchFileName].
	MatchThreshold float64 `toml:"match_threshold"`

	// MaxTextureSize is the largest texture dimension in pixels;
	// bigger drawings are scaled down when loaded. 0 = no limit.
	MaxTextureSize int `toml:"max_texture_size"`

	// TrashOnReset moves reset texture files to the system trash
	// instead of deleting them.
	TrashOnReset bool `toml:"trash_on_reset"`

	// WatchEvents enables filesystem notifications to start a pass
	// as soon as a file lands, in addition to the timer.
	WatchEvents bool `toml:"watch_events"`

	// LogLevel is the logging level: debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		TextureFolder:   "textures",
		StateFile:       "karamove_texture_drawing.json",
		SlotPrefix:      "T_",
		Extensions:      []string{"png", "jpg", "jpeg", "bmp", "tif", "tiff", "webp"},
		ProcessedPrefix: "processed_",
		Settle:          Duration(300 * time.Millisecond),
		MinInterval:     1,
		MaxInterval:     60,
		DefaultInterval: 5,
		Match:           MatchSelected,
		MatchThreshold:  0.85,
		MaxTextureSize:  2048,
		WatchEvents:     true,
		LogLevel:        "info",
	}
}

// Open loads the given TOML files in order on top of [Default], so that
// a project file can override a user-wide one, and validates the result.
func Open(filenames ...string) (*Config, error) {
	cfg := Default()
	if err := tomlx.OpenFiles(cfg, filenames...); err != nil {
		return nil, report.New(report.ConfigError, "open-config", err).WithFile(strings.Join(filenames, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration, returning a ConfigError
// listing every problem found.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, a ...any) {
		errs = append(errs, fmt.Errorf(format, a...))
	}
	if c.TextureFolder == "" || filepath.IsAbs(c.TextureFolder) || strings.HasPrefix(filepath.Clean(c.TextureFolder), "..") {
		add("texture_folder %q must be a relative path inside the project", c.TextureFolder)
	}
	if c.StateFile == "" || filepath.Base(c.StateFile) != c.StateFile {
		add("state_file %q must be a plain file name", c.StateFile)
	}
	if len(c.Extensions) == 0 {
		add("extensions must not be empty")
	}
	for _, ext := range c.Extensions {
		if _, err := imagex.ExtToFormat(ext); err != nil {
			add("extension %q is not a supported image format", ext)
		}
	}
	if c.ProcessedPrefix == "" && c.ArchiveFolder == "" {
		add("one of processed_prefix or archive_folder must be set")
	}
	if c.ArchiveFolder != "" && filepath.Base(c.ArchiveFolder) != c.ArchiveFolder {
		add("archive_folder %q must be a plain folder name", c.ArchiveFolder)
	}
	if c.Settle < 0 {
		add("settle must not be negative")
	}
	if c.MinInterval < 1 {
		add("min_interval %d must be at least 1 second", c.MinInterval)
	}
	if c.MaxInterval < c.MinInterval {
		add("max_interval %d is below min_interval %d", c.MaxInterval, c.MinInterval)
	}
	if c.DefaultInterval < c.MinInterval || c.DefaultInterval > c.MaxInterval {
		add("default_interval %d is outside [%d, %d]", c.DefaultInterval, c.MinInterval, c.MaxInterval)
	}
	if c.Match != MatchSelected && c.Match != MatchFileName {
		add("match %q must be %q or %q", c.Match, MatchSelected, MatchFileName)
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		add("match_threshold %g must be in (0, 1]", c.MatchThreshold)
	}
	if c.MaxTextureSize < 0 {
		add("max_texture_size must not be negative")
	}
	if len(errs) == 0 {
		return nil
	}
	return report.New(report.ConfigError, "validate-config", errors.Join(errs...))
}

// AllowsExt reports whether the file name has one of the accepted
// image extensions, ignoring case.
func (c *Config) AllowsExt(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	return slices.ContainsFunc(c.Extensions, func(e string) bool {
		return strings.EqualFold(strings.TrimPrefix(e, "."), ext)
	})
}

// CheckInterval returns a ConfigError if secs is outside the
// configured interval bounds.
func (c *Config) CheckInterval(secs int) error {
	if secs < c.MinInterval || secs > c.MaxInterval {
		return report.Errorf(report.ConfigError, "set-interval", "interval %ds is outside [%d, %d]", secs, c.MinInterval, c.MaxInterval)
	}
	return nil
}
