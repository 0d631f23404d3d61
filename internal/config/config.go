// Package config loads the optional pxp-index TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"

	"github.com/pxp-lang/pxp-sub001/internal/parsecache"
	"github.com/pxp-lang/pxp-sub001/internal/stubs"
	"github.com/pxp-lang/pxp-sub001/internal/version"
)

// FileName is the conventional config file name.
const FileName = "pxp-index.toml"

const (
	DefaultStubsRoot  = "stubs"
	DefaultPHPVersion = "8.3"
)

// DefaultVersions are the releases a stub build covers when none are set.
var DefaultVersions = []string{"8.0", "8.1", "8.2", "8.3", "8.4"}

type Config struct {
	StubsRoot  string   `toml:"stubs_root"`
	PHPVersion string   `toml:"php_version"`
	Versions   []string `toml:"versions"`
	Exclude    []string `toml:"exclude"`
	Workers    int      `toml:"workers"`
	Cache      Cache    `toml:"cache"`
	Markers    Markers  `toml:"markers"`
}

type Cache struct {
	// MaxEntries bounds the parse cache. Zero selects the default; a
	// negative value disables eviction.
	MaxEntries int `toml:"max_entries"`
}

type Markers struct {
	Since   string `toml:"since"`
	Removed string `toml:"removed"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and validates the file at path. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: %s: unknown key %q", path, undecoded[0].String())
	}

	applyDefaults(&cfg)
	if !filepath.IsAbs(cfg.StubsRoot) {
		cfg.StubsRoot = filepath.Join(filepath.Dir(path), cfg.StubsRoot)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.StubsRoot) == "" {
		cfg.StubsRoot = DefaultStubsRoot
	}
	if strings.TrimSpace(cfg.PHPVersion) == "" {
		cfg.PHPVersion = DefaultPHPVersion
	}
	if len(cfg.Versions) == 0 {
		cfg.Versions = append([]string(nil), DefaultVersions...)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = parsecache.DefaultMaxEntries
	}
	if strings.TrimSpace(cfg.Markers.Since) == "" {
		cfg.Markers.Since = stubs.DefaultMarkers.Since
	}
	if strings.TrimSpace(cfg.Markers.Removed) == "" {
		cfg.Markers.Removed = stubs.DefaultMarkers.Removed
	}
}

// Validate checks versions and exclude patterns.
func (c *Config) Validate() error {
	if _, err := version.Parse(c.PHPVersion); err != nil {
		return fmt.Errorf("php_version: %w", err)
	}
	for _, v := range c.Versions {
		if _, err := version.Parse(v); err != nil {
			return fmt.Errorf("versions: %w", err)
		}
	}
	for _, p := range c.Exclude {
		if _, err := glob.Compile(p, '/'); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
	}
	return nil
}

// Target returns the active release.
func (c *Config) Target() (version.Version, error) {
	return version.Parse(c.PHPVersion)
}

// SupportedVersions returns the configured releases, oldest first.
func (c *Config) SupportedVersions() ([]version.Version, error) {
	return version.ParseList(strings.Join(c.Versions, ","))
}

// StubsDir is the stub corpus for the active release.
func (c *Config) StubsDir() (string, error) {
	v, err := c.Target()
	if err != nil {
		return "", err
	}
	return stubs.VersionDir(c.StubsRoot, v), nil
}

// StubMarkers returns the version marker attribute names.
func (c *Config) StubMarkers() stubs.Markers {
	return stubs.Markers{Since: c.Markers.Since, Removed: c.Markers.Removed}
}
