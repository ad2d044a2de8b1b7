// Package config handles loading, validating, and managing configuration
// for the fwstamp provenance stamping tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aellingwood/fwstamp/internal/header"
)

// Config is the top-level configuration for a stamping run.
//
// Defines holds extra NAME=VALUE pairs pinned into the header on every
// stamp. They are pairs rather than a mapping because viper lowercases
// mapping keys read from config files, which would mangle macro names;
// values files keep the mapping form since they bypass viper.
type Config struct {
	Root     string         `yaml:"root"     mapstructure:"root"`
	Artifact ArtifactConfig `yaml:"artifact" mapstructure:"artifact"`
	Macros   MacroConfig    `yaml:"macros"   mapstructure:"macros"`
	Git      GitConfig      `yaml:"git"      mapstructure:"git"`
	Defines  []string       `yaml:"defines"  mapstructure:"defines"`
	Values   []string       `yaml:"values"   mapstructure:"values"`
	Log      LogConfig      `yaml:"log"      mapstructure:"log"`
	Watch    WatchConfig    `yaml:"watch"    mapstructure:"watch"`
}

// ArtifactConfig names the version header the tool rewrites.
type ArtifactConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// MacroConfig names the three #define directives that receive provenance
// values.
type MacroConfig struct {
	Hash   string `yaml:"hash"   mapstructure:"hash"`
	Branch string `yaml:"branch" mapstructure:"branch"`
	Build  string `yaml:"build"  mapstructure:"build"`
}

// Macros converts the configured names into the patcher's macro set.
func (m MacroConfig) Macros() header.Macros {
	return header.Macros{Hash: m.Hash, Branch: m.Branch, Build: m.Build}
}

// GitConfig controls how the provenance queries are executed.
type GitConfig struct {
	Binary string `yaml:"binary" mapstructure:"binary"`
	Dir    string `yaml:"dir"    mapstructure:"dir"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file"  mapstructure:"file"`
}

// WatchConfig controls the repository watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// MarshalYAML renders the debounce as a duration string; yaml.v3 would
// otherwise emit raw nanoseconds.
func (w WatchConfig) MarshalYAML() (any, error) {
	return map[string]string{"debounce": w.Debounce.String()}, nil
}

// Default returns a Config populated with the stock firmware layout:
// header under include/, macros as generated by the project template, git
// from PATH.
func Default() *Config {
	return &Config{
		Artifact: ArtifactConfig{
			Path: "include/version.h",
		},
		Macros: MacroConfig{
			Hash:   "FW_GIT_HASH",
			Branch: "FW_GIT_BRANCH",
			Build:  "FW_VERSION_BUILD",
		},
		Git: GitConfig{
			Binary: "git",
		},
		Log: LogConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Load reads a configuration file from configPath (YAML or TOML) and
// returns a Config with defaults applied first and file values overlaid
// on top.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	v := viper.New()

	// Determine format from extension.
	ext := strings.TrimPrefix(filepath.Ext(configPath), ".")
	switch ext {
	case "yaml", "yml":
		v.SetConfigType("yaml")
	case "toml":
		v.SetConfigType("toml")
	default:
		// Default to yaml if unrecognised.
		v.SetConfigType("yaml")
	}

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// DefaultPath returns the configuration path probed when --config is not
// given: fwstamp.yaml next to the installed executable, so a build step
// picks up the same file from any working directory.
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "fwstamp.yaml"), nil
}

// LoadDefault loads the configuration from DefaultPath when that file
// exists and falls back to built-in defaults when it does not. A tool
// invocation with no configuration at all must still stamp.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// ResolveRoot returns the project root the artifact path is resolved
// against. An explicit root wins; otherwise the root is derived from the
// executable's install location, one directory above it, never from the
// process working directory.
func (c *Config) ResolveRoot() (string, error) {
	if c.Root != "" {
		return c.Root, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving executable path: %w", err)
	}
	return filepath.Dir(filepath.Dir(exe)), nil
}

// Validate checks the Config for common errors.
// It returns a descriptive error if:
//   - the artifact path is empty or absolute
//   - a stamped macro name is empty or duplicated
//   - an extra define reuses a stamped macro name
//   - the log level or watch debounce is out of range
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Artifact.Path) == "" {
		return fmt.Errorf("config: artifact.path is required")
	}
	if filepath.IsAbs(c.Artifact.Path) {
		return fmt.Errorf("config: artifact.path must be relative to the project root (got %q)", c.Artifact.Path)
	}

	names := map[string]string{
		"macros.hash":   c.Macros.Hash,
		"macros.branch": c.Macros.Branch,
		"macros.build":  c.Macros.Build,
	}
	seen := map[string]string{}
	for key, name := range names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("config: %s is required", key)
		}
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("config: %s and %s both name %q", prev, key, name)
		}
		seen[name] = key
	}

	for _, pair := range c.Defines {
		name, _, err := ParseDefine(pair)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if _, clash := seen[name]; clash {
			return fmt.Errorf("config: define %q collides with a stamped macro", name)
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("config: watch.debounce must not be negative (got %s)", c.Watch.Debounce)
	}

	return nil
}

// WithOverrides applies CLI flag overrides to the config. Known keys are
// mapped to their corresponding struct fields. The modified config is
// returned for convenient chaining.
func (c *Config) WithOverrides(overrides map[string]any) *Config {
	for key, val := range overrides {
		switch key {
		case "root":
			if s, ok := val.(string); ok {
				c.Root = s
			}
		case "artifact":
			if s, ok := val.(string); ok {
				c.Artifact.Path = s
			}
		case "gitBinary":
			if s, ok := val.(string); ok {
				c.Git.Binary = s
			}
		case "gitDir":
			if s, ok := val.(string); ok {
				c.Git.Dir = s
			}
		case "logLevel":
			if s, ok := val.(string); ok {
				c.Log.Level = s
			}
		case "logFile":
			if s, ok := val.(string); ok {
				c.Log.File = s
			}
		case "debounce":
			if d, ok := val.(time.Duration); ok {
				c.Watch.Debounce = d
			}
		}
	}
	return c
}
