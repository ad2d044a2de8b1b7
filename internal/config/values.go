package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadValuesFile parses a flat mapping of define names to scalar values
// from a YAML (.yaml, .yml), JSON (.json), or TOML (.toml) file. Scalars
// are stringified the way they are written into the header; nested
// collections and null entries have no header representation and are
// rejected.
func LoadValuesFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading values file: %w", err)
	}

	var parsed map[string]any
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported values file format %q", ext)
	}

	out := make(map[string]string, len(parsed))
	for name, val := range parsed {
		switch val.(type) {
		case nil:
			return nil, fmt.Errorf("%s: define %q has no value", path, name)
		case map[string]any, []any:
			return nil, fmt.Errorf("%s: define %q is not a scalar", path, name)
		}
		out[name] = fmt.Sprint(val)
	}
	return out, nil
}

// ResolveDefines merges the extra define sources in ascending precedence:
// config defines first, then values files in listed order, then explicit
// NAME=VALUE pairs from the command line. Values paths from the config
// file resolve against the project root; paths from the command line are
// used as typed.
func ResolveDefines(cfg *Config, root string, files, pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(cfg.Defines))
	for _, pair := range cfg.Defines {
		name, val, err := ParseDefine(pair)
		if err != nil {
			return nil, err
		}
		out[name] = val
	}

	for _, path := range cfg.Values {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		vals, err := LoadValuesFile(path)
		if err != nil {
			return nil, err
		}
		for name, val := range vals {
			out[name] = val
		}
	}
	for _, path := range files {
		vals, err := LoadValuesFile(path)
		if err != nil {
			return nil, err
		}
		for name, val := range vals {
			out[name] = val
		}
	}

	for _, pair := range pairs {
		name, val, err := ParseDefine(pair)
		if err != nil {
			return nil, err
		}
		out[name] = val
	}
	return out, nil
}

// ParseDefine splits a NAME=VALUE pair as given with the -D flag.
func ParseDefine(pair string) (name, value string, err error) {
	name, value, ok := strings.Cut(pair, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("malformed define %q, want NAME=VALUE", pair)
	}
	return name, value, nil
}
