package coreemu

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadOptionsFile reads a flat string/string map from a YAML file and
// returns an Options store seeded from it. Useful for checking scenario
// defaults into a repo instead of building the map by hand in code.
func LoadOptionsFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read options file: %w", err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse options file %s: %w", path, err)
	}
	return NewOptions(raw), nil
}

// SaveOptionsFile writes o's current snapshot to path as YAML.
func SaveOptionsFile(o *Options, path string) error {
	data, err := yaml.Marshal(o.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write options file %s: %w", path, err)
	}
	return nil
}
