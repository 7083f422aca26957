package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/restconv/restconv"
)

// fileConfig is the optional restconv.yaml consumed by the CLI.
type fileConfig struct {
	Package  string   `yaml:"package"`
	Services []string `yaml:"services"`

	Version        *int  `yaml:"version"`
	AutoRouting    *bool `yaml:"auto_routing"`
	AvoidAmbiguity *bool `yaml:"avoid_ambiguity"`
}

// loadConfig reads the config file. A missing file is not an error; flags
// can supply everything.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// engineConfig maps the file settings onto the engine defaults.
func (c fileConfig) engineConfig() restconv.Config {
	cfg := restconv.DefaultConfig()
	if c.Version != nil {
		cfg.Version = *c.Version
	}
	if c.AutoRouting != nil {
		cfg.AutoRouting = *c.AutoRouting
	}
	if c.AvoidAmbiguity != nil {
		cfg.AvoidAmbiguity = *c.AvoidAmbiguity
	}
	return cfg
}
