// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds CLI-wide settings resolved from file, environment, and
// flags, in increasing precedence.
type Config struct {
	// LogLevel is the minimum log severity: debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// LogDir enables JSON file logging when set.
	LogDir string `mapstructure:"log_dir"`

	// Telemetry enables stdout OpenTelemetry export.
	Telemetry bool `mapstructure:"telemetry"`

	// RulesFile is an optional default scoring rules file applied by
	// commands that score evidence.
	RulesFile string `mapstructure:"rules_file"`

	// MaxNodes and MaxEdgesPerNode bound graph construction. Zero means
	// the engine defaults.
	MaxNodes        int `mapstructure:"max_nodes"`
	MaxEdgesPerNode int `mapstructure:"max_edges_per_node"`
}

// LoadConfig resolves configuration via viper.
//
// Search order when no explicit path is given: ./depmap.yaml, then
// ~/.depmap/depmap.yaml. A missing file is not an error; environment
// variables with the DEPMAP_ prefix still apply.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("DEPMAP")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("depmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".depmap"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
