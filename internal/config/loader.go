// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and persists the application's yaml settings,
// including hardware detection overrides that must survive restarts.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const configFileName = "wanderlens.yaml"

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultPath returns the config file location under the user's home
// directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, AppDirName, configFileName), nil
}

// Load reads the config at path, creating it with defaults on first run.
func Load(path string) (WanderLensConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(path, DefaultConfig()); err != nil {
			return WanderLensConfig{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return WanderLensConfig{}, fmt.Errorf("failed to read the config file: %w", err)
	}

	var cfg WanderLensConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return WanderLensConfig{}, fmt.Errorf("failed to parse the config file: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return WanderLensConfig{}, fmt.Errorf("invalid config at %s: %w", path, err)
	}
	return cfg, nil
}

// Save validates and writes the config to path, creating parent
// directories as needed. The write goes through a temp file and rename
// so a crash mid-write never corrupts the existing config.
func Save(path string, cfg WanderLensConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode the config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, configFileName+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
