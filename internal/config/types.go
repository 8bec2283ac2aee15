// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
)

// AppDirName is the per-user directory holding config, markers, the
// Python environment, and downloaded model assets.
const AppDirName = ".wanderlens"

type WanderLensConfig struct {
	// DataDir overrides where environments and assets live. Empty means
	// the default under the user's home directory.
	DataDir string `yaml:"data_dir,omitempty"`

	// Analysis selects local or cloud execution.
	Analysis AnalysisConfig `yaml:"analysis"`

	// Hardware holds user-supplied detection overrides. They survive
	// restarts so a user who corrected a bad GPU reading once does not
	// have to do it again.
	Hardware HardwareConfig `yaml:"hardware"`

	// Python configures the analysis environment.
	Python PythonConfig `yaml:"python"`
}

type AnalysisConfig struct {
	// Provider is "local" or "cloud".
	Provider string `yaml:"provider" validate:"omitempty,oneof=local cloud"`
	// Model is the local model name, e.g. "qwen3:8b".
	Model string `yaml:"model,omitempty"`
	// ServerURL is the local model server address.
	ServerURL string `yaml:"server_url,omitempty" validate:"omitempty,url"`
}

type HardwareConfig struct {
	RAMGB   *int    `yaml:"ram_gb,omitempty" validate:"omitempty,gte=1,lte=4096"`
	VRAMGB  *int    `yaml:"vram_gb,omitempty" validate:"omitempty,gte=0,lte=1024"`
	GPUType *string `yaml:"gpu_type,omitempty" validate:"omitempty,oneof=none integrated dedicated"`
	CPUName *string `yaml:"cpu_name,omitempty"`
}

type PythonConfig struct {
	// Bin is the interpreter used to create the environment.
	Bin string `yaml:"bin,omitempty"`
}

// DefaultConfig returns the config written on first run.
func DefaultConfig() WanderLensConfig {
	return WanderLensConfig{
		Analysis: AnalysisConfig{
			Provider:  "local",
			ServerURL: "http://localhost:11434",
		},
		Python: PythonConfig{Bin: "python3"},
	}
}

// ResolveDataDir returns the effective data directory for a config,
// falling back to ~/.wanderlens when unset.
func (c WanderLensConfig) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, AppDirName), nil
}
