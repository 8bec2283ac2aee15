// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wanderlens/WanderLensLocal/internal/assets"
	"github.com/wanderlens/WanderLensLocal/internal/config"
	"github.com/wanderlens/WanderLensLocal/internal/syscheck"
	"github.com/wanderlens/WanderLensLocal/pkg/ux"
)

const diagnoseProbeURL = "https://assets.wanderlens.app"

// requiredFreeBytes is the rough footprint of a full local install:
// Python environment plus model plus classifier assets.
const requiredFreeBytes = 20 * 1024 * 1024 * 1024

// diagnoseCmd runs the preflight checks installs depend on and reports
// each one, so a user can see why an install would fail before it does.
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Check network, disk space, and component state",
	RunE:  runDiagnoseCommand,
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnoseCommand(cmd *cobra.Command, args []string) error {
	svc, err := mustService()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	checker := syscheck.NewDefaultChecker()

	ux.Title("Preflight")
	if err := checker.CheckNetwork(ctx, diagnoseProbeURL); err != nil {
		ux.Error("Network: " + err.Error())
	} else {
		ux.Success("Network reachable")
	}

	cfg, err := config.Load(mustConfigPath())
	if err != nil {
		ux.Error("Config: " + err.Error())
	} else {
		ux.Success("Config loads")
	}
	dataDir, err := cfg.ResolveDataDir()
	if err == nil {
		if err := checker.CheckDiskSpace(dataDir, requiredFreeBytes); err != nil {
			ux.Warning("Disk: " + err.Error())
		} else {
			ux.Success("Disk space sufficient for a full install")
		}
	}

	fmt.Println()
	ux.Title("Components")
	env := svc.CheckEnvironment(ctx)
	if env.Ready() {
		ux.Success("Analysis environment ready")
	} else if env.InstallationInterrupted {
		ux.Warning("Analysis environment: interrupted install")
	} else {
		ux.Info("Analysis environment: not installed")
	}

	model := svc.DetectHardware(ctx).Recommendation.Model
	if model != "" && svc.CheckRuntimeFullyReady(ctx, model) {
		ux.Success(fmt.Sprintf("Model runtime ready (%s)", model))
	} else if model == "" {
		ux.Info("Model runtime: cloud configuration, not required")
	} else {
		ux.Info("Model runtime: not ready")
	}

	assetState := svc.CheckAssets()
	missing := 0
	for _, key := range assets.Keys() {
		if !assetState[key] {
			missing++
		}
	}
	if missing == 0 {
		ux.Success("Classifier models present")
	} else {
		ux.Info(fmt.Sprintf("Classifier models: %d missing", missing))
	}
	return nil
}

// mustConfigPath resolves the config path the same way newService does.
func mustConfigPath() string {
	if flagConfigPath != "" {
		return flagConfigPath
	}
	p, err := config.DefaultPath()
	if err != nil {
		return ""
	}
	return p
}
