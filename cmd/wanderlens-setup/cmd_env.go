// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wanderlens/WanderLensLocal/internal/envsetup"
	"github.com/wanderlens/WanderLensLocal/internal/progress"
	"github.com/wanderlens/WanderLensLocal/pkg/ux"
)

var envJSONOutput bool

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage the Python analysis environment",
}

// envCheckCmd reports the environment state without changing anything.
var envCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether the analysis environment is ready",
	RunE:  runEnvCheckCommand,
}

// envSetupCmd creates or repairs the environment.
//
// # Description
//
// A previous interrupted run is detected from the markers and rebuilt
// from scratch; marker flags, not file existence, decide readiness, so
// a crash mid-install can never masquerade as a working environment.
var envSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create or repair the analysis environment",
	RunE:  runEnvSetupCommand,
}

func init() {
	envCheckCmd.Flags().BoolVar(&envJSONOutput, "json", false,
		"Output as JSON for scripting")
	envCmd.AddCommand(envCheckCmd)
	envCmd.AddCommand(envSetupCmd)
}

func runEnvCheckCommand(cmd *cobra.Command, args []string) error {
	svc, err := mustService()
	if err != nil {
		return err
	}

	result := svc.CheckEnvironment(cmd.Context())
	if envJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	switch {
	case result.Ready():
		ux.Success("Analysis environment is ready")
	case result.InstallationInterrupted:
		ux.Warning("A previous setup was interrupted; run 'wanderlens-setup env setup' to repair it")
	default:
		ux.Info("Analysis environment is not installed; run 'wanderlens-setup env setup'")
	}
	return nil
}

func runEnvSetupCommand(cmd *cobra.Command, args []string) error {
	svc, err := mustService()
	if err != nil {
		return err
	}

	spinner := ux.NewSpinner("Preparing analysis environment")
	spinner.Start()
	svc.EnvEvents().Subscribe(func(e progress.EnvEvent) {
		if e.State == progress.EnvSettingUp {
			spinner.SetMessage(fmt.Sprintf("%s %s", ux.ProgressBar(e.Progress, 20), e.Message))
		}
	})
	defer svc.EnvEvents().Unsubscribe()

	if err := svc.SetupEnvironment(cmd.Context()); err != nil {
		if errors.Is(err, envsetup.ErrSetupInFlight) {
			spinner.StopFailure("Another setup is already running")
			return err
		}
		spinner.StopFailure("Environment setup failed: " + err.Error())
		return err
	}
	spinner.StopSuccess("Analysis environment ready")
	return nil
}
