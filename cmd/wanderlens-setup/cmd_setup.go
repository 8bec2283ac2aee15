// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/wanderlens/WanderLensLocal/pkg/ux"
)

// setupCmd runs the whole provisioning flow end to end.
//
// # Description
//
// Detect, confirm, then install: the Python environment, the model
// runtime with the recommended model, and the classifier assets. Each
// stage is idempotent, so re-running after a failure only does the
// remaining work.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run the full first-time setup",
	Long: `Runs the complete provisioning flow:

  1. Detect hardware and pick a configuration
  2. Install the Python analysis environment
  3. Install and start the model runtime, pull the model (local only)
  4. Download the classifier models

Safe to re-run at any time; finished stages are skipped.`,
	RunE: runSetupCommand,
}

func runSetupCommand(cmd *cobra.Command, args []string) error {
	svc, err := mustService()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	report := svc.DetectHardware(ctx)
	printHardwareReport(report)
	fmt.Println()

	if !flagYes {
		proceed := true
		prompt := "Install the local analysis stack now?"
		if !report.Recommendation.CanRunLocally {
			prompt = "This machine is best served by cloud analysis. Install the local components anyway?"
			proceed = false
		}
		confirm := huh.NewConfirm().Title(prompt).Value(&proceed)
		if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
			return fail(err)
		}
		if !proceed {
			ux.Muted("Setup cancelled. Run 'wanderlens-setup key validate' to configure cloud analysis instead.")
			return nil
		}
	}

	ux.Title("1/3 Analysis environment")
	if err := runEnvSetupCommand(cmd, nil); err != nil {
		return err
	}

	if report.Recommendation.CanRunLocally {
		ux.Title("2/3 Model runtime")
		runtimeModel = report.Recommendation.Model
		if err := runRuntimeEnsureCommand(cmd, nil); err != nil {
			return err
		}
	} else {
		ux.Muted("2/3 Model runtime skipped (cloud configuration)")
	}

	ux.Title("3/3 Classifier models")
	if err := runAssetsDownloadCommand(cmd, nil); err != nil {
		return err
	}

	fmt.Println()
	ux.Box("Setup complete", "WanderLens is ready to analyze reviews on this machine.")
	return nil
}
