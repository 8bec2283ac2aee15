// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wanderlens/WanderLensLocal/internal/modelruntime"
	"github.com/wanderlens/WanderLensLocal/internal/progress"
	"github.com/wanderlens/WanderLensLocal/internal/recommend"
	"github.com/wanderlens/WanderLensLocal/pkg/ux"
)

var runtimeModel string

var runtimeCmd = &cobra.Command{
	Use:   "runtime",
	Short: "Manage the local model runtime",
}

// runtimeCheckCmd reports readiness of server software, process, and model.
var runtimeCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether the model runtime is fully ready",
	RunE:  runRuntimeCheckCommand,
}

// runtimeEnsureCmd is the one-call installer: whatever subset of
// software install, server start, and model pull is outstanding gets
// done, with one 0-100 progress scale across all of it.
//
// # Examples
//
//	wanderlens-setup runtime ensure                  # recommended model
//	wanderlens-setup runtime ensure --model qwen3:8b
var runtimeEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Install, start, and pull whatever the runtime is missing",
	Long: `Brings the model runtime to a fully ready state in one step.

Already-satisfied parts are skipped, so re-running after a failure or
interruption resumes where the previous run stopped. Without --model the
hardware recommendation picks the model.`,
	RunE: runRuntimeEnsureCommand,
}

func init() {
	runtimeEnsureCmd.Flags().StringVar(&runtimeModel, "model", "",
		"Model to ensure (default: the recommended model for this hardware)")
	runtimeCheckCmd.Flags().StringVar(&runtimeModel, "model", "",
		"Model to check for (default: the recommended model)")
	runtimeCmd.AddCommand(runtimeCheckCmd)
	runtimeCmd.AddCommand(runtimeEnsureCmd)
}

func runRuntimeCheckCommand(cmd *cobra.Command, args []string) error {
	svc, err := mustService()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	model := runtimeModel
	if model == "" {
		model = svc.DetectHardware(ctx).Recommendation.Model
	}
	if model == "" {
		ux.Warning("This hardware is recommended for cloud analysis; no local model to check")
		return nil
	}

	if svc.CheckRuntimeFullyReady(ctx, model) {
		ux.Success(fmt.Sprintf("Runtime ready (model %s)", model))
		return nil
	}
	if svc.HasModel(ctx, model) {
		ux.Info(fmt.Sprintf("Model %s is present but the runtime is not fully ready", model))
	} else {
		ux.Info(fmt.Sprintf("Runtime not ready; run 'wanderlens-setup runtime ensure' to install model %s", model))
	}
	return nil
}

func runRuntimeEnsureCommand(cmd *cobra.Command, args []string) error {
	svc, err := mustService()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	model := runtimeModel
	if model == "" {
		rec := svc.DetectHardware(ctx).Recommendation
		if !rec.CanRunLocally {
			return fail(errors.New("this hardware is recommended for cloud analysis; pass --model to force a local install"))
		}
		model = rec.Model
	}
	if model == "" {
		model = recommend.ModelLightTier
	}

	spinner := ux.NewSpinner("Checking model runtime")
	spinner.Start()
	svc.OnInstallProgress(func(e progress.RuntimeEvent) {
		if e.Stage == progress.StageError {
			return
		}
		spinner.SetMessage(fmt.Sprintf("%s %s", ux.ProgressBar(e.Unified, 20), e.Message))
	})
	defer svc.OffInstallProgress()

	if err := svc.EnsureReady(ctx, model); err != nil {
		if errors.Is(err, modelruntime.ErrInstallInFlight) {
			spinner.StopFailure("Another model installation is already running")
			return err
		}
		var merr *modelruntime.ModelError
		if errors.As(err, &merr) {
			spinner.StopFailure(merr.FullError())
		} else {
			spinner.StopFailure("Runtime installation failed: " + err.Error())
		}
		return err
	}
	spinner.StopSuccess(fmt.Sprintf("Runtime ready (model %s)", model))
	return nil
}
