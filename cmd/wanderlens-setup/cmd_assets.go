// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wanderlens/WanderLensLocal/internal/assets"
	"github.com/wanderlens/WanderLensLocal/internal/progress"
	"github.com/wanderlens/WanderLensLocal/pkg/ux"
)

var assetsJSONOutput bool

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Manage the bundled classifier models",
}

// assetsCheckCmd lists which classifier models exist on disk.
var assetsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check which classifier models are present",
	RunE:  runAssetsCheckCommand,
}

// assetsDownloadCmd fetches missing classifier models.
var assetsDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download any missing classifier models",
	Long: `Downloads the sentiment, embedding, subjectivity, and category
models the analysis pipelines need. Models that are already present are
not re-downloaded; when everything is in place the command returns
immediately.`,
	RunE: runAssetsDownloadCommand,
}

func init() {
	assetsCheckCmd.Flags().BoolVar(&assetsJSONOutput, "json", false,
		"Output as JSON for scripting")
	assetsCmd.AddCommand(assetsCheckCmd)
	assetsCmd.AddCommand(assetsDownloadCmd)
}

func runAssetsCheckCommand(cmd *cobra.Command, args []string) error {
	svc, err := mustService()
	if err != nil {
		return err
	}

	result := svc.CheckAssets()
	if assetsJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for _, key := range assets.Keys() {
		if result[key] {
			ux.Success(key)
		} else {
			ux.Info(key + " (missing)")
		}
	}
	if result.AllPresent() {
		ux.Success("All classifier models present")
	}
	return nil
}

func runAssetsDownloadCommand(cmd *cobra.Command, args []string) error {
	svc, err := mustService()
	if err != nil {
		return err
	}

	spinner := ux.NewSpinner("Checking classifier models")
	spinner.Start()
	svc.AssetEvents().Subscribe(func(e progress.AssetEvent) {
		if e.Key != "" {
			spinner.SetMessage(fmt.Sprintf("%s %s", ux.ProgressBar(e.Aggregate, 20), e.Key))
		}
	})
	defer svc.AssetEvents().Unsubscribe()

	if err := svc.DownloadAssets(cmd.Context()); err != nil {
		spinner.StopFailure("Model download failed: " + err.Error())
		return err
	}
	spinner.StopSuccess("All classifier models present")
	return nil
}
