// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// wanderlens-setup provisions the local analysis stack for the
// WanderLens desktop app: hardware detection, the Python analysis
// environment, the model runtime, and the bundled classifier assets.
//
// The desktop shell runs these commands with --plain and parses the
// output; humans run them directly and get the styled versions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wanderlens/WanderLensLocal/internal/config"
	"github.com/wanderlens/WanderLensLocal/internal/setup"
	"github.com/wanderlens/WanderLensLocal/pkg/logging"
	"github.com/wanderlens/WanderLensLocal/pkg/ux"
)

// --- Global Command Variables ---
var (
	flagConfigPath string
	flagPlain      bool
	flagVerbose    bool
	flagYes        bool

	rootCmd = &cobra.Command{
		Use:   "wanderlens-setup",
		Short: "Provision the WanderLens local analysis stack",
		Long: `wanderlens-setup prepares this machine for local review analysis:
it inspects the hardware, recommends a local or cloud configuration,
and installs the Python environment, model runtime, and classifier
models the analysis pipelines need.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagPlain {
				ux.SetPlain(true)
			}
			level := logging.LevelWarn
			if flagVerbose {
				level = logging.LevelDebug
			}
			logger := logging.New(logging.Config{
				Level:   level,
				LogDir:  "~/" + config.AppDirName + "/logs",
				Service: "setup",
			})
			logger.SetAsDefault()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "",
		"Path to the config file (default ~/.wanderlens/wanderlens.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagPlain, "plain", false,
		"Plain parseable output without color or animation")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"Verbose logging to stderr")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false,
		"Assume yes for confirmation prompts")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(runtimeCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(setupCmd)
}

// newService builds the provisioning service the commands share.
func newService() (*setup.Service, error) {
	path := flagConfigPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return setup.NewService(path)
}

// fail prints the error and returns it so Execute exits non-zero.
func fail(err error) error {
	ux.Error(err.Error())
	return err
}

// mustService is the common prologue for RunE functions.
func mustService() (*setup.Service, error) {
	svc, err := newService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		return nil, err
	}
	return svc, nil
}
