// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/wanderlens/WanderLensLocal/pkg/ux"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage cloud analysis credentials",
}

// keyValidateCmd checks an API key against the provider.
//
// # Description
//
// The key comes from the argument, the WANDERLENS_API_KEY environment
// variable, or an interactive prompt, in that order. Passing keys as
// arguments leaves them in shell history; the prompt is preferred.
var keyValidateCmd = &cobra.Command{
	Use:   "validate [api-key]",
	Short: "Validate an API key for cloud analysis",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKeyValidateCommand,
}

func init() {
	keyCmd.AddCommand(keyValidateCmd)
}

func runKeyValidateCommand(cmd *cobra.Command, args []string) error {
	svc, err := mustService()
	if err != nil {
		return err
	}

	key := ""
	switch {
	case len(args) == 1:
		key = args[0]
	case os.Getenv("WANDERLENS_API_KEY") != "":
		key = os.Getenv("WANDERLENS_API_KEY")
	default:
		if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			return fail(errors.New("no API key given and stdin is not a terminal; pass the key as an argument or set WANDERLENS_API_KEY"))
		}
		input := huh.NewInput().
			Title("Cloud API key").
			Description("The key is checked against the provider and not stored.").
			EchoMode(huh.EchoModePassword).
			Value(&key)
		if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
			return fail(err)
		}
	}

	spinner := ux.NewSpinner("Validating credential")
	spinner.Start()
	result := svc.ValidateCloudCredential(cmd.Context(), key)
	spinner.Stop()

	if !result.Valid {
		ux.Error("Invalid credential: " + result.Error)
		return errors.New("credential validation failed")
	}
	ux.Success("Credential is valid")
	return nil
}
