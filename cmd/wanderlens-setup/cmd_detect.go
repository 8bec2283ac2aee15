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
	"strings"

	"github.com/spf13/cobra"

	"github.com/wanderlens/WanderLensLocal/internal/hardware"
	"github.com/wanderlens/WanderLensLocal/internal/setup"
	"github.com/wanderlens/WanderLensLocal/pkg/ux"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	detectJSONOutput bool
	detectSetRAM     int    // manual RAM override in GB (0 = unset)
	detectSetVRAM    int    // manual VRAM override in GB (-1 = unset)
	detectSetGPU     string // manual GPU type override
	detectSetCPU     string // manual CPU name override
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// detectCmd probes the hardware and prints the analysis recommendation.
//
// # Examples
//
//	wanderlens-setup detect                 # Probe and recommend
//	wanderlens-setup detect --json          # JSON for the desktop shell
//	wanderlens-setup detect --set-ram 32    # Correct a bad RAM reading
//
// # Limitations
//
//   - VRAM detection on linux requires nvidia-smi; other GPUs fall back
//     to a conservative estimate the user can override
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect hardware and recommend an analysis configuration",
	Long: `Probes CPU, memory, and GPU, then recommends whether this machine
should run analysis locally and which model tier fits.

Detected values can be wrong on unusual hardware. Use the --set-* flags
to correct individual readings; corrections are persisted and reapplied
on every later run.`,
	RunE: runDetectCommand,
}

func init() {
	detectCmd.Flags().BoolVar(&detectJSONOutput, "json", false,
		"Output as JSON for scripting")
	detectCmd.Flags().IntVar(&detectSetRAM, "set-ram", 0,
		"Override detected RAM in GB (persisted)")
	detectCmd.Flags().IntVar(&detectSetVRAM, "set-vram", -1,
		"Override detected VRAM in GB (persisted)")
	detectCmd.Flags().StringVar(&detectSetGPU, "set-gpu", "",
		"Override GPU type: none, integrated, or dedicated (persisted)")
	detectCmd.Flags().StringVar(&detectSetCPU, "set-cpu", "",
		"Override CPU name (persisted)")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runDetectCommand(cmd *cobra.Command, args []string) error {
	svc, err := mustService()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var report setup.HardwareReport
	if o, changed := overridesFromFlags(); changed {
		report, err = svc.SaveHardwareOverrides(ctx, o)
		if err != nil {
			return fail(err)
		}
	} else {
		report = svc.DetectHardware(ctx)
	}

	if detectJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printHardwareReport(report)
	return nil
}

// overridesFromFlags converts the --set-* flags into an override set.
func overridesFromFlags() (hardware.Overrides, bool) {
	var o hardware.Overrides
	changed := false
	if detectSetRAM > 0 {
		o.RAMGB = &detectSetRAM
		changed = true
	}
	if detectSetVRAM >= 0 {
		o.VRAMGB = &detectSetVRAM
		changed = true
	}
	if detectSetGPU != "" {
		o.GPUType = &detectSetGPU
		changed = true
	}
	if detectSetCPU != "" {
		o.CPUName = &detectSetCPU
		changed = true
	}
	return o, changed
}

func printHardwareReport(report setup.HardwareReport) {
	p := report.Profile
	r := report.Recommendation

	ux.Title("Hardware")
	ux.KeyValue("CPU", fmt.Sprintf("%s (%s, %s)", p.CPU.Value.Name, p.CPU.Value.Tier, p.CPU.Status))
	ux.KeyValue("RAM", fmt.Sprintf("%d GB (%s)", p.RAMGB.Value, p.RAMGB.Status))
	gpu := p.GPU.Value.Type.String()
	if p.GPU.Value.Name != "" {
		gpu = fmt.Sprintf("%s (%s)", p.GPU.Value.Name, p.GPU.Value.Type)
	}
	if p.GPU.Value.VRAMGB > 0 {
		gpu += fmt.Sprintf(", %d GB VRAM", p.GPU.Value.VRAMGB)
	}
	ux.KeyValue("GPU", fmt.Sprintf("%s (%s)", gpu, p.GPU.Status))

	fmt.Println()
	ux.Title("Recommendation")
	if r.CanRunLocally {
		ux.Success(fmt.Sprintf("Local analysis with %s", r.Model))
	} else {
		ux.Warning("Cloud analysis recommended")
	}
	ux.Muted("  " + r.Rationale)
	for _, w := range r.Warnings {
		ux.Warning(w)
	}

	if untrusted := untrustedSignals(p); len(untrusted) > 0 {
		fmt.Println()
		ux.Info("Low-confidence readings: " + strings.Join(untrusted, ", "))
		ux.Muted("  Correct them with --set-ram, --set-vram, --set-gpu, or --set-cpu.")
	}
}

// untrustedSignals lists the profile fields that came from fallbacks
// rather than real probes.
func untrustedSignals(p *hardware.Profile) []string {
	var out []string
	if !p.CPU.Trusted() {
		out = append(out, "cpu")
	}
	if !p.RAMGB.Trusted() {
		out = append(out, "ram")
	}
	if !p.GPU.Trusted() {
		out = append(out, "gpu")
	}
	return out
}
