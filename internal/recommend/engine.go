// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package recommend maps a hardware profile to a supported execution mode.

# Problem Statement

Given the probed hardware, the setup flow must decide whether the machine
can run the analysis models locally and, if so, which model tier fits.
The decision must be deterministic and side-effect free so the UI can
recompute it whenever the user edits a hardware value.

# Decision Table

Evaluated top-down, first match wins. The 16/32 GB breakpoints are a
contract with the setup UI (its capability badges key off the same
boundaries) and must not drift.

	RAM >=32 GB, dedicated GPU with >=8 GB VRAM   -> local, high tier
	RAM >=24 GB, dedicated GPU with >=10 GB VRAM  -> local, upper-mid tier
	RAM >=16 GB, dedicated GPU with >=8 GB VRAM   -> local, mid tier
	RAM >=16 GB, no adequate GPU                  -> local, mid tier, GPU warning
	RAM >=12 GB, dedicated GPU with >=6 GB VRAM   -> local, light tier, marginal warning
	RAM >=12 GB, no adequate GPU                  -> local, light tier, marginal + GPU warnings
	RAM >=8 GB                                    -> cloud, low-RAM warning
	RAM <8 GB                                     -> cloud, insufficient-RAM warning

A low-tier CPU appends a slowness warning on every branch.
*/
package recommend

import (
	"fmt"

	"github.com/wanderlens/WanderLensLocal/internal/hardware"
)

// Provider selects where inference runs.
type Provider int

const (
	// ProviderLocal runs models on this machine.
	ProviderLocal Provider = iota

	// ProviderCloud delegates inference to a hosted API.
	ProviderCloud
)

// String returns the provider as a lowercase identifier.
func (p Provider) String() string {
	switch p {
	case ProviderLocal:
		return "local"
	case ProviderCloud:
		return "cloud"
	default:
		return "unknown"
	}
}

// Model ids per tier. These track the models the analysis pipeline is
// validated against; changing one requires re-running the evaluation suite.
const (
	ModelHighTier  = "gpt-oss:20b"
	ModelUpperMid  = "qwen3:14b"
	ModelMidTier   = "qwen3:8b"
	ModelLightTier = "gemma3:4b"
)

// Warning texts. The setup UI matches on prefixes, so keep them stable.
const (
	warnNoGPU        = "No dedicated GPU detected; local inference will run on CPU and be slower"
	warnMarginalRAM  = "RAM is marginal for local inference; expect reduced context and slower analysis"
	warnLowRAM       = "RAM too low for local models; cloud analysis recommended"
	warnInsufficient = "RAM insufficient for local analysis"
	warnSlowCPU      = "CPU is low powered; analysis throughput will be limited"
)

// Recommendation is the derived execution-mode advice for a profile.
//
// Never persisted; recomputed whenever the profile changes.
type Recommendation struct {
	// CanRunLocally reports whether local inference is viable at all.
	CanRunLocally bool

	// Provider is the preferred execution mode.
	Provider Provider

	// Model is the preferred local model id; empty for cloud.
	Model string

	// Rationale is a one-sentence human-readable explanation.
	Rationale string

	// Warnings lists advisory caveats, empty when none apply.
	Warnings []string
}

// Recommend maps a profile to a recommendation.
//
// # Description
//
// Pure and total: the same profile always yields the same output, and
// every profile yields some output. Fallback-status values are used as-is;
// they are conservative by construction.
func Recommend(profile *hardware.Profile) Recommendation {
	ram := profile.RAMGB.Value
	gpu := profile.GPU.Value
	dedicated := gpu.Type == hardware.GPUDedicated

	rec := evaluate(ram, dedicated, gpu.VRAMGB)

	if profile.CPU.Value.Tier == hardware.CPUTierLow {
		rec.Warnings = append(rec.Warnings, warnSlowCPU)
	}
	return rec
}

// evaluate walks the decision table. Kept free of hardware.Profile so the
// table tests can drive it with raw numbers.
func evaluate(ramGB int, dedicated bool, vramGB int) Recommendation {
	switch {
	case ramGB >= 32 && dedicated && vramGB >= 8:
		return Recommendation{
			CanRunLocally: true,
			Provider:      ProviderLocal,
			Model:         ModelHighTier,
			Rationale:     fmt.Sprintf("%d GB RAM and a dedicated GPU with %d GB VRAM support the high-tier local model", ramGB, vramGB),
			Warnings:      []string{},
		}
	case ramGB >= 24 && dedicated && vramGB >= 10:
		return Recommendation{
			CanRunLocally: true,
			Provider:      ProviderLocal,
			Model:         ModelUpperMid,
			Rationale:     fmt.Sprintf("%d GB RAM and %d GB VRAM support the upper-mid local model", ramGB, vramGB),
			Warnings:      []string{},
		}
	case ramGB >= 16 && dedicated && vramGB >= 8:
		return Recommendation{
			CanRunLocally: true,
			Provider:      ProviderLocal,
			Model:         ModelMidTier,
			Rationale:     fmt.Sprintf("%d GB RAM and %d GB VRAM support the mid local model", ramGB, vramGB),
			Warnings:      []string{},
		}
	case ramGB >= 16:
		return Recommendation{
			CanRunLocally: true,
			Provider:      ProviderLocal,
			Model:         ModelMidTier,
			Rationale:     fmt.Sprintf("%d GB RAM supports the mid local model on CPU", ramGB),
			Warnings:      []string{warnNoGPU},
		}
	case ramGB >= 12 && dedicated && vramGB >= 6:
		return Recommendation{
			CanRunLocally: true,
			Provider:      ProviderLocal,
			Model:         ModelLightTier,
			Rationale:     fmt.Sprintf("%d GB RAM is marginal; the light model fits with %d GB VRAM", ramGB, vramGB),
			Warnings:      []string{warnMarginalRAM},
		}
	case ramGB >= 12:
		return Recommendation{
			CanRunLocally: true,
			Provider:      ProviderLocal,
			Model:         ModelLightTier,
			Rationale:     fmt.Sprintf("%d GB RAM is marginal; the light model will run on CPU", ramGB),
			Warnings:      []string{warnMarginalRAM, warnNoGPU},
		}
	case ramGB >= 8:
		return Recommendation{
			CanRunLocally: false,
			Provider:      ProviderCloud,
			Rationale:     fmt.Sprintf("%d GB RAM is below the local minimum; cloud analysis keeps the machine responsive", ramGB),
			Warnings:      []string{warnLowRAM},
		}
	default:
		return Recommendation{
			CanRunLocally: false,
			Provider:      ProviderCloud,
			Rationale:     fmt.Sprintf("%d GB RAM cannot host local models", ramGB),
			Warnings:      []string{warnInsufficient},
		}
	}
}
