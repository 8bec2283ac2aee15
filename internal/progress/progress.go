// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package progress defines the staged-progress reporting contract shared by
the environment installer, the model-runtime installer, and the asset
manager.

# Problem Statement

Installation steps run for minutes and must stream progress to whatever
screen is currently mounted, without the installer knowing anything about
the UI. The runtime installer additionally spans two sequential
sub-operations (server software, then model weights) that the UI shows as
one bar: the unified value must never reset or move backwards when the
phase boundary is crossed.

# Solution

A small event vocabulary (Stage, Phase, typed event structs), a generic
single-subscriber Publisher with explicit subscribe/unsubscribe, and a
UnifiedMapper that folds the software phase into [0,50) and the model
phase into [50,100] with clamped, monotone output.
*/
package progress

// Stage identifies where a runtime installation currently is.
type Stage int

const (
	// StageIdle means no operation is in flight.
	StageIdle Stage = iota

	// StageDownloading means the server software is being fetched.
	StageDownloading

	// StageInstalling means the server software is being installed.
	StageInstalling

	// StageStarting means the server process is being launched.
	StageStarting

	// StagePullingModel means model weights are being pulled.
	StagePullingModel

	// StageComplete is the terminal success stage.
	StageComplete

	// StageError is the terminal failure stage. Error is non-empty.
	StageError
)

// String returns the stage as a camelCase identifier matching the wire
// contract with the setup screens.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageDownloading:
		return "downloading"
	case StageInstalling:
		return "installing"
	case StageStarting:
		return "starting"
	case StagePullingModel:
		return "pullingModel"
	case StageComplete:
		return "complete"
	case StageError:
		return "error"
	default:
		return "unknown"
	}
}

// Phase identifies which half of the combined runtime operation an event
// belongs to.
type Phase int

const (
	// PhaseNone is for events outside the two-phase combined operation.
	PhaseNone Phase = iota

	// PhaseSoftware covers server download, install, and start.
	PhaseSoftware

	// PhaseModel covers pulling model weights.
	PhaseModel
)

// String returns the phase as a lowercase identifier.
func (p Phase) String() string {
	switch p {
	case PhaseSoftware:
		return "software"
	case PhaseModel:
		return "model"
	default:
		return "none"
	}
}

// RuntimeEvent is one progress update from the model-runtime installer.
type RuntimeEvent struct {
	// Stage is the current installation stage.
	Stage Stage

	// Phase tags which half of the combined operation this belongs to;
	// PhaseNone outside the combined flow.
	Phase Phase

	// Progress is the raw 0-100 progress of the current phase.
	Progress int

	// Unified is the 0-100 progress across both phases. Monotone
	// non-decreasing within one EnsureReady invocation; 100 at
	// StageComplete.
	Unified int

	// Message is the human-readable status line.
	Message string

	// Error is non-empty only when Stage is StageError.
	Error string
}

// EnvState is the environment installer's state machine position.
type EnvState int

const (
	// EnvChecking means markers are being read.
	EnvChecking EnvState = iota

	// EnvReady is the terminal success state.
	EnvReady

	// EnvNeedInstall means installation (or re-installation) is required.
	// Re-entrant: reached again after an error and retry.
	EnvNeedInstall

	// EnvSettingUp means installation steps are running.
	EnvSettingUp

	// EnvError is the terminal failure state with a message.
	EnvError
)

// String returns the state as a camelCase identifier.
func (s EnvState) String() string {
	switch s {
	case EnvChecking:
		return "checking"
	case EnvReady:
		return "ready"
	case EnvNeedInstall:
		return "needInstall"
	case EnvSettingUp:
		return "settingUp"
	case EnvError:
		return "error"
	default:
		return "unknown"
	}
}

// EnvEvent is one progress update from the environment installer.
type EnvEvent struct {
	// State is the installer's current state.
	State EnvState

	// Step names the running installation step, empty outside settingUp.
	Step string

	// Progress is a coarse 0-100 across the installation steps.
	Progress int

	// Message is the human-readable status line; on EnvError it carries
	// the failure description.
	Message string
}

// AssetEvent is one progress update from the asset manager.
type AssetEvent struct {
	// Key is the asset being downloaded.
	Key string

	// Progress is the 0-100 progress for Key.
	Progress int

	// Aggregate is the arithmetic mean across all assets.
	Aggregate int

	// Done reports that the whole set is complete.
	Done bool
}
