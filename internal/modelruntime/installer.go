// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package modelruntime installs and readies the local model runtime as a
// single idempotent operation.
//
// # Problem Statement
//
// Running analysis locally needs three things in place: the model server
// software installed, the server process running, and the chosen model
// pulled. Any of the three can be missing independently, and each has a
// very different cost (seconds to start a server, minutes to pull a
// multi-gigabyte model). Callers should not have to orchestrate that.
//
// # Solution
//
// Installer.EnsureReady takes a model name and does whatever subset of
// the work is outstanding, reporting a single unified 0-100 progress
// stream regardless of which path it took. Software work occupies the
// lower half of the scale and the model pull the upper half, so a run
// that only needs the pull starts at 50 rather than jumping around.
package modelruntime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wanderlens/WanderLensLocal/internal/progress"
	"github.com/wanderlens/WanderLensLocal/internal/syscheck"
)

// downloadProbeURL is the host both the installer script and model
// pulls come from, so it doubles as the reachability probe target.
const downloadProbeURL = "https://ollama.com"

// Status is the result of a runtime readiness check.
type Status struct {
	SoftwareInstalled bool `json:"softwareInstalled"`
	ServerRunning     bool `json:"serverRunning"`
	ModelPresent      bool `json:"modelPresent"`
}

// Ready reports whether every component is in place.
func (s Status) Ready() bool {
	return s.SoftwareInstalled && s.ServerRunning && s.ModelPresent
}

// inflight tracks an EnsureReady call in progress so concurrent callers
// for the same model can share its outcome.
type inflight struct {
	model string
	done  chan struct{}
	err   error
}

// Installer drives the runtime toward readiness.
//
// # Thread Safety
//
// Safe for concurrent use. Concurrent EnsureReady calls for the same
// model coalesce onto one run; a call for a different model while one is
// in flight fails fast with ErrInstallInFlight.
type Installer struct {
	software Software
	client   Client
	checker  syscheck.Checker
	pub      *progress.Publisher[progress.RuntimeEvent]

	mu      sync.Mutex
	current *inflight
}

// NewInstaller creates an Installer with production defaults. The
// checker gates download work on network reachability; an already-ready
// runtime is reported ready without it, so an offline host with the
// model in place still comes up.
func NewInstaller(software Software, client Client, checker syscheck.Checker) *Installer {
	return &Installer{
		software: software,
		client:   client,
		checker:  checker,
		pub:      progress.NewPublisher[progress.RuntimeEvent](),
	}
}

// Events exposes the runtime progress stream for subscription.
func (i *Installer) Events() *progress.Publisher[progress.RuntimeEvent] {
	return i.pub
}

// Check reports the current readiness of each runtime component
// without changing anything.
func (i *Installer) Check(ctx context.Context, model string) Status {
	var st Status
	_, st.SoftwareInstalled = i.software.IsInstalled()
	st.ServerRunning = i.client.Ping(ctx)
	if st.ServerRunning && model != "" {
		present, err := i.client.HasModel(ctx, model)
		if err != nil {
			slog.Warn("model presence check failed", "model", model, "error", err)
		}
		st.ModelPresent = present
	}
	return st
}

// HasModel reports whether the named model is available locally.
// When the server is not running the model cannot be served, so the
// answer is false regardless of what is on disk.
func (i *Installer) HasModel(ctx context.Context, model string) bool {
	if !i.client.Ping(ctx) {
		return false
	}
	present, err := i.client.HasModel(ctx, model)
	if err != nil {
		slog.Warn("model presence check failed", "model", model, "error", err)
		return false
	}
	return present
}

// EnsureReady makes the runtime fully ready to serve the given model,
// doing only the work that is outstanding.
//
// # Description
//
// Three shapes of run, all publishing the same unified progress stream:
//
//   - everything already in place: a single complete event at 100
//   - software ready, model missing: the pull alone, starting at 50
//   - software missing: install + start in [0,50), then the pull
//
// A failed or interrupted run leaves completed work behind (installed
// software, pulled layers), so calling again resumes rather than
// restarts.
//
// # Outputs
//
//   - error: nil on success; ErrInstallInFlight if a different model is
//     already being readied; a *ModelError otherwise
func (i *Installer) EnsureReady(ctx context.Context, model string) error {
	i.mu.Lock()
	if cur := i.current; cur != nil {
		i.mu.Unlock()
		if cur.model != model {
			return ErrInstallInFlight
		}
		select {
		case <-cur.done:
			return cur.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	call := &inflight{model: model, done: make(chan struct{})}
	i.current = call
	i.mu.Unlock()

	call.err = i.ensure(ctx, model)

	i.mu.Lock()
	i.current = nil
	i.mu.Unlock()
	close(call.done)
	return call.err
}

func (i *Installer) ensure(ctx context.Context, model string) error {
	st := i.Check(ctx, model)
	if st.Ready() {
		i.publish(progress.StageComplete, 100, "Runtime ready")
		return nil
	}

	// Everything past this point downloads something, so confirm the
	// host is online before starting work that will half-finish.
	if err := i.checker.CheckNetwork(ctx, downloadProbeURL); err != nil {
		return i.fail(fmt.Errorf("runtime install preflight: %w", err))
	}

	var mapper *progress.UnifiedMapper
	softwareReady := st.SoftwareInstalled && st.ServerRunning
	if softwareReady {
		mapper = progress.NewModelOnlyMapper()
	} else {
		mapper = progress.NewUnifiedMapper()
	}

	if !st.SoftwareInstalled {
		i.publishPhase(progress.StageDownloading, progress.PhaseSoftware, 0, mapper.Map(progress.PhaseSoftware, 0), "Installing model server")
		err := i.software.Install(ctx, func(pct int, msg string) {
			i.publishPhase(progress.StageInstalling, progress.PhaseSoftware, pct, mapper.Map(progress.PhaseSoftware, pct), msg)
		})
		if err != nil {
			return i.fail(err)
		}
	}

	if !st.ServerRunning {
		i.publishPhase(progress.StageStarting, progress.PhaseSoftware, 95, mapper.Map(progress.PhaseSoftware, 95), "Starting model server")
		if err := i.software.StartServer(ctx); err != nil {
			return i.fail(err)
		}
	}

	// Re-check presence now that the server answers; the earlier check
	// could not see models behind a stopped server.
	present, err := i.client.HasModel(ctx, model)
	if err != nil {
		return i.fail(err)
	}
	if !present {
		i.publishPhase(progress.StagePullingModel, progress.PhaseModel, 0, mapper.Map(progress.PhaseModel, 0), "Downloading model "+model)
		err := i.client.Pull(ctx, model, func(status string, completed, total int64) {
			raw := 0
			if total > 0 {
				raw = int(completed * 100 / total)
			}
			i.publishPhase(progress.StagePullingModel, progress.PhaseModel, raw, mapper.Map(progress.PhaseModel, raw), status)
		})
		if err != nil {
			return i.fail(err)
		}
	}

	i.publish(progress.StageComplete, mapper.Complete(), "Runtime ready")
	return nil
}

func (i *Installer) fail(err error) error {
	slog.Error("runtime installation failed", "error", err)
	msg := err.Error()
	var merr *ModelError
	if errors.As(err, &merr) {
		msg = merr.Message
	}
	unified := 0
	if last, ok := i.pub.Last(); ok {
		unified = last.Unified
	}
	i.pub.Publish(progress.RuntimeEvent{
		Stage:   progress.StageError,
		Unified: unified,
		Message: msg,
		Error:   err.Error(),
	})
	return err
}

func (i *Installer) publish(stage progress.Stage, unified int, msg string) {
	i.pub.Publish(progress.RuntimeEvent{Stage: stage, Unified: unified, Progress: unified, Message: msg})
}

// publishPhase emits a phase event carrying both the raw 0-100 progress
// within the phase and its unified mapping.
func (i *Installer) publishPhase(stage progress.Stage, phase progress.Phase, raw, unified int, msg string) {
	i.pub.Publish(progress.RuntimeEvent{Stage: stage, Phase: phase, Progress: raw, Unified: unified, Message: msg})
}
