// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package modelruntime

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/wanderlens/WanderLensLocal/internal/process"
)

// extraSearchDirs are locations checked after PATH when looking for the
// server binary. Homebrew and the official installer drop it in places
// a GUI-launched process may not have on PATH.
var extraSearchDirs = map[string][]string{
	"darwin": {
		"/usr/local/bin",
		"/opt/homebrew/bin",
		"/Applications/Ollama.app/Contents/Resources",
	},
	"linux": {
		"/usr/local/bin",
		"/usr/bin",
	},
}

// Software manages the model server binary itself: detection,
// installation, and process startup.
type Software interface {
	// IsInstalled reports whether the server binary can be found,
	// searching PATH plus well-known install locations.
	IsInstalled() (path string, ok bool)

	// Install downloads and installs the server software.
	// onProgress receives coarse 0-100 values for the install phase.
	Install(ctx context.Context, onProgress func(pct int, msg string)) error

	// StartServer launches the server in the background and waits
	// until it answers, or the context expires.
	StartServer(ctx context.Context) error
}

// DefaultSoftware implements Software for the Ollama server.
type DefaultSoftware struct {
	runner process.Runner
	client Client
	goos   string
}

// NewDefaultSoftware creates a Software manager with production defaults.
func NewDefaultSoftware(runner process.Runner, client Client) *DefaultSoftware {
	return &DefaultSoftware{runner: runner, client: client, goos: runtime.GOOS}
}

// NewDefaultSoftwareWithDeps creates a Software manager with an explicit
// platform, for tests.
func NewDefaultSoftwareWithDeps(runner process.Runner, client Client, goos string) *DefaultSoftware {
	return &DefaultSoftware{runner: runner, client: client, goos: goos}
}

const serverBinary = "ollama"

// IsInstalled searches PATH and the platform's known install locations.
func (s *DefaultSoftware) IsInstalled() (string, bool) {
	return s.runner.LookPath(serverBinary, extraSearchDirs[s.goos]...)
}

// Install runs the platform install path for the server software.
//
// # Limitations
//
// On darwin it shells out to Homebrew; on linux it runs the official
// install script. Windows users are pointed at the installer download
// since silent installation requires elevation we cannot assume.
func (s *DefaultSoftware) Install(ctx context.Context, onProgress func(pct int, msg string)) error {
	report := func(pct int, msg string) {
		if onProgress != nil {
			onProgress(pct, msg)
		}
	}

	report(5, "Preparing server installation")

	var out []byte
	var err error
	switch s.goos {
	case "darwin":
		if _, ok := s.runner.LookPath("brew"); !ok {
			return &ModelError{
				Type:        ModelErrorInstallFailed,
				Message:     "Homebrew is required to install the model server",
				Remediation: "Install Homebrew from https://brew.sh, or download Ollama from https://ollama.com/download",
			}
		}
		report(15, "Installing model server via Homebrew")
		out, err = s.runner.Run(ctx, "brew", "install", serverBinary)
	case "linux":
		report(15, "Running model server install script")
		out, err = s.runner.Run(ctx, "sh", "-c", "curl -fsSL https://ollama.com/install.sh | sh")
	default:
		return &ModelError{
			Type:        ModelErrorInstallFailed,
			Message:     fmt.Sprintf("Automatic installation is not supported on %s", s.goos),
			Remediation: "Download the installer from https://ollama.com/download and run it manually",
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return &ModelError{
				Type:    ModelErrorContextCancelled,
				Message: "Server installation cancelled",
				Detail:  ctx.Err().Error(),
			}
		}
		return &ModelError{
			Type:        ModelErrorInstallFailed,
			Message:     "Model server installation failed",
			Detail:      err.Error(),
			Remediation: "Check network connectivity and retry",
		}
	}
	slog.Debug("server install output", "bytes", len(out))
	report(90, "Model server installed")
	return nil
}

// StartServer launches the server process and polls until it answers.
func (s *DefaultSoftware) StartServer(ctx context.Context) error {
	if s.client.Ping(ctx) {
		return nil
	}

	path, ok := s.IsInstalled()
	if !ok {
		return &ModelError{
			Type:        ModelErrorInstallFailed,
			Message:     "Model server binary not found",
			Remediation: "Install the model server first",
		}
	}

	pid, err := s.runner.Start(ctx, path, "serve")
	if err != nil {
		return &ModelError{
			Type:        ModelErrorConnectionFailed,
			Message:     "Failed to start the model server",
			Detail:      err.Error(),
			Remediation: "Try starting it manually with 'ollama serve'",
		}
	}
	slog.Info("started model server", "pid", pid)

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return &ModelError{
				Type:    ModelErrorContextCancelled,
				Message: "Server startup cancelled",
				Detail:  ctx.Err().Error(),
			}
		case <-time.After(500 * time.Millisecond):
		}
		if s.client.Ping(ctx) {
			return nil
		}
	}
	return &ModelError{
		Type:        ModelErrorConnectionFailed,
		Message:     "Model server did not become ready within 30s",
		Remediation: "Check server logs; another process may be holding the port",
	}
}

// Compile-time interface check
var _ Software = (*DefaultSoftware)(nil)
