// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package envsetup brings the Python runtime environment for the analysis
pipeline to a verified-ready state.

# Problem Statement

The NLP pipeline runs in a Python virtual environment with pinned
packages. Creating the venv and installing packages takes minutes, can be
interrupted at any point (process restart, network failure, user closing
the app), and a half-installed venv looks exactly like a finished one if
you only check for files on disk.

# Solution

An Installer state machine driven by explicit completion markers:

	checking -> ready          both markers set
	checking -> needInstall    nothing yet, or interrupted prior attempt
	needInstall -> settingUp   user confirmed
	settingUp -> ready         all steps verified, markers written
	settingUp -> error         any step failed (message retained)
	error -> checking          user retry re-enters the machine

The completion marker is written only after the installed packages were
verified importable, not merely downloaded. Progress streams through a
progress.Publisher; the caller runs Setup on its own goroutine and never
blocks on it.
*/
package envsetup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/wanderlens/WanderLensLocal/internal/process"
	"github.com/wanderlens/WanderLensLocal/internal/progress"
	"github.com/wanderlens/WanderLensLocal/internal/syscheck"
)

// ErrSetupInFlight is returned when Setup is invoked while a previous
// invocation is still running. Re-entry is rejected, not queued.
var ErrSetupInFlight = errors.New("environment setup already in progress")

// VenvDirName is the virtual environment directory under the data dir.
const VenvDirName = "venv"

// requiredDiskBytes is the pre-flight free-space floor for the venv plus
// packages (torch dominates).
const requiredDiskBytes = 6 * 1024 * 1024 * 1024

// DefaultPackages are the pinned pipeline dependencies.
var DefaultPackages = []string{
	"torch",
	"transformers",
	"sentence-transformers",
	"numpy",
}

// CheckResult is the environment status surface consumed by the setup flow.
type CheckResult struct {
	SetupComplete           bool `json:"setupComplete"`
	DependenciesInstalled   bool `json:"dependenciesInstalled"`
	EnvironmentExists       bool `json:"environmentExists"`
	InstallationInterrupted bool `json:"installationInterrupted"`
}

// Ready reports whether the environment is fully usable. Both completion
// flags must be set; a venv directory alone proves nothing.
func (r CheckResult) Ready() bool {
	return r.SetupComplete && r.DependenciesInstalled
}

// Config configures the environment installer.
type Config struct {
	// DataDir is the directory holding the venv and marker file.
	DataDir string

	// PythonBin is the interpreter used to create the venv.
	// Default: python3.
	PythonBin string

	// Packages overrides DefaultPackages when non-empty.
	Packages []string
}

// Installer drives the environment to a verified-ready state.
//
// # Thread Safety
//
// Safe for concurrent use; concurrent Setup calls are rejected with
// ErrSetupInFlight rather than run in parallel.
type Installer struct {
	cfg     Config
	runner  process.Runner
	store   *MarkerStore
	checker syscheck.Checker
	pub     *progress.Publisher[progress.EnvEvent]

	mu       sync.Mutex
	inFlight bool
}

// NewInstaller creates an environment installer.
//
// # Inputs
//
//   - cfg: directories and interpreter; zero fields get defaults
//   - runner: command execution (inject a mock in tests)
//   - checker: pre-flight checks (inject a mock in tests)
func NewInstaller(cfg Config, runner process.Runner, checker syscheck.Checker) *Installer {
	if cfg.PythonBin == "" {
		cfg.PythonBin = "python3"
	}
	if len(cfg.Packages) == 0 {
		cfg.Packages = DefaultPackages
	}
	return &Installer{
		cfg:     cfg,
		runner:  runner,
		store:   NewMarkerStore(cfg.DataDir),
		checker: checker,
		pub:     progress.NewPublisher[progress.EnvEvent](),
	}
}

// Progress exposes the event publisher for subscription.
func (i *Installer) Progress() *progress.Publisher[progress.EnvEvent] {
	return i.pub
}

// VenvDir returns the virtual environment path.
func (i *Installer) VenvDir() string {
	return filepath.Join(i.cfg.DataDir, VenvDirName)
}

// Check reads the on-disk markers and reports the environment status.
//
// # Description
//
// Emits a checking event, evaluates the marker snapshot, and emits the
// resulting ready/needInstall event. Never returns an error: an
// unreadable marker file reads as zero markers.
func (i *Installer) Check(_ context.Context) CheckResult {
	i.pub.Publish(progress.EnvEvent{State: progress.EnvChecking, Message: "Checking Python environment"})

	snap := i.snapshot()
	assessment := Evaluate(snap)

	// A ready environment reports full progress so late subscribers
	// replaying the last event see a finished bar, not a reset one.
	pct := 0
	if assessment.State == progress.EnvReady {
		pct = 100
	}
	i.pub.Publish(progress.EnvEvent{State: assessment.State, Progress: pct, Message: assessment.Message})

	return CheckResult{
		SetupComplete:           snap.SetupComplete,
		DependenciesInstalled:   snap.DependenciesInstalled,
		EnvironmentExists:       snap.EnvExists,
		InstallationInterrupted: assessment.Interrupted,
	}
}

// Setup installs the environment from scratch.
//
// # Description
//
// Runs the full installation: pre-flight checks, venv creation, pip
// install, import verification, marker writes. Progress is delivered via
// the publisher; the error return carries the same failure the EnvError
// event reports. A ready environment short-circuits without work.
//
// Concurrent invocation returns ErrSetupInFlight.
func (i *Installer) Setup(ctx context.Context) error {
	i.mu.Lock()
	if i.inFlight {
		i.mu.Unlock()
		return ErrSetupInFlight
	}
	i.inFlight = true
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.inFlight = false
		i.mu.Unlock()
	}()

	if Evaluate(i.snapshot()).State == progress.EnvReady {
		i.pub.Publish(progress.EnvEvent{
			State:    progress.EnvReady,
			Progress: 100,
			Message:  "Python environment is ready",
		})
		return nil
	}

	if err := i.run(ctx); err != nil {
		slog.Error("environment setup failed", "error", err)
		i.pub.Publish(progress.EnvEvent{
			State:   progress.EnvError,
			Message: err.Error(),
		})
		return err
	}

	i.pub.Publish(progress.EnvEvent{
		State:    progress.EnvReady,
		Progress: 100,
		Message:  "Python environment is ready",
	})
	return nil
}

// run executes the installation steps in order.
func (i *Installer) run(ctx context.Context) error {
	venv := i.VenvDir()

	i.step("preflight", 5, "Checking disk space")
	if err := i.checker.CheckDiskSpace(i.cfg.DataDir, requiredDiskBytes); err != nil {
		return err
	}

	if _, ok := i.lookupPython(); !ok {
		return fmt.Errorf("python interpreter %q not found; install Python 3.10 or newer", i.cfg.PythonBin)
	}

	// A stale partial venv is removed rather than repaired: pip cannot
	// reliably resume a half-written site-packages tree.
	if _, err := os.Stat(venv); err == nil {
		i.step("clean", 8, "Removing interrupted environment")
		if err := os.RemoveAll(venv); err != nil {
			return fmt.Errorf("failed to remove partial environment: %w", err)
		}
	}

	if err := i.store.MarkStarted(); err != nil {
		return err
	}

	i.step("venv", 10, "Creating virtual environment")
	if _, err := i.runner.Run(ctx, i.cfg.PythonBin, "-m", "venv", venv); err != nil {
		return fmt.Errorf("venv creation failed: %w", err)
	}

	py := i.venvPython()

	i.step("pip", 25, "Upgrading pip")
	if _, err := i.runner.Run(ctx, py, "-m", "pip", "install", "--upgrade", "pip"); err != nil {
		return fmt.Errorf("pip upgrade failed: %w", err)
	}

	// One pip invocation per package so progress moves between the
	// long torch download and the small ones.
	base, span := 30, 50
	for n, pkg := range i.cfg.Packages {
		pct := base + span*n/len(i.cfg.Packages)
		i.step("install", pct, fmt.Sprintf("Installing %s", pkg))
		if _, err := i.runner.Run(ctx, py, "-m", "pip", "install", pkg); err != nil {
			return fmt.Errorf("failed to install %s: %w", pkg, err)
		}
	}

	i.step("verify", 90, "Verifying installed packages")
	if err := i.verify(ctx, py); err != nil {
		return err
	}

	// Markers written only now, after verification. Order matters: the
	// dependency flag first, completion last.
	if err := i.store.MarkDependenciesInstalled(); err != nil {
		return err
	}
	if err := i.store.MarkComplete(); err != nil {
		return err
	}
	return nil
}

// verify imports every configured package inside the venv interpreter,
// proving the install is functional rather than merely downloaded.
func (i *Installer) verify(ctx context.Context, py string) error {
	imports := make([]string, len(i.cfg.Packages))
	for n, pkg := range i.cfg.Packages {
		// pip names use dashes where module names use underscores.
		imports[n] = strings.ReplaceAll(pkg, "-", "_")
	}
	script := "import " + strings.Join(imports, ", ")
	if _, err := i.runner.Run(ctx, py, "-c", script); err != nil {
		return fmt.Errorf("dependency verification failed: %w", err)
	}
	return nil
}

// snapshot reads markers and the venv directory into an evaluation input.
func (i *Installer) snapshot() Snapshot {
	_, statErr := os.Stat(i.VenvDir())
	return Snapshot{
		Markers:   i.store.Load(),
		EnvExists: statErr == nil,
	}
}

// lookupPython resolves the configured interpreter.
func (i *Installer) lookupPython() (string, bool) {
	return i.runner.LookPath(i.cfg.PythonBin, "/usr/local/bin", "/opt/homebrew/bin")
}

// venvPython returns the interpreter inside the venv.
func (i *Installer) venvPython() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(i.VenvDir(), "Scripts", "python.exe")
	}
	return filepath.Join(i.VenvDir(), "bin", "python")
}

// step publishes one settingUp progress event.
func (i *Installer) step(step string, pct int, msg string) {
	i.pub.Publish(progress.EnvEvent{
		State:    progress.EnvSettingUp,
		Step:     step,
		Progress: pct,
		Message:  msg,
	})
}
