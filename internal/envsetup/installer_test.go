// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package envsetup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/wanderlens/WanderLensLocal/internal/process"
	"github.com/wanderlens/WanderLensLocal/internal/progress"
	"github.com/wanderlens/WanderLensLocal/internal/syscheck"
)

func newTestInstaller(t *testing.T, runner *process.MockRunner) *Installer {
	t.Helper()
	return NewInstaller(Config{
		DataDir:  t.TempDir(),
		Packages: []string{"torch", "numpy"},
	}, runner, &syscheck.MockChecker{})
}

// TestInstaller_Check_Fresh verifies a clean data dir reports needInstall.
func TestInstaller_Check_Fresh(t *testing.T) {
	inst := newTestInstaller(t, process.NewMockRunner())
	result := inst.Check(context.Background())

	if result.SetupComplete || result.DependenciesInstalled || result.EnvironmentExists {
		t.Errorf("fresh Check = %+v, want all false", result)
	}
	if result.InstallationInterrupted {
		t.Error("fresh dir must not read as interrupted")
	}
}

// TestInstaller_Check_Interrupted verifies a venv dir without completion
// markers reads as an interrupted install.
func TestInstaller_Check_Interrupted(t *testing.T) {
	inst := newTestInstaller(t, process.NewMockRunner())
	if err := os.MkdirAll(inst.VenvDir(), 0o755); err != nil {
		t.Fatal(err)
	}

	result := inst.Check(context.Background())
	if !result.EnvironmentExists {
		t.Error("EnvironmentExists = false with venv dir present")
	}
	if !result.InstallationInterrupted {
		t.Error("venv without markers must read as interrupted")
	}
}

// TestInstaller_Setup_HappyPath verifies the full step sequence runs and
// the markers end in the ready state.
func TestInstaller_Setup_HappyPath(t *testing.T) {
	runner := process.NewMockRunner()
	inst := newTestInstaller(t, runner)

	var events []progress.EnvEvent
	var mu sync.Mutex
	inst.Progress().Subscribe(func(e progress.EnvEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	if err := inst.Setup(context.Background()); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	result := inst.Check(context.Background())
	if !result.SetupComplete || !result.DependenciesInstalled {
		t.Errorf("after Setup, Check = %+v, want complete", result)
	}

	// venv create + pip upgrade + 2 packages + verify
	if got := runner.CallCount("Run"); got != 5 {
		t.Errorf("Run called %d times, want 5", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) == 0 {
		t.Fatal("no progress events published")
	}
	final := events[len(events)-1]
	if final.State != progress.EnvReady || final.Progress != 100 {
		t.Errorf("final event = %+v, want ready at 100", final)
	}
	prev := -1
	for _, e := range events {
		if e.State != progress.EnvSettingUp {
			continue
		}
		if e.Progress < prev {
			t.Errorf("progress regressed: %d after %d", e.Progress, prev)
		}
		prev = e.Progress
	}
}

// TestInstaller_Check_ReadyPublishesFullProgress verifies that checking
// an installed environment replays a ready event at 100, so a late
// subscriber does not see the bar reset to zero.
func TestInstaller_Check_ReadyPublishesFullProgress(t *testing.T) {
	runner := process.NewMockRunner()
	inst := newTestInstaller(t, runner)
	if err := inst.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}

	var last progress.EnvEvent
	inst.Progress().Subscribe(func(e progress.EnvEvent) { last = e })

	if result := inst.Check(context.Background()); !result.Ready() {
		t.Fatalf("Check = %+v, want ready", result)
	}
	if last.State != progress.EnvReady || last.Progress != 100 {
		t.Errorf("last event = %+v, want ready at 100", last)
	}
}

// TestInstaller_Setup_ShortCircuitsWhenReady verifies no commands run on
// an already-installed environment.
func TestInstaller_Setup_ShortCircuitsWhenReady(t *testing.T) {
	runner := process.NewMockRunner()
	inst := newTestInstaller(t, runner)
	if err := inst.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := runner.CallCount("Run")

	if err := inst.Setup(context.Background()); err != nil {
		t.Fatalf("second Setup: %v", err)
	}
	if got := runner.CallCount("Run"); got != before {
		t.Errorf("second Setup executed %d extra commands, want 0", got-before)
	}
}

// TestInstaller_Setup_FailedInstallLeavesNeedInstall verifies a pip
// failure surfaces an error event and the markers stay incomplete.
func TestInstaller_Setup_FailedInstallLeavesNeedInstall(t *testing.T) {
	runner := process.NewMockRunner()
	runner.RunFunc = func(_ context.Context, name string, args ...string) ([]byte, error) {
		if len(args) > 0 && args[len(args)-1] == "numpy" {
			return nil, fmt.Errorf("exit status 1: no matching distribution")
		}
		return []byte{}, nil
	}
	inst := newTestInstaller(t, runner)

	var last progress.EnvEvent
	inst.Progress().Subscribe(func(e progress.EnvEvent) { last = e })

	err := inst.Setup(context.Background())
	if err == nil {
		t.Fatal("Setup should fail when a package install fails")
	}
	if !strings.Contains(err.Error(), "numpy") {
		t.Errorf("error %q does not name the failing package", err)
	}
	if last.State != progress.EnvError {
		t.Errorf("last event state = %v, want EnvError", last.State)
	}

	result := inst.Check(context.Background())
	if result.SetupComplete {
		t.Error("failed install must not mark setup complete")
	}
	if !result.InstallationInterrupted {
		t.Error("failed install should read as interrupted")
	}
}

// TestInstaller_Setup_RepairAfterFailure verifies a re-run after failure
// completes normally.
func TestInstaller_Setup_RepairAfterFailure(t *testing.T) {
	fail := true
	runner := process.NewMockRunner()
	runner.RunFunc = func(_ context.Context, name string, args ...string) ([]byte, error) {
		if fail && len(args) > 0 && args[len(args)-1] == "numpy" {
			return nil, errors.New("network unreachable")
		}
		return []byte{}, nil
	}
	inst := newTestInstaller(t, runner)

	if err := inst.Setup(context.Background()); err == nil {
		t.Fatal("first Setup should fail")
	}

	fail = false
	if err := inst.Setup(context.Background()); err != nil {
		t.Fatalf("repair Setup: %v", err)
	}
	if r := inst.Check(context.Background()); !r.SetupComplete {
		t.Errorf("after repair, Check = %+v, want complete", r)
	}
}

// TestInstaller_Setup_RejectsConcurrent verifies the in-flight guard.
func TestInstaller_Setup_RejectsConcurrent(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	runner := process.NewMockRunner()
	first := true
	var mu sync.Mutex
	runner.RunFunc = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		mu.Lock()
		blocking := first
		first = false
		mu.Unlock()
		if blocking {
			close(started)
			<-release
		}
		return []byte{}, nil
	}
	inst := newTestInstaller(t, runner)

	done := make(chan error, 1)
	go func() { done <- inst.Setup(context.Background()) }()
	<-started

	if err := inst.Setup(context.Background()); !errors.Is(err, ErrSetupInFlight) {
		t.Errorf("concurrent Setup = %v, want ErrSetupInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Setup: %v", err)
	}
}

// TestInstaller_Setup_DiskPreflightFailure verifies a failed disk check
// aborts before any command runs.
func TestInstaller_Setup_DiskPreflightFailure(t *testing.T) {
	runner := process.NewMockRunner()
	checker := &syscheck.MockChecker{
		CheckDiskSpaceFunc: func(string, int64) error {
			return &syscheck.CheckError{Type: syscheck.CheckErrorDiskSpaceLow, Message: "Insufficient disk space"}
		},
	}
	inst := NewInstaller(Config{DataDir: t.TempDir()}, runner, checker)

	if err := inst.Setup(context.Background()); err == nil {
		t.Fatal("Setup should fail the disk preflight")
	}
	if got := runner.CallCount("Run"); got != 0 {
		t.Errorf("%d commands ran despite failed preflight, want 0", got)
	}
}
