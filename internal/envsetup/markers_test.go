// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package envsetup contains unit tests for marker evaluation and persistence.

# Testing Strategy

Evaluate is pure, so the state-machine boundary cases are plain table
tests. MarkerStore tests use t.TempDir for real file I/O including the
corrupt-file and missing-file paths.
*/
package envsetup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wanderlens/WanderLensLocal/internal/progress"
)

// TestEvaluate_Triad covers the marker/existence combinations that decide
// environment state.
func TestEvaluate_Triad(t *testing.T) {
	tests := []struct {
		name            string
		snap            Snapshot
		wantState       progress.EnvState
		wantInterrupted bool
	}{
		{
			name: "both flags set means ready",
			snap: Snapshot{
				Markers: Markers{SetupComplete: true, DependenciesInstalled: true, StartedAtMilli: 1700000000000},
			},
			wantState: progress.EnvReady,
		},
		{
			name: "ready even if venv dir was never statted",
			snap: Snapshot{
				Markers: Markers{SetupComplete: true, DependenciesInstalled: true},
			},
			wantState: progress.EnvReady,
		},
		{
			name: "deps installed without completion is interrupted",
			snap: Snapshot{
				Markers:   Markers{DependenciesInstalled: true, StartedAtMilli: 1700000000000},
				EnvExists: true,
			},
			wantState:       progress.EnvNeedInstall,
			wantInterrupted: true,
		},
		{
			name: "started but nothing else is interrupted",
			snap: Snapshot{
				Markers: Markers{StartedAtMilli: 1700000000000},
			},
			wantState:       progress.EnvNeedInstall,
			wantInterrupted: true,
		},
		{
			name:            "venv exists with zero markers is interrupted",
			snap:            Snapshot{EnvExists: true},
			wantState:       progress.EnvNeedInstall,
			wantInterrupted: true,
		},
		{
			name:      "nothing at all is a fresh install",
			snap:      Snapshot{},
			wantState: progress.EnvNeedInstall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.snap)
			if got.State != tt.wantState {
				t.Errorf("State = %v, want %v", got.State, tt.wantState)
			}
			if got.Interrupted != tt.wantInterrupted {
				t.Errorf("Interrupted = %v, want %v", got.Interrupted, tt.wantInterrupted)
			}
			if got.Message == "" {
				t.Error("Message is empty")
			}
		})
	}
}

// TestMarkerStore_LoadMissing verifies a missing file reads as zero markers.
func TestMarkerStore_LoadMissing(t *testing.T) {
	store := NewMarkerStore(t.TempDir())
	m := store.Load()
	if m.SetupComplete || m.DependenciesInstalled || m.StartedAtMilli != 0 {
		t.Errorf("Load() on missing file = %+v, want zero markers", m)
	}
}

// TestMarkerStore_LoadCorrupt verifies garbage reads as zero markers
// rather than failing, so a damaged file just triggers reinstall.
func TestMarkerStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, MarkersFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewMarkerStore(dir)
	m := store.Load()
	if m.SetupComplete || m.DependenciesInstalled {
		t.Errorf("Load() on corrupt file = %+v, want zero markers", m)
	}
}

// TestMarkerStore_Lifecycle walks the full install marker sequence.
func TestMarkerStore_Lifecycle(t *testing.T) {
	store := NewMarkerStore(t.TempDir())

	if err := store.MarkStarted(); err != nil {
		t.Fatalf("MarkStarted: %v", err)
	}
	m := store.Load()
	if m.StartedAtMilli == 0 {
		t.Error("MarkStarted did not stamp a start time")
	}
	if m.SetupComplete || m.DependenciesInstalled {
		t.Error("MarkStarted must clear the completion flags")
	}

	if err := store.MarkDependenciesInstalled(); err != nil {
		t.Fatalf("MarkDependenciesInstalled: %v", err)
	}
	if err := store.MarkComplete(); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}

	m = store.Load()
	if !m.SetupComplete || !m.DependenciesInstalled {
		t.Errorf("after full lifecycle markers = %+v, want both flags set", m)
	}
	if Evaluate(Snapshot{Markers: m, EnvExists: true}).State != progress.EnvReady {
		t.Error("full lifecycle should evaluate as ready")
	}
}

// TestMarkerStore_CompleteRequiresDeps verifies ordering is enforced.
func TestMarkerStore_CompleteRequiresDeps(t *testing.T) {
	store := NewMarkerStore(t.TempDir())
	if err := store.MarkStarted(); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkComplete(); err == nil {
		t.Error("MarkComplete before MarkDependenciesInstalled should fail")
	}
}

// TestMarkerStore_RestartClearsFlags verifies a re-run resets completion
// state so a crash mid-reinstall cannot read as ready.
func TestMarkerStore_RestartClearsFlags(t *testing.T) {
	store := NewMarkerStore(t.TempDir())
	if err := store.MarkStarted(); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkDependenciesInstalled(); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkComplete(); err != nil {
		t.Fatal(err)
	}

	if err := store.MarkStarted(); err != nil {
		t.Fatal(err)
	}
	m := store.Load()
	if m.SetupComplete || m.DependenciesInstalled {
		t.Errorf("markers after restart = %+v, want flags cleared", m)
	}
}

// TestMarkerStore_Reset verifies Reset removes the file entirely.
func TestMarkerStore_Reset(t *testing.T) {
	dir := t.TempDir()
	store := NewMarkerStore(dir)
	if err := store.MarkStarted(); err != nil {
		t.Fatal(err)
	}
	if err := store.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, MarkersFileName)); !os.IsNotExist(err) {
		t.Error("marker file still exists after Reset")
	}
}
