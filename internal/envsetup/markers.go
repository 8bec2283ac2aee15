// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package envsetup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wanderlens/WanderLensLocal/internal/progress"
)

// MarkersFileName is the marker file written next to the environment.
const MarkersFileName = "markers.json"

// Markers are the persisted completion flags for the Python environment.
//
// Completion is signaled only by these explicit flags, never by directory
// existence: a crash mid-install leaves a plausible-looking venv behind,
// and the flags are what tell "installed successfully" apart from
// "installed but interrupted" across process restarts.
type Markers struct {
	// SetupComplete is written last, only after dependency verification
	// succeeded. It is the sole proof of a successful install.
	SetupComplete bool `json:"setup_complete"`

	// DependenciesInstalled is written after pip install finished and
	// the imports were verified functional.
	DependenciesInstalled bool `json:"dependencies_installed"`

	// StartedAtMilli is stamped when an installation attempt begins.
	// Non-zero with SetupComplete false means a prior run was
	// interrupted.
	StartedAtMilli int64 `json:"started_at_milli,omitempty"`
}

// Snapshot is the marker triad plus the on-disk observation, the full
// input to the pure state evaluation.
type Snapshot struct {
	Markers

	// EnvExists reports whether the venv directory is present on disk.
	EnvExists bool
}

// Assessment is the outcome of evaluating a snapshot.
type Assessment struct {
	// State is ready or needInstall; Evaluate never yields the
	// transient states.
	State progress.EnvState

	// Interrupted reports that a prior attempt started but never
	// completed (distinct from "never installed").
	Interrupted bool

	// Message explains the assessment for display.
	Message string
}

// Evaluate maps a marker snapshot to an installation assessment.
//
// # Description
//
// Pure function over the triad {setupComplete, dependenciesInstalled,
// envExists}; no I/O, so the boundary cases are trivially testable:
//
//	complete + deps installed          -> ready
//	started but not complete           -> needInstall (interrupted)
//	env exists without complete marker -> needInstall (ambiguous partial,
//	                                      treated as interrupted)
//	nothing                            -> needInstall (fresh)
func Evaluate(s Snapshot) Assessment {
	if s.SetupComplete && s.DependenciesInstalled {
		return Assessment{
			State:   progress.EnvReady,
			Message: "Python environment is ready",
		}
	}

	if s.StartedAtMilli != 0 || s.EnvExists {
		return Assessment{
			State:       progress.EnvNeedInstall,
			Interrupted: true,
			Message:     "A previous installation did not finish; the environment must be reinstalled",
		}
	}

	return Assessment{
		State:   progress.EnvNeedInstall,
		Message: "Python environment is not installed yet",
	}
}

// -----------------------------------------------------------------------------
// Marker persistence
// -----------------------------------------------------------------------------

// MarkerStore reads and writes the marker file with atomic replacement.
//
// # Thread Safety
//
// Safe for concurrent use within one process. Cross-process writers are
// out of scope: one installation flow owns the environment directory.
type MarkerStore struct {
	path string
	mu   sync.Mutex
}

// NewMarkerStore creates a store for the marker file inside dir.
func NewMarkerStore(dir string) *MarkerStore {
	return &MarkerStore{path: filepath.Join(dir, MarkersFileName)}
}

// Load reads the markers. A missing file returns zero markers, not an
// error; corrupt files do too, so a damaged marker file reads as
// "interrupted" once the env directory exists.
func (s *MarkerStore) Load() Markers {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return Markers{}
	}
	var m Markers
	if err := json.Unmarshal(data, &m); err != nil {
		return Markers{}
	}
	return m
}

// MarkStarted records the beginning of an installation attempt, clearing
// any prior completion flags.
func (s *MarkerStore) MarkStarted() error {
	return s.write(Markers{StartedAtMilli: time.Now().UnixMilli()})
}

// MarkDependenciesInstalled flips the dependency flag, preserving the
// start stamp.
func (s *MarkerStore) MarkDependenciesInstalled() error {
	m := s.Load()
	m.DependenciesInstalled = true
	return s.write(m)
}

// MarkComplete records full successful completion.
func (s *MarkerStore) MarkComplete() error {
	m := s.Load()
	if !m.DependenciesInstalled {
		return errors.New("refusing to mark complete before dependencies are verified")
	}
	m.SetupComplete = true
	return s.write(m)
}

// Reset removes the marker file entirely.
func (s *MarkerStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// write atomically replaces the marker file via tmp + rename.
func (s *MarkerStore) write(m Markers) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create marker directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode markers: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write marker file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace marker file: %w", err)
	}
	return nil
}
