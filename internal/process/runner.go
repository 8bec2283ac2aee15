// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package process abstracts external command execution for the provisioning
components.

# Problem Statement

Hardware probing and installer steps shell out to platform tools (sysctl,
nvidia-smi, python3, ollama). Calling os/exec directly from those components
makes them impossible to unit test without the real binaries present.

# Solution

A small Runner interface with a production implementation backed by os/exec
and a mock with injectable functions and a call recorder. Components accept
a Runner; tests inject MockRunner.
*/
package process

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Runner executes external commands.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Runner interface {
	// Run executes a command and waits for completion.
	// Returns stdout on success; stderr is folded into the error.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// Start launches a background process and returns its PID without
	// waiting for completion. Output is discarded.
	Start(ctx context.Context, name string, args ...string) (int, error)

	// LookPath reports whether an executable is resolvable, searching
	// PATH plus the given extra directories. Returns the resolved path.
	LookPath(name string, extraDirs ...string) (string, bool)
}

// DefaultRunner implements Runner using os/exec.
type DefaultRunner struct{}

// NewDefaultRunner creates the production Runner.
func NewDefaultRunner() *DefaultRunner {
	return &DefaultRunner{}
}

// Run executes a command synchronously and returns its stdout.
func (r *DefaultRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}

	return stdout.Bytes(), nil
}

// Start launches a process in the background and returns its PID.
//
// The context is not used to kill the started process; the spawned server
// must outlive the provisioning call that started it.
func (r *DefaultRunner) Start(_ context.Context, name string, args ...string) (int, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", name, err)
	}

	pid := cmd.Process.Pid

	// Reap the child when it exits so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()

	return pid, nil
}

// LookPath resolves an executable via PATH, then the extra directories.
func (r *DefaultRunner) LookPath(name string, extraDirs ...string) (string, bool) {
	if p, err := exec.LookPath(name); err == nil {
		return p, true
	}
	for _, dir := range extraDirs {
		candidate := strings.TrimSuffix(dir, "/") + "/" + name
		if p, err := exec.LookPath(candidate); err == nil {
			return p, true
		}
	}
	return "", false
}

// -----------------------------------------------------------------------------
// Mock for testing
// -----------------------------------------------------------------------------

// Call records one invocation on MockRunner.
type Call struct {
	Method string
	Name   string
	Args   []string
}

// MockRunner is a test double for Runner with injectable behavior.
//
// Unset functions return benign defaults: empty output, PID 1, executable
// found at its bare name.
type MockRunner struct {
	RunFunc      func(ctx context.Context, name string, args ...string) ([]byte, error)
	StartFunc    func(ctx context.Context, name string, args ...string) (int, error)
	LookPathFunc func(name string, extraDirs ...string) (string, bool)

	mu    sync.Mutex
	calls []Call
}

// NewMockRunner creates a mock with benign defaults.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

// Run invokes RunFunc or returns empty output.
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.record("Run", name, args)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args...)
	}
	return []byte{}, nil
}

// Start invokes StartFunc or returns PID 1.
func (m *MockRunner) Start(ctx context.Context, name string, args ...string) (int, error) {
	m.record("Start", name, args)
	if m.StartFunc != nil {
		return m.StartFunc(ctx, name, args...)
	}
	return 1, nil
}

// LookPath invokes LookPathFunc or reports the binary as present.
func (m *MockRunner) LookPath(name string, extraDirs ...string) (string, bool) {
	m.record("LookPath", name, extraDirs)
	if m.LookPathFunc != nil {
		return m.LookPathFunc(name, extraDirs...)
	}
	return name, true
}

// Calls returns a copy of the recorded invocations.
func (m *MockRunner) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (m *MockRunner) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *MockRunner) record(method, name string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: method, Name: name, Args: args})
}

// Compile-time interface checks
var _ Runner = (*DefaultRunner)(nil)
var _ Runner = (*MockRunner)(nil)
