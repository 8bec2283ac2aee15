// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package modelruntime

import (
	"context"
	"sync"
)

// MockClient is a test double for Client with injectable behavior.
type MockClient struct {
	mu        sync.Mutex
	PingFunc  func(ctx context.Context) bool
	HasFunc   func(ctx context.Context, model string) (bool, error)
	PullFunc  func(ctx context.Context, model string, onProgress PullProgressFunc) error
	PullCalls []string
}

func (m *MockClient) Ping(ctx context.Context) bool {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return true
}

func (m *MockClient) HasModel(ctx context.Context, model string) (bool, error) {
	if m.HasFunc != nil {
		return m.HasFunc(ctx, model)
	}
	return true, nil
}

func (m *MockClient) Pull(ctx context.Context, model string, onProgress PullProgressFunc) error {
	m.mu.Lock()
	m.PullCalls = append(m.PullCalls, model)
	m.mu.Unlock()
	if m.PullFunc != nil {
		return m.PullFunc(ctx, model, onProgress)
	}
	return nil
}

// PullCount returns how many pulls were issued.
func (m *MockClient) PullCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.PullCalls)
}

// MockSoftware is a test double for Software with injectable behavior.
type MockSoftware struct {
	mu            sync.Mutex
	InstalledFunc func() (string, bool)
	InstallFunc   func(ctx context.Context, onProgress func(pct int, msg string)) error
	StartFunc     func(ctx context.Context) error
	InstallCalls  int
	StartCalls    int
}

func (m *MockSoftware) IsInstalled() (string, bool) {
	if m.InstalledFunc != nil {
		return m.InstalledFunc()
	}
	return "/usr/local/bin/ollama", true
}

func (m *MockSoftware) Install(ctx context.Context, onProgress func(pct int, msg string)) error {
	m.mu.Lock()
	m.InstallCalls++
	m.mu.Unlock()
	if m.InstallFunc != nil {
		return m.InstallFunc(ctx, onProgress)
	}
	return nil
}

func (m *MockSoftware) StartServer(ctx context.Context) error {
	m.mu.Lock()
	m.StartCalls++
	m.mu.Unlock()
	if m.StartFunc != nil {
		return m.StartFunc(ctx)
	}
	return nil
}

// Compile-time interface checks
var (
	_ Client   = (*MockClient)(nil)
	_ Software = (*MockSoftware)(nil)
)
