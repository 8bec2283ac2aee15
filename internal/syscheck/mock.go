// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package syscheck

import "context"

// MockChecker is a test double for Checker. Unset functions pass.
type MockChecker struct {
	CheckNetworkFunc   func(ctx context.Context, url string) error
	CheckDiskSpaceFunc func(path string, requiredBytes int64) error
}

// NewMockChecker returns a MockChecker whose checks all pass until a
// func field is set.
func NewMockChecker() *MockChecker {
	return &MockChecker{}
}

func (m *MockChecker) CheckNetwork(ctx context.Context, url string) error {
	if m.CheckNetworkFunc != nil {
		return m.CheckNetworkFunc(ctx, url)
	}
	return nil
}

func (m *MockChecker) CheckDiskSpace(path string, requiredBytes int64) error {
	if m.CheckDiskSpaceFunc != nil {
		return m.CheckDiskSpaceFunc(path, requiredBytes)
	}
	return nil
}

// Compile-time interface check
var _ Checker = (*MockChecker)(nil)
