// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package progress

import "sync"

// UnifiedMapper folds two sequential phases into one 0-100 value.
//
// # Description
//
// The software phase maps linearly onto [0,50) and the model phase onto
// [50,100]. Output is clamped and monotone non-decreasing for the life of
// the mapper: raw progress that would move the unified value backwards
// (a retried chunk, a phase boundary rounding artifact) is held at the
// previous value instead. Create a fresh mapper per EnsureReady
// invocation.
//
// # Thread Safety
//
// Safe for concurrent use.
type UnifiedMapper struct {
	mu   sync.Mutex
	last int
}

// NewUnifiedMapper creates a mapper starting at zero.
func NewUnifiedMapper() *UnifiedMapper {
	return &UnifiedMapper{}
}

// NewModelOnlyMapper creates a mapper for the model-only pull path,
// where unified progress starts at the phase boundary.
func NewModelOnlyMapper() *UnifiedMapper {
	return &UnifiedMapper{last: 50}
}

// Map converts a raw 0-100 phase progress into the unified scale.
func (m *UnifiedMapper) Map(phase Phase, raw int) int {
	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}

	var unified int
	switch phase {
	case PhaseSoftware:
		// Software caps at 49 so only the model phase can reach 50+.
		unified = raw / 2
		if unified > 49 {
			unified = 49
		}
	case PhaseModel:
		unified = 50 + raw/2
	default:
		unified = raw
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if unified < m.last {
		return m.last
	}
	m.last = unified
	return unified
}

// Complete forces the mapper to 100 and returns it.
func (m *UnifiedMapper) Complete() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = 100
	return 100
}

// Current returns the latest unified value without advancing it.
func (m *UnifiedMapper) Current() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
