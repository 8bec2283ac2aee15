// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package progress

import (
	"sync"
	"testing"
)

// -----------------------------------------------------------------------------
// Publisher
// -----------------------------------------------------------------------------

// TestPublisher_PublishWithoutSubscriber verifies events are dropped
// silently when nobody listens.
func TestPublisher_PublishWithoutSubscriber(t *testing.T) {
	p := NewPublisher[EnvEvent]()
	p.Publish(EnvEvent{State: EnvChecking}) // must not panic

	last, ok := p.Last()
	if !ok {
		t.Fatal("Last() should report the published event")
	}
	if last.State != EnvChecking {
		t.Errorf("Last().State = %v, want EnvChecking", last.State)
	}
}

// TestPublisher_SubscribeReplaysLast verifies a late subscriber catches up.
func TestPublisher_SubscribeReplaysLast(t *testing.T) {
	p := NewPublisher[RuntimeEvent]()
	p.Publish(RuntimeEvent{Stage: StagePullingModel, Unified: 73})

	var got []RuntimeEvent
	p.Subscribe(func(e RuntimeEvent) { got = append(got, e) })

	if len(got) != 1 || got[0].Unified != 73 {
		t.Fatalf("subscriber received %v, want replay of unified=73", got)
	}
}

// TestPublisher_SingleSubscriber verifies a new subscriber replaces the old.
func TestPublisher_SingleSubscriber(t *testing.T) {
	p := NewPublisher[EnvEvent]()
	var first, second int
	p.Subscribe(func(EnvEvent) { first++ })
	p.Subscribe(func(EnvEvent) { second++ })

	first, second = 0, 0 // ignore replay deliveries
	p.Publish(EnvEvent{State: EnvSettingUp})

	if first != 0 {
		t.Errorf("replaced subscriber got %d events, want 0", first)
	}
	if second != 1 {
		t.Errorf("active subscriber got %d events, want 1", second)
	}
}

// TestPublisher_Unsubscribe verifies no delivery after unsubscribe.
func TestPublisher_Unsubscribe(t *testing.T) {
	p := NewPublisher[EnvEvent]()
	calls := 0
	p.Subscribe(func(EnvEvent) { calls++ })
	p.Unsubscribe()
	p.Publish(EnvEvent{State: EnvReady})

	if calls != 0 {
		t.Errorf("got %d deliveries after Unsubscribe, want 0", calls)
	}
}

// TestPublisher_ConcurrentPublish verifies thread safety under contention.
func TestPublisher_ConcurrentPublish(t *testing.T) {
	p := NewPublisher[EnvEvent]()
	var mu sync.Mutex
	count := 0
	p.Subscribe(func(EnvEvent) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Publish(EnvEvent{State: EnvSettingUp, Progress: j})
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count != 1000 {
		t.Errorf("delivered %d events, want 1000", count)
	}
}

// -----------------------------------------------------------------------------
// UnifiedMapper
// -----------------------------------------------------------------------------

// TestUnifiedMapper_PhaseRanges verifies the software half stays below 50
// and the model half covers [50,100].
func TestUnifiedMapper_PhaseRanges(t *testing.T) {
	tests := []struct {
		name  string
		phase Phase
		raw   int
		want  int
	}{
		{"software start", PhaseSoftware, 0, 0},
		{"software half", PhaseSoftware, 50, 25},
		{"software full caps at 49", PhaseSoftware, 100, 49},
		{"software over-range clamps", PhaseSoftware, 250, 49},
		{"model start", PhaseModel, 0, 50},
		{"model half", PhaseModel, 50, 75},
		{"model full", PhaseModel, 100, 100},
		{"negative raw clamps", PhaseSoftware, -10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewUnifiedMapper()
			if got := m.Map(tt.phase, tt.raw); got != tt.want {
				t.Errorf("Map(%v, %d) = %d, want %d", tt.phase, tt.raw, got, tt.want)
			}
		})
	}
}

// TestUnifiedMapper_Monotonic verifies the output never decreases, even
// across the phase boundary and on regressing raw input.
func TestUnifiedMapper_Monotonic(t *testing.T) {
	m := NewUnifiedMapper()
	inputs := []struct {
		phase Phase
		raw   int
	}{
		{PhaseSoftware, 0},
		{PhaseSoftware, 40},
		{PhaseSoftware, 30}, // raw regresses
		{PhaseSoftware, 100},
		{PhaseModel, 0}, // boundary
		{PhaseModel, 10},
		{PhaseModel, 5}, // raw regresses
		{PhaseModel, 100},
	}

	prev := -1
	for _, in := range inputs {
		got := m.Map(in.phase, in.raw)
		if got < prev {
			t.Fatalf("Map(%v, %d) = %d, below previous %d", in.phase, in.raw, got, prev)
		}
		prev = got
	}
	if prev != 100 {
		t.Errorf("final value = %d, want 100", prev)
	}
}

// TestNewModelOnlyMapper verifies the pull-only path starts at the boundary.
func TestNewModelOnlyMapper(t *testing.T) {
	m := NewModelOnlyMapper()
	if got := m.Current(); got != 50 {
		t.Errorf("Current() = %d, want 50", got)
	}
	if got := m.Map(PhaseModel, 0); got != 50 {
		t.Errorf("Map(model, 0) = %d, want 50", got)
	}
	if got := m.Map(PhaseModel, 100); got != 100 {
		t.Errorf("Map(model, 100) = %d, want 100", got)
	}
}

// TestUnifiedMapper_Complete verifies Complete forces 100.
func TestUnifiedMapper_Complete(t *testing.T) {
	m := NewUnifiedMapper()
	m.Map(PhaseSoftware, 20)
	if got := m.Complete(); got != 100 {
		t.Errorf("Complete() = %d, want 100", got)
	}
	if got := m.Current(); got != 100 {
		t.Errorf("Current() after Complete = %d, want 100", got)
	}
}

// -----------------------------------------------------------------------------
// Stage strings
// -----------------------------------------------------------------------------

// TestStage_String verifies the wire names the shell depends on.
func TestStage_String(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageIdle, "idle"},
		{StageDownloading, "downloading"},
		{StageInstalling, "installing"},
		{StageStarting, "starting"},
		{StagePullingModel, "pullingModel"},
		{StageComplete, "complete"},
		{StageError, "error"},
	}
	for _, tt := range tests {
		if got := tt.stage.String(); got != tt.want {
			t.Errorf("Stage(%d).String() = %q, want %q", tt.stage, got, tt.want)
		}
	}
}
