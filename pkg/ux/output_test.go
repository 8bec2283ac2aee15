// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package ux contains unit tests for terminal output helpers.

# Testing Strategy

Tests force plain mode through SetPlain so assertions are stable strings
with no ANSI escapes, regardless of where the suite runs. The styled
branch of ProgressBar is only checked for pct clamping and fill counts.
*/
package ux

import (
	"strings"
	"testing"
)

func TestProgressBar_PlainMode(t *testing.T) {
	SetPlain(true)
	defer SetPlain(false)

	tests := []struct {
		pct  int
		want string
	}{
		{0, "0%"},
		{47, "47%"},
		{100, "100%"},
		{-5, "0%"},
		{250, "100%"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.pct, 20); got != tt.want {
			t.Errorf("ProgressBar(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestProgressBar_StyledFill(t *testing.T) {
	SetPlain(false)
	defer SetPlain(false)

	bar := ProgressBar(50, 20)
	if got := strings.Count(bar, "█"); got != 10 {
		t.Errorf("50%% over width 20 has %d filled cells, want 10", got)
	}
	if got := strings.Count(bar, "░"); got != 10 {
		t.Errorf("50%% over width 20 has %d empty cells, want 10", got)
	}
	if !strings.Contains(bar, " 50%") {
		t.Errorf("bar %q missing the numeric readout", bar)
	}
}

func TestIcon_RenderPlain(t *testing.T) {
	SetPlain(true)
	defer SetPlain(false)

	if got := IconSuccess.Render(); got != string(IconSuccess) {
		t.Errorf("plain render = %q, want bare icon", got)
	}
}

func TestRepeatChar(t *testing.T) {
	if got := repeatChar('█', 3); got != "███" {
		t.Errorf("repeatChar = %q", got)
	}
	if got := repeatChar('█', 0); got != "" {
		t.Errorf("repeatChar(0) = %q, want empty", got)
	}
	if got := repeatChar('█', -1); got != "" {
		t.Errorf("repeatChar(-1) = %q, want empty", got)
	}
}

func TestSpinner_PlainModeLifecycle(t *testing.T) {
	SetPlain(true)
	defer SetPlain(false)

	s := NewSpinner("working")
	s.Start()
	// Plain mode prints once instead of animating.
	if s.IsRunning() {
		t.Error("spinner animating in plain mode")
	}
	s.SetMessage("still working")

	// Stop without a running animation is a no-op.
	s.Stop()
	if s.IsRunning() {
		t.Error("spinner running after Stop")
	}
}
