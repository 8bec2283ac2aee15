// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// SpinnerType defines the animation style
type SpinnerType int

const (
	SpinnerDots SpinnerType = iota
	SpinnerCompass
)

var spinnerFrames = map[SpinnerType][]string{
	SpinnerDots:    {"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	SpinnerCompass: {"◐", "◓", "◑", "◒"},
}

// Spinner provides an animated loading indicator for operations whose
// duration is unknown. For operations with a known percentage use
// ProgressBar instead.
//
// # Thread Safety
//
// Safe for concurrent use; Start, Stop, and SetMessage can be called
// from different goroutines.
type Spinner struct {
	mu         sync.Mutex
	message    string
	spinType   SpinnerType
	stop       chan struct{}
	done       chan struct{}
	isRunning  bool
	frameIndex int
}

// NewSpinner creates a spinner with the given message.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message:  message,
		spinType: SpinnerDots,
	}
}

// WithType sets the spinner animation type.
func (s *Spinner) WithType(t SpinnerType) *Spinner {
	s.spinType = t
	return s
}

// Start begins the animation. In plain mode the message is printed once
// instead, so piped output stays readable.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	if IsPlain() {
		fmt.Fprintf(os.Stderr, "%s...\n", s.message)
		return
	}
	s.isRunning = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.spin(s.stop, s.done)
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()
	<-done
}

// StopSuccess stops the spinner and prints a success line.
func (s *Spinner) StopSuccess(message string) {
	s.Stop()
	Success(message)
}

// StopFailure stops the spinner and prints an error line.
func (s *Spinner) StopFailure(message string) {
	s.Stop()
	Error(message)
}

// SetMessage updates the displayed message.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// IsRunning reports whether the spinner is animating.
func (s *Spinner) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Spinner) spin(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	frames := spinnerFrames[s.spinType]
	for {
		select {
		case <-stop:
			fmt.Fprint(os.Stderr, "\r\033[K")
			return
		case <-ticker.C:
			s.mu.Lock()
			frame := frames[s.frameIndex%len(frames)]
			msg := s.message
			s.frameIndex++
			s.mu.Unlock()
			fmt.Fprintf(os.Stderr, "\r\033[K%s %s", Styles.Highlight.Render(frame), msg)
		}
	}
}
