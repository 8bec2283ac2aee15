// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package progress

import "sync"

// Publisher delivers events of type E to at most one subscriber.
//
// # Description
//
// The setup flow mounts one screen at a time, so each installer needs
// exactly one live listener. Subscribe replaces any previous callback;
// Unsubscribe must be called when the consuming screen unmounts or the
// handler leaks. Publish with no subscriber is a no-op, never a buffer.
//
// # Thread Safety
//
// Safe for concurrent use. The callback is invoked synchronously on the
// publishing goroutine; subscribers must not block.
type Publisher[E any] struct {
	mu sync.RWMutex
	cb func(E)

	// last retains the most recent event so a late subscriber can be
	// primed with current state.
	last    E
	hasLast bool
}

// NewPublisher creates an empty publisher.
func NewPublisher[E any]() *Publisher[E] {
	return &Publisher[E]{}
}

// Subscribe registers the callback, replacing any existing one.
// If an event was already published, the callback immediately receives
// the latest event so a remounted screen shows current state.
func (p *Publisher[E]) Subscribe(cb func(E)) {
	p.mu.Lock()
	p.cb = cb
	replay := p.hasLast
	last := p.last
	p.mu.Unlock()

	if cb != nil && replay {
		cb(last)
	}
}

// Unsubscribe removes the current callback.
func (p *Publisher[E]) Unsubscribe() {
	p.mu.Lock()
	p.cb = nil
	p.mu.Unlock()
}

// Publish delivers the event to the subscriber, if any.
func (p *Publisher[E]) Publish(event E) {
	p.mu.Lock()
	p.last = event
	p.hasLast = true
	cb := p.cb
	p.mu.Unlock()

	if cb != nil {
		cb(event)
	}
}

// Last returns the most recent event and whether one exists.
func (p *Publisher[E]) Last() (E, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.hasLast
}
