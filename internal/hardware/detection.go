// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package hardware

// Status tags how a hardware value was obtained.
//
// Every probed signal carries one of these so downstream consumers can
// distinguish a confidently read value from a heuristic default or a
// user-entered override.
type Status int

const (
	// StatusAuto means the value was read directly from the host.
	StatusAuto Status = iota

	// StatusFallback means the signal could not be read and a conservative
	// heuristic default was substituted.
	StatusFallback

	// StatusManual means the user explicitly entered the value. Manual
	// values override probed values for the remainder of the session.
	StatusManual

	// StatusFailed means the signal could not even be estimated; the
	// retained value is the prior or zero default and must not be trusted.
	StatusFailed
)

// String returns the status as a lowercase identifier.
func (s Status) String() string {
	switch s {
	case StatusAuto:
		return "auto"
	case StatusFallback:
		return "fallback"
	case StatusManual:
		return "manual"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Detection pairs a probed value with its confidence status and provenance.
type Detection[T any] struct {
	// Value is the detected (or substituted) value.
	Value T

	// Status tags how Value was obtained.
	Status Status

	// Source is a free-text provenance string, e.g. "/proc/meminfo" or
	// "nvidia-smi", for diagnostics output.
	Source string
}

// Auto wraps a confidently probed value.
func Auto[T any](value T, source string) Detection[T] {
	return Detection[T]{Value: value, Status: StatusAuto, Source: source}
}

// Fallback wraps a heuristic default used when probing failed.
func Fallback[T any](value T, source string) Detection[T] {
	return Detection[T]{Value: value, Status: StatusFallback, Source: source}
}

// Manual wraps a user-entered override.
func Manual[T any](value T) Detection[T] {
	return Detection[T]{Value: value, Status: StatusManual, Source: "user override"}
}

// Failed marks a signal as unobtainable while retaining the prior value.
func Failed[T any](prior T, source string) Detection[T] {
	return Detection[T]{Value: prior, Status: StatusFailed, Source: source}
}

// Trusted reports whether the value is usable for recommendations.
// Failed signals are not; everything else is.
func (d Detection[T]) Trusted() bool {
	return d.Status != StatusFailed
}
