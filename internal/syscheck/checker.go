// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package syscheck provides pre-flight checks run before any download or
install step.

# Problem Statement

Installer failures deep inside a download produce cryptic errors: a hung
pull when there is no network, a half-written file when the disk fills up.
Checking up front turns those into clear, typed errors with remediation
text before any bytes move.

# Error Types

	CheckErrorNetworkUnavailable - cannot reach the download host
	CheckErrorNetworkTimeout     - connectivity probe timed out
	CheckErrorDiskSpaceLow       - insufficient free space
	CheckErrorPermissionDenied   - target path not writable
*/
package syscheck

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// CheckErrorType categorizes pre-flight failures for programmatic handling.
type CheckErrorType int

const (
	// CheckErrorNetworkUnavailable indicates no connectivity to the host.
	CheckErrorNetworkUnavailable CheckErrorType = iota

	// CheckErrorNetworkTimeout indicates the connectivity probe timed out.
	CheckErrorNetworkTimeout

	// CheckErrorDiskSpaceLow indicates insufficient free disk space.
	CheckErrorDiskSpaceLow

	// CheckErrorPermissionDenied indicates the target path is not writable.
	CheckErrorPermissionDenied
)

// String returns the error type as an uppercase token for logging.
func (t CheckErrorType) String() string {
	switch t {
	case CheckErrorNetworkUnavailable:
		return "NETWORK_UNAVAILABLE"
	case CheckErrorNetworkTimeout:
		return "NETWORK_TIMEOUT"
	case CheckErrorDiskSpaceLow:
		return "DISK_SPACE_LOW"
	case CheckErrorPermissionDenied:
		return "PERMISSION_DENIED"
	default:
		return "UNKNOWN"
	}
}

// CheckError is a structured pre-flight failure.
type CheckError struct {
	// Type categorizes the failure.
	Type CheckErrorType

	// Message is the human-readable description.
	Message string

	// Detail carries technical information for debugging.
	Detail string

	// Remediation suggests how to fix the issue.
	Remediation string
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	return e.Message
}

// FullError returns the message with detail and remediation appended.
func (e *CheckError) FullError() string {
	var buf bytes.Buffer
	buf.WriteString(e.Message)
	if e.Detail != "" {
		buf.WriteString("\n\nDetails: ")
		buf.WriteString(e.Detail)
	}
	if e.Remediation != "" {
		buf.WriteString("\n\nTo fix:\n")
		buf.WriteString(e.Remediation)
	}
	return buf.String()
}

// Checker runs pre-flight system checks.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Checker interface {
	// CheckNetwork verifies the given URL answers an HTTP HEAD within
	// the timeout. Returns a CheckError on failure.
	CheckNetwork(ctx context.Context, url string) error

	// CheckDiskSpace verifies the filesystem holding path has at least
	// requiredBytes free. Returns a CheckError on failure.
	CheckDiskSpace(path string, requiredBytes int64) error
}

// DefaultChecker implements Checker against the real host.
type DefaultChecker struct {
	httpClient *http.Client

	// freeBytes is overridable for tests; defaults to the platform
	// statfs implementation.
	freeBytes func(path string) (int64, error)
}

// NewDefaultChecker creates a checker with a short-timeout HTTP client.
func NewDefaultChecker() *DefaultChecker {
	return &DefaultChecker{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		freeBytes:  diskFreeBytes,
	}
}

// CheckNetwork probes the URL with an HTTP HEAD request.
//
// Any HTTP status counts as reachable; only transport failures and
// timeouts report an error.
func (c *DefaultChecker) CheckNetwork(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return &CheckError{
			Type:    CheckErrorNetworkUnavailable,
			Message: "Failed to build connectivity probe",
			Detail:  err.Error(),
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return &CheckError{
				Type:        CheckErrorNetworkTimeout,
				Message:     "Network check timed out",
				Detail:      err.Error(),
				Remediation: "Check your internet connection and retry",
			}
		}
		return &CheckError{
			Type:        CheckErrorNetworkUnavailable,
			Message:     fmt.Sprintf("Cannot reach %s", url),
			Detail:      err.Error(),
			Remediation: "Check your internet connection, proxy, and firewall settings",
		}
	}
	_ = resp.Body.Close()
	return nil
}

// CheckDiskSpace verifies free space at path, creating the directory if
// it does not exist yet.
func (c *DefaultChecker) CheckDiskSpace(path string, requiredBytes int64) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return &CheckError{
			Type:        CheckErrorPermissionDenied,
			Message:     fmt.Sprintf("Cannot create %s", path),
			Detail:      err.Error(),
			Remediation: "Check directory permissions or choose another data directory",
		}
	}

	free, err := c.freeBytes(path)
	if err != nil {
		// Unreadable filesystems are treated as passing; the real
		// failure will surface with context during the write.
		return nil
	}

	if free < requiredBytes {
		return &CheckError{
			Type:    CheckErrorDiskSpaceLow,
			Message: "Insufficient disk space",
			Detail: fmt.Sprintf("need %s free at %s, have %s",
				formatBytes(requiredBytes), filepath.Clean(path), formatBytes(free)),
			Remediation: "Free up disk space and retry",
		}
	}
	return nil
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Compile-time interface check
var _ Checker = (*DefaultChecker)(nil)
