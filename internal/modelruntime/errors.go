// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package modelruntime

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrInstallInFlight is returned when EnsureReady is invoked for a
// different model while an installation is already running. Calls for
// the same model coalesce onto the in-flight operation instead.
var ErrInstallInFlight = errors.New("a runtime installation is already in progress")

// ModelErrorType categorizes model-runtime failures for programmatic handling.
type ModelErrorType int

const (
	// ModelErrorNotFound indicates the model does not exist in the registry.
	ModelErrorNotFound ModelErrorType = iota

	// ModelErrorPullFailed indicates the model download failed.
	ModelErrorPullFailed

	// ModelErrorConnectionFailed indicates the server is not reachable.
	ModelErrorConnectionFailed

	// ModelErrorInstallFailed indicates the server software install failed.
	ModelErrorInstallFailed

	// ModelErrorInvalidResponse indicates the server returned unexpected data.
	ModelErrorInvalidResponse

	// ModelErrorContextCancelled indicates the operation was cancelled.
	ModelErrorContextCancelled
)

// String returns the error type as an uppercase token for logging.
func (t ModelErrorType) String() string {
	switch t {
	case ModelErrorNotFound:
		return "MODEL_NOT_FOUND"
	case ModelErrorPullFailed:
		return "PULL_FAILED"
	case ModelErrorConnectionFailed:
		return "CONNECTION_FAILED"
	case ModelErrorInstallFailed:
		return "INSTALL_FAILED"
	case ModelErrorInvalidResponse:
		return "INVALID_RESPONSE"
	case ModelErrorContextCancelled:
		return "CONTEXT_CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// ModelError provides structured error information for runtime operations.
type ModelError struct {
	// Type categorizes the error.
	Type ModelErrorType

	// Model is the model involved, if any.
	Model string

	// Message is the human-readable description.
	Message string

	// Detail carries technical information for debugging.
	Detail string

	// Remediation suggests how to fix the issue.
	Remediation string
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	return e.Message
}

// FullError returns a detailed message including remediation steps.
func (e *ModelError) FullError() string {
	var buf bytes.Buffer
	buf.WriteString(e.Message)
	if e.Model != "" {
		buf.WriteString(fmt.Sprintf(" (model: %s)", e.Model))
	}
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
