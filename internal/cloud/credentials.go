// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package cloud validates credentials for the hosted analysis fallback.
package cloud

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ValidationResult is the outcome of a credential check. Invalid keys
// are a normal result, not an error; Error carries a human-readable
// reason when Valid is false.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// modelLister is the slice of the provider API the validator needs.
type modelLister interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Validator checks API credentials against the cloud provider.
type Validator struct {
	newLister func(key string) modelLister
	timeout   time.Duration
}

// NewValidator creates a Validator with production defaults.
func NewValidator() *Validator {
	return &Validator{
		newLister: func(key string) modelLister {
			return openai.NewClient(key)
		},
		timeout: 15 * time.Second,
	}
}

// NewValidatorWithDeps creates a Validator with an injectable client
// factory, for tests.
func NewValidatorWithDeps(newLister func(key string) modelLister, timeout time.Duration) *Validator {
	return &Validator{newLister: newLister, timeout: timeout}
}

// ValidateCredential checks an API key, first syntactically and then by
// making an authenticated listing call.
//
// # Outputs
//
//   - ValidationResult: never panics; a bad key or unreachable provider
//     comes back as Valid=false with a reason
func (v *Validator) ValidateCredential(ctx context.Context, key string) ValidationResult {
	key = strings.TrimSpace(key)
	if key == "" {
		return ValidationResult{Valid: false, Error: "API key is empty"}
	}
	if !strings.HasPrefix(key, "sk-") {
		return ValidationResult{Valid: false, Error: "API key format not recognized; expected a key starting with sk-"}
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	if _, err := v.newLister(key).ListModels(ctx); err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.HTTPStatusCode {
			case 401:
				return ValidationResult{Valid: false, Error: "API key was rejected by the provider"}
			case 429:
				// Rate-limited but authenticated.
				return ValidationResult{Valid: true}
			}
			return ValidationResult{Valid: false, Error: "Provider returned an error: " + apiErr.Message}
		}
		return ValidationResult{Valid: false, Error: "Could not reach the provider: " + err.Error()}
	}
	return ValidationResult{Valid: true}
}
