// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package modelruntime

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the default local model server address. The
// OLLAMA_HOST environment variable overrides it at the config layer.
const DefaultBaseURL = "http://localhost:11434"

// PullProgressFunc receives streaming download progress.
//
//   - status: current operation ("pulling manifest", layer digests)
//   - completed, total: byte counts; total is 0 while unknown
type PullProgressFunc func(status string, completed, total int64)

// Client is the contract for talking to the local model server.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Client interface {
	// Ping reports whether the server is up and responding.
	Ping(ctx context.Context) bool

	// HasModel checks whether the named model is present locally.
	// Name variants with and without the :latest tag match.
	HasModel(ctx context.Context, model string) (bool, error)

	// Pull downloads a model, streaming progress through the callback.
	Pull(ctx context.Context, model string, onProgress PullProgressFunc) error
}

// HTTPClient implements Client against the server's HTTP API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the given server URL.
// Pull requests carry no client timeout; model downloads legitimately
// run for a long time and are governed by the caller's context.
func NewHTTPClient(baseURL string) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Ping reports whether the server answers its version endpoint.
func (c *HTTPClient) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// tagsResponse is the server's local model listing.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// HasModel checks the local model list for the given name.
func (c *HTTPClient) HasModel(ctx context.Context, model string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false, c.connectionError(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, c.connectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, &ModelError{
			Type:        ModelErrorInvalidResponse,
			Message:     fmt.Sprintf("Model server returned status %d", resp.StatusCode),
			Detail:      string(body),
			Remediation: "Check the model server logs for errors",
		}
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, &ModelError{
			Type:    ModelErrorInvalidResponse,
			Message: "Failed to parse model list",
			Detail:  err.Error(),
		}
	}

	for _, m := range tags.Models {
		if modelNamesMatch(m.Name, model) {
			return true, nil
		}
	}
	return false, nil
}

// pullLine is one line of the streaming pull response.
type pullLine struct {
	Status    string `json:"status"`
	Completed int64  `json:"completed"`
	Total     int64  `json:"total"`
	Error     string `json:"error"`
}

// Pull downloads a model via the streaming pull endpoint.
//
// # Description
//
// The server streams newline-delimited JSON as layers download; each
// line is forwarded to the callback. A mid-stream error line aborts with
// a typed ModelError. Partially pulled layers are kept by the server and
// resumed on retry, which is what makes re-invoking EnsureReady cheap.
func (c *HTTPClient) Pull(ctx context.Context, model string, onProgress PullProgressFunc) error {
	payload, err := json.Marshal(map[string]any{"name": model, "stream": true})
	if err != nil {
		return &ModelError{Type: ModelErrorPullFailed, Model: model, Message: "Failed to encode pull request", Detail: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pull", bytes.NewReader(payload))
	if err != nil {
		return c.connectionError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &ModelError{
				Type:    ModelErrorContextCancelled,
				Model:   model,
				Message: "Model pull cancelled",
				Detail:  ctx.Err().Error(),
			}
		}
		return c.connectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &ModelError{
			Type:        ModelErrorPullFailed,
			Model:       model,
			Message:     fmt.Sprintf("Model server rejected pull with status %d", resp.StatusCode),
			Detail:      string(body),
			Remediation: fmt.Sprintf("Verify the model name %q exists in the registry", model),
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var p pullLine
		if err := json.Unmarshal(line, &p); err != nil {
			slog.Debug("skipping unparseable pull line", "error", err)
			continue
		}
		if p.Error != "" {
			return &ModelError{
				Type:        ModelErrorPullFailed,
				Model:       model,
				Message:     "Model pull failed",
				Detail:      p.Error,
				Remediation: "Check network connectivity and available disk space, then retry",
			}
		}
		if onProgress != nil {
			onProgress(p.Status, p.Completed, p.Total)
		}
	}
	if err := scanner.Err(); err != nil {
		return &ModelError{
			Type:        ModelErrorPullFailed,
			Model:       model,
			Message:     "Model pull stream interrupted",
			Detail:      err.Error(),
			Remediation: "Retry; completed layers are kept and will not re-download",
		}
	}
	return nil
}

func (c *HTTPClient) connectionError(err error) error {
	return &ModelError{
		Type:        ModelErrorConnectionFailed,
		Message:     "Cannot connect to the model server",
		Detail:      err.Error(),
		Remediation: fmt.Sprintf("Ensure the model server is running at %s", c.baseURL),
	}
}

// modelNamesMatch compares model names, treating a missing tag as :latest.
func modelNamesMatch(a, b string) bool {
	normalize := func(s string) string {
		if !strings.Contains(s, ":") {
			return s + ":latest"
		}
		return s
	}
	return normalize(a) == normalize(b)
}

// Compile-time interface check
var _ Client = (*HTTPClient)(nil)
