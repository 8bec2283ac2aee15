// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package modelruntime contains unit tests for the model server client.

# Testing Strategy

httptest servers stand in for the model server; no real network traffic
or binaries are involved. Streaming pull responses are emitted as the
same newline-delimited JSON the real server produces.
*/
package modelruntime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func tagsHandler(names ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"models":[`)
		for i, n := range names {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"name":%q}`, n)
		}
		fmt.Fprint(w, `]}`)
	}
}

// TestHTTPClient_Ping verifies up and down detection.
func TestHTTPClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/version" {
			fmt.Fprint(w, `{"version":"0.6.1"}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if !NewHTTPClient(srv.URL).Ping(context.Background()) {
		t.Error("Ping = false against a live server")
	}

	srv.Close()
	if NewHTTPClient(srv.URL).Ping(context.Background()) {
		t.Error("Ping = true against a closed server")
	}
}

// TestHTTPClient_HasModel_TagNormalization verifies bare names and
// :latest tags match either way round.
func TestHTTPClient_HasModel_TagNormalization(t *testing.T) {
	tests := []struct {
		name      string
		installed []string
		query     string
		want      bool
	}{
		{"exact match", []string{"qwen3:8b"}, "qwen3:8b", true},
		{"bare query matches latest", []string{"gemma3:latest"}, "gemma3", true},
		{"bare installed matches latest query", []string{"gemma3"}, "gemma3:latest", true},
		{"different tag does not match", []string{"qwen3:8b"}, "qwen3:14b", false},
		{"absent model", []string{"qwen3:8b"}, "gpt-oss:20b", false},
		{"empty list", nil, "qwen3:8b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tagsHandler(tt.installed...))
			defer srv.Close()

			got, err := NewHTTPClient(srv.URL).HasModel(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("HasModel: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasModel(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

// TestHTTPClient_HasModel_ConnectionError verifies a typed error for an
// unreachable server.
func TestHTTPClient_HasModel_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()

	_, err := NewHTTPClient(srv.URL).HasModel(context.Background(), "qwen3:8b")
	var merr *ModelError
	if !errors.As(err, &merr) {
		t.Fatalf("error type = %T, want *ModelError", err)
	}
	if merr.Type != ModelErrorConnectionFailed {
		t.Errorf("Type = %v, want ModelErrorConnectionFailed", merr.Type)
	}
	if merr.Remediation == "" {
		t.Error("connection errors should carry remediation")
	}
}

// TestHTTPClient_Pull_StreamsProgress verifies progress lines reach the
// callback in order.
func TestHTTPClient_Pull_StreamsProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pull" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintln(w, `{"status":"pulling manifest"}`)
		fmt.Fprintln(w, `{"status":"downloading","completed":500,"total":1000}`)
		fmt.Fprintln(w, `{"status":"downloading","completed":1000,"total":1000}`)
		fmt.Fprintln(w, `{"status":"success"}`)
	}))
	defer srv.Close()

	type tick struct {
		status           string
		completed, total int64
	}
	var ticks []tick
	err := NewHTTPClient(srv.URL).Pull(context.Background(), "qwen3:8b",
		func(status string, completed, total int64) {
			ticks = append(ticks, tick{status, completed, total})
		})
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}

	if len(ticks) != 4 {
		t.Fatalf("got %d progress ticks, want 4", len(ticks))
	}
	if ticks[1].completed != 500 || ticks[1].total != 1000 {
		t.Errorf("tick[1] = %+v, want completed=500 total=1000", ticks[1])
	}
	if ticks[2].completed != 1000 {
		t.Errorf("tick[2].completed = %d, want 1000", ticks[2].completed)
	}
}

// TestHTTPClient_Pull_MidStreamError verifies an error line aborts with a
// typed pull failure.
func TestHTTPClient_Pull_MidStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"status":"pulling manifest"}`)
		fmt.Fprintln(w, `{"error":"pull model manifest: file does not exist"}`)
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.URL).Pull(context.Background(), "nosuch:1b", nil)
	var merr *ModelError
	if !errors.As(err, &merr) {
		t.Fatalf("error type = %T, want *ModelError", err)
	}
	if merr.Type != ModelErrorPullFailed {
		t.Errorf("Type = %v, want ModelErrorPullFailed", merr.Type)
	}
	if merr.Model != "nosuch:1b" {
		t.Errorf("Model = %q, want the requested model", merr.Model)
	}
}

// TestHTTPClient_Pull_HTTPError verifies a non-200 response is a typed
// failure naming the model.
func TestHTTPClient_Pull_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.URL).Pull(context.Background(), "nosuch:1b", nil)
	var merr *ModelError
	if !errors.As(err, &merr) {
		t.Fatalf("error type = %T, want *ModelError", err)
	}
	if merr.Type != ModelErrorPullFailed {
		t.Errorf("Type = %v, want ModelErrorPullFailed", merr.Type)
	}
}

// TestHTTPClient_Pull_Cancelled verifies context cancellation maps to the
// cancelled error type.
func TestHTTPClient_Pull_Cancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewHTTPClient(srv.URL).Pull(ctx, "qwen3:8b", nil)
	var merr *ModelError
	if !errors.As(err, &merr) {
		t.Fatalf("error type = %T, want *ModelError", err)
	}
	if merr.Type != ModelErrorContextCancelled {
		t.Errorf("Type = %v, want ModelErrorContextCancelled", merr.Type)
	}
}

// TestModelError_FullError verifies the formatted error composition.
func TestModelError_FullError(t *testing.T) {
	e := &ModelError{
		Type:        ModelErrorPullFailed,
		Model:       "qwen3:8b",
		Message:     "Model pull failed",
		Detail:      "connection reset",
		Remediation: "Retry the download",
	}
	full := e.FullError()
	for _, want := range []string{"Model pull failed", "connection reset", "Retry the download"} {
		if !strings.Contains(full, want) {
			t.Errorf("FullError() missing %q:\n%s", want, full)
		}
	}
}
