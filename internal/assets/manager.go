// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package assets downloads and verifies the bundled analysis model files.
//
// # Problem Statement
//
// The review-analysis pipelines need four model artifacts on disk before
// any local analysis can run: the sentiment classifier, the embedding
// model, the subjectivity classifier, and the category classifier. They
// are too large to ship inside the application bundle, and a partial set
// is useless, so the app needs a way to ask "are they all here?" cheaply
// and to fetch whatever is missing with visible progress.
//
// # Solution
//
// A fixed catalog keyed by asset name, a stat-only CheckAll, and a
// DownloadAll that fetches the missing subset concurrently with atomic
// tmp-file-plus-rename writes so an interrupted download never leaves a
// truncated artifact that passes the existence check.
package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wanderlens/WanderLensLocal/internal/progress"
	"github.com/wanderlens/WanderLensLocal/internal/syscheck"
)

// Asset keys, fixed for the life of the application.
const (
	KeySentiment    = "sentiment"
	KeyEmbeddings   = "embeddings"
	KeySubjectivity = "subjectivity"
	KeyCategories   = "categories"
)

// Asset describes one downloadable model artifact.
type Asset struct {
	Key      string
	FileName string
	URL      string
	// SizeBytes is the expected download size, used for the disk-space
	// preflight. Zero means unknown.
	SizeBytes int64
}

// Catalog is the full set of artifacts the analysis pipelines require.
var Catalog = []Asset{
	{
		Key:       KeySentiment,
		FileName:  "sentiment-multilingual.onnx",
		URL:       "https://assets.wanderlens.app/models/sentiment-multilingual-v2.onnx",
		SizeBytes: 540 * 1024 * 1024,
	},
	{
		Key:       KeyEmbeddings,
		FileName:  "embeddings-minilm.onnx",
		URL:       "https://assets.wanderlens.app/models/embeddings-minilm-l12-v2.onnx",
		SizeBytes: 120 * 1024 * 1024,
	},
	{
		Key:       KeySubjectivity,
		FileName:  "subjectivity.onnx",
		URL:       "https://assets.wanderlens.app/models/subjectivity-v1.onnx",
		SizeBytes: 260 * 1024 * 1024,
	},
	{
		Key:       KeyCategories,
		FileName:  "categories.onnx",
		URL:       "https://assets.wanderlens.app/models/categories-tourism-v3.onnx",
		SizeBytes: 440 * 1024 * 1024,
	},
}

// CheckResult maps asset key to presence on disk.
type CheckResult map[string]bool

// AllPresent reports whether every cataloged asset exists.
func (r CheckResult) AllPresent() bool {
	for _, a := range Catalog {
		if !r[a.Key] {
			return false
		}
	}
	return true
}

// Manager checks and downloads the asset catalog.
//
// # Thread Safety
//
// Safe for concurrent use. DownloadAll serializes internally; a second
// call while one runs waits for the first and then re-checks.
type Manager struct {
	dir     string
	catalog []Asset
	client  *http.Client
	checker syscheck.Checker
	pub     *progress.Publisher[progress.AssetEvent]

	mu sync.Mutex
}

// NewManager creates a Manager storing assets under dir.
func NewManager(dir string, checker syscheck.Checker) *Manager {
	return &Manager{
		dir:     dir,
		catalog: Catalog,
		client:  &http.Client{},
		checker: checker,
		pub:     progress.NewPublisher[progress.AssetEvent](),
	}
}

// NewManagerWithDeps creates a Manager with an explicit catalog and HTTP
// client, for tests.
func NewManagerWithDeps(dir string, catalog []Asset, client *http.Client, checker syscheck.Checker) *Manager {
	return &Manager{
		dir:     dir,
		catalog: catalog,
		client:  client,
		checker: checker,
		pub:     progress.NewPublisher[progress.AssetEvent](),
	}
}

// Events exposes the asset progress stream for subscription.
func (m *Manager) Events() *progress.Publisher[progress.AssetEvent] {
	return m.pub
}

// Path returns the on-disk location for an asset key, or "" if the key
// is not in the catalog.
func (m *Manager) Path(key string) string {
	for _, a := range m.catalog {
		if a.Key == key {
			return filepath.Join(m.dir, a.FileName)
		}
	}
	return ""
}

// CheckAll reports which assets exist on disk. It only stats files; no
// network traffic and no hashing.
func (m *Manager) CheckAll() CheckResult {
	result := make(CheckResult, len(m.catalog))
	for _, a := range m.catalog {
		info, err := os.Stat(filepath.Join(m.dir, a.FileName))
		result[a.Key] = err == nil && info.Size() > 0
	}
	return result
}

// DownloadAll fetches every missing asset.
//
// # Description
//
// When everything is already present it publishes a single done event at
// 100 and returns without touching the network. Otherwise it preflights
// host reachability and disk space for the missing subset, then
// downloads concurrently,
// publishing per-asset progress and an aggregate that is the mean across
// the whole catalog (already-present assets count as 100).
func (m *Manager) DownloadAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	present := m.CheckAll()
	if present.AllPresent() {
		m.pub.Publish(progress.AssetEvent{Progress: 100, Aggregate: 100, Done: true})
		return nil
	}

	var needed []Asset
	var neededBytes int64
	for _, a := range m.catalog {
		if !present[a.Key] {
			needed = append(needed, a)
			neededBytes += a.SizeBytes
		}
	}

	// Probe the asset host itself: if it is unreachable no download
	// below can succeed, so fail before any partial work starts.
	if err := m.checker.CheckNetwork(ctx, needed[0].URL); err != nil {
		return fmt.Errorf("asset download preflight: %w", err)
	}
	if err := m.checker.CheckDiskSpace(m.dir, neededBytes); err != nil {
		return fmt.Errorf("asset download preflight: %w", err)
	}

	// Per-asset percentages feeding the aggregate.
	pcts := make(map[string]int, len(m.catalog))
	for _, a := range m.catalog {
		if present[a.Key] {
			pcts[a.Key] = 100
		}
	}
	var pctMu sync.Mutex
	report := func(key string, pct int) {
		pctMu.Lock()
		pcts[key] = pct
		total := 0
		for _, p := range pcts {
			total += p
		}
		agg := total / len(m.catalog)
		pctMu.Unlock()
		m.pub.Publish(progress.AssetEvent{Key: key, Progress: pct, Aggregate: agg})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for _, a := range needed {
		g.Go(func() error {
			return m.download(gctx, a, report)
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("asset download failed", "error", err)
		return err
	}

	m.pub.Publish(progress.AssetEvent{Progress: 100, Aggregate: 100, Done: true})
	return nil
}

// download fetches one asset to a tmp file and renames it into place.
func (m *Manager) download(ctx context.Context, a Asset, report func(key string, pct int)) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return fmt.Errorf("asset %s: %w", a.Key, err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("asset %s: %w", a.Key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("asset %s: server returned status %d", a.Key, resp.StatusCode)
	}

	dest := filepath.Join(m.dir, a.FileName)
	tmp, err := os.CreateTemp(m.dir, a.FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("asset %s: %w", a.Key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	report(a.Key, 0)
	counter := &countingWriter{total: resp.ContentLength, onPct: func(pct int) { report(a.Key, pct) }}
	if _, err := io.Copy(io.MultiWriter(tmp, counter), resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("asset %s: %w", a.Key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("asset %s: %w", a.Key, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("asset %s: %w", a.Key, err)
	}

	report(a.Key, 100)
	slog.Info("asset downloaded", "key", a.Key, "path", dest)
	return nil
}

// countingWriter tracks bytes written and emits percentage changes.
type countingWriter struct {
	total   int64
	written int64
	lastPct int
	onPct   func(pct int)
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.total > 0 {
		pct := int(w.written * 100 / w.total)
		if pct > 100 {
			pct = 100
		}
		if pct != w.lastPct {
			w.lastPct = pct
			w.onPct(pct)
		}
	}
	return len(p), nil
}

// Keys returns the catalog keys in stable order, for display.
func Keys() []string {
	keys := make([]string, 0, len(Catalog))
	for _, a := range Catalog {
		keys = append(keys, a.Key)
	}
	sort.Strings(keys)
	return keys
}
