// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package setup is the provisioning facade the application shell talks to.
//
// # Problem Statement
//
// The UI layer needs one place to ask "what can this machine run?", kick
// off the long installations, and watch their progress. Spreading those
// calls across five subsystem packages would couple the shell to wiring
// details it has no business knowing.
//
// # Solution
//
// Service owns one configured instance of each subsystem and exposes the
// operations the shell needs as plain methods. Long-running operations
// report through per-concern progress streams the shell subscribes to;
// the methods themselves stay synchronous so the caller chooses its own
// concurrency.
package setup

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wanderlens/WanderLensLocal/internal/assets"
	"github.com/wanderlens/WanderLensLocal/internal/cloud"
	"github.com/wanderlens/WanderLensLocal/internal/config"
	"github.com/wanderlens/WanderLensLocal/internal/envsetup"
	"github.com/wanderlens/WanderLensLocal/internal/hardware"
	"github.com/wanderlens/WanderLensLocal/internal/modelruntime"
	"github.com/wanderlens/WanderLensLocal/internal/process"
	"github.com/wanderlens/WanderLensLocal/internal/progress"
	"github.com/wanderlens/WanderLensLocal/internal/recommend"
	"github.com/wanderlens/WanderLensLocal/internal/syscheck"
)

// HardwareReport bundles the probed profile with its recommendation so
// the shell renders both from one call.
type HardwareReport struct {
	Profile        *hardware.Profile        `json:"profile"`
	Recommendation recommend.Recommendation `json:"recommendation"`
}

// Service wires the provisioning subsystems behind one API surface.
type Service struct {
	sessionID string

	configPath string
	cfg        config.WanderLensConfig

	prober    hardware.Prober
	env       *envsetup.Installer
	runtime   *modelruntime.Installer
	assets    *assets.Manager
	validator *cloud.Validator
}

// NewService builds a Service from the config at configPath, creating a
// default config on first run.
func NewService(configPath string) (*Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, err
	}

	runner := process.NewDefaultRunner()
	checker := syscheck.NewDefaultChecker()
	client := modelruntime.NewHTTPClient(cfg.Analysis.ServerURL)
	software := modelruntime.NewDefaultSoftware(runner, client)

	svc := &Service{
		sessionID:  uuid.NewString(),
		configPath: configPath,
		cfg:        cfg,
		prober:     hardware.NewDefaultProber(runner),
		env: envsetup.NewInstaller(envsetup.Config{
			DataDir:   dataDir,
			PythonBin: cfg.Python.Bin,
		}, runner, checker),
		runtime:   modelruntime.NewInstaller(software, client, checker),
		assets:    assets.NewManager(dataDir, checker),
		validator: cloud.NewValidator(),
	}
	slog.Info("provisioning service ready", "session", svc.sessionID, "dataDir", dataDir)
	return svc, nil
}

// NewServiceWithDeps builds a Service from pre-constructed subsystems,
// for tests.
func NewServiceWithDeps(
	cfg config.WanderLensConfig,
	prober hardware.Prober,
	env *envsetup.Installer,
	runtime *modelruntime.Installer,
	assetMgr *assets.Manager,
	validator *cloud.Validator,
) *Service {
	return &Service{
		sessionID: uuid.NewString(),
		cfg:       cfg,
		prober:    prober,
		env:       env,
		runtime:   runtime,
		assets:    assetMgr,
		validator: validator,
	}
}

// SessionID identifies this service instance in logs.
func (s *Service) SessionID() string { return s.sessionID }

// ----- hardware -----

// DetectHardware probes the host, applies any persisted overrides, and
// returns the profile with its recommendation.
func (s *Service) DetectHardware(ctx context.Context) HardwareReport {
	profile := s.prober.Probe(ctx)
	s.overrides().Apply(profile)
	return HardwareReport{
		Profile:        profile,
		Recommendation: recommend.Recommend(profile),
	}
}

// SaveHardwareOverrides validates and persists user-entered hardware
// corrections, then returns the refreshed report. Only the fields set
// in o change; earlier manual values survive a partial save.
func (s *Service) SaveHardwareOverrides(ctx context.Context, o hardware.Overrides) (HardwareReport, error) {
	if o.RAMGB != nil {
		s.cfg.Hardware.RAMGB = o.RAMGB
	}
	if o.VRAMGB != nil {
		s.cfg.Hardware.VRAMGB = o.VRAMGB
	}
	if o.GPUType != nil {
		s.cfg.Hardware.GPUType = o.GPUType
	}
	if o.CPUName != nil {
		s.cfg.Hardware.CPUName = o.CPUName
	}
	if s.configPath != "" {
		if err := config.Save(s.configPath, s.cfg); err != nil {
			return HardwareReport{}, err
		}
	}
	return s.DetectHardware(ctx), nil
}

func (s *Service) overrides() hardware.Overrides {
	h := s.cfg.Hardware
	return hardware.Overrides{
		RAMGB:   h.RAMGB,
		VRAMGB:  h.VRAMGB,
		GPUType: h.GPUType,
		CPUName: h.CPUName,
	}
}

// ----- python environment -----

// CheckEnvironment reports the analysis environment state without
// changing anything.
func (s *Service) CheckEnvironment(ctx context.Context) envsetup.CheckResult {
	return s.env.Check(ctx)
}

// SetupEnvironment creates or repairs the analysis environment. It
// blocks until done; progress streams through EnvEvents.
func (s *Service) SetupEnvironment(ctx context.Context) error {
	return s.env.Setup(ctx)
}

// EnvEvents exposes the environment progress stream.
func (s *Service) EnvEvents() *progress.Publisher[progress.EnvEvent] {
	return s.env.Progress()
}

// ----- model runtime -----

// CheckRuntimeFullyReady reports whether server software, server
// process, and the configured model are all in place.
func (s *Service) CheckRuntimeFullyReady(ctx context.Context, model string) bool {
	return s.runtime.Check(ctx, model).Ready()
}

// HasModel reports whether the named model is locally available.
func (s *Service) HasModel(ctx context.Context, model string) bool {
	return s.runtime.HasModel(ctx, model)
}

// EnsureReady makes the runtime ready for the given model, doing only
// the outstanding work. Progress streams through RuntimeEvents.
func (s *Service) EnsureReady(ctx context.Context, model string) error {
	return s.runtime.EnsureReady(ctx, model)
}

// RuntimeEvents exposes the runtime progress stream.
func (s *Service) RuntimeEvents() *progress.Publisher[progress.RuntimeEvent] {
	return s.runtime.Events()
}

// OnInstallProgress registers cb for runtime install progress. The last
// event is replayed immediately so a late subscriber sees current state.
func (s *Service) OnInstallProgress(cb func(progress.RuntimeEvent)) {
	s.runtime.Events().Subscribe(cb)
}

// OffInstallProgress drops the active install progress subscriber.
func (s *Service) OffInstallProgress() {
	s.runtime.Events().Unsubscribe()
}

// ----- cloud -----

// ValidateCloudCredential checks an API key for the hosted fallback.
func (s *Service) ValidateCloudCredential(ctx context.Context, key string) cloud.ValidationResult {
	return s.validator.ValidateCredential(ctx, key)
}

// ----- analysis assets -----

// CheckAssets reports which bundled model files exist on disk.
func (s *Service) CheckAssets() assets.CheckResult {
	return s.assets.CheckAll()
}

// DownloadAssets fetches any missing model files. Progress streams
// through AssetEvents.
func (s *Service) DownloadAssets(ctx context.Context) error {
	return s.assets.DownloadAll(ctx)
}

// AssetEvents exposes the asset progress stream.
func (s *Service) AssetEvents() *progress.Publisher[progress.AssetEvent] {
	return s.assets.Events()
}
