// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package setup contains unit tests for the provisioning facade.

# Testing Strategy

The facade is assembled through NewServiceWithDeps with mock-backed
subsystems, so these tests pin the wiring: overrides flowing from config
into detection, the delegation of each operation, and the progress
streams being the subsystems' own publishers. Subsystem behavior itself
is covered in the subsystem packages.
*/
package setup

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

// stubProber returns a fixed profile.
type stubProber struct {
	profile *hardware.Profile
}

func (s *stubProber) Probe(_ context.Context) *hardware.Profile {
	// Copy so override application does not leak between calls.
	p := *s.profile
	return &p
}

func newTestService(t *testing.T, cfg config.WanderLensConfig, profile *hardware.Profile) *Service {
	t.Helper()
	runner := process.NewMockRunner()
	checker := syscheck.NewMockChecker()
	client := &modelruntime.MockClient{}
	software := &modelruntime.MockSoftware{}

	env := envsetup.NewInstaller(envsetup.Config{
		DataDir: t.TempDir(),
	}, runner, checker)
	runtime := modelruntime.NewInstaller(software, client, checker)
	assetMgr := assets.NewManagerWithDeps(t.TempDir(), assets.Catalog, &http.Client{}, checker)

	return NewServiceWithDeps(cfg, &stubProber{profile: profile}, env, runtime, assetMgr, cloud.NewValidator())
}

func capableProfile() *hardware.Profile {
	return &hardware.Profile{
		CPU:   hardware.Auto(hardware.CPUInfo{Name: "AMD Ryzen 7 5800X", Cores: 8, Tier: hardware.CPUTierMid}, "/proc/cpuinfo"),
		RAMGB: hardware.Auto(32, "/proc/meminfo"),
		GPU: hardware.Auto(hardware.GPUInfo{
			Type: hardware.GPUDedicated, Name: "RTX 3080", VRAMGB: 10, Accelerated: true,
		}, "nvidia-smi"),
		Platform: "linux",
	}
}

func TestDetectHardware_ReportsProfileAndRecommendation(t *testing.T) {
	svc := newTestService(t, config.DefaultConfig(), capableProfile())

	report := svc.DetectHardware(context.Background())

	require.NotNil(t, report.Profile)
	assert.True(t, report.Recommendation.CanRunLocally,
		"32 GB with a 10 GB card must be local-capable")
	assert.NotEmpty(t, report.Recommendation.Model)
}

func TestDetectHardware_AppliesConfiguredOverrides(t *testing.T) {
	ram := 8
	gpuType := "none"
	cfg := config.DefaultConfig()
	cfg.Hardware = config.HardwareConfig{RAMGB: &ram, GPUType: &gpuType}

	svc := newTestService(t, cfg, capableProfile())
	report := svc.DetectHardware(context.Background())

	assert.Equal(t, 8, report.Profile.RAMGB.Value)
	assert.Equal(t, hardware.StatusManual, report.Profile.RAMGB.Status)
	assert.Equal(t, hardware.GPUNone, report.Profile.GPU.Value.Type)
	// 8 GB and no GPU is below every local threshold.
	assert.False(t, report.Recommendation.CanRunLocally)
}

func TestSaveHardwareOverrides_RefreshesReport(t *testing.T) {
	svc := newTestService(t, config.DefaultConfig(), capableProfile())

	ram := 64
	report, err := svc.SaveHardwareOverrides(context.Background(), hardware.Overrides{RAMGB: &ram})
	require.NoError(t, err)
	assert.Equal(t, 64, report.Profile.RAMGB.Value)

	// The override sticks for subsequent detections.
	again := svc.DetectHardware(context.Background())
	assert.Equal(t, 64, again.Profile.RAMGB.Value)
}

func TestSaveHardwareOverrides_PartialSavesMerge(t *testing.T) {
	svc := newTestService(t, config.DefaultConfig(), capableProfile())
	ctx := context.Background()

	ram := 64
	_, err := svc.SaveHardwareOverrides(ctx, hardware.Overrides{RAMGB: &ram})
	require.NoError(t, err)

	vram := 4
	report, err := svc.SaveHardwareOverrides(ctx, hardware.Overrides{VRAMGB: &vram})
	require.NoError(t, err)

	// The second partial save must not wipe the earlier RAM override.
	assert.Equal(t, 64, report.Profile.RAMGB.Value)
	assert.Equal(t, hardware.StatusManual, report.Profile.RAMGB.Status)
	assert.Equal(t, 4, report.Profile.GPU.Value.VRAMGB)
	assert.Equal(t, hardware.StatusManual, report.Profile.GPU.Status)
}

func TestService_RuntimeDelegation(t *testing.T) {
	svc := newTestService(t, config.DefaultConfig(), capableProfile())
	ctx := context.Background()

	// Mock client and software default to fully ready with the model present.
	assert.True(t, svc.CheckRuntimeFullyReady(ctx, recommend.ModelMidTier))
	assert.True(t, svc.HasModel(ctx, recommend.ModelMidTier))
	var seen []progress.RuntimeEvent
	svc.OnInstallProgress(func(e progress.RuntimeEvent) { seen = append(seen, e) })
	defer svc.OffInstallProgress()

	assert.NoError(t, svc.EnsureReady(ctx, recommend.ModelMidTier))
	assert.NotNil(t, svc.RuntimeEvents())
	require.NotEmpty(t, seen, "install progress subscriber saw no events")
	assert.Equal(t, progress.StageComplete, seen[len(seen)-1].Stage)
	assert.Equal(t, 100, seen[len(seen)-1].Unified)
}

func TestService_EnvironmentDelegation(t *testing.T) {
	svc := newTestService(t, config.DefaultConfig(), capableProfile())
	ctx := context.Background()

	assert.False(t, svc.CheckEnvironment(ctx).Ready(), "fresh data dir reported ready")
	require.NoError(t, svc.SetupEnvironment(ctx))
	assert.True(t, svc.CheckEnvironment(ctx).Ready(), "environment not ready after setup")
	assert.NotNil(t, svc.EnvEvents())
}

func TestService_AssetDelegation(t *testing.T) {
	svc := newTestService(t, config.DefaultConfig(), capableProfile())

	assert.False(t, svc.CheckAssets().AllPresent(), "fresh data dir reported all assets present")
	assert.NotNil(t, svc.AssetEvents())
}

func TestService_CloudDelegation(t *testing.T) {
	svc := newTestService(t, config.DefaultConfig(), capableProfile())

	res := svc.ValidateCloudCredential(context.Background(), "")
	assert.False(t, res.Valid, "empty key validated")
}

func TestService_SessionID(t *testing.T) {
	a := newTestService(t, config.DefaultConfig(), capableProfile())
	b := newTestService(t, config.DefaultConfig(), capableProfile())

	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}
