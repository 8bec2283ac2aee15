// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package hardware probes host capabilities for the setup flow.

# Problem Statement

Before the review-analysis pipelines can run locally, the setup flow must
know what the machine can handle: how much RAM, whether a usable GPU with
enough VRAM exists, and roughly how fast the CPU is. Probing any of these
can fail on any given host (no nvidia-smi, locked-down /proc, exotic
platforms), and a failed probe must never abort setup.

# Solution

Prober.Probe returns a Profile where every signal is a Detection value
tagged with how it was obtained. Unreadable signals degrade to a
conservative fallback; signals that cannot even be estimated are tagged
failed with the zero value retained. Probe never returns an error.

Platform strategy:

	darwin:  sysctl hw.memsize / machdep.cpu.brand_string; Apple Silicon
	         reports an integrated Metal-accelerated GPU
	linux:   /proc/meminfo, /proc/cpuinfo; nvidia-smi for dedicated VRAM,
	         lspci fallback for integrated graphics
	other:   fallback defaults (8 GB RAM, no GPU)

External commands run through process.Runner so tests can script every
platform without the real tools.
*/
package hardware

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Runner is the subset of process.Runner the prober needs.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Prober inspects the host and builds a Profile.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Prober interface {
	// Probe inspects the host. Never returns an error; unreadable
	// signals are tagged fallback or failed inside the Profile.
	Probe(ctx context.Context) *Profile
}

// DefaultProber implements Prober with platform commands.
type DefaultProber struct {
	runner Runner

	// goos is overridable for tests; defaults to runtime.GOOS.
	goos string

	// meminfoPath is overridable for tests; defaults to /proc/meminfo.
	meminfoPath string
}

// NewDefaultProber creates a prober that shells out via the given runner.
func NewDefaultProber(runner Runner) *DefaultProber {
	return &DefaultProber{
		runner:      runner,
		goos:        runtime.GOOS,
		meminfoPath: "/proc/meminfo",
	}
}

const (
	// fallbackRAMGB is assumed when total memory cannot be read.
	// Low enough that the recommendation engine will not suggest a
	// local model the machine cannot hold.
	fallbackRAMGB = 8

	// bytesPerGB converts byte counts to whole gigabytes.
	bytesPerGB = 1024 * 1024 * 1024
)

// Probe inspects the host and returns a fresh Profile.
//
// # Description
//
// Runs the platform-appropriate probes for CPU, RAM, and GPU. Each signal
// degrades independently: a missing nvidia-smi does not affect the RAM
// reading. Repeated calls without host changes return stable values.
func (p *DefaultProber) Probe(ctx context.Context) *Profile {
	profile := &Profile{Platform: p.goos}

	switch p.goos {
	case "darwin":
		profile.RAMGB = p.probeDarwinRAM(ctx)
		profile.CPU = p.probeDarwinCPU(ctx)
		profile.GPU = p.probeDarwinGPU(profile.CPU)
	case "linux":
		profile.RAMGB = p.probeLinuxRAM()
		profile.CPU = p.probeLinuxCPU()
		profile.GPU = p.probeLinuxGPU(ctx)
	default:
		profile.RAMGB = Fallback(fallbackRAMGB, "platform default")
		profile.CPU = Fallback(CPUInfo{
			Name:  "unknown",
			Cores: runtime.NumCPU(),
			Tier:  classifyCPU("", runtime.NumCPU()),
		}, "runtime.NumCPU")
		profile.GPU = Failed(GPUInfo{Type: GPUNone}, "unsupported platform")
	}

	return profile
}

// -----------------------------------------------------------------------------
// darwin probes
// -----------------------------------------------------------------------------

func (p *DefaultProber) probeDarwinRAM(ctx context.Context) Detection[int] {
	out, err := p.runner.Run(ctx, "sysctl", "-n", "hw.memsize")
	if err != nil {
		return Fallback(fallbackRAMGB, "sysctl unavailable")
	}
	memBytes, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil || memBytes <= 0 {
		return Fallback(fallbackRAMGB, "sysctl output unreadable")
	}
	return Auto(int(memBytes/bytesPerGB), "sysctl hw.memsize")
}

func (p *DefaultProber) probeDarwinCPU(ctx context.Context) Detection[CPUInfo] {
	cores := runtime.NumCPU()
	out, err := p.runner.Run(ctx, "sysctl", "-n", "machdep.cpu.brand_string")
	if err != nil {
		info := CPUInfo{Name: "unknown", Cores: cores, Tier: classifyCPU("", cores)}
		return Fallback(info, "sysctl unavailable")
	}
	name := strings.TrimSpace(string(out))
	info := CPUInfo{Name: name, Cores: cores, Tier: classifyCPU(name, cores)}
	return Auto(info, "sysctl machdep.cpu.brand_string")
}

// probeDarwinGPU derives the GPU from the CPU reading: Apple Silicon has
// an integrated Metal-capable GPU sharing unified memory, Intel Macs get
// a plain integrated GPU without an accelerated path for our pipelines.
func (p *DefaultProber) probeDarwinGPU(cpu Detection[CPUInfo]) Detection[GPUInfo] {
	if cpu.Status == StatusFailed {
		return Failed(GPUInfo{Type: GPUNone}, "cpu probe failed")
	}
	name := cpu.Value.Name
	if strings.HasPrefix(name, "Apple ") {
		return Auto(GPUInfo{
			Type:        GPUIntegrated,
			Name:        name + " GPU",
			Accelerated: true,
		}, "apple silicon")
	}
	return Fallback(GPUInfo{Type: GPUIntegrated, Name: "integrated"}, "intel mac heuristic")
}

// -----------------------------------------------------------------------------
// linux probes
// -----------------------------------------------------------------------------

func (p *DefaultProber) probeLinuxRAM() Detection[int] {
	file, err := os.Open(p.meminfoPath)
	if err != nil {
		return Fallback(fallbackRAMGB, "meminfo unreadable")
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		memKB, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			break
		}
		return Auto(int(memKB/(1024*1024)), "/proc/meminfo")
	}
	return Fallback(fallbackRAMGB, "meminfo missing MemTotal")
}

func (p *DefaultProber) probeLinuxCPU() Detection[CPUInfo] {
	cores := runtime.NumCPU()
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		info := CPUInfo{Name: "unknown", Cores: cores, Tier: classifyCPU("", cores)}
		return Fallback(info, "cpuinfo unreadable")
	}

	name := ""
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "model name") {
			if idx := strings.Index(line, ":"); idx >= 0 {
				name = strings.TrimSpace(line[idx+1:])
			}
			break
		}
	}
	if name == "" {
		info := CPUInfo{Name: "unknown", Cores: cores, Tier: classifyCPU("", cores)}
		return Fallback(info, "cpuinfo missing model name")
	}
	info := CPUInfo{Name: name, Cores: cores, Tier: classifyCPU(name, cores)}
	return Auto(info, "/proc/cpuinfo")
}

func (p *DefaultProber) probeLinuxGPU(ctx context.Context) Detection[GPUInfo] {
	// Dedicated NVIDIA card first.
	out, err := p.runner.Run(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total", "--format=csv,noheader,nounits")
	if err == nil {
		if gpu, ok := parseNvidiaSMI(out); ok {
			return Auto(gpu, "nvidia-smi")
		}
	}

	// lspci for integrated graphics.
	out, err = p.runner.Run(ctx, "lspci")
	if err != nil {
		return Failed(GPUInfo{Type: GPUNone}, "nvidia-smi and lspci unavailable")
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "VGA compatible controller") ||
			strings.Contains(line, "Display controller") {
			name := line
			if idx := strings.LastIndex(line, ": "); idx >= 0 {
				name = line[idx+2:]
			}
			return Auto(GPUInfo{Type: GPUIntegrated, Name: name}, "lspci")
		}
	}
	return Auto(GPUInfo{Type: GPUNone}, "lspci: no display controller")
}

// parseNvidiaSMI parses "name, vram_mb" lines, summing VRAM across cards
// and keeping the first card's name.
func parseNvidiaSMI(out []byte) (GPUInfo, bool) {
	gpu := GPUInfo{Type: GPUDedicated, Accelerated: true}
	found := false

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		vramMB, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
		if err != nil {
			continue
		}
		if !found {
			gpu.Name = strings.TrimSpace(strings.Join(parts[:len(parts)-1], ","))
		}
		gpu.VRAMGB += vramMB / 1024
		found = true
	}
	return gpu, found
}

// -----------------------------------------------------------------------------
// CPU classification
// -----------------------------------------------------------------------------

// lowTierMarkers are substrings of marketing names for budget parts.
var lowTierMarkers = []string{"celeron", "pentium", "atom", "i3-", "athlon"}

// highTierMarkers are substrings of marketing names for flagship parts.
var highTierMarkers = []string{"i9-", "ryzen 9", "threadripper", "xeon", "m2 max", "m3 max", "m3 pro", "m4"}

// classifyCPU buckets a processor by marketing name first, core count second.
func classifyCPU(name string, cores int) CPUTier {
	lower := strings.ToLower(name)
	for _, marker := range lowTierMarkers {
		if strings.Contains(lower, marker) {
			return CPUTierLow
		}
	}
	for _, marker := range highTierMarkers {
		if strings.Contains(lower, marker) {
			return CPUTierHigh
		}
	}
	switch {
	case cores <= 2:
		return CPUTierLow
	case cores >= 10:
		return CPUTierHigh
	default:
		return CPUTierMid
	}
}

// Compile-time interface check
var _ Prober = (*DefaultProber)(nil)
