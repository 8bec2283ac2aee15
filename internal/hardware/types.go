// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package hardware

// CPUTier buckets the processor into coarse capability classes.
type CPUTier int

const (
	// CPUTierLow covers dual-core and budget parts. Local inference will
	// be noticeably slow.
	CPUTierLow CPUTier = iota

	// CPUTierMid covers mainstream quad/hex-core processors.
	CPUTierMid

	// CPUTierHigh covers 8+ core or flagship parts.
	CPUTierHigh
)

// String returns the tier as a lowercase identifier.
func (t CPUTier) String() string {
	switch t {
	case CPUTierLow:
		return "low"
	case CPUTierMid:
		return "mid"
	case CPUTierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// GPUType classifies the graphics hardware.
type GPUType int

const (
	// GPUNone means no usable GPU was found.
	GPUNone GPUType = iota

	// GPUIntegrated means graphics share system memory (Intel iGPU,
	// Apple Silicon unified memory).
	GPUIntegrated

	// GPUDedicated means a discrete card with its own VRAM.
	GPUDedicated
)

// String returns the GPU type as a lowercase identifier.
func (t GPUType) String() string {
	switch t {
	case GPUNone:
		return "none"
	case GPUIntegrated:
		return "integrated"
	case GPUDedicated:
		return "dedicated"
	default:
		return "unknown"
	}
}

// CPUInfo describes the detected processor.
type CPUInfo struct {
	// Name is the marketing name, e.g. "Apple M3 Pro".
	Name string

	// Cores is the logical core count.
	Cores int

	// Tier is the coarse capability class derived from Name and Cores.
	Tier CPUTier
}

// GPUInfo describes the detected graphics hardware.
type GPUInfo struct {
	// Type classifies the GPU.
	Type GPUType

	// Name is the device name, empty when Type is GPUNone.
	Name string

	// VRAMGB is dedicated video memory in gigabytes (0 for integrated/none).
	VRAMGB int

	// Accelerated reports whether an accelerated compute path is
	// available (CUDA, Metal).
	Accelerated bool
}

// Profile is the full hardware picture for one setup session.
//
// Rebuilt on every (re-)detection; manual edits mutate it in place and
// flip the affected field's status to manual.
type Profile struct {
	CPU   Detection[CPUInfo]
	RAMGB Detection[int]
	GPU   Detection[GPUInfo]

	// Platform is runtime.GOOS at probe time.
	Platform string
}

// Overrides carries user-entered values for individual signals.
// Nil fields leave the probed value untouched.
type Overrides struct {
	RAMGB   *int    `yaml:"ram_gb,omitempty" validate:"omitempty,gte=1,lte=4096"`
	VRAMGB  *int    `yaml:"vram_gb,omitempty" validate:"omitempty,gte=0,lte=512"`
	GPUType *string `yaml:"gpu_type,omitempty" validate:"omitempty,oneof=none integrated dedicated"`
	CPUName *string `yaml:"cpu_name,omitempty" validate:"omitempty,max=128"`
}

// Apply mutates the profile in place with the override values, flipping
// the affected fields to manual status.
func (o Overrides) Apply(p *Profile) {
	if o.RAMGB != nil {
		p.RAMGB = Manual(*o.RAMGB)
	}
	if o.CPUName != nil {
		cpu := p.CPU.Value
		cpu.Name = *o.CPUName
		cpu.Tier = classifyCPU(cpu.Name, cpu.Cores)
		p.CPU = Manual(cpu)
	}
	if o.GPUType != nil || o.VRAMGB != nil {
		gpu := p.GPU.Value
		if o.GPUType != nil {
			gpu.Type = parseGPUType(*o.GPUType)
			if gpu.Type == GPUNone {
				gpu.Name = ""
				gpu.VRAMGB = 0
				gpu.Accelerated = false
			}
		}
		if o.VRAMGB != nil {
			gpu.VRAMGB = *o.VRAMGB
		}
		p.GPU = Manual(gpu)
	}
}

// parseGPUType maps the override string to a GPUType. Unknown strings
// degrade to none rather than erroring; the validator rejects them
// upstream anyway.
func parseGPUType(s string) GPUType {
	switch s {
	case "integrated":
		return GPUIntegrated
	case "dedicated":
		return GPUDedicated
	default:
		return GPUNone
	}
}
