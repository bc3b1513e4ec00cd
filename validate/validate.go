// Package validate implements the pre-generation validator (C4): a
// synchronous set of checks run before a job is admitted to the queue,
// built on a host-check backend (github.com/shirou/gopsutil/v3) and a
// backoff-wrapped subprocess probe of the configured encoder binary.
package validate

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/auracorp/aurastudio/config"
	"github.com/auracorp/aurastudio/model"
)

// Validator runs the pre-generation checks for a single candidate job.
type Validator struct {
	ConfiguredEncoderPath string
	WellKnownEncoderPath  string
	OutputDir             string
}

func New(configuredEncoderPath, outputDir string) *Validator {
	return &Validator{
		ConfiguredEncoderPath: configuredEncoderPath,
		WellKnownEncoderPath:  config.PathEncoderDefault,
		OutputDir:             outputDir,
	}
}

// Check runs every precondition and returns (ok, issues). ok is true when
// every hard check passes; the RAM check only adds a warning to issues and
// never clears ok. Every check runs regardless of earlier failures so the
// caller sees every problem in one round trip.
func (v *Validator) Check(ctx context.Context, brief model.Brief, plan model.PlanSpec) (bool, []string) {
	var issues []string

	encoderPath := locateEncoder(v.ConfiguredEncoderPath, v.WellKnownEncoderPath)
	if encoderPath == "" {
		issues = append(issues, "encoder binary not found: configure a path, add it to PATH, or install it at the default location")
	} else if version, err := probeEncoderVersion(ctx, encoderPath); err != nil {
		issues = append(issues, fmt.Sprintf("could not determine encoder version: %v", err))
	} else if !versionAtLeast(version, config.EncoderMinVersion) {
		issues = append(issues, fmt.Sprintf("encoder version %s is below the required minimum %s", version, config.EncoderMinVersion))
	}

	if free, err := freeDiskBytes(v.OutputDir); err != nil {
		issues = append(issues, fmt.Sprintf("could not determine free disk space: %v", err))
	} else if free < config.MinFreeDiskBytes {
		issues = append(issues, fmt.Sprintf("output drive has %d bytes free, need at least %d", free, config.MinFreeDiskBytes))
	}

	if len(brief.TrimmedTopic()) < 3 {
		issues = append(issues, "topic must be at least 3 characters after trimming whitespace")
	}

	if plan.TargetDurationSeconds < config.MinTargetDuration.Seconds() || plan.TargetDurationSeconds > config.MaxTargetDuration.Seconds() {
		issues = append(issues, fmt.Sprintf("target duration must be between %.0fs and %.0fs", config.MinTargetDuration.Seconds(), config.MaxTargetDuration.Seconds()))
	}

	if cores, err := cpu.Counts(true); err != nil {
		issues = append(issues, fmt.Sprintf("could not determine host CPU core count: %v", err))
	} else if cores < config.MinLogicalCores {
		issues = append(issues, fmt.Sprintf("host has %d logical cores, need at least %d", cores, config.MinLogicalCores))
	}

	ok := len(issues) == 0
	if ramWarning := v.checkRAM(); ramWarning != "" {
		issues = append(issues, ramWarning)
	}

	return ok, issues
}

// checkRAM is a warning, not a hard failure: it still surfaces as an issue
// string so the caller can decide whether to block admission on it.
func (v *Validator) checkRAM() string {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return fmt.Sprintf("could not determine host RAM: %v", err)
	}
	if vm.Total < config.MinRAMBytes {
		return fmt.Sprintf("warning: host has %d bytes RAM, recommended minimum is %d", vm.Total, config.MinRAMBytes)
	}
	return ""
}

func freeDiskBytes(dir string) (uint64, error) {
	usage, err := disk.Usage(dir)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}
