// Package platform provides an OS abstraction layer for the host facts that
// gopsutil does not expose in the form the catalogue records them.
package platform

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
)

// Platform provides OS-specific functionality beyond what gopsutil offers.
type Platform interface {
	// Uname returns the kernel identification of the running host.
	Uname() (Uname, error)

	// GPUTemperature returns the hottest GPU temperature in °C.
	// Returns nil if no GPU reading can be determined.
	GPUTemperature(ctx context.Context) (*float64, error)

	// Name returns the platform name (unix, stub).
	Name() string
}

// Uname mirrors the fields of uname(2).
type Uname struct {
	Sysname    string `json:"sysname"`
	Nodename   string `json:"nodename"`
	Release    string `json:"release"`
	Version    string `json:"version"`
	Machine    string `json:"machine"`
	Domainname string `json:"domainname,omitempty"`
}

// nvidiaSMI is a variable so tests can point it at a fake binary.
var nvidiaSMI = "nvidia-smi"

// gpuTemperature queries nvidia-smi for every GPU and returns the maximum.
func gpuTemperature(ctx context.Context) (*float64, error) {
	out, err := exec.CommandContext(ctx, nvidiaSMI,
		"--query-gpu=temperature.gpu", "--format=csv,noheader,nounits").Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, nil // No NVIDIA driver installed
		}
		return nil, err
	}
	return parseGPUTemperatures(string(out)), nil
}

// parseGPUTemperatures returns the maximum of one reading per line, or nil
// when no line holds a number ("[N/A]" is common on passively cooled cards).
func parseGPUTemperatures(out string) *float64 {
	var max *float64
	for _, line := range strings.Split(out, "\n") {
		t, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err != nil {
			continue
		}
		if max == nil || t > *max {
			max = &t
		}
	}
	return max
}
