//go:build !unix

package platform

import (
	"context"
	"errors"
)

// StubPlatform is used on operating systems without uname(2).
type StubPlatform struct{}

// New creates a stub platform instance.
func New() Platform {
	return &StubPlatform{}
}

// Name returns the platform identifier.
func (p *StubPlatform) Name() string { return "stub" }

// Uname is not supported here.
func (p *StubPlatform) Uname() (Uname, error) {
	return Uname{}, errors.ErrUnsupported
}

// GPUTemperature reads GPU temperatures via nvidia-smi.
func (p *StubPlatform) GPUTemperature(ctx context.Context) (*float64, error) {
	return gpuTemperature(ctx)
}
