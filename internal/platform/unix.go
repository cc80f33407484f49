//go:build unix

package platform

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

// UnixPlatform implements Platform on top of the unix system calls.
type UnixPlatform struct{}

// New creates a new platform instance for unix systems.
func New() Platform {
	return &UnixPlatform{}
}

// Name returns the platform identifier.
func (p *UnixPlatform) Name() string { return "unix" }

// Uname calls uname(2).
func (p *UnixPlatform) Uname() (Uname, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return Uname{}, fmt.Errorf("uname: %w", err)
	}
	return Uname{
		Sysname:    unix.ByteSliceToString(u.Sysname[:]),
		Nodename:   unix.ByteSliceToString(u.Nodename[:]),
		Release:    unix.ByteSliceToString(u.Release[:]),
		Version:    unix.ByteSliceToString(u.Version[:]),
		Machine:    unix.ByteSliceToString(u.Machine[:]),
		Domainname: domainname(&u),
	}, nil
}

// GPUTemperature reads GPU temperatures via nvidia-smi.
func (p *UnixPlatform) GPUTemperature(ctx context.Context) (*float64, error) {
	return gpuTemperature(ctx)
}
