package platform

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGPUTemperatures(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want *float64
	}{
		{name: "empty", out: "", want: nil},
		{name: "single", out: "41\n", want: ptr(41)},
		{name: "max of several", out: "38\n52\n47\n", want: ptr(52)},
		{name: "not available", out: "[N/A]\n", want: nil},
		{name: "mixed", out: "[N/A]\n60\n", want: ptr(60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseGPUTemperatures(tt.out))
		})
	}
}

func TestGPUTemperature_NoDriver(t *testing.T) {
	old := nvidiaSMI
	nvidiaSMI = "gathermetadata-no-such-nvidia-smi"
	t.Cleanup(func() { nvidiaSMI = old })

	temp, err := New().GPUTemperature(context.Background())
	require.NoError(t, err)
	assert.Nil(t, temp)
}

func TestGPUTemperature_FakeBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake")
	}
	fake := filepath.Join(t.TempDir(), "nvidia-smi")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\necho 44\necho 71\n"), 0o755))

	old := nvidiaSMI
	nvidiaSMI = fake
	t.Cleanup(func() { nvidiaSMI = old })

	temp, err := New().GPUTemperature(context.Background())
	require.NoError(t, err)
	require.NotNil(t, temp)
	assert.Equal(t, 71.0, *temp)
}

func TestUname(t *testing.T) {
	p := New()
	u, err := p.Uname()
	if p.Name() == "stub" {
		assert.Error(t, err)
		return
	}
	require.NoError(t, err)
	assert.NotEmpty(t, u.Sysname)
	assert.NotEmpty(t, u.Release)
	assert.NotEmpty(t, u.Machine)
	if runtime.GOOS == "linux" {
		assert.Equal(t, "Linux", u.Sysname)
	}
}

func ptr(f float64) *float64 { return &f }
