package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/INM-6/gather-metadata/internal/platform"
	"github.com/INM-6/gather-metadata/internal/recordable"
)

// Sensor name substrings that identify CPU temperature sensors.
// Linux: coretemp_core_0_input, k10temp_tctl_input, acpitz_temp1_input, zenpower_tctl_input
var cpuSensorKeys = []string{
	"cpu", "core", "package",
	"tctl", "tdie", "k10temp", "coretemp",
	"acpitz", "zenpower",
}

// Sensor name substrings that identify GPU temperature sensors.
// Linux: amdgpu_edge_input, nouveau_temp1_input
var gpuSensorKeys = []string{
	"gpu", "nvidia", "amd", "radeon",
	"amdgpu", "nouveau",
}

const (
	minValidTemp = 0.0
	// Readings above this are sensor errors.
	maxValidTemp = 150.0
)

// Sensor is one thermal reading in °C.
type Sensor struct {
	Key         string  `json:"key"`
	Temperature float64 `json:"temperature"`
	High        float64 `json:"high,omitempty"`
	Critical    float64 `json:"critical,omitempty"`
}

// Temperatures holds every valid sensor plus the hottest CPU and GPU
// reading. Throttled nodes explain outliers in benchmark timings.
type Temperatures struct {
	CPUMax  *float64 `json:"cpu_max"`
	GPUMax  *float64 `json:"gpu_max"`
	Sensors []Sensor `json:"sensors"`
}

// sensorsTemperature falls back to the platform for GPUs that expose no
// hwmon sensor (NVIDIA with the proprietary driver).
func sensorsTemperature(p platform.Platform, logger *zap.Logger) recordable.Recordable {
	return recordable.JSON("sensors-temperature", func(ctx context.Context) (Temperatures, error) {
		temps, err := host.SensorsTemperaturesWithContext(ctx)
		if err != nil {
			// Partial results come with a warnings error.
			logger.Debug("Temperature sensors reported errors", zap.Error(err))
		}

		result := Temperatures{Sensors: make([]Sensor, 0, len(temps))}
		for _, t := range temps {
			if !isValidTemperature(t.Temperature) {
				continue
			}
			result.Sensors = append(result.Sensors, Sensor{
				Key:         t.SensorKey,
				Temperature: t.Temperature,
				High:        t.High,
				Critical:    t.Critical,
			})

			name := strings.ToLower(t.SensorKey)
			if matchesSensor(name, cpuSensorKeys) {
				result.CPUMax = maxOf(result.CPUMax, t.Temperature)
			}
			if matchesSensor(name, gpuSensorKeys) {
				result.GPUMax = maxOf(result.GPUMax, t.Temperature)
			}
		}

		if result.GPUMax == nil && p != nil {
			gpu, err := p.GPUTemperature(ctx)
			if err != nil {
				logger.Debug("Platform GPU temperature fallback failed", zap.Error(err))
			} else if gpu != nil && isValidTemperature(*gpu) {
				result.GPUMax = gpu
			}
		}

		if len(result.Sensors) == 0 && result.GPUMax == nil {
			cause := errors.New("no temperature sensors found")
			if err != nil {
				cause = fmt.Errorf("no temperature sensors found: %w", err)
			}
			return result, recordable.Unavailable("sensors-temperature", cause)
		}
		return result, nil
	})
}

func maxOf(cur *float64, v float64) *float64 {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}

// matchesSensor checks if the sensor name contains any of the given key substrings.
func matchesSensor(name string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(name, key) {
			return true
		}
	}
	return false
}

func isValidTemperature(temp float64) bool {
	return temp > minValidTemp && temp <= maxValidTemp
}
