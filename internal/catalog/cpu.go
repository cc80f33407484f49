package catalog

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"

	"github.com/INM-6/gather-metadata/internal/recordable"
)

// cpuSampleInterval is how long cpu-counts samples utilization.
const cpuSampleInterval = 500 * time.Millisecond

// CPUCounts holds core counts and a short utilization sample, which tells
// whether the node was idle when a benchmark started.
type CPUCounts struct {
	Logical  int       `json:"logical"`
	Physical int       `json:"physical"`
	Overall  float64   `json:"overall_percent"`
	Cores    []float64 `json:"per_core_percent,omitempty"`
}

// cpuInfo records model, flags and cache size of every logical CPU.
func cpuInfo() recordable.Recordable {
	return recordable.JSON("cpu-info", cpu.InfoWithContext)
}

// cpuCounts records logical and physical core counts plus utilization.
func cpuCounts() recordable.Recordable {
	return recordable.JSON("cpu-counts", func(ctx context.Context) (CPUCounts, error) {
		logical, err := cpu.CountsWithContext(ctx, true)
		if err != nil {
			return CPUCounts{}, err
		}
		// Physical counts are missing in some containers; keep the logical one.
		physical, _ := cpu.CountsWithContext(ctx, false)

		result := CPUCounts{Logical: logical, Physical: physical}

		cores, err := cpu.PercentWithContext(ctx, cpuSampleInterval, true)
		if err != nil {
			return result, nil
		}
		result.Cores = cores
		for _, c := range cores {
			result.Overall += c
		}
		if len(cores) > 0 {
			result.Overall /= float64(len(cores))
		}
		return result, nil
	})
}

// loadAvg records the 1, 5 and 15 minute load averages.
func loadAvg() recordable.Recordable {
	return recordable.JSON("load-avg", load.AvgWithContext)
}
