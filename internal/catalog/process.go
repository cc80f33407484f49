package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/INM-6/gather-metadata/internal/recordable"
)

// topProcesses is how many processes processes-top keeps.
const topProcesses = 25

// normalizedStatuses maps raw gopsutil status strings to a consistent set of
// values across platforms.
var normalizedStatuses = map[string]string{
	"running":               "running",
	"sleeping":              "sleeping",
	"idle":                  "idle",
	"stopped":               "stopped",
	"zombie":                "zombie",
	"wait":                  "sleeping",
	"lock":                  "sleeping",
	"sleep":                 "sleeping",
	"disk-sleep":            "sleeping",
	"tracing-stop":          "stopped",
	"dead":                  "zombie",
	"wake-kill":             "sleeping",
	"waking":                "running",
	"parked":                "idle",
	"idle-interrupt":        "idle",
	"suspended":             "stopped",
	"uninterruptible-sleep": "sleeping",
}

// normalizeStatus maps a raw status. An empty status is inferred from CPU
// activity: CPU > 0 is "running", otherwise "idle".
func normalizeStatus(raw string, cpuPct float64) string {
	if raw != "" {
		key := strings.ToLower(strings.TrimSpace(raw))
		if mapped, ok := normalizedStatuses[key]; ok {
			return mapped
		}
		return key
	}
	if cpuPct > 0 {
		return "running"
	}
	return "idle"
}

// ProcessInfo describes one process competing with the benchmark.
type ProcessInfo struct {
	PID     int32   `json:"pid"`
	Name    string  `json:"name"`
	User    string  `json:"user,omitempty"`
	Cmdline string  `json:"cmdline,omitempty"`
	Threads int32   `json:"threads,omitempty"`
	CPU     float64 `json:"cpu_percent"`
	Memory  float64 `json:"memory_percent"`
	Status  string  `json:"status"`
}

// processesTop records the busiest processes by CPU usage. Processes that
// vanish or deny access while being inspected are recorded with what could
// be read.
func processesTop() recordable.Recordable {
	return recordable.JSON("processes-top", func(ctx context.Context) ([]ProcessInfo, error) {
		procs, err := process.ProcessesWithContext(ctx)
		if err != nil {
			return nil, err
		}

		infos := make([]ProcessInfo, 0, len(procs))
		for _, p := range procs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			name, _ := p.NameWithContext(ctx)
			cpuPct, _ := p.CPUPercentWithContext(ctx)
			memPct, _ := p.MemoryPercentWithContext(ctx)
			status, _ := p.StatusWithContext(ctx)

			rawStatus := ""
			if len(status) > 0 {
				rawStatus = status[0]
			}

			infos = append(infos, ProcessInfo{
				PID:    p.Pid,
				Name:   name,
				CPU:    cpuPct,
				Memory: float64(memPct),
				Status: normalizeStatus(rawStatus, cpuPct),
			})
		}

		sort.SliceStable(infos, func(i, j int) bool {
			return infos[i].CPU > infos[j].CPU
		})
		if len(infos) > topProcesses {
			infos = infos[:topProcesses]
		}

		// Only the kept processes are worth the extra syscalls.
		for i := range infos {
			p := &process.Process{Pid: infos[i].PID}
			infos[i].User, _ = p.UsernameWithContext(ctx)
			infos[i].Cmdline, _ = p.CmdlineWithContext(ctx)
			infos[i].Threads, _ = p.NumThreadsWithContext(ctx)
		}
		return infos, nil
	})
}
