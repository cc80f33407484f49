package catalog

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/INM-6/gather-metadata/internal/recordable"
)

// BootTime holds when the node last booted.
type BootTime struct {
	BootTime      string `json:"boot_time"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
}

// bootTime records the boot time as RFC3339 and the uptime derived from it.
func bootTime() recordable.Recordable {
	return recordable.JSON("boot-time", func(ctx context.Context) (BootTime, error) {
		boot, err := host.BootTimeWithContext(ctx)
		if err != nil {
			return BootTime{}, err
		}
		uptime, err := host.UptimeWithContext(ctx)
		if err != nil {
			return BootTime{}, err
		}
		return BootTime{
			BootTime:      time.Unix(int64(boot), 0).UTC().Format(time.RFC3339),
			UptimeSeconds: uptime,
		}, nil
	})
}
