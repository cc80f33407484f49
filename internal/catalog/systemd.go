package catalog

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
	"go.uber.org/zap"

	"github.com/INM-6/gather-metadata/internal/recordable"
)

// systemdUnits are the services a benchmark result on a cluster node depends on.
var systemdUnits = []string{
	"slurmd.service",
	"munge.service",
	"sshd.service",
	"chronyd.service",
	"nvidia-persistenced.service",
}

// unitPropertyKeys is the subset of unit properties worth keeping.
var unitPropertyKeys = []string{
	"Description",
	"LoadState",
	"ActiveState",
	"SubState",
	"UnitFileState",
	"FragmentPath",
	"MainPID",
	"ActiveEnterTimestamp",
	"ExecMainStartTimestamp",
	"NRestarts",
	"CPUAffinity",
	"LimitMEMLOCK",
	"LimitNOFILE",
}

// systemdUnitsRecordable records the state of systemdUnits via the systemd
// D-Bus API. Units that are not installed are recorded with LoadState
// "not-found".
func systemdUnitsRecordable(units []string, logger *zap.Logger) recordable.Recordable {
	const name = "systemd-units"
	return recordable.JSON(name, func(ctx context.Context) (map[string]map[string]any, error) {
		conn, err := dbus.NewSystemdConnectionContext(ctx)
		if err != nil {
			return nil, recordable.Unavailable(name, fmt.Errorf("connecting to systemd: %w", err))
		}
		defer conn.Close()

		result := make(map[string]map[string]any, len(units))
		for _, unit := range units {
			props, err := conn.GetAllPropertiesContext(ctx, unit)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Debug("Skipping systemd unit",
					zap.String("unit", unit),
					zap.Error(err))
				continue
			}
			result[unit] = selectProperties(props, unitPropertyKeys)
		}
		return result, nil
	})
}

func selectProperties(props map[string]any, keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := props[k]; ok {
			out[k] = v
		}
	}
	return out
}
