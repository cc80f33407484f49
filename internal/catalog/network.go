package catalog

import (
	"context"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/INM-6/gather-metadata/internal/recordable"
)

// netInterfaces records addresses, MTU and flags of every interface, which
// identifies the interconnect (ib0, hsn0, ...) a job ran on.
func netInterfaces() recordable.Recordable {
	return recordable.JSON("net-interfaces", func(ctx context.Context) (net.InterfaceStatList, error) {
		return net.InterfacesWithContext(ctx)
	})
}

// netIO records per-NIC byte and packet counters.
func netIO() recordable.Recordable {
	return recordable.JSON("net-io", func(ctx context.Context) ([]net.IOCountersStat, error) {
		return net.IOCountersWithContext(ctx, true)
	})
}
