package catalog

import (
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/INM-6/gather-metadata/internal/recordable"
)

// memory records the full virtual memory statistics, including hugepage counters.
func memory() recordable.Recordable {
	return recordable.JSON("memory", mem.VirtualMemoryWithContext)
}

func swap() recordable.Recordable {
	return recordable.JSON("swap", mem.SwapMemoryWithContext)
}
