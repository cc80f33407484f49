package catalog

import (
	"context"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/INM-6/gather-metadata/internal/recordable"
)

// pseudoFSTypes are virtual or kernel filesystems. They are listed but not
// stat'ed, since their usage numbers carry no information.
var pseudoFSTypes = map[string]bool{
	"devfs":       true,
	"autofs":      true,
	"tmpfs":       true,
	"sysfs":       true,
	"proc":        true,
	"devtmpfs":    true,
	"cgroup":      true,
	"cgroup2":     true,
	"overlay":     true,
	"squashfs":    true,
	"nsfs":        true,
	"pstore":      true,
	"debugfs":     true,
	"tracefs":     true,
	"securityfs":  true,
	"configfs":    true,
	"fusectl":     true,
	"mqueue":      true,
	"hugetlbfs":   true,
	"binfmt_misc": true,
	"efivarfs":    true,
	"bpf":         true,
	"ramfs":       true,
}

// networkFSTypes are shared filesystems. On a cluster these usually hold the
// benchmark inputs and outputs, so they are flagged explicitly.
var networkFSTypes = map[string]bool{
	"nfs":        true,
	"nfs4":       true,
	"cifs":       true,
	"smbfs":      true,
	"fuse.sshfs": true,
	"9p":         true,
	"afs":        true,
	"glusterfs":  true,
	"lustre":     true,
	"ceph":       true,
	"fuse.ceph":  true,
	"gpfs":       true,
	"beegfs":     true,
	"pvfs2":      true,
	"fuse.s3fs":  true,
}

// Partition is one mount with its usage where that could be determined.
type Partition struct {
	Device     string   `json:"device"`
	Mountpoint string   `json:"mountpoint"`
	Fstype     string   `json:"fstype"`
	Opts       []string `json:"opts,omitempty"`
	Class      string   `json:"class"` // local, network or pseudo
	Total      uint64   `json:"total,omitempty"`
	Used       uint64   `json:"used,omitempty"`
	Free       uint64   `json:"free,omitempty"`
	InodesUsed uint64   `json:"inodes_used,omitempty"`
}

func fsClass(fstype string) string {
	switch {
	case pseudoFSTypes[fstype]:
		return "pseudo"
	case networkFSTypes[fstype]:
		return "network"
	default:
		return "local"
	}
}

// diskPartitions records every mount. Network mounts are not stat'ed because
// a stale NFS server would block the call.
func diskPartitions(logger *zap.Logger) recordable.Recordable {
	return recordable.JSON("disk-partitions", func(ctx context.Context) ([]Partition, error) {
		partitions, err := disk.PartitionsWithContext(ctx, true)
		if err != nil {
			return nil, err
		}

		results := make([]Partition, 0, len(partitions))
		for _, p := range partitions {
			part := Partition{
				Device:     p.Device,
				Mountpoint: p.Mountpoint,
				Fstype:     p.Fstype,
				Opts:       p.Opts,
				Class:      fsClass(p.Fstype),
			}
			if part.Class == "local" {
				usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
				if err != nil {
					logger.Debug("Skipping usage of inaccessible partition",
						zap.String("mount", p.Mountpoint),
						zap.Error(err))
				} else {
					part.Total = usage.Total
					part.Used = usage.Used
					part.Free = usage.Free
					part.InodesUsed = usage.InodesUsed
				}
			}
			results = append(results, part)
		}
		return results, nil
	})
}
