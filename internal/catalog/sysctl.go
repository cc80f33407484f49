package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/INM-6/gather-metadata/internal/recordable"
)

const sysctlRoot = "/proc/sys"

// Keys left out of sysctl dumps: write-only triggers and values that change
// on every read.
var filterOutSysctlKeys = []string{
	"kernel.random.uuid",
	"kernel.random.boot_id",
	"kernel.ns_last_pid",
}

// procSysKernel records every readable parameter below /proc/sys/kernel.
func procSysKernel() recordable.Recordable {
	return sysctlTree("proc-sys-kernel", filepath.Join(sysctlRoot, "kernel"), sysctlRoot)
}

// sysctlTree walks dir and renders each readable file as a "dotted.key = value"
// line, the format of sysctl -a. Keys are relative to root. Multi-line values
// are joined with spaces.
func sysctlTree(name, dir, root string) recordable.Recordable {
	return recordable.Func(name, func(ctx context.Context) ([]byte, error) {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable subtrees are common for unprivileged users.
				if d != nil && d.IsDir() && path != dir {
					return fs.SkipDir
				}
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil || strings.HasPrefix(rel, "..") {
				return fmt.Errorf("path outside of %s: %s", root, path)
			}
			key := strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
			if filteredOut(key) {
				return nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				// Write-only or restricted parameter.
				return nil
			}
			value := strings.Join(strings.Fields(string(data)), " ")
			fmt.Fprintf(&buf, "%s = %s\n", key, value)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", dir, err)
		}
		return buf.Bytes(), nil
	})
}

func filteredOut(key string) bool {
	for _, k := range filterOutSysctlKeys {
		if k == key {
			return true
		}
	}
	return false
}
