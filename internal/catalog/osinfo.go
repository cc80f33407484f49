package catalog

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/INM-6/gather-metadata/internal/platform"
	"github.com/INM-6/gather-metadata/internal/recordable"
)

// osReleasePaths are tried in order, see os-release(5).
var osReleasePaths = []string{"/etc/os-release", "/usr/lib/os-release"}

func uname(p platform.Platform) recordable.Recordable {
	return recordable.JSON("uname", func(context.Context) (platform.Uname, error) {
		return p.Uname()
	})
}

// hostInfo records hostname, OS, platform, kernel and virtualization role.
func hostInfo() recordable.Recordable {
	return recordable.JSON("host-info", host.InfoWithContext)
}

// osRelease records the distribution identification as a JSON object.
func osRelease() recordable.Recordable {
	return recordable.JSON("os-release", func(ctx context.Context) (map[string]string, error) {
		return readOSRelease(ctx, osReleasePaths)
	})
}

func readOSRelease(ctx context.Context, paths []string) (map[string]string, error) {
	var lastErr error = fs.ErrNotExist
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		return parseKeyValueFile(string(data)), nil
	}
	return nil, lastErr
}

// parseKeyValueFile parses KEY=VALUE lines (like /etc/os-release) and strips
// surrounding quotes from values.
func parseKeyValueFile(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, `"'`)
	}
	return fields
}
