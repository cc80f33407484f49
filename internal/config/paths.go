package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	paths := make([]string, 0, 2)
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".gathermetadata", "config.yaml"))
	}
	return append(paths, "/etc/gathermetadata/config.yaml")
}
