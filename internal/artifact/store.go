// Package artifact stores collected metadata in a flat target directory.
// Each artifact is one file, written atomically so an interrupted run never
// leaves a half-written file behind under its final name.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
	// tmpPattern is fixed so temporary names stay short whatever the
	// artifact name.
	tmpPattern = ".gathermetadata-*.tmp"
)

// Store writes artifacts into a target directory owned by the caller.
// The store never deletes artifacts it did not just replace.
type Store struct {
	dir    string
	logger *zap.Logger
	mu     sync.Mutex
}

// Open ensures dir exists and is writable. An existing directory is reused.
// This is the only precondition whose failure aborts a run.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		return nil, fmt.Errorf("target directory is required")
	}

	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("target %s is not a directory", dir)
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("creating target directory: %w", err)
		}
		logger.Warn("Created output directory", zap.String("dir", dir))
	case err != nil:
		return nil, fmt.Errorf("checking target directory: %w", err)
	}

	// Probe writability up front so a read-only target fails the run
	// instead of turning every recordable into a skip.
	probe, err := os.CreateTemp(dir, ".gathermetadata-probe-*")
	if err != nil {
		return nil, fmt.Errorf("target directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the target directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the full path of filename inside the target directory.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// Write stores data under filename, replacing any previous content.
// filename must be a flat, already sanitized name.
func (s *Store) Write(filename string, data []byte) error {
	if filename == "" || strings.ContainsRune(filename, os.PathSeparator) || filename == "." || filename == ".." {
		return fmt.Errorf("invalid artifact file name %q", filename)
	}

	path := s.Path(filename)
	tmp, err := os.CreateTemp(s.dir, tmpPattern)
	if err != nil {
		return fmt.Errorf("creating temporary file for %s: %w", filename, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("setting mode of %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", filename, err)
	}

	// Renames of distinct names are independent; the lock only serializes
	// replacements of the same name by concurrent writers.
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", filename, err)
	}

	s.logger.Debug("Wrote artifact", zap.String("file", path), zap.Int("bytes", len(data)))
	return nil
}

// WriteJSON marshals v with indentation and stores it under filename.
func (s *Store) WriteJSON(filename string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filename, err)
	}
	return s.Write(filename, append(data, '\n'))
}

// Files returns the names of the regular, non-hidden files in the target
// directory, sorted.
func (s *Store) Files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
