package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with an empty config file so that a config
// on the host does not leak into the test.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}\n"), 0o644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := execute(t, "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "cpuinfo")
	assert.Contains(t, out, "/proc/cpuinfo")
	assert.Contains(t, out, "lscpu --json --output-all")
	assert.Contains(t, out, "$SLURM_JOB_ID")
}

func TestList_Disable(t *testing.T) {
	out, err := execute(t, "--list", "--disable", "dmidecode")
	require.NoError(t, err)
	assert.NotContains(t, out, "dmidecode")
}

func TestDumpConfig(t *testing.T) {
	out, err := execute(t, "--dump-config", "--command-timeout", "3s")
	require.NoError(t, err)
	assert.Contains(t, out, "command_timeout: 3s")
}

func TestMissingOutdir(t *testing.T) {
	_, err := execute(t)
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, "--parallel", "1000", t.TempDir())
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	t.Setenv("GATHERMETADATA_TEST_VALUE", "42")
	dir := filepath.Join(t.TempDir(), "about")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
recordables:
  - {name: test-value, type: env, key: GATHERMETADATA_TEST_VALUE}
  - {name: test-missing, type: command, command: "gathermetadata-no-such-tool"}
`), 0o644))
	metricsPath := filepath.Join(t.TempDir(), "run.prom")

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--config", cfgPath, "--log-level", "error",
		"--only", "go-runtime", "--only", "test-value", "--only", "test-missing",
		"--metrics-file", metricsPath,
		dir,
	})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(filepath.Join(dir, "test-value"))
	require.NoError(t, err)
	assert.Equal(t, "42", string(data))
	assert.FileExists(t, filepath.Join(dir, "go-runtime.json"))
	assert.NoFileExists(t, filepath.Join(dir, "test-missing"))

	raw, err := os.ReadFile(filepath.Join(dir, "gather.json"))
	require.NoError(t, err)
	var manifest struct {
		Version string `json:"version"`
		RunID   string `json:"run_id"`
		Results map[string]struct {
			State  string `json:"state"`
			Reason string `json:"reason"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.NotEmpty(t, manifest.RunID)
	assert.Len(t, manifest.Results, 3)
	assert.Equal(t, "succeeded", manifest.Results["test-value"].State)
	assert.Equal(t, "skipped", manifest.Results["test-missing"].State)
	assert.Equal(t, "SOURCE_UNAVAILABLE", manifest.Results["test-missing"].Reason)

	assert.FileExists(t, metricsPath)
}

func TestRun_NoResultJSON(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "--only", "go-runtime", "--no-result-json", dir)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "gather.json"))
	assert.FileExists(t, filepath.Join(dir, "go-runtime.json"))
}

func TestRun_UnusableOutdir(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, nil, 0o644))

	_, err := execute(t, "--only", "go-runtime", filepath.Join(parent, "out"))
	assert.Error(t, err)
}
