// Package catalog assembles the built-in recordables: host facts read through
// gopsutil, x/sys and the systemd D-Bus API, kernel files under /proc, job
// scheduler environment variables, and the external command table embedded
// from commands.yaml.
package catalog

import (
	_ "embed"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/INM-6/gather-metadata/internal/platform"
	"github.com/INM-6/gather-metadata/internal/recordable"
)

//go:embed commands.yaml
var commandsYAML []byte

// procFiles are kernel files copied verbatim.
var procFiles = []struct{ name, path string }{
	{"cpuinfo", "/proc/cpuinfo"},
	{"meminfo", "/proc/meminfo"},
	{"proc-cmdline", "/proc/cmdline"},
	{"proc-modules", "/proc/modules"},
}

// envVars are the scheduler and runtime variables that shape a benchmark run.
var envVars = []string{
	"SLURM_JOB_ID",
	"SLURM_JOB_NODELIST",
	"SLURM_NTASKS",
	"SLURM_CPUS_PER_TASK",
	"OMP_NUM_THREADS",
	"OMP_PROC_BIND",
	"OMP_PLACES",
	"CUDA_VISIBLE_DEVICES",
	"LD_LIBRARY_PATH",
	"PATH",
	"PYTHONPATH",
	"NEST_INSTALL_DIR",
	"CONDA_DEFAULT_ENV",
}

type commandTable struct {
	Commands []recordable.Spec `yaml:"commands"`
}

// Commands returns the embedded external command table in order.
// Entries without a type are commands.
func Commands() ([]recordable.Spec, error) {
	return parseCommands(commandsYAML)
}

func parseCommands(data []byte) ([]recordable.Spec, error) {
	var table commandTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing command table: %w", err)
	}
	for i := range table.Commands {
		if table.Commands[i].Type == "" {
			table.Commands[i].Type = recordable.TypeCommand
		}
	}
	return table.Commands, nil
}

// Builtins returns the library-call, file and environment recordables in
// catalogue order. Cheap sources come first.
func Builtins(p platform.Platform, logger *zap.Logger) []recordable.Recordable {
	if logger == nil {
		logger = zap.NewNop()
	}

	recs := []recordable.Recordable{
		uname(p),
		hostInfo(),
		cpuInfo(),
		cpuCounts(),
		memory(),
		swap(),
		loadAvg(),
		diskPartitions(logger),
		netInterfaces(),
		netIO(),
		bootTime(),
		sensorsTemperature(p, logger),
		processesTop(),
		goRuntime(),
		osRelease(),
		procSysKernel(),
		systemdUnitsRecordable(systemdUnits, logger),
	}
	for _, f := range procFiles {
		recs = append(recs, recordable.File(f.name, f.path))
	}
	for _, key := range envVars {
		recs = append(recs, recordable.Env(key, key))
	}
	return recs
}

// Default builds the registry of every built-in recordable followed by the
// embedded command table.
func Default(logger *zap.Logger) (*recordable.Registry, error) {
	return Build(platform.New(), logger)
}

// Build is Default with an explicit platform.
func Build(p platform.Platform, logger *zap.Logger) (*recordable.Registry, error) {
	reg := recordable.NewRegistry(logger)
	for _, rec := range Builtins(p, logger) {
		if err := reg.Register(rec); err != nil {
			return nil, fmt.Errorf("registering built-in recordable: %w", err)
		}
	}

	specs, err := Commands()
	if err != nil {
		return nil, err
	}
	if err := reg.RegisterSpecs(specs); err != nil {
		return nil, fmt.Errorf("registering command table: %w", err)
	}
	return reg, nil
}
