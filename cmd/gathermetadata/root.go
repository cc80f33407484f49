package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/INM-6/gather-metadata/internal/artifact"
	"github.com/INM-6/gather-metadata/internal/catalog"
	"github.com/INM-6/gather-metadata/internal/collector"
	"github.com/INM-6/gather-metadata/internal/config"
	"github.com/INM-6/gather-metadata/internal/metrics"
	"github.com/INM-6/gather-metadata/internal/models"
	"github.com/INM-6/gather-metadata/internal/recordable"
)

type options struct {
	configPath       string
	commandTimeout   time.Duration
	logTimeThreshold time.Duration
	parallel         int
	noResultJSON     bool
	metricsFile      string
	disable          []string
	only             []string
	logLevel         string
	logFile          string
	verbose          bool
	list             bool
	dumpConfig       bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "gathermetadata [flags] <outdir>",
		Short: "Record the environment of a benchmark run, one file per source",
		Long: `gathermetadata probes hardware, kernel, scheduler and software sources and
writes each result that could be acquired to its own file in <outdir>.
Sources that are missing, fail or time out are logged and skipped; they never
fail the run. A gather.json manifest summarizes every outcome.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, &opts)
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(fmt.Sprintf("gathermetadata %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH))

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Path to configuration file (default: auto-discover)")
	f.DurationVar(&opts.commandTimeout, "command-timeout", 0, "Timeout per source without its own timeout (default 10s)")
	f.DurationVar(&opts.logTimeThreshold, "log-time-threshold", 0, "Log acquisitions taking longer than this (default 1s)")
	f.IntVarP(&opts.parallel, "parallel", "j", 0, "Number of sources acquired concurrently (default 1)")
	f.BoolVar(&opts.noResultJSON, "no-result-json", false, "Do not write the gather.json manifest")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics of the run to this path")
	f.StringArrayVar(&opts.disable, "disable", nil, "Skip the named source (repeatable)")
	f.StringArrayVar(&opts.only, "only", nil, "Acquire only the named source (repeatable)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&opts.logFile, "log-file", "", "Also write JSON logs to this file")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")
	f.BoolVar(&opts.list, "list", false, "Print the catalogue of sources and exit")
	f.BoolVar(&opts.dumpConfig, "dump-config", false, "Print the effective configuration and exit")

	return cmd
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	cli := config.CLIOverrides{
		CommandTimeout: opts.commandTimeout,
		Parallelism:    opts.parallel,
		NoResultJSON:   opts.noResultJSON,
		MetricsFile:    opts.metricsFile,
		Disable:        opts.disable,
		LogLevel:       opts.logLevel,
		LogFile:        opts.logFile,
	}
	if cmd.Flags().Changed("log-time-threshold") {
		cli.LogTimeThreshold = &opts.logTimeThreshold
	}

	var cfg *config.Config
	var err error
	if cmd.Flags().Changed("config") {
		cfg, err = config.LoadLayered(cli, opts.configPath)
	} else {
		cfg, err = config.LoadLayered(cli)
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if opts.dumpConfig {
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	logger, err := initLogger(cfg.Logging, opts.verbose)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	reg, err := catalog.Default(logger)
	if err != nil {
		return err
	}
	if err := reg.RegisterSpecs(cfg.Recordables); err != nil {
		return fmt.Errorf("registering configured recordables: %w", err)
	}
	if len(opts.only) > 0 {
		reg = reg.Only(opts.only...)
	}
	reg = reg.Without(cfg.Collection.Disable...)

	if opts.list {
		return printCatalogue(cmd.OutOrStdout(), reg, cfg.Collection.CommandTimeout.Duration)
	}

	if len(args) == 0 {
		return errors.New("missing output directory argument")
	}
	outdir := args[0]

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("Received signal, stopping after the current sources",
				zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	var rec *metrics.Recorder
	if cfg.Collection.MetricsFile != "" {
		rec = metrics.NewRecorder()
	}

	c := collector.New(reg, logger,
		collector.WithDefaultTimeout(cfg.Collection.CommandTimeout.Duration),
		collector.WithLogTimeThreshold(cfg.Collection.LogTimeThreshold.Duration),
		collector.WithParallelism(cfg.Collection.Parallelism),
		collector.WithMetrics(rec),
	)

	logger.Info("Starting gathermetadata",
		zap.String("version", version),
		zap.String("outdir", outdir))

	report, err := c.Run(ctx, outdir)
	if err != nil {
		return fmt.Errorf("preparing output directory: %w", err)
	}

	if cfg.Collection.ResultJSON {
		writeManifest(logger, outdir, cfg, report)
	}
	if cfg.Collection.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.Collection.MetricsFile); err != nil {
			logger.Warn("Failed to write metrics", zap.Error(err))
		}
	}
	if report.Interrupted {
		logger.Warn("Run was interrupted; remaining sources were skipped")
	}
	return nil
}

// manifestArgs records how the run was configured.
type manifestArgs struct {
	Outdir     string                  `json:"outdir"`
	Argv       []string                `json:"argv"`
	Collection config.CollectionConfig `json:"collection"`
}

// writeManifest stores gather.json. Failing to write it does not undo the
// artifacts already written, so it is only logged.
func writeManifest(logger *zap.Logger, outdir string, cfg *config.Config, report *models.RunReport) {
	store, err := artifact.Open(outdir, logger)
	if err != nil {
		logger.Error("Failed to write manifest", zap.Error(err))
		return
	}
	args := manifestArgs{Outdir: outdir, Argv: os.Args[1:], Collection: cfg.Collection}
	manifest := models.NewManifest(version, uuid.NewString(), args, report)
	if err := store.WriteJSON(recordable.ManifestFilename, manifest); err != nil {
		logger.Error("Failed to write manifest", zap.Error(err))
	}
}

func printCatalogue(w io.Writer, reg *recordable.Registry, defaultTimeout time.Duration) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tTIMEOUT\tSOURCE")
	for _, rec := range reg.Recordables() {
		timeout := rec.Timeout()
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rec.Name(), rec.Kind(), rec.Filename(), timeout, describe(rec))
	}
	return tw.Flush()
}

func describe(rec recordable.Recordable) string {
	switch r := rec.(type) {
	case *recordable.CommandRecordable:
		return r.Line()
	case *recordable.FileRecordable:
		return r.Path()
	case *recordable.EnvRecordable:
		return "$" + r.Key()
	default:
		return "(built-in)"
	}
}
