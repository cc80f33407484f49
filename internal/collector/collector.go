// Package collector is the recordable execution engine. It runs every
// recordable of a registry against a target directory, isolating failures so
// that a missing, failing or hanging source never affects its siblings or the
// outcome of the run as a whole.
package collector

import (
	"time"

	"go.uber.org/zap"

	"github.com/INM-6/gather-metadata/internal/metrics"
	"github.com/INM-6/gather-metadata/internal/recordable"
)

const (
	// DefaultTimeout bounds each acquisition that does not set its own timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultLogTimeThreshold is the acquisition time above which the
	// duration is logged at info level.
	DefaultLogTimeThreshold = time.Second
)

// Collector executes the recordables of a registry.
type Collector struct {
	registry         *recordable.Registry
	logger           *zap.Logger
	defaultTimeout   time.Duration
	logTimeThreshold time.Duration
	parallelism      int
	metrics          *metrics.Recorder
}

// Option configures a Collector.
type Option func(*Collector)

// WithDefaultTimeout sets the bound for recordables without their own timeout.
// Non-positive values keep DefaultTimeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

// WithLogTimeThreshold sets the duration above which acquisitions are logged.
func WithLogTimeThreshold(d time.Duration) Option {
	return func(c *Collector) { c.logTimeThreshold = d }
}

// WithParallelism runs up to n recordables at once. Values below 2 keep the
// sequential loop.
func WithParallelism(n int) Option {
	return func(c *Collector) {
		if n < 1 {
			n = 1
		}
		c.parallelism = n
	}
}

// WithMetrics records per-recordable and per-run metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Collector) { c.metrics = m }
}

// New creates a Collector for registry. A nil logger disables logging.
func New(registry *recordable.Registry, logger *zap.Logger, opts ...Option) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		registry:         registry,
		logger:           logger,
		defaultTimeout:   DefaultTimeout,
		logTimeThreshold: DefaultLogTimeThreshold,
		parallelism:      1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
