// Package metrics exposes collection-run health as Prometheus metrics.
// A run is short-lived, so the metrics are exported as a node-exporter
// textfile rather than served over HTTP.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/INM-6/gather-metadata/internal/models"
)

const namespace = "gathermetadata"

// Recorder collects metrics for one or more runs on a private registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	recordables *prometheus.CounterVec
	skips       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	bytes       prometheus.Counter
	lastRun     prometheus.Gauge
	runDuration prometheus.Gauge
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		recordables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordables_total",
			Help:      "Recordables processed, by final state.",
		}, []string{"state"}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skips_total",
			Help:      "Skipped recordables, by reason.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "acquisition_seconds",
			Help:      "Acquisition duration per recordable kind.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_bytes_total",
			Help:      "Bytes written to artifacts.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}

	r.registry.MustRegister(r.recordables, r.skips, r.duration, r.bytes, r.lastRun, r.runDuration)
	return r
}

// Observe records the outcome of one recordable.
func (r *Recorder) Observe(res models.Result) {
	if r == nil {
		return
	}
	r.recordables.WithLabelValues(res.State.String()).Inc()
	r.duration.WithLabelValues(res.Kind).Observe(res.Duration.Seconds())
	if res.Succeeded() {
		r.bytes.Add(float64(res.Bytes))
		return
	}
	if res.Reason != "" {
		r.skips.WithLabelValues(res.Reason).Inc()
	}
}

// RunFinished records run-level gauges.
func (r *Recorder) RunFinished(report *models.RunReport) {
	if r == nil || report == nil {
		return
	}
	r.lastRun.Set(float64(report.Start.Add(report.Duration).UnixNano()) / float64(time.Second))
	r.runDuration.Set(report.Duration.Seconds())
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics in the text exposition format to path.
// The file is replaced atomically, as the node-exporter textfile collector expects.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
