package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/INM-6/gather-metadata/internal/artifact"
	"github.com/INM-6/gather-metadata/internal/models"
	"github.com/INM-6/gather-metadata/internal/recordable"
)

// errInterrupted marks recordables that were not run because the caller
// cancelled the run.
var errInterrupted = errors.New("run interrupted")

// Run collects every recordable into dir, creating the directory if needed.
//
// The returned error is non-nil only when dir cannot be created or written;
// in that case no artifact is produced. Individual sources that fail are
// logged and reported as skipped. Cancelling ctx stops the run early; the
// artifacts written so far stay in place and RunReport.Interrupted is set.
func (c *Collector) Run(ctx context.Context, dir string) (*models.RunReport, error) {
	store, err := artifact.Open(dir, c.logger)
	if err != nil {
		return nil, err
	}

	recs := c.registry.Recordables()
	report := &models.RunReport{
		Dir:     dir,
		Start:   time.Now(),
		Results: make([]models.Result, len(recs)),
	}
	for i, rec := range recs {
		report.Results[i] = models.Result{
			Name:  rec.Name(),
			Kind:  rec.Kind().String(),
			State: models.StatePending,
		}
	}

	c.logger.Info("Gathering metadata",
		zap.String("dir", dir),
		zap.Int("recordables", len(recs)),
		zap.Int("parallelism", c.parallelism))

	if c.parallelism <= 1 {
		for i, rec := range recs {
			report.Results[i] = c.record(ctx, store, rec)
		}
	} else {
		// Work functions never return an error, so one failure cannot
		// cancel the others. Each goroutine owns one slot of Results.
		var g errgroup.Group
		g.SetLimit(c.parallelism)
		for i, rec := range recs {
			i, rec := i, rec
			g.Go(func() error {
				report.Results[i] = c.record(ctx, store, rec)
				return nil
			})
		}
		_ = g.Wait()
	}

	report.Duration = time.Since(report.Start)
	report.Interrupted = ctx.Err() != nil
	c.metrics.RunFinished(report)

	c.logger.Info("Metadata gathered",
		zap.String("dir", dir),
		zap.Int("succeeded", len(report.Succeeded())),
		zap.Int("skipped", len(report.Skipped())),
		zap.Bool("interrupted", report.Interrupted),
		zap.Duration("duration", report.Duration))

	return report, nil
}

// record runs one recordable and writes its artifact.
// Every outcome, including a failed write, ends as a Result.
func (c *Collector) record(ctx context.Context, store *artifact.Store, rec recordable.Recordable) models.Result {
	res := models.Result{
		Name:  rec.Name(),
		Kind:  rec.Kind().String(),
		State: models.StateRunning,
		Start: time.Now(),
	}

	if err := ctx.Err(); err != nil {
		return c.skip(res, recordable.Failed(rec.Name(), fmt.Errorf("%w: %v", errInterrupted, err)))
	}

	c.logger.Info("Recording", zap.String("name", rec.Name()))

	data, err := c.acquire(ctx, rec)
	res.Duration = time.Since(res.Start)
	if res.Duration > c.logTimeThreshold {
		c.logger.Info("Slow acquisition",
			zap.String("name", rec.Name()),
			zap.Duration("took", res.Duration))
	}
	if err != nil {
		return c.skip(res, recordable.Classify(rec.Name(), err))
	}

	if err := store.Write(rec.Filename(), data); err != nil {
		return c.skip(res, recordable.Failed(rec.Name(), err))
	}

	sum := sha256.Sum256(data)
	res.State = models.StateSucceeded
	res.File = rec.Filename()
	res.Bytes = len(data)
	res.SHA256 = hex.EncodeToString(sum[:])

	c.logger.Debug("Recorded",
		zap.String("name", rec.Name()),
		zap.String("file", res.File),
		zap.Int("bytes", res.Bytes),
		zap.Duration("took", res.Duration))
	c.metrics.Observe(res)
	return res
}

func (c *Collector) skip(res models.Result, ae *recordable.AcquisitionError) models.Result {
	res.State = models.StateSkipped
	res.Reason = string(ae.Reason)
	if ae.Cause != nil {
		res.Error = ae.Cause.Error()
	}

	// Skips are the normal outcome on most machines; they are informational.
	c.logger.Info("Skipping recordable",
		zap.String("name", res.Name),
		zap.String("reason", res.Reason),
		zap.String("error", res.Error))
	c.metrics.Observe(res)
	return res
}

type outcome struct {
	data []byte
	err  error
}

// acquire invokes rec.Acquire under the recordable's timeout. The call runs in
// its own goroutine so that a panic is contained and a source ignoring its
// context is abandoned once the deadline passes.
func (c *Collector) acquire(ctx context.Context, rec recordable.Recordable) ([]byte, error) {
	timeout := rec.Timeout()
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: recordable.Failed(rec.Name(), fmt.Errorf("panic: %v", p))}
			}
		}()
		data, err := rec.Acquire(actx)
		done <- outcome{data: data, err: err}
	}()

	select {
	case o := <-done:
		return o.data, o.err
	case <-actx.Done():
		if ctx.Err() != nil {
			return nil, recordable.Failed(rec.Name(), fmt.Errorf("%w: %v", errInterrupted, ctx.Err()))
		}
		c.logger.Info("Acquisition did not finish in time, abandoning it",
			zap.String("name", rec.Name()),
			zap.Duration("timeout", timeout))
		return nil, recordable.TimedOut(rec.Name(), fmt.Errorf("no result after %s: %w", timeout, actx.Err()))
	}
}
