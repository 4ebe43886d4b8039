// Package poll implements the submit-and-wait state machine for remote
// jobs: submit once, then poll the job status at a fixed interval until it
// reaches a terminal state or an overall deadline elapses.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/asyncops/jobclient/pkg/remote"
)

// Prometheus metrics for poll operations.
var (
	pollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobclient_status_polls_total",
		Help: "Total number of job status polls issued",
	})

	waitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobclient_waits_total",
		Help: "Total completed waits by outcome",
	}, []string{"outcome"}) // "succeeded", "failed", "cancelled", "timeout", "invalid", "transport"

	waitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jobclient_wait_duration_seconds",
		Help:    "Duration of submit-and-wait calls in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	})
)

// Config holds the timing parameters of one wait. Both fields are
// mandatory: an unbounded poll loop is only safe with an external deadline,
// so the deadline is part of the entry point rather than an optional
// wrapper.
type Config struct {
	// Timeout bounds the whole wait, submission excluded.
	Timeout time.Duration

	// CheckInterval is the pause between consecutive status polls.
	CheckInterval time.Duration
}

// Validate checks that both durations are positive.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %s)", c.Timeout)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check interval must be positive (got %s)", c.CheckInterval)
	}
	return nil
}

// Waiter submits jobs and waits for their terminal state. A Waiter is
// stateless across calls and safe to share; each SubmitAndWait invocation
// tracks exactly one job, with no overlapping polls for it.
type Waiter struct {
	submitter remote.Submitter
	poller    remote.StatusPoller
	logger    zerolog.Logger
}

// NewWaiter creates a waiter over the given submission and status
// capabilities.
func NewWaiter(submitter remote.Submitter, poller remote.StatusPoller, logger zerolog.Logger) (*Waiter, error) {
	if submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}
	if poller == nil {
		return nil, fmt.Errorf("status poller is required")
	}
	return &Waiter{
		submitter: submitter,
		poller:    poller,
		logger:    logger,
	}, nil
}

// SubmitAndWait submits the job described by params and polls until it
// succeeds, returning the remote-assigned job id.
//
// Exactly one submission call is issued. The first status poll follows
// immediately; subsequent polls are spaced by cfg.CheckInterval, strictly
// sequential. A cancelled or failed terminal state surfaces as
// ErrJobCancelled or *JobFailedError. When cfg.Timeout elapses first, the
// sleep and the next poll are cancelled, no further polls are issued, and
// ErrWaitTimeout is returned; the remote job itself is not cancelled.
func (w *Waiter) SubmitAndWait(ctx context.Context, params remote.SubmitParams, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("poll config: %w", err)
	}

	start := time.Now()
	defer func() {
		waitDuration.Observe(time.Since(start).Seconds())
	}()

	jobID, err := w.submitter.Submit(ctx, params)
	if err != nil {
		waitsTotal.WithLabelValues("transport").Inc()
		return "", fmt.Errorf("submit job: %w", err)
	}
	if jobID == "" {
		waitsTotal.WithLabelValues("invalid").Inc()
		return "", fmt.Errorf("%w: job id missing from submission response", ErrInvalidStatus)
	}

	w.logger.Debug().
		Str("job_id", jobID).
		Dur("timeout", cfg.Timeout).
		Dur("check_interval", cfg.CheckInterval).
		Msg("Job submitted, waiting for completion")

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := w.waitSucceeded(waitCtx, jobID, cfg.CheckInterval); err != nil {
		// Only the wait deadline itself maps to the timeout error. A poll
		// whose transport round trip timed out also wraps
		// context.DeadlineExceeded, but while the wait budget has not
		// elapsed it is a transport error and propagates unchanged; a
		// cancelled parent context propagates unchanged as well.
		if errors.Is(err, context.DeadlineExceeded) && waitCtx.Err() != nil && ctx.Err() == nil {
			waitsTotal.WithLabelValues("timeout").Inc()
			w.logger.Warn().
				Str("job_id", jobID).
				Dur("timeout", cfg.Timeout).
				Msg("Gave up waiting for job")
			return "", fmt.Errorf("%w: job %s still not terminal after %s", ErrWaitTimeout, jobID, cfg.Timeout)
		}
		waitsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		return "", err
	}

	waitsTotal.WithLabelValues("succeeded").Inc()
	w.logger.Info().
		Str("job_id", jobID).
		Dur("elapsed", time.Since(start)).
		Msg("Job succeeded")

	return jobID, nil
}

// waitSucceeded polls until the job succeeds or the context ends. Poll N+1
// only starts after poll N's response is fully processed.
func (w *Waiter) waitSucceeded(ctx context.Context, jobID string, interval time.Duration) error {
	for {
		pollsTotal.Inc()
		status, err := w.poller.PollStatus(ctx, jobID)
		if err != nil {
			return err
		}

		done, err := checkSucceeded(status)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		w.logger.Debug().
			Str("job_id", jobID).
			Str("state", string(stateOf(status))).
			Msg("Job not terminal yet")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// checkSucceeded maps one status snapshot onto the wait outcome:
// true means done, false means keep polling.
func checkSucceeded(status *remote.JobStatus) (bool, error) {
	if status == nil {
		return false, fmt.Errorf("%w: job record missing", ErrInvalidStatus)
	}
	if status.State == "" {
		return false, fmt.Errorf("%w: job state missing", ErrInvalidStatus)
	}

	switch status.State {
	case remote.StateSucceeded:
		return true, nil
	case remote.StateCancelled:
		return false, ErrJobCancelled
	case remote.StateFailed:
		return false, &JobFailedError{Status: status}
	default:
		// Queued, running, and unrecognized states keep the wait going.
		return false, nil
	}
}

func stateOf(status *remote.JobStatus) remote.JobState {
	if status == nil {
		return ""
	}
	return status.State
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrJobCancelled):
		return "cancelled"
	case errors.Is(err, ErrInvalidStatus):
		return "invalid"
	default:
		var failed *JobFailedError
		if errors.As(err, &failed) {
			return "failed"
		}
		return "transport"
	}
}
