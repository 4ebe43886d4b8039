// Package results composes job submission, completion waiting, and result
// page streaming: rows become available only after the job is known to have
// succeeded.
package results

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/asyncops/jobclient/pkg/pagestream"
	"github.com/asyncops/jobclient/pkg/poll"
	"github.com/asyncops/jobclient/pkg/remote"
)

// Streamer runs a job to completion and streams its output rows.
type Streamer struct {
	waiter  *poll.Waiter
	fetcher remote.PageFetcher
	logger  zerolog.Logger
}

// NewStreamer creates a streamer over the given wait and page capabilities.
func NewStreamer(waiter *poll.Waiter, fetcher remote.PageFetcher, logger zerolog.Logger) (*Streamer, error) {
	if waiter == nil {
		return nil, fmt.Errorf("waiter is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("page fetcher is required")
	}
	return &Streamer{
		waiter:  waiter,
		fetcher: fetcher,
		logger:  logger,
	}, nil
}

// Execute submits the job and waits for it under cfg. The returned Rows
// stream the job's output seeded with the remote-assigned job id and a
// fresh first-page cursor. If the wait fails, the rows yield exactly that
// one error and end: no partial enumeration is attempted for a job that
// never succeeded.
func (s *Streamer) Execute(ctx context.Context, params remote.SubmitParams, cfg poll.Config) *Rows {
	jobID, err := s.waiter.SubmitAndWait(ctx, params, cfg)
	if err != nil {
		return &Rows{err: err}
	}

	s.logger.Debug().
		Str("job_id", jobID).
		Msg("Job succeeded, streaming results")

	stream := pagestream.New(s.fetcher, jobID, s.logger)
	return &Rows{
		jobID: jobID,
		rows:  pagestream.NewRows(stream),
	}
}

// Rows is the outcome of Execute: either one pending error or a lazy row
// sequence.
type Rows struct {
	jobID string
	rows  *pagestream.Rows
	err   error
	done  bool
}

// Next returns the next output row. A wait failure is yielded on the first
// call, after which the sequence ends.
func (r *Rows) Next(ctx context.Context) (remote.Row, bool, error) {
	if r.done {
		return nil, false, nil
	}
	if r.err != nil {
		r.done = true
		return nil, false, r.err
	}
	return r.rows.Next(ctx)
}

// JobID returns the remote job id, or empty when the wait failed.
func (r *Rows) JobID() string {
	return r.jobID
}
