package pagestream

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/asyncops/jobclient/pkg/remote"
)

// Prometheus metrics for page streaming.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobclient_pages_fetched_total",
		Help: "Total number of result pages fetched",
	})

	streamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobclient_stream_errors_total",
		Help: "Total page stream errors by kind",
	}, []string{"kind"}) // "transport", "malformed"
)

// ErrMalformedPage is returned when a page response declared no result set.
// The stream ends after yielding it; a structurally broken page is never
// refetched.
var ErrMalformedPage = errors.New("page response is missing its result set")

// Stream lazily pulls the result pages of one job. The cursor only moves
// forward: a Stream is not restartable, and pulls must be serialized by the
// caller (one fetch in flight at a time).
type Stream struct {
	fetcher remote.PageFetcher
	jobID   string
	cursor  remote.Cursor
	logger  zerolog.Logger
}

// New creates a stream over the results of jobID, positioned before the
// first page.
func New(fetcher remote.PageFetcher, jobID string, logger zerolog.Logger) *Stream {
	return &Stream{
		fetcher: fetcher,
		jobID:   jobID,
		cursor:  remote.First(),
		logger:  logger,
	}
}

// NextPage pulls the next result set. It returns (nil, false, nil) once the
// listing is exhausted, making no further remote calls. Otherwise it issues
// exactly one fetch. A fetch or parse failure is yielded as the error and
// forces the cursor to exhausted, so the next pull ends the stream instead
// of retrying forever.
func (s *Stream) NextPage(ctx context.Context) (*remote.ResultSet, bool, error) {
	if s.cursor.Exhausted() {
		return nil, false, nil
	}

	page, err := s.fetcher.FetchPage(ctx, s.jobID, s.cursor)
	if err != nil {
		s.cursor = remote.End()
		streamErrorsTotal.WithLabelValues("transport").Inc()
		return nil, false, fmt.Errorf("fetch page: %w", err)
	}

	if page.ResultSet == nil {
		s.cursor = remote.End()
		streamErrorsTotal.WithLabelValues("malformed").Inc()
		s.logger.Warn().
			Str("job_id", s.jobID).
			Msg("Page without result set, ending stream")
		return nil, false, ErrMalformedPage
	}

	s.cursor = page.Next
	pagesFetchedTotal.Inc()
	s.logger.Debug().
		Str("job_id", s.jobID).
		Int("rows", len(page.ResultSet.Rows)).
		Stringer("next", page.Next).
		Msg("Fetched result page")

	return page.ResultSet, true, nil
}

// Exhausted reports whether the stream has ended.
func (s *Stream) Exhausted() bool {
	return s.cursor.Exhausted()
}

// JobID returns the job whose results this stream enumerates.
func (s *Stream) JobID() string {
	return s.jobID
}

// Rows flattens a Stream into individual result rows, in page order.
type Rows struct {
	stream *Stream
	buf    []remote.Row
}

// NewRows creates a row iterator over stream.
func NewRows(stream *Stream) *Rows {
	return &Rows{stream: stream}
}

// Next returns the next row. It returns (nil, false, nil) when the
// underlying stream is exhausted, and (nil, false, err) for a stream error,
// after which the iteration ends.
func (r *Rows) Next(ctx context.Context) (remote.Row, bool, error) {
	for len(r.buf) == 0 {
		set, ok, err := r.stream.NextPage(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		r.buf = set.Rows
	}

	row := r.buf[0]
	r.buf = r.buf[1:]
	return row, true, nil
}
