package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/asyncops/jobclient/pkg/remote"
)

// Prometheus metrics for batch ingestion.
var (
	batchesSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobclient_batches_submitted_total",
		Help: "Total number of batches submitted to the remote service",
	})

	batchRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobclient_batch_records_total",
		Help: "Total batch records by remote acknowledgement outcome",
	}, []string{"outcome"}) // "accepted", "failed"

	batchRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobclient_batch_rejections_total",
		Help: "Total locally rejected batch entries by reason",
	}, []string{"reason"}) // "entry_too_large"

	batchSizeBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jobclient_batch_size_bytes",
		Help:    "Aggregate size of submitted batches in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})
)

// Ingester feeds records into bounded batches and submits each batch as it
// fills. It is owned by a single caller and is not safe for concurrent use.
type Ingester struct {
	submitter remote.BatchSubmitter
	limits    Limits
	builder   *Builder
	logger    zerolog.Logger
}

// NewIngester creates an ingester that submits through the given submitter.
func NewIngester(submitter remote.BatchSubmitter, limits Limits, logger zerolog.Logger) (*Ingester, error) {
	if submitter == nil {
		return nil, fmt.Errorf("batch submitter is required")
	}
	builder, err := NewBuilder(limits)
	if err != nil {
		return nil, err
	}
	return &Ingester{
		submitter: submitter,
		limits:    limits,
		builder:   builder,
		logger:    logger,
	}, nil
}

// Add appends one record, submitting the current batch first when it is
// full. An oversized entry is rejected without touching any batch; it can
// never fit and submitting would not help.
func (i *Ingester) Add(ctx context.Context, data []byte, partitionKey string) error {
	err := i.builder.Add(data, partitionKey)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrEntryTooLarge) {
		batchRejectionsTotal.WithLabelValues("entry_too_large").Inc()
		return err
	}
	if !errors.Is(err, ErrBatchFull) {
		return err
	}

	if err := i.Flush(ctx); err != nil {
		return err
	}
	return i.builder.Add(data, partitionKey)
}

// Flush submits the accumulated records, if any, and starts a fresh batch.
func (i *Ingester) Flush(ctx context.Context) error {
	if i.builder.Empty() {
		return nil
	}

	count := i.builder.Len()
	size := i.builder.Size()
	records := i.builder.Build()

	builder, err := NewBuilder(i.limits)
	if err != nil {
		return err
	}
	i.builder = builder

	ack, err := i.submitter.SubmitBatch(ctx, records)
	if err != nil {
		i.logger.Error().Err(err).Int("records", count).Msg("Batch submission failed")
		return fmt.Errorf("submit batch: %w", err)
	}

	batchesSubmittedTotal.Inc()
	batchSizeBytes.Observe(float64(size))
	batchRecordsTotal.WithLabelValues("accepted").Add(float64(ack.Accepted))
	batchRecordsTotal.WithLabelValues("failed").Add(float64(ack.Failed))

	i.logger.Debug().
		Int("records", count).
		Int("size_bytes", size).
		Int("accepted", ack.Accepted).
		Int("failed", ack.Failed).
		Msg("Batch submitted")

	return nil
}

// Pending returns the number of records accumulated but not yet submitted.
func (i *Ingester) Pending() int {
	return i.builder.Len()
}
