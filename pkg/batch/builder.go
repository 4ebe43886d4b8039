// Package batch assembles records into size- and count-bounded groups for
// single batch submission calls. Limit violations are rejected locally,
// before any remote call is attempted.
package batch

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/asyncops/jobclient/pkg/remote"
)

var (
	// ErrEntryTooLarge is returned when a single entry reaches the
	// per-entry size limit. The entry is not added.
	ErrEntryTooLarge = errors.New("entry exceeds single-entry size limit")

	// ErrBatchFull is returned when accepting an entry would reach the
	// aggregate size limit or the record count limit. The entry is not
	// added; the caller must submit and start a new batch.
	ErrBatchFull = errors.New("batch is full")

	// ErrBuilderConsumed is returned when a builder is used after Build.
	ErrBuilderConsumed = errors.New("builder already consumed by Build")
)

// Limits bounds one batch. All three limits are caller-supplied
// configuration; they vary per target remote service.
type Limits struct {
	// Single is the exclusive upper bound for one entry's size
	// (payload length + partition key length). An entry of exactly this
	// size is rejected.
	Single int

	// Total is the exclusive upper bound for the sum of entry sizes.
	Total int

	// Records is the inclusive upper bound for the number of entries.
	Records int
}

// DefaultLimits returns the limits of the reference batch ingestion API:
// 1 MB per entry, 5 MB per batch, 500 records.
func DefaultLimits() Limits {
	return Limits{
		Single:  1_000_000,
		Total:   5_000_000,
		Records: 500,
	}
}

// Validate checks that all limits are positive.
func (l Limits) Validate() error {
	if l.Single <= 0 {
		return fmt.Errorf("single-entry limit must be positive (got %d)", l.Single)
	}
	if l.Total <= 0 {
		return fmt.Errorf("total size limit must be positive (got %d)", l.Total)
	}
	if l.Records <= 0 {
		return fmt.Errorf("record limit must be positive (got %d)", l.Records)
	}
	return nil
}

// Builder accumulates records for one batch submission. It is owned by a
// single caller and is not safe for concurrent use.
type Builder struct {
	records   []remote.Record
	totalSize int
	limits    Limits
	consumed  bool
}

// NewBuilder creates a builder bounded by the given limits.
func NewBuilder(limits Limits) (*Builder, error) {
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("batch limits: %w", err)
	}
	return &Builder{limits: limits}, nil
}

// Add appends one record. An empty partition key gets a generated UUIDv7,
// which still counts toward the entry size. On rejection the builder state
// is unchanged: no partial size or count update is ever visible.
func (b *Builder) Add(data []byte, partitionKey string) error {
	if b.consumed {
		return ErrBuilderConsumed
	}

	if partitionKey == "" {
		partitionKey = uuid.Must(uuid.NewV7()).String()
	}

	size := len(data) + len(partitionKey)
	if size >= b.limits.Single {
		return fmt.Errorf("%w: entry size %d, limit %d", ErrEntryTooLarge, size, b.limits.Single)
	}

	if b.totalSize+size >= b.limits.Total || len(b.records) >= b.limits.Records {
		return fmt.Errorf("%w: total size %d/%d, records %d/%d",
			ErrBatchFull, b.totalSize+size, b.limits.Total, len(b.records)+1, b.limits.Records)
	}

	b.records = append(b.records, remote.Record{
		PartitionKey: partitionKey,
		Data:         data,
	})
	b.totalSize += size
	return nil
}

// AddData appends one record with a generated partition key.
func (b *Builder) AddData(data []byte) error {
	return b.Add(data, "")
}

// Build finalizes the batch and consumes the builder. A consumed builder
// rejects further Add calls; finalize-once keeps a batch paired with exactly
// one submission call.
func (b *Builder) Build() []remote.Record {
	records := b.records
	b.records = nil
	b.totalSize = 0
	b.consumed = true
	return records
}

// Len returns the number of accumulated records.
func (b *Builder) Len() int {
	return len(b.records)
}

// Size returns the accumulated aggregate size.
func (b *Builder) Size() int {
	return b.totalSize
}

// Empty reports whether no records have been accumulated.
func (b *Builder) Empty() bool {
	return len(b.records) == 0
}
