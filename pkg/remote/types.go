// Package remote defines the capability surface the job client consumes
// from a remote job service. The core packages (poll, pagestream, batch,
// results) depend only on these types and interfaces; a concrete transport
// adapter such as pkg/httpapi supplies the implementation.
package remote

import (
	"encoding/json"
	"time"
)

// JobState is the lifecycle state of a remote job.
type JobState string

const (
	// StateQueued means the job has been accepted but not started.
	StateQueued JobState = "queued"

	// StateRunning means the job is executing.
	StateRunning JobState = "running"

	// StateSucceeded is the successful terminal state.
	StateSucceeded JobState = "succeeded"

	// StateFailed is the failed terminal state.
	StateFailed JobState = "failed"

	// StateCancelled is the cancelled terminal state.
	StateCancelled JobState = "cancelled"

	// StateUnknown is the catch-all for remote states this client does not
	// recognize. It is treated like StateRunning: not terminal, keep polling.
	StateUnknown JobState = "unknown"
)

// ParseState maps a raw remote state string to a JobState.
// Unrecognized values map to StateUnknown rather than failing, so a remote
// service adding new intermediate states does not break the poll loop.
func ParseState(raw string) JobState {
	switch JobState(raw) {
	case StateQueued, StateRunning, StateSucceeded, StateFailed, StateCancelled:
		return JobState(raw)
	default:
		return StateUnknown
	}
}

// Terminal reports whether no further state transition can occur.
func (s JobState) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// JobStatus is a point-in-time snapshot of a remote job.
type JobStatus struct {
	// JobID is the opaque identifier assigned by the remote service.
	// It is never generated client-side.
	JobID string `json:"job_id"`

	// State is the mapped lifecycle state.
	State JobState `json:"state"`

	// SubmittedAt is when the remote service accepted the job.
	SubmittedAt time.Time `json:"submitted_at"`

	// Diagnostic is the remote service's full status payload, preserved
	// verbatim for failure reporting. The client never interprets it.
	Diagnostic json.RawMessage `json:"diagnostic,omitempty"`
}

// SubmitParams describes a job submission. All fields are explicit; the
// zero value of a field means "unset" and the adapter omits it from the
// request. A single value object replaces optional-setter chains so that a
// forgotten parameter is visible at the call site.
type SubmitParams struct {
	// Statement is the query or job definition to execute.
	Statement string

	// Catalog and Database select the execution context. Optional.
	Catalog  string
	Database string

	// OutputLocation is where the remote service writes results. Optional.
	OutputLocation string

	// ClientRequestToken makes the submission idempotent on the remote
	// side when set. Optional.
	ClientRequestToken string

	// Parameters are positional execution parameters. Optional.
	Parameters []string
}

// Row is one result row: ordered column values.
type Row []string

// ResultSet is one page worth of result rows. A page with zero rows is a
// valid, non-nil ResultSet.
type ResultSet struct {
	Rows []Row `json:"rows"`
}

// ResultPage is the raw outcome of one page fetch.
type ResultPage struct {
	// ResultSet is nil when the response declared no result set at all,
	// which the stream layer treats as malformed.
	ResultSet *ResultSet

	// Next is the continuation position for the following fetch.
	Next Cursor
}

// Record is one batch entry destined for a single batch submission.
type Record struct {
	// PartitionKey routes the record on the remote side. It counts toward
	// the entry size limit together with Data.
	PartitionKey string `json:"partition_key"`

	// Data is the record payload.
	Data []byte `json:"data"`
}

// Size is the limit-relevant size of the record: payload plus key overhead.
func (r Record) Size() int {
	return len(r.Data) + len(r.PartitionKey)
}

// BatchAck acknowledges a batch submission.
type BatchAck struct {
	// Accepted is the number of records the remote service took.
	Accepted int `json:"accepted"`

	// Failed is the number of records the remote service rejected.
	Failed int `json:"failed"`
}
