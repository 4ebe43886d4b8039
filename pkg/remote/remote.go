package remote

import (
	"context"
	"fmt"
)

// Submitter starts a job on the remote service.
type Submitter interface {
	// Submit performs exactly one submission call and returns the job id
	// assigned by the remote service.
	Submit(ctx context.Context, params SubmitParams) (string, error)
}

// StatusPoller fetches the current status of a submitted job.
type StatusPoller interface {
	PollStatus(ctx context.Context, jobID string) (*JobStatus, error)
}

// PageFetcher fetches one page of a job's results.
type PageFetcher interface {
	// FetchPage must not be called with an exhausted cursor.
	FetchPage(ctx context.Context, jobID string, cursor Cursor) (*ResultPage, error)
}

// BatchSubmitter submits one finalized batch of records.
type BatchSubmitter interface {
	SubmitBatch(ctx context.Context, records []Record) (*BatchAck, error)
}

// Error is an opaque transport-level failure: network errors, protocol
// errors, and remote-side request rejections. The core never retries it;
// it propagates unchanged to the caller.
type Error struct {
	// Op names the capability call that failed ("submit", "poll_status",
	// "fetch_page", "submit_batch").
	Op string

	// StatusCode is the protocol status, when one exists (0 otherwise).
	StatusCode int

	// Message is the remote or transport diagnostic text.
	Message string

	// Err is the underlying cause, when one exists.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote %s error (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("remote %s error: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("remote %s error: %s", e.Op, e.Message)
}

// Unwrap supports errors.Is/As on the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}
