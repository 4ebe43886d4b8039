package poll

import (
	"errors"
	"fmt"

	"github.com/asyncops/jobclient/pkg/remote"
)

var (
	// ErrWaitTimeout is returned when the overall deadline elapses before
	// the job reaches a terminal state. The remote job keeps running; the
	// client only stops watching it.
	ErrWaitTimeout = errors.New("timed out waiting for job to complete")

	// ErrJobCancelled is returned when the remote job reached the
	// cancelled terminal state.
	ErrJobCancelled = errors.New("job was cancelled")

	// ErrInvalidStatus is returned for a structurally broken status
	// response (missing job record or state). It is never retried:
	// re-polling a malformed response cannot succeed.
	ErrInvalidStatus = errors.New("invalid job status response")
)

// JobFailedError is returned when the remote job reached the failed
// terminal state. It carries the job's full status payload for diagnostics.
type JobFailedError struct {
	Status *remote.JobStatus
}

// Error implements the error interface.
func (e *JobFailedError) Error() string {
	if e.Status != nil && len(e.Status.Diagnostic) > 0 {
		return fmt.Sprintf("job %s failed: %s", e.Status.JobID, e.Status.Diagnostic)
	}
	if e.Status != nil {
		return fmt.Sprintf("job %s failed", e.Status.JobID)
	}
	return "job failed"
}
