// Package testutil provides test doubles for the remote capability surface.
package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/asyncops/jobclient/pkg/remote"
)

// PageScript is one scripted FetchPage outcome.
type PageScript struct {
	Page *remote.ResultPage
	Err  error
}

// FakeRemote is a scriptable in-memory implementation of all four remote
// capabilities. Status polls walk the Statuses slice in order and repeat the
// last element; page fetches walk the Pages slice.
type FakeRemote struct {
	mu sync.Mutex

	// Submission script.
	JobID     string
	SubmitErr error

	// Status script.
	Statuses []*remote.JobStatus
	PollErr  error

	// Page script.
	Pages []PageScript

	// Batch script.
	BatchAck *remote.BatchAck
	BatchErr error

	// Call tracking.
	SubmitCalls int
	PollCalls   int
	FetchCalls  int
	BatchCalls  int

	LastParams  remote.SubmitParams
	LastJobID   string
	LastCursor  remote.Cursor
	LastRecords []remote.Record
}

// Submit implements remote.Submitter.
func (f *FakeRemote) Submit(_ context.Context, params remote.SubmitParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.SubmitCalls++
	f.LastParams = params
	if f.SubmitErr != nil {
		return "", f.SubmitErr
	}
	return f.JobID, nil
}

// PollStatus implements remote.StatusPoller.
func (f *FakeRemote) PollStatus(_ context.Context, jobID string) (*remote.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.PollCalls++
	f.LastJobID = jobID
	if f.PollErr != nil {
		return nil, f.PollErr
	}
	if len(f.Statuses) == 0 {
		return nil, nil
	}

	idx := f.PollCalls - 1
	if idx >= len(f.Statuses) {
		idx = len(f.Statuses) - 1
	}
	return f.Statuses[idx], nil
}

// FetchPage implements remote.PageFetcher.
func (f *FakeRemote) FetchPage(_ context.Context, jobID string, cursor remote.Cursor) (*remote.ResultPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.FetchCalls++
	f.LastJobID = jobID
	f.LastCursor = cursor

	idx := f.FetchCalls - 1
	if idx >= len(f.Pages) {
		return &remote.ResultPage{ResultSet: &remote.ResultSet{}, Next: remote.End()}, nil
	}
	script := f.Pages[idx]
	if script.Err != nil {
		return nil, script.Err
	}
	return script.Page, nil
}

// SubmitBatch implements remote.BatchSubmitter.
func (f *FakeRemote) SubmitBatch(_ context.Context, records []remote.Record) (*remote.BatchAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.BatchCalls++
	f.LastRecords = records
	if f.BatchErr != nil {
		return nil, f.BatchErr
	}
	if f.BatchAck != nil {
		return f.BatchAck, nil
	}
	return &remote.BatchAck{Accepted: len(records)}, nil
}

// Polls returns the number of status polls issued so far.
func (f *FakeRemote) Polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PollCalls
}

// Fetches returns the number of page fetches issued so far.
func (f *FakeRemote) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.FetchCalls
}

// Status builds a JobStatus snapshot for scripting.
func Status(jobID string, state remote.JobState) *remote.JobStatus {
	return &remote.JobStatus{
		JobID:       jobID,
		State:       state,
		SubmittedAt: time.Now(),
	}
}

// StatusWithDiagnostic builds a JobStatus carrying a diagnostic payload.
func StatusWithDiagnostic(jobID string, state remote.JobState, diagnostic string) *remote.JobStatus {
	s := Status(jobID, state)
	s.Diagnostic = json.RawMessage(diagnostic)
	return s
}

// Page builds a well-formed result page for scripting.
func Page(rows []remote.Row, next remote.Cursor) *remote.ResultPage {
	return &remote.ResultPage{
		ResultSet: &remote.ResultSet{Rows: rows},
		Next:      next,
	}
}

// MalformedPage builds a page whose declared result set is absent.
func MalformedPage(next remote.Cursor) *remote.ResultPage {
	return &remote.ResultPage{Next: next}
}
