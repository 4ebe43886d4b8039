package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/asyncops/jobclient/internal/testutil"
	"github.com/asyncops/jobclient/pkg/batch"
	"github.com/asyncops/jobclient/pkg/httpapi"
	"github.com/asyncops/jobclient/pkg/poll"
	"github.com/asyncops/jobclient/pkg/remote"
	"github.com/asyncops/jobclient/pkg/results"
)

func newTransport(t *testing.T, mock *testutil.MockJobService) *httpapi.Client {
	t.Helper()

	transport, err := httpapi.New(httpapi.DefaultConfig(mock.URL(), "IntegrationTest/1.0.0"))
	if err != nil {
		t.Fatalf("Failed to create transport client: %v", err)
	}
	return transport
}

func pollConfig() poll.Config {
	return poll.Config{
		Timeout:       5 * time.Second,
		CheckInterval: 10 * time.Millisecond,
	}
}

func TestPipeline_SubmitWaitStream(t *testing.T) {
	mock := testutil.NewMockJobService(
		testutil.SucceedingJob(
			testutil.MockPage{Rows: [][]string{{"id", "name"}, {"1", "alpha"}}},
			testutil.MockPage{Rows: [][]string{{"2", "beta"}}},
		),
	)
	defer mock.Close()

	transport := newTransport(t, mock)
	waiter, err := poll.NewWaiter(transport, transport, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create waiter: %v", err)
	}
	streamer, err := results.NewStreamer(waiter, transport, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create streamer: %v", err)
	}

	ctx := context.Background()
	rows := streamer.Execute(ctx, remote.SubmitParams{Statement: "SELECT id, name FROM t"}, pollConfig())

	var got []remote.Row
	for {
		row, ok, err := rows.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, row)
	}

	if len(got) != 3 {
		t.Errorf("got %d rows, want 3", len(got))
	}
	if rows.JobID() != "mock-job-1" {
		t.Errorf("JobID() = %q, want mock-job-1", rows.JobID())
	}
	// queued, running, succeeded
	if mock.Polls() != 3 {
		t.Errorf("Polls() = %d, want 3", mock.Polls())
	}
}

func TestPipeline_FailedJobYieldsError(t *testing.T) {
	mock := testutil.NewMockJobService(testutil.FailingJob())
	defer mock.Close()

	transport := newTransport(t, mock)
	waiter, err := poll.NewWaiter(transport, transport, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create waiter: %v", err)
	}
	streamer, err := results.NewStreamer(waiter, transport, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create streamer: %v", err)
	}

	ctx := context.Background()
	rows := streamer.Execute(ctx, remote.SubmitParams{Statement: "SELECT 1"}, pollConfig())

	_, ok, err := rows.Next(ctx)
	var failed *poll.JobFailedError
	if ok || !errors.As(err, &failed) {
		t.Fatalf("got (ok=%v, err=%v), want *poll.JobFailedError", ok, err)
	}

	if mock.PageCount != 0 {
		t.Errorf("PageCount = %d, want 0 for a failed job", mock.PageCount)
	}
}

func TestPipeline_WaitTimeout(t *testing.T) {
	mock := testutil.NewMockJobService(&testutil.MockJob{States: []string{"running"}})
	defer mock.Close()

	transport := newTransport(t, mock)
	waiter, err := poll.NewWaiter(transport, transport, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create waiter: %v", err)
	}

	ctx := context.Background()
	cfg := poll.Config{Timeout: 50 * time.Millisecond, CheckInterval: 10 * time.Millisecond}

	_, err = waiter.SubmitAndWait(ctx, remote.SubmitParams{Statement: "SELECT 1"}, cfg)
	if !errors.Is(err, poll.ErrWaitTimeout) {
		t.Fatalf("err = %v, want ErrWaitTimeout", err)
	}
}

func TestPipeline_BatchIngest(t *testing.T) {
	mock := testutil.NewMockJobService()
	defer mock.Close()

	transport := newTransport(t, mock)
	ingester, err := batch.NewIngester(transport, batch.Limits{
		Single:  1000,
		Total:   100_000,
		Records: 3,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create ingester: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 7; i++ {
		if err := ingester.Add(ctx, []byte("payload"), ""); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	if err := ingester.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	// 7 records with a 3-record cap: two full batches plus the final flush.
	if mock.BatchCount != 3 {
		t.Errorf("BatchCount = %d, want 3", mock.BatchCount)
	}
	if mock.LastBatch != 1 {
		t.Errorf("LastBatch = %d, want 1 record in the final flush", mock.LastBatch)
	}
}

func TestPipeline_UserAgentForwarded(t *testing.T) {
	mock := testutil.NewMockJobService(testutil.SucceedingJob())
	defer mock.Close()

	transport := newTransport(t, mock)
	ctx := context.Background()

	if _, err := transport.Submit(ctx, remote.SubmitParams{Statement: "SELECT 1"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if got := mock.LastHeader.Get("User-Agent"); got != "IntegrationTest/1.0.0" {
		t.Errorf("User-Agent = %q, want IntegrationTest/1.0.0", got)
	}
}
