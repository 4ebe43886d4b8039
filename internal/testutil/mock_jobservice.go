package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockJob scripts one job's lifecycle on the mock service: the states it
// reports across successive polls (the last repeats) and the result pages
// it serves once enumerated.
type MockJob struct {
	States []string
	Pages  []MockPage

	polls int
}

// MockPage is one scripted result page. Rows may be nil to serve a page
// without a result set.
type MockPage struct {
	Rows      [][]string
	NextToken string
	Omit      bool // omit the result_set field entirely
}

// MockJobService is a configurable in-memory job service for end-to-end
// tests. It implements the submit/poll/results/batch HTTP surface.
type MockJobService struct {
	server *httptest.Server

	mu       sync.Mutex
	jobs     map[string]*MockJob
	script   []*MockJob
	nextID   int
	handlers map[string]http.HandlerFunc

	// Tracking
	SubmitCount int
	PollCount   int
	PageCount   int
	BatchCount  int
	LastHeader  http.Header
	LastBatch   int // records in the most recent batch
}

// NewMockJobService creates a mock service. Each submission consumes the
// next scripted job in order.
func NewMockJobService(script ...*MockJob) *MockJobService {
	mock := &MockJobService{
		jobs:     make(map[string]*MockJob),
		script:   script,
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.route))
	return mock
}

// URL returns the mock server URL.
func (m *MockJobService) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockJobService) Close() {
	m.server.Close()
}

// SetHandler overrides routing for an exact path.
func (m *MockJobService) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

func (m *MockJobService) route(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.LastHeader = r.Header.Clone()
	handler, overridden := m.handlers[r.URL.Path]
	m.mu.Unlock()

	if overridden {
		handler(w, r)
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/jobs":
		m.handleSubmit(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/batches":
		m.handleBatch(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/results"):
		m.handlePage(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/jobs/"):
		m.handlePoll(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (m *MockJobService) handleSubmit(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SubmitCount++
	if len(m.script) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error": "no job scripted"}`)
		return
	}

	job := m.script[0]
	m.script = m.script[1:]
	m.nextID++
	jobID := fmt.Sprintf("mock-job-%d", m.nextID)
	m.jobs[jobID] = job

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"job_id": jobID})
}

func (m *MockJobService) handlePoll(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PollCount++
	jobID := strings.TrimPrefix(r.URL.Path, "/jobs/")
	job, ok := m.jobs[jobID]
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
		return
	}

	idx := job.polls
	if idx >= len(job.States) {
		idx = len(job.States) - 1
	}
	job.polls++

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job": map[string]any{
			"job_id": jobID,
			"state":  job.States[idx],
		},
	})
}

func (m *MockJobService) handlePage(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PageCount++
	jobID := strings.TrimPrefix(r.URL.Path, "/jobs/")
	jobID = strings.TrimSuffix(jobID, "/results")
	job, ok := m.jobs[jobID]
	if !ok || len(job.Pages) == 0 {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result_set": {"rows": []}}`)
		return
	}

	// Pages are addressed by token: empty token is the first page, each
	// scripted NextToken names the following page by index.
	idx := 0
	if token := r.URL.Query().Get("page_token"); token != "" {
		fmt.Sscanf(token, "page-%d", &idx)
	}
	if idx >= len(job.Pages) {
		idx = len(job.Pages) - 1
	}
	page := job.Pages[idx]

	body := map[string]any{}
	if !page.Omit {
		rows := page.Rows
		if rows == nil {
			rows = [][]string{}
		}
		body["result_set"] = map[string]any{"rows": rows}
	}
	if idx+1 < len(job.Pages) {
		body["next_token"] = fmt.Sprintf("page-%d", idx+1)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func (m *MockJobService) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Records []json.RawMessage `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "bad batch payload"}`)
		return
	}

	m.mu.Lock()
	m.BatchCount++
	m.LastBatch = len(req.Records)
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"accepted": len(req.Records),
		"failed":   0,
	})
}

// Polls returns the total poll requests observed.
func (m *MockJobService) Polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PollCount
}

// SucceedingJob scripts a job that reports queued, running, then succeeded,
// serving the given pages.
func SucceedingJob(pages ...MockPage) *MockJob {
	return &MockJob{
		States: []string{"queued", "running", "succeeded"},
		Pages:  pages,
	}
}

// FailingJob scripts a job that reports running and then failed.
func FailingJob() *MockJob {
	return &MockJob{States: []string{"running", "failed"}}
}
