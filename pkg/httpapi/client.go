// Package httpapi is the reference transport adapter: it implements the
// remote capability surface over a JSON HTTP API. It performs no retries
// and no backoff; transient failures pass through to the caller unchanged.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/asyncops/jobclient/pkg/ratelimit"
	"github.com/asyncops/jobclient/pkg/remote"
)

// Prometheus metrics for transport operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobclient_requests_total",
		Help: "Total transport requests by operation and status",
	}, []string{"op", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobclient_request_duration_seconds",
		Help:    "Transport request duration in seconds by operation",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"op"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobclient_transport_errors_total",
		Help: "Total transport errors by class",
	}, []string{"class"})
)

// Config holds the adapter configuration. All credentials are injected
// here, at construction; the adapter never reads or writes process
// environment variables.
type Config struct {
	// BaseURL is the root of the remote job API (required).
	BaseURL string

	// APIToken is sent as a bearer token when set.
	APIToken string

	// UserAgent identifies this client to the remote service (required).
	UserAgent string

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration

	// HTTPClient overrides the default HTTP client when set (for testing).
	HTTPClient *http.Client

	// Observer records throttle signals from response headers when set.
	// Observation is best effort and never blocks or fails a request.
	Observer *ratelimit.Observer
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// Client talks to a remote job service over HTTP. It is stateless per call
// and safe to share across all core components.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a transport client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     log.With().Str("component", "httpapi").Logger(),
	}, nil
}

type submitRequest struct {
	Statement          string   `json:"statement"`
	Catalog            string   `json:"catalog,omitempty"`
	Database           string   `json:"database,omitempty"`
	OutputLocation     string   `json:"output_location,omitempty"`
	ClientRequestToken string   `json:"client_request_token,omitempty"`
	Parameters         []string `json:"parameters,omitempty"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

// Submit implements remote.Submitter.
func (c *Client) Submit(ctx context.Context, params remote.SubmitParams) (string, error) {
	body := submitRequest{
		Statement:          params.Statement,
		Catalog:            params.Catalog,
		Database:           params.Database,
		OutputLocation:     params.OutputLocation,
		ClientRequestToken: params.ClientRequestToken,
		Parameters:         params.Parameters,
	}

	var resp submitResponse
	if err := c.doJSON(ctx, "submit", http.MethodPost, "/jobs", body, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

type statusResponse struct {
	Job *struct {
		JobID       string          `json:"job_id"`
		State       *string         `json:"state"`
		SubmittedAt time.Time       `json:"submitted_at"`
		Status      json.RawMessage `json:"status"`
	} `json:"job"`
}

// PollStatus implements remote.StatusPoller. A response without a job
// record yields a nil status; a job record without a state yields an empty
// state. Both are flagged as invalid by the poll layer, not laundered into
// the unknown state here.
func (c *Client) PollStatus(ctx context.Context, jobID string) (*remote.JobStatus, error) {
	var resp statusResponse
	path := "/jobs/" + url.PathEscape(jobID)
	if err := c.doJSON(ctx, "poll_status", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Job == nil {
		return nil, nil
	}

	status := &remote.JobStatus{
		JobID:       resp.Job.JobID,
		SubmittedAt: resp.Job.SubmittedAt,
		Diagnostic:  resp.Job.Status,
	}
	if resp.Job.State != nil {
		status.State = remote.ParseState(*resp.Job.State)
	}
	return status, nil
}

type pageResponse struct {
	ResultSet *struct {
		Rows []remote.Row `json:"rows"`
	} `json:"result_set"`
	NextToken *string `json:"next_token"`
}

// FetchPage implements remote.PageFetcher. The wire encoding overloads
// token absence and emptiness; both are translated to the exhausted cursor
// at this boundary so the core only ever sees the three-state cursor.
func (c *Client) FetchPage(ctx context.Context, jobID string, cursor remote.Cursor) (*remote.ResultPage, error) {
	path := "/jobs/" + url.PathEscape(jobID) + "/results"
	if token := cursor.Token(); token != "" {
		path += "?page_token=" + url.QueryEscape(token)
	}

	var resp pageResponse
	if err := c.doJSON(ctx, "fetch_page", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	page := &remote.ResultPage{Next: remote.End()}
	if resp.NextToken != nil {
		page.Next = remote.Continue(*resp.NextToken)
	}
	if resp.ResultSet != nil {
		page.ResultSet = &remote.ResultSet{Rows: resp.ResultSet.Rows}
	}
	return page, nil
}

type batchRequest struct {
	Records []remote.Record `json:"records"`
}

// SubmitBatch implements remote.BatchSubmitter.
func (c *Client) SubmitBatch(ctx context.Context, records []remote.Record) (*remote.BatchAck, error) {
	var ack remote.BatchAck
	if err := c.doJSON(ctx, "submit_batch", http.MethodPost, "/batches", batchRequest{Records: records}, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// doJSON performs one request and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(op).Observe(time.Since(startTime).Seconds())
	}()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &remote.Error{Op: op, Message: "encode request", Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.BaseURL, "/")+path, body)
	if err != nil {
		return &remote.Error{Op: op, Message: "create request", Err: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	}

	c.logger.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Msg("Executing transport request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(op, "network_error").Inc()
		c.logger.Error().Err(err).Str("op", op).Msg("Transport request failed")
		return &remote.Error{Op: op, Message: "http request", Err: err}
	}
	defer resp.Body.Close()

	if c.config.Observer != nil {
		if err := c.config.Observer.ObserveHeaders(ctx, resp.Header); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to record throttle state")
		}
	}

	if resp.StatusCode >= 400 {
		class := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		requestsTotal.WithLabelValues(op, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		message := readErrorMessage(resp.Body)
		c.logger.Warn().
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Remote request error")

		return &remote.Error{Op: op, StatusCode: resp.StatusCode, Message: message}
	}

	requestsTotal.WithLabelValues(op, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			errorsTotal.WithLabelValues(string(ErrorClassProtocol)).Inc()
			return &remote.Error{Op: op, Message: "decode response", Err: err}
		}
	}
	return nil
}

// readErrorMessage extracts a diagnostic message from an error response
// body, falling back to the raw text.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "no response body"
	}

	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return strings.TrimSpace(string(data))
}
