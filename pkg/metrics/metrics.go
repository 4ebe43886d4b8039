// Package metrics provides the centralized Prometheus metrics registry for
// the job client. All metrics are defined in their respective packages
// (httpapi, poll, pagestream, batch, lookup, ratelimit) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the job client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Transport Metrics (pkg/httpapi):
//   - jobclient_requests_total{op, status} (Counter): Total transport requests by operation and HTTP status
//   - jobclient_request_duration_seconds{op} (Histogram): Request duration by operation
//   - jobclient_transport_errors_total{class} (Counter): Errors by class (client, server, throttle, network, protocol)
//
// Wait Metrics (pkg/poll):
//   - jobclient_waits_total{outcome} (Counter): Completed waits by outcome (succeeded, failed, cancelled, timeout, invalid, transport)
//   - jobclient_wait_duration_seconds (Histogram): Time from submission to a terminal wait outcome
//   - jobclient_status_polls_total (Counter): Individual status polls performed
//
// Stream Metrics (pkg/pagestream):
//   - jobclient_pages_fetched_total (Counter): Result pages fetched
//   - jobclient_stream_errors_total{kind} (Counter): Stream terminations by kind (transport, malformed)
//
// Batch Metrics (pkg/batch):
//   - jobclient_batches_submitted_total (Counter): Batches flushed to the remote service
//   - jobclient_batch_records_total{outcome} (Counter): Records by submission outcome (accepted, failed)
//   - jobclient_batch_size_bytes (Histogram): Payload bytes per flushed batch
//   - jobclient_batch_rejections_total{reason} (Counter): Locally rejected entries by reason
//
// Throttle Metrics (pkg/ratelimit):
//   - jobclient_ratelimit_remaining (Gauge): Request budget remaining in the current remote rate limit window
//   - jobclient_ratelimit_warnings_total (Counter): Responses observed with a strained or critical rate budget
//
// Lookup Metrics (pkg/lookup):
//   - jobclient_lookup_hits_total{layer} (Counter): Lookup cache hits by layer (memory, redis)
//   - jobclient_lookup_misses_total{layer} (Counter): Lookup cache misses by layer
//   - jobclient_lookup_errors_total{operation} (Counter): Lookup cache operation errors
//
// Example Prometheus Queries:
//
//   # Lookup Hit Rate
//   sum(rate(jobclient_lookup_hits_total[5m])) /
//   (sum(rate(jobclient_lookup_hits_total[5m])) + sum(rate(jobclient_lookup_misses_total[5m])))
//
//   # Wait Timeout Rate
//   rate(jobclient_waits_total{outcome="timeout"}[5m]) / rate(jobclient_waits_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(jobclient_request_duration_seconds_bucket[5m]))
//
//   # Throttle Pressure
//   rate(jobclient_transport_errors_total{class="throttle"}[5m])
//
//   # Batch Acceptance Rate
//   rate(jobclient_batch_records_total{outcome="accepted"}[5m]) /
//   rate(jobclient_batch_records_total[5m])
