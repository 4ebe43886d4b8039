package lookup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookupHits tracks cache hits by layer (memory, redis).
	lookupHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobclient_lookup_hits_total",
			Help: "Total number of lookup cache hits",
		},
		[]string{"layer"},
	)

	// lookupMisses tracks accesses that invoked the supplier by layer.
	lookupMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobclient_lookup_misses_total",
			Help: "Total number of lookup cache misses",
		},
		[]string{"layer"},
	)

	// lookupErrors tracks cache backend errors by operation.
	lookupErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobclient_lookup_errors_total",
			Help: "Total number of lookup cache backend errors",
		},
		[]string{"operation"}, // "get", "set"
	)
)
