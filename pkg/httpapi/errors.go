package httpapi

// ErrorClass represents a classification of transport errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassThrottle represents 429 throttling responses.
	ErrorClassThrottle ErrorClass = "throttle"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassProtocol represents undecodable response bodies.
	ErrorClassProtocol ErrorClass = "protocol"
)

// classifyStatus categorizes an HTTP status code for observability.
// Throttling is reported under its own class so rate pressure is visible
// separately from ordinary client mistakes.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == 429:
		return ErrorClassThrottle
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// Throttled reports whether statusCode indicates the remote service is
// shedding load. Callers own backoff; the transport never retries.
func Throttled(statusCode int) bool {
	return statusCode == 429 || statusCode == 503
}
