package ratelimit

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestObserveHeaders_MissingHeadersIgnored(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	observer := NewObserver(nil, logger)

	// No rate limit headers at all: the response is ignored without
	// touching Redis (nil client would panic otherwise).
	if err := observer.ObserveHeaders(context.Background(), http.Header{}); err != nil {
		t.Errorf("Unexpected error for headerless response: %v", err)
	}
}

func TestObserveHeaders_InvalidHeaders(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	observer := NewObserver(nil, logger)

	tests := []struct {
		name      string
		remaining string
		reset     string
	}{
		{
			name:      "invalid remaining header",
			remaining: "invalid",
			reset:     "1735000000",
		},
		{
			name:      "invalid reset header",
			remaining: "100",
			reset:     "not-a-timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			headers.Set("X-RateLimit-Remaining", tt.remaining)
			headers.Set("X-RateLimit-Reset", tt.reset)

			if err := observer.ObserveHeaders(context.Background(), headers); err == nil {
				t.Error("Expected parse error but got nil")
			}
		})
	}
}

func TestObserveHeaders_RetryAfterFallback(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	observer := NewObserver(nil, logger)

	headers := http.Header{}
	headers.Set("X-RateLimit-Remaining", "10")
	headers.Set("Retry-After", "invalid")

	if err := observer.ObserveHeaders(context.Background(), headers); err == nil {
		t.Error("Expected parse error for invalid Retry-After")
	}
}

func TestStateClassification(t *testing.T) {
	tests := []struct {
		name         string
		remaining    int
		wantCritical bool
		wantStrained bool
	}{
		{
			name:         "healthy budget",
			remaining:    100,
			wantCritical: false,
			wantStrained: false,
		},
		{
			name:         "at healthy threshold",
			remaining:    RemainingHealthy,
			wantCritical: false,
			wantStrained: false,
		},
		{
			name:         "strained budget",
			remaining:    15,
			wantCritical: false,
			wantStrained: true,
		},
		{
			name:         "critical budget",
			remaining:    3,
			wantCritical: true,
			wantStrained: false,
		},
		{
			name:         "at critical threshold",
			remaining:    RemainingCritical,
			wantCritical: false,
			wantStrained: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{
				Remaining:  tt.remaining,
				ResetAt:    time.Now().Add(60 * time.Second),
				LastUpdate: time.Now(),
			}
			state.UpdateHealth()

			if got := state.Critical(); got != tt.wantCritical {
				t.Errorf("Critical() = %v, want %v (remaining=%d)", got, tt.wantCritical, tt.remaining)
			}
			if got := state.Strained(); got != tt.wantStrained {
				t.Errorf("Strained() = %v, want %v (remaining=%d)", got, tt.wantStrained, tt.remaining)
			}
		})
	}
}
