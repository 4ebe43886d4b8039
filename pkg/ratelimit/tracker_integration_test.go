//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestObserver_Integration_GetState(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	observer := NewObserver(redisClient, logger)
	ctx := context.Background()

	// Default state when Redis is empty
	state, err := observer.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}

	if state.Remaining != -1 {
		t.Errorf("Default Remaining = %d, want -1 (never observed)", state.Remaining)
	}
	if !state.Healthy {
		t.Error("Default state should be healthy")
	}

	// Observe a response and read the state back
	headers := http.Header{}
	headers.Set("X-RateLimit-Remaining", "75")
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(120*time.Second).Unix(), 10))

	if err := observer.ObserveHeaders(ctx, headers); err != nil {
		t.Fatalf("ObserveHeaders() error = %v", err)
	}

	state, err = observer.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() after observation error = %v", err)
	}

	if state.Remaining != 75 {
		t.Errorf("Remaining = %d, want 75", state.Remaining)
	}
	if !state.Healthy {
		t.Error("State with 75 remaining should be healthy")
	}

	expectedResetDuration := 120 * time.Second
	actualResetDuration := state.TimeUntilReset()
	tolerance := 5 * time.Second

	if actualResetDuration < expectedResetDuration-tolerance || actualResetDuration > expectedResetDuration+tolerance {
		t.Errorf("TimeUntilReset = %v, want approximately %v", actualResetDuration, expectedResetDuration)
	}
}

func TestObserver_Integration_ObserveHeaders(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	observer := NewObserver(redisClient, logger)
	ctx := context.Background()

	tests := []struct {
		name            string
		remaining       string
		expectedRemain  int
		expectedHealthy bool
		wantCritical    bool
		wantStrained    bool
	}{
		{
			name:            "healthy update",
			remaining:       "90",
			expectedRemain:  90,
			expectedHealthy: true,
		},
		{
			name:            "strained update",
			remaining:       "15",
			expectedRemain:  15,
			expectedHealthy: false,
			wantStrained:    true,
		},
		{
			name:            "critical update",
			remaining:       "2",
			expectedRemain:  2,
			expectedHealthy: false,
			wantCritical:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			headers.Set("X-RateLimit-Remaining", tt.remaining)
			headers.Set("Retry-After", "60")

			if err := observer.ObserveHeaders(ctx, headers); err != nil {
				t.Fatalf("ObserveHeaders() error = %v", err)
			}

			state, err := observer.GetState(ctx)
			if err != nil {
				t.Fatalf("GetState() error = %v", err)
			}

			if state.Remaining != tt.expectedRemain {
				t.Errorf("Remaining = %d, want %d", state.Remaining, tt.expectedRemain)
			}
			if state.Healthy != tt.expectedHealthy {
				t.Errorf("Healthy = %v, want %v", state.Healthy, tt.expectedHealthy)
			}
			if state.Critical() != tt.wantCritical {
				t.Errorf("Critical() = %v, want %v", state.Critical(), tt.wantCritical)
			}
			if state.Strained() != tt.wantStrained {
				t.Errorf("Strained() = %v, want %v", state.Strained(), tt.wantStrained)
			}
		})
	}
}

func TestObserver_Integration_SharedAcrossClients(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	ctx := context.Background()

	// One process observes a throttle signal, another sees the state.
	writer := NewObserver(redisClient, logger)
	reader := NewObserver(redisClient, logger)

	headers := http.Header{}
	headers.Set("X-RateLimit-Remaining", "4")
	headers.Set("Retry-After", "30")

	if err := writer.ObserveHeaders(ctx, headers); err != nil {
		t.Fatalf("ObserveHeaders() error = %v", err)
	}

	state, err := reader.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}

	if !state.Critical() {
		t.Errorf("Remaining = %d, second client should see the critical state", state.Remaining)
	}
}
