// jobq submits a statement to a remote job service, waits for it to
// complete, and streams the result rows to stdout as CSV.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/asyncops/jobclient/pkg/httpapi"
	"github.com/asyncops/jobclient/pkg/logging"
	"github.com/asyncops/jobclient/pkg/poll"
	"github.com/asyncops/jobclient/pkg/remote"
	"github.com/asyncops/jobclient/pkg/results"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: jobq <statement>")
		os.Exit(2)
	}
	statement := os.Args[1]

	// Configuration from environment
	baseURL := getEnv("JOBQ_BASE_URL", "http://localhost:8080")
	apiToken := getEnv("JOBQ_API_TOKEN", "")
	database := getEnv("JOBQ_DATABASE", "")
	userAgent := getEnv("JOBQ_USER_AGENT", "jobq/0.1.0")
	timeout := getDurationEnv("JOBQ_TIMEOUT", 5*time.Minute)
	interval := getDurationEnv("JOBQ_POLL_INTERVAL", 2*time.Second)

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("JOBQ_LOG_LEVEL", "info")),
		Pretty: true,
		Output: os.Stderr,
	})

	cfg := httpapi.DefaultConfig(baseURL, userAgent)
	cfg.APIToken = apiToken
	transport, err := httpapi.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create transport client")
	}

	waiter, err := poll.NewWaiter(transport, transport, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create waiter")
	}
	streamer, err := results.NewStreamer(waiter, transport, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create streamer")
	}

	ctx := context.Background()
	rows := streamer.Execute(ctx, remote.SubmitParams{
		Statement: statement,
		Database:  database,
	}, poll.Config{
		Timeout:       timeout,
		CheckInterval: interval,
	})

	out := csv.NewWriter(os.Stdout)
	count := 0
	for {
		row, ok, err := rows.Next(ctx)
		if err != nil {
			out.Flush()
			var failed *poll.JobFailedError
			switch {
			case errors.Is(err, poll.ErrWaitTimeout):
				logger.Error().Dur("timeout", timeout).Msg("Job did not finish in time")
			case errors.As(err, &failed):
				logger.Error().Str("job_id", failed.Status.JobID).Msg(failed.Error())
			default:
				logger.Error().Err(err).Msg("Job execution failed")
			}
			os.Exit(1)
		}
		if !ok {
			break
		}
		if err := out.Write(row); err != nil {
			logger.Fatal().Err(err).Msg("Failed to write output")
		}
		count++
	}
	out.Flush()

	jobLogger := logging.JobLogger("jobq", rows.JobID())
	jobLogger.Info().
		Int("rows", count).
		Msg("Job complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
