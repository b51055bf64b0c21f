// Package openmeteo implements the weather and geocoding ports against the
// free Open-Meteo APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/sony/gobreaker"
)

// Backoff controls retries of transient upstream failures.
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff retries three times, starting at 500ms and capping at 5s.
var DefaultBackoff = Backoff{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// breakerTripAfter is the number of consecutive failed attempts that opens the circuit.
const breakerTripAfter = 5

var errRetryable = errors.New("retryable upstream status")

// transport issues GET requests with retries and a circuit breaker.
// 429 and 5xx responses are retried and counted against the breaker; other
// non-2xx responses fail immediately.
type transport struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	backoff Backoff
	logger  *slog.Logger
}

func newTransport(name string, timeout time.Duration, backoff Backoff, logger *slog.Logger) *transport {
	return &transport{
		client:  &http.Client{Timeout: timeout},
		backoff: backoff,
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTripAfter
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// getJSON fetches url and decodes the JSON body into out. Every failure wraps
// domain.ErrProviderUnavailable.
func (t *transport) getJSON(ctx context.Context, url string, out any) error {
	resp, err := t.do(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrProviderUnavailable, err)
	}
	return nil
}

func (t *transport) do(ctx context.Context, url string) (*http.Response, error) {
	delay := t.backoff.InitialInterval
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		result, err := t.breaker.Execute(func() (interface{}, error) {
			resp, err := t.client.Do(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errRetryable, resp.StatusCode)
			}
			return resp, nil
		})
		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("circuit %s: %w", t.breaker.Name(), err)
		}
		if attempt >= t.backoff.MaxRetries {
			return nil, err
		}

		t.logger.Debug("retrying upstream request", "breaker", t.breaker.Name(), "attempt", attempt+1, "delay", delay, "error", err)
		if !retry.SleepWithContext(ctx, delay) {
			return nil, ctx.Err()
		}
		delay = retry.NextBackoff(delay, t.backoff.MaxInterval)
	}
}
