// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package transport

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/crewgrid/crewgrid/internal/logging"
	"github.com/crewgrid/crewgrid/internal/metrics"
)

// BreakerClient wraps the transport with a circuit breaker so the client
// stops hammering a dead or degraded API server.
//
// Only transient failures (network, timeout, 5xx) count against the
// breaker. 4xx rejections are the caller's problem and pass through
// without opening the circuit.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[*Response]
	name   string
}

var _ API = (*BreakerClient)(nil)
var _ UnauthorizedNotifier = (*BreakerClient)(nil)

// NewBreakerClient decorates client with a circuit breaker.
// Breaker configuration:
//   - max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 30 second timeout before attempting recovery
//   - opens after 60% failure rate with minimum 10 requests
func NewBreakerClient(client *Client, name string) *BreakerClient {
	if name == "" {
		name = "crewgrid-api"
	}

	metrics.BreakerState.WithLabelValues(name).Set(0) // 0 = closed

	log := logging.With().Str("component", "breaker").Str("name", name).Logger()

	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.6 {
				log.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("opening circuit")
				return true
			}
			return false
		},

		IsSuccessful: func(err error) bool {
			return err == nil || !Retriable(err)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("from", from.String()).Str("to", to.String()).Msg("breaker state transition")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &BreakerClient{client: client, cb: cb, name: name}
}

// Send forwards to the wrapped client under breaker protection. When the
// circuit is open the call fails immediately as a NetworkError without
// touching the wire.
func (b *BreakerClient) Send(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	resp, err := b.cb.Execute(func() (*Response, error) {
		return b.client.Send(ctx, method, path, body, opts...)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &NetworkError{Op: method + " " + path, Err: err}
		}
		return nil, err
	}
	return resp, nil
}

// OnUnauthorized forwards listener registration to the wrapped client.
func (b *BreakerClient) OnUnauthorized(fn func()) {
	b.client.OnUnauthorized(fn)
}

// State returns the current breaker state, for diagnostics.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
