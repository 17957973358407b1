// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

// Package metrics provides Prometheus instrumentation for the client
// core: transport throughput, circuit breaker state, cache refreshes,
// and notification poller activity. Metrics are served on the local
// diagnostics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransportRequests counts outbound API requests.
	// Labels: method, status class (2xx/3xx/4xx/5xx/error).
	TransportRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewgrid_transport_requests_total",
			Help: "Total outbound API requests by method and status class",
		},
		[]string{"method", "status"},
	)

	// BreakerState is the circuit breaker state.
	// Values: 0=closed, 1=open, 2=half-open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crewgrid_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	// CacheRefreshes counts domain cache refetch outcomes.
	// Labels: cache, result (ok/error/skipped).
	CacheRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewgrid_cache_refreshes_total",
			Help: "Total domain cache refetches by cache and result",
		},
		[]string{"cache", "result"},
	)

	// CacheRecords is the current size of each domain cache collection.
	CacheRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crewgrid_cache_records",
			Help: "Current number of records held per domain cache",
		},
		[]string{"cache"},
	)

	// PollerRuns counts system-notification poll cycles.
	// Labels: result (ok/error).
	PollerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewgrid_notification_poll_runs_total",
			Help: "Total system notification poll cycles by result",
		},
		[]string{"result"},
	)

	// SessionState is the session store state.
	// Values: 0=uninitialized, 1=restoring, 2=authenticated, 3=anonymous.
	SessionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crewgrid_session_state",
			Help: "Session store state (0=uninitialized, 1=restoring, 2=authenticated, 3=anonymous)",
		},
	)
)
