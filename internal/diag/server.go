// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

// Package diag exposes a local diagnostics listener: liveness, the
// session state, and Prometheus metrics. It binds to loopback by
// default and carries no authentication; do not expose it publicly.
package diag

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/crewgrid/crewgrid/internal/logging"
)

// SessionInfo is the slice of the session store the status endpoint
// reports.
type SessionInfo interface {
	IsAuthenticated() bool
	Role() string
}

// Server is the diagnostics HTTP listener. It implements suture.Service.
type Server struct {
	listen  string
	session SessionInfo
	log     zerolog.Logger
}

// NewServer creates the diagnostics server.
func NewServer(listen string, session SessionInfo) *Server {
	return &Server{
		listen:  listen,
		session: session,
		log:     logging.With().Str("component", "diag").Logger(),
	}
}

func (s *Server) String() string { return "diag-server" }

// Serve runs the listener until the context is canceled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              s.listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("listen", s.listen).Msg("diagnostics listener started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("diagnostics shutdown failed")
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleStatus reports the coarse session state. It deliberately never
// includes the identity or any credential material.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := struct {
		Authenticated bool   `json:"authenticated"`
		Role          string `json:"role,omitempty"`
	}{}
	if s.session != nil {
		status.Authenticated = s.session.IsAuthenticated()
		status.Role = s.session.Role()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.log.Warn().Err(err).Msg("status encode failed")
	}
}
