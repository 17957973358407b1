// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

/*
services.go - Suture service adapters

Wraps the agent's background loops as suture.Service implementations so
the tree owns their lifecycle and restart policy.
*/

package supervisor

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/crewgrid/crewgrid/internal/credstore"
	"github.com/crewgrid/crewgrid/internal/logging"
	"github.com/crewgrid/crewgrid/internal/store"
)

// SessionReader is the slice of the session store the poller needs.
type SessionReader interface {
	IsAuthenticated() bool
}

// PollerService drives the system notification poll loop under
// supervision. Polling only happens while a session is authenticated;
// anonymous ticks are skipped silently.
type PollerService struct {
	store    *store.NotificationStore
	session  SessionReader
	interval time.Duration
}

// NewPollerService creates the poller service.
func NewPollerService(ns *store.NotificationStore, session SessionReader, interval time.Duration) *PollerService {
	if interval <= 0 {
		interval = store.DefaultPollInterval
	}
	return &PollerService{store: ns, session: session, interval: interval}
}

// Serve polls immediately and then on every tick until the context is
// canceled. Always returns ctx.Err so suture treats cancellation as a
// normal stop.
func (p *PollerService) Serve(ctx context.Context) error {
	if p.session.IsAuthenticated() {
		p.store.PollOnce(ctx)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if p.session.IsAuthenticated() {
				p.store.PollOnce(ctx)
			}
		}
	}
}

func (p *PollerService) String() string { return "notification-poller" }

// GCService periodically compacts the credential store's value log.
type GCService struct {
	creds    *credstore.Store
	interval time.Duration
	log      zerolog.Logger
}

// NewGCService creates the credential store maintenance chore.
func NewGCService(creds *credstore.Store, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{
		creds:    creds,
		interval: interval,
		log:      logging.With().Str("component", "credstore-gc").Logger(),
	}
}

// Serve runs one GC cycle per interval. Badger reports "nothing to
// rewrite" as an error; that one is expected and not logged.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.creds.RunGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				g.log.Warn().Err(err).Msg("value log GC failed")
			}
		}
	}
}

func (g *GCService) String() string { return "credstore-gc" }
