// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

// Package main is the entry point for the CrewGrid agent.
//
// The agent is the client-side core of a workforce management system:
// it owns the authenticated session against the workforce API, keeps
// role-scoped mirrors of the server's collections (employees,
// departments, leave, payroll, attendance), and polls system
// notifications while a session is active.
//
// # Startup order
//
//  1. Configuration: layered load via Koanf (defaults, YAML file,
//     CREWGRID_* environment variables)
//  2. Logging: zerolog, JSON or console format
//  3. Credential store: BadgerDB at storage.path, or in-memory when
//     no path is configured
//  4. Transport: rate-limited HTTP client with the typed error
//     taxonomy, optionally wrapped in a circuit breaker
//  5. Session: restore from the persisted credential pair
//  6. Domain caches and the notification store
//  7. Supervisor tree: notification poller, credential store GC,
//     optional diagnostics listener
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the root context; the supervisor tree
// shuts its services down gracefully before the process exits.
//
// # Example
//
//	export CREWGRID_API_BASE_URL=https://hrm.example.com/api
//	export CREWGRID_STORAGE_PATH=/var/lib/crewgrid
//	./crewgrid-agent
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/crewgrid/crewgrid/internal/config"
	"github.com/crewgrid/crewgrid/internal/credstore"
	"github.com/crewgrid/crewgrid/internal/diag"
	"github.com/crewgrid/crewgrid/internal/logging"
	"github.com/crewgrid/crewgrid/internal/models"
	"github.com/crewgrid/crewgrid/internal/session"
	"github.com/crewgrid/crewgrid/internal/store"
	"github.com/crewgrid/crewgrid/internal/supervisor"
	"github.com/crewgrid/crewgrid/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("api", cfg.API.BaseURL).Msg("Starting CrewGrid agent")

	// Credential store: persistent when a path is configured.
	var creds *credstore.Store
	if cfg.Storage.Path != "" {
		creds, err = credstore.Open(cfg.Storage.Path)
	} else {
		logging.Warn().Msg("No storage path configured; session will not survive restarts")
		creds, err = credstore.OpenInMemory()
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open credential store")
	}
	defer func() {
		if err := creds.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing credential store")
		}
	}()

	client := transport.New(transport.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		RateBurst: cfg.API.RateBurst,
	}, creds)

	var api transport.API = client
	var notifier transport.UnauthorizedNotifier = client
	if cfg.Breaker.Enabled {
		breaker := transport.NewBreakerClient(client, cfg.Breaker.Name)
		api = breaker
		notifier = breaker
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess := session.New(api, creds)
	sess.ListenUnauthorized(notifier)
	if err := sess.Initialize(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Session restore failed")
	}
	logging.Info().Str("state", sess.State().String()).Msg("Session initialized")

	employees := store.NewEmployeeCache(api, sess)
	departments := store.NewDepartmentCache(api, sess)
	leave := store.NewLeaveCache(api, sess)
	payroll := store.NewPayrollCache(api, sess)
	attendance := store.NewAttendanceCache(api, sess)
	notifications := store.NewNotificationStore(api, sess)
	notifications.SetPollInterval(cfg.Notifications.PollInterval)

	// Every identity transition re-primes the mirrors: a fresh login
	// populates them for the new role, a logout empties them through
	// the role gate.
	sess.OnChange(func(identity *models.UserRecord) {
		if identity == nil {
			notifications.HandleIdentityChange(ctx, nil)
		} else {
			// The supervised poller owns the cadence; fetch once here
			// so the new identity's notifications show without waiting
			// out a poll interval.
			notifications.PollOnce(ctx)
		}
		employees.Refetch(ctx)
		departments.Refetch(ctx)
		leave.Refetch(ctx)
		payroll.Refetch(ctx)
		attendance.Refetch(ctx)
	})

	if sess.IsAuthenticated() {
		employees.Refetch(ctx)
		departments.Refetch(ctx)
		leave.Refetch(ctx)
		payroll.Refetch(ctx)
		attendance.Refetch(ctx)
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddSyncService(supervisor.NewPollerService(notifications, sess, cfg.Notifications.PollInterval))
	if cfg.Storage.Path != "" {
		tree.AddStorageService(supervisor.NewGCService(creds, cfg.Storage.GCInterval))
	}
	if cfg.Diag.Enabled {
		tree.AddDiagService(diag.NewServer(cfg.Diag.Listen, sess))
	}

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}
	logging.Info().Msg("CrewGrid agent stopped")
}
