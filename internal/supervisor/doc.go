// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

// Package supervisor provides suture-based process supervision for the
// agent's background services.
//
// The tree has three child layers for failure isolation: storage
// (credential store maintenance), sync (the notification poller), and
// diag (the diagnostics listener). A panicking or erroring service is
// restarted by its layer without disturbing the others; sustained
// failures back off per suture's failure accounting.
package supervisor
