// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

// Package store implements the role-gated domain caches: in-memory,
// read-through mirrors of the server-side collections (employees,
// departments, leave, payroll, attendance) plus the notification store.
//
// Each cache exclusively owns its collection. External components read
// snapshots and issue mutations through the cache's operations; the
// collection is always the projection of the last successful fetch plus
// any locally-applied optimistic deltas issued since.
//
// Failure isolation: a fetch failure on one cache never aborts or
// corrupts another cache's state. Fetches degrade to an empty collection
// and are logged; mutation failures always propagate to the caller with
// the collection untouched.
package store
