// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

// Package models defines the data structures exchanged with the CrewGrid
// HR API: user identity, employees, departments, leave requests, payroll,
// attendance entries, and notifications.
//
// The upstream API is not schema-stable: roles arrive either as a plain
// string or as an object carrying a name, attendance clock-out fields go
// by several names, and ids may be numbers or strings. The types here
// absorb those inconsistencies at the decoding boundary so the rest of
// the client works with one canonical shape.
package models
