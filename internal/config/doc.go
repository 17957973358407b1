// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

// Package config loads the agent configuration from layered sources:
// built-in defaults, an optional YAML file, and CREWGRID_* environment
// variables, in ascending precedence.
//
// The only required setting is api.base_url. Everything else has a
// working default, so a minimal deployment is:
//
//	CREWGRID_API_BASE_URL=https://hrm.example.com/api crewgrid-agent
package config
