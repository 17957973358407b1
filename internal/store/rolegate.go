// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package store

import (
	"github.com/crewgrid/crewgrid/internal/models"
)

// Session is the slice of the session store the caches depend on.
// *session.Store satisfies it; tests substitute a fake.
type Session interface {
	Identity() *models.UserRecord
	Role() string
	IsAuthenticated() bool
}

// Cache names, used as policy keys and metrics labels.
const (
	cacheEmployees     = "employees"
	cacheDepartments   = "departments"
	cacheLeave         = "leave"
	cachePayroll       = "payroll"
	cacheAttendance    = "attendance"
	cacheNotifications = "notifications"
)

// fetchPolicy maps each cache to the normalized roles allowed to fetch
// the full collection. One shared table instead of four hand-rolled
// conditionals; Leave, Payroll and Attendance fall back to the caller's
// personal records for roles outside the table rather than
// short-circuiting.
var fetchPolicy = map[string][]string{
	cacheEmployees:   {models.RoleAdmin, models.RoleHR},
	cacheDepartments: {models.RoleAdmin, models.RoleHR},
	cacheLeave:       {models.RoleAdmin, models.RoleHR},
	cachePayroll:     {models.RoleAdmin, models.RoleHR},
	cacheAttendance:  {models.RoleAdmin, models.RoleHR},
}

// roleAllowed reports whether the raw role may fetch the named cache's
// full collection. The raw value goes through models.NormalizeRole, so
// both wire shapes of role are accepted.
func roleAllowed(cache string, raw any) bool {
	role := models.NormalizeRole(raw)
	if role == "" {
		return false
	}
	for _, allowed := range fetchPolicy[cache] {
		if role == allowed {
			return true
		}
	}
	return false
}
