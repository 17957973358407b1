// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package models

// Employee is one entry in the employee directory.
type Employee struct {
	ID         ID      `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone,omitempty"`
	Position   string  `json:"position,omitempty"`
	Department string  `json:"department,omitempty"`
	Role       Role    `json:"role"`
	Status     string  `json:"status,omitempty"`
	JoinDate   string  `json:"join_date,omitempty"`
	Salary     float64 `json:"salary,omitempty"`
	PhotoURL   string  `json:"photo_url,omitempty"`
}

// Department is an organizational unit.
type Department struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ManagerID   ID     `json:"manager_id,omitempty"`
	ManagerName string `json:"manager_name,omitempty"`
	Headcount   int    `json:"headcount,omitempty"`
}
