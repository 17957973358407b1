// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package models

// PayrollRecord is one employee's entry for one pay cycle.
type PayrollRecord struct {
	ID           ID      `json:"id"`
	EmployeeID   ID      `json:"employee_id"`
	EmployeeName string  `json:"employee_name,omitempty"`
	CycleID      ID      `json:"cycle_id,omitempty"`
	BaseSalary   float64 `json:"base_salary"`
	Allowances   float64 `json:"allowances,omitempty"`
	Deductions   float64 `json:"deductions,omitempty"`
	NetPay       float64 `json:"net_pay"`
	Status       string  `json:"status,omitempty"`
	PaidAt       string  `json:"paid_at,omitempty"`
}

// PayrollCycle is a pay period during which payroll records accrue.
type PayrollCycle struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status,omitempty"`
}

// PayrollCycleInput is the payload for opening a new pay cycle.
type PayrollCycleInput struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// PayrollReport is an aggregated payroll summary row.
type PayrollReport struct {
	CycleID     ID      `json:"cycle_id"`
	CycleName   string  `json:"cycle_name,omitempty"`
	Headcount   int     `json:"headcount"`
	GrossTotal  float64 `json:"gross_total"`
	NetTotal    float64 `json:"net_total"`
	GeneratedAt string  `json:"generated_at,omitempty"`
}
