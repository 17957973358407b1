// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package models

// Leave request lifecycle. Pending is the only non-terminal status:
// a request moves Pending -> Approved or Pending -> Rejected and then
// never changes again.
const (
	LeaveStatusPending  = "Pending"
	LeaveStatusApproved = "Approved"
	LeaveStatusRejected = "Rejected"
)

// LeaveRequest is a leave/time-off request.
type LeaveRequest struct {
	ID           ID     `json:"id"`
	EmployeeID   ID     `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	Type         string `json:"type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Reason       string `json:"reason,omitempty"`
	Status       string `json:"status"`
}

// LeaveInput is the payload for applying for leave.
type LeaveInput struct {
	Type      string `json:"type" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason,omitempty"`
}
