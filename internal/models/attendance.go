// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package models

import (
	"github.com/goccy/go-json"
)

// Field-name aliases the API uses for attendance timestamps across
// endpoints. Decoding checks them in order and keeps the first non-empty
// value.
var (
	clockInAliases  = []string{"clock_in", "clockIn", "check_in", "checkIn", "clock_in_time"}
	clockOutAliases = []string{"clock_out", "clockOut", "check_out", "checkOut", "clock_out_time"}
)

// AttendanceRecord is one clock-in/clock-out entry. A record with a
// clock-in but no clock-out is "open": the subject is still on shift.
type AttendanceRecord struct {
	ID         ID     `json:"id"`
	EmployeeID ID     `json:"employee_id"`
	Date       string `json:"date"`
	ClockIn    string `json:"clock_in"`
	ClockOut   string `json:"clock_out,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Open reports whether the record has no clock-out yet.
func (a *AttendanceRecord) Open() bool {
	return a.ClockIn != "" && a.ClockOut == ""
}

// UnmarshalJSON decodes an attendance record while tolerating the
// upstream schema drift around clock-in/clock-out field names.
func (a *AttendanceRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &a.ID); err != nil {
			return err
		}
	}
	if raw, ok := fields["employee_id"]; ok {
		if err := json.Unmarshal(raw, &a.EmployeeID); err != nil {
			return err
		}
	} else if raw, ok := fields["employeeId"]; ok {
		if err := json.Unmarshal(raw, &a.EmployeeID); err != nil {
			return err
		}
	}

	a.Date = firstStringField(fields, "date", "work_date")
	a.Status = firstStringField(fields, "status")
	a.ClockIn = firstStringField(fields, clockInAliases...)
	a.ClockOut = firstStringField(fields, clockOutAliases...)
	return nil
}

// firstStringField returns the first alias present with a non-empty,
// non-null string value.
func firstStringField(fields map[string]json.RawMessage, aliases ...string) string {
	for _, alias := range aliases {
		raw, ok := fields[alias]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue // null or non-string value
		}
		if s != "" {
			return s
		}
	}
	return ""
}
