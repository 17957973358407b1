// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

/*
attendance.go - Attendance cache and clocked-in state machine

A specialization of the domain cache pattern: besides mirroring the
attendance collection it derives a per-subject clocked-in status from
the record set and exposes the clock-in/clock-out transitions.

Derivation, applied after every fetch and restricted to records of the
current subject (admin and hr mirror the whole collection, so other
employees' open shifts must not leak into the derived state):
 1. A record of the subject without a clock-out is the active record:
    checked in, regardless of date, so shifts crossing midnight stay
    visible.
 2. Otherwise the subject's record dated today supplies the displayed
    times.
 3. Otherwise both times are empty and the subject is checked out.
*/

package store

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/crewgrid/crewgrid/internal/logging"
	"github.com/crewgrid/crewgrid/internal/metrics"
	"github.com/crewgrid/crewgrid/internal/models"
	"github.com/crewgrid/crewgrid/internal/transport"
)

const (
	attendancePath        = "/attendance"
	attendanceHistoryPath = "/attendance/history"
	clockInPath           = "/attendance/clock-in"
	clockOutPath          = "/attendance/clock-out"
)

const dateLayout = "2006-01-02"

// AttendanceStatus is the derived clocked-in state.
type AttendanceStatus struct {
	IsCheckedIn  bool
	CheckInTime  string
	CheckOutTime string
}

// AttendanceCache mirrors attendance entries and derives the current
// subject's clocked-in status.
type AttendanceCache struct {
	client  transport.API
	session Session
	log     zerolog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	records []models.AttendanceRecord
	status  AttendanceStatus
	loading bool
}

// NewAttendanceCache creates an empty attendance cache.
func NewAttendanceCache(client transport.API, session Session) *AttendanceCache {
	return &AttendanceCache{
		client:  client,
		session: session,
		records: []models.AttendanceRecord{},
		now:     time.Now,
		log:     logging.With().Str("component", "attendance-cache").Logger(),
	}
}

// Records returns a snapshot of the collection.
func (c *AttendanceCache) Records() []models.AttendanceRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.AttendanceRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Status returns the derived clocked-in state.
func (c *AttendanceCache) Status() AttendanceStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// IsLoading reports whether a fetch is in flight.
func (c *AttendanceCache) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Refetch replaces the collection and re-derives the clocked-in status.
// Admin and HR fetch the global collection; other roles fetch their own
// history. Failures degrade to an empty collection (and a derived
// checked-out state), never propagate.
func (c *AttendanceCache) Refetch(ctx context.Context) {
	c.setLoading(true)
	defer c.setLoading(false)

	path := attendancePath
	if !roleAllowed(cacheAttendance, c.session.Role()) {
		path = attendanceHistoryPath
	}

	resp, err := c.client.Send(ctx, http.MethodGet, path, nil)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("attendance fetch failed")
		c.replaceAndDerive([]models.AttendanceRecord{})
		metrics.CacheRefreshes.WithLabelValues(cacheAttendance, "error").Inc()
		return
	}

	var fetched []models.AttendanceRecord
	if err := resp.Decode(&fetched); err != nil {
		c.log.Error().Err(err).Msg("attendance payload malformed")
		c.replaceAndDerive([]models.AttendanceRecord{})
		metrics.CacheRefreshes.WithLabelValues(cacheAttendance, "error").Inc()
		return
	}

	c.replaceAndDerive(fetched)
	metrics.CacheRefreshes.WithLabelValues(cacheAttendance, "ok").Inc()
}

// clockResponse covers the shapes the clock endpoints answer with: a
// bare record, an envelope, or just the timestamp.
type clockResponse struct {
	Record   *models.AttendanceRecord `json:"record"`
	ClockIn  string                   `json:"clock_in"`
	ClockOut string                   `json:"clock_out"`
	Time     string                   `json:"time"`
}

// ClockIn opens an attendance record for the current subject. The local
// status flips optimistically using the server-returned time (or a
// client timestamp as fallback) before the reconciling refetch lands.
// A 422 from the server means no matching prerequisite record existed
// on the server side and surfaces as a ValidationError so the caller
// can show a specific message.
func (c *AttendanceCache) ClockIn(ctx context.Context) error {
	identity := c.session.Identity()
	if identity == nil {
		return &transport.AuthError{Message: "no authenticated session"}
	}

	clientTime := c.now().Format(time.RFC3339)
	body := map[string]string{
		"employee_id": identity.ID.String(),
		"timestamp":   clientTime,
	}

	resp, err := c.client.Send(ctx, http.MethodPost, clockInPath, body)
	if err != nil {
		// Includes the 422 ValidationError case; no local state changed.
		return err
	}

	checkIn := clientTime
	var payload clockResponse
	if decodeErr := resp.Decode(&payload); decodeErr == nil {
		switch {
		case payload.Record != nil && payload.Record.ClockIn != "":
			checkIn = payload.Record.ClockIn
		case payload.ClockIn != "":
			checkIn = payload.ClockIn
		case payload.Time != "":
			checkIn = payload.Time
		}
	}

	c.mu.Lock()
	c.status = AttendanceStatus{IsCheckedIn: true, CheckInTime: checkIn}
	c.mu.Unlock()

	c.Refetch(ctx)
	return nil
}

// ClockOut closes the open attendance record. The local status flips
// optimistically; CheckInTime is deliberately left in place across the
// transition so "worked from X to Y" renders immediately.
func (c *AttendanceCache) ClockOut(ctx context.Context) error {
	resp, err := c.client.Send(ctx, http.MethodPost, clockOutPath, nil)
	if err != nil {
		return err
	}

	checkOut := c.now().Format(time.RFC3339)
	var payload clockResponse
	if decodeErr := resp.Decode(&payload); decodeErr == nil {
		switch {
		case payload.Record != nil && payload.Record.ClockOut != "":
			checkOut = payload.Record.ClockOut
		case payload.ClockOut != "":
			checkOut = payload.ClockOut
		case payload.Time != "":
			checkOut = payload.Time
		}
	}

	c.mu.Lock()
	c.status.IsCheckedIn = false
	c.status.CheckOutTime = checkOut
	c.mu.Unlock()

	c.Refetch(ctx)
	return nil
}

// UpdateRecord edits a historical record directly (administrative
// correction) and replaces the matching entry. The derived status is
// not re-computed here; when the edited record is the active one the
// caller follows up with Refetch.
func (c *AttendanceCache) UpdateRecord(ctx context.Context, id models.ID, patch map[string]any) (*models.AttendanceRecord, error) {
	resp, err := c.client.Send(ctx, http.MethodPut, attendancePath+"/"+id.String(), patch)
	if err != nil {
		return nil, err
	}
	var updated models.AttendanceRecord
	if err := resp.Decode(&updated); err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i := range c.records {
		if c.records[i].ID == id {
			c.records[i] = updated
			break
		}
	}
	c.mu.Unlock()
	return &updated, nil
}

// replaceAndDerive swaps the collection and re-derives the status from
// the current subject's records only.
func (c *AttendanceCache) replaceAndDerive(records []models.AttendanceRecord) {
	today := c.now().Format(dateLayout)
	identity := c.session.Identity()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = records
	metrics.CacheRecords.WithLabelValues(cacheAttendance).Set(float64(len(records)))

	if identity == nil {
		c.status = AttendanceStatus{}
		return
	}
	subject := identity.ID

	// Rule 1: the subject's open record wins regardless of date.
	for i := range records {
		if records[i].EmployeeID == subject && records[i].Open() {
			c.status = AttendanceStatus{
				IsCheckedIn: true,
				CheckInTime: records[i].ClockIn,
			}
			return
		}
	}

	// Rule 2: otherwise the subject's record dated today supplies the
	// displayed times.
	for i := range records {
		if records[i].EmployeeID == subject && records[i].Date == today {
			c.status = AttendanceStatus{
				IsCheckedIn:  false,
				CheckInTime:  records[i].ClockIn,
				CheckOutTime: records[i].ClockOut,
			}
			return
		}
	}

	// Rule 3: nothing relevant.
	c.status = AttendanceStatus{}
}

func (c *AttendanceCache) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}
