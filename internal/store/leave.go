// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package store

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"

	"github.com/crewgrid/crewgrid/internal/logging"
	"github.com/crewgrid/crewgrid/internal/metrics"
	"github.com/crewgrid/crewgrid/internal/models"
	"github.com/crewgrid/crewgrid/internal/transport"
	"github.com/crewgrid/crewgrid/internal/validation"
)

const leavePath = "/leave"

// LeaveCache mirrors leave requests. Admin and HR fetch the global
// collection; every other role receives only its own records, and an
// unavailable personal history degrades to an empty collection instead
// of propagating.
type LeaveCache struct {
	client  transport.API
	session Session
	log     zerolog.Logger

	mu      sync.RWMutex
	records []models.LeaveRequest
	loading bool
}

// NewLeaveCache creates an empty leave cache.
func NewLeaveCache(client transport.API, session Session) *LeaveCache {
	return &LeaveCache{
		client:  client,
		session: session,
		records: []models.LeaveRequest{},
		log:     logging.With().Str("component", "leave-cache").Logger(),
	}
}

// Records returns a snapshot of the collection.
func (c *LeaveCache) Records() []models.LeaveRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.LeaveRequest, len(c.records))
	copy(out, c.records)
	return out
}

// IsLoading reports whether a fetch is in flight.
func (c *LeaveCache) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Refetch replaces the collection. Privileged roles get the global set;
// everyone else gets records scoped to their own identity. All fetch
// failures degrade to empty and are logged, never propagated.
func (c *LeaveCache) Refetch(ctx context.Context) {
	c.setLoading(true)
	defer c.setLoading(false)

	var opts []transport.RequestOption
	if !roleAllowed(cacheLeave, c.session.Role()) {
		identity := c.session.Identity()
		if identity == nil {
			c.replaceAll([]models.LeaveRequest{})
			metrics.CacheRefreshes.WithLabelValues(cacheLeave, "skipped").Inc()
			return
		}
		q := url.Values{}
		q.Set("employee_id", identity.ID.String())
		opts = append(opts, transport.WithQuery(q))
	}

	resp, err := c.client.Send(ctx, http.MethodGet, leavePath, nil, opts...)
	if err != nil {
		c.log.Error().Err(err).Msg("leave fetch failed")
		c.replaceAll([]models.LeaveRequest{})
		metrics.CacheRefreshes.WithLabelValues(cacheLeave, "error").Inc()
		return
	}

	var fetched []models.LeaveRequest
	if err := resp.Decode(&fetched); err != nil {
		c.log.Error().Err(err).Msg("leave payload malformed")
		c.replaceAll([]models.LeaveRequest{})
		metrics.CacheRefreshes.WithLabelValues(cacheLeave, "error").Inc()
		return
	}

	c.replaceAll(fetched)
	metrics.CacheRefreshes.WithLabelValues(cacheLeave, "ok").Inc()
}

// Apply submits a new leave request (status starts Pending on the
// server) and appends the server-returned record.
func (c *LeaveCache) Apply(ctx context.Context, input models.LeaveInput) (*models.LeaveRequest, error) {
	if err := validation.ValidateStruct(&input); err != nil {
		return nil, err
	}

	resp, err := c.client.Send(ctx, http.MethodPost, leavePath, input)
	if err != nil {
		return nil, err
	}
	var created models.LeaveRequest
	if err := resp.Decode(&created); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.records = append(c.records, created)
	metrics.CacheRecords.WithLabelValues(cacheLeave).Set(float64(len(c.records)))
	c.mu.Unlock()
	return &created, nil
}

// UpdateStatus approves or rejects a pending request. The endpoint is
// chosen by target status; afterwards only the status field of the
// matching local entry changes, because these endpoints do not
// guarantee the full record in their response.
func (c *LeaveCache) UpdateStatus(ctx context.Context, id models.ID, status string) error {
	var action string
	switch status {
	case models.LeaveStatusApproved:
		action = "approve"
	case models.LeaveStatusRejected:
		action = "reject"
	default:
		return fmt.Errorf("unsupported leave status transition to %q", status)
	}

	if _, err := c.client.Send(ctx, http.MethodPut, leavePath+"/"+id.String()+"/"+action, nil); err != nil {
		return err
	}

	c.mu.Lock()
	for i := range c.records {
		if c.records[i].ID == id {
			c.records[i].Status = status
			break
		}
	}
	c.mu.Unlock()
	return nil
}

func (c *LeaveCache) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

func (c *LeaveCache) replaceAll(records []models.LeaveRequest) {
	c.mu.Lock()
	c.records = records
	metrics.CacheRecords.WithLabelValues(cacheLeave).Set(float64(len(records)))
	c.mu.Unlock()
}
