// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package store

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/crewgrid/crewgrid/internal/logging"
	"github.com/crewgrid/crewgrid/internal/metrics"
	"github.com/crewgrid/crewgrid/internal/models"
	"github.com/crewgrid/crewgrid/internal/transport"
	"github.com/crewgrid/crewgrid/internal/validation"
)

const departmentsPath = "/departments"

// DepartmentInput is the payload for creating a department.
type DepartmentInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	ManagerID   string `json:"manager_id,omitempty"`
}

// DepartmentCache mirrors the department structure. Gated like the
// employee directory: admin and HR only.
type DepartmentCache struct {
	client  transport.API
	session Session
	log     zerolog.Logger

	mu      sync.RWMutex
	records []models.Department
	loading bool
}

// NewDepartmentCache creates an empty department cache.
func NewDepartmentCache(client transport.API, session Session) *DepartmentCache {
	return &DepartmentCache{
		client:  client,
		session: session,
		records: []models.Department{},
		log:     logging.With().Str("component", "department-cache").Logger(),
	}
}

// Records returns a snapshot of the collection.
func (c *DepartmentCache) Records() []models.Department {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Department, len(c.records))
	copy(out, c.records)
	return out
}

// IsLoading reports whether a fetch is in flight.
func (c *DepartmentCache) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Refetch replaces the collection from the server, role-gated the same
// way as the employee directory.
func (c *DepartmentCache) Refetch(ctx context.Context) {
	if !roleAllowed(cacheDepartments, c.session.Role()) {
		c.setLoading(false)
		metrics.CacheRefreshes.WithLabelValues(cacheDepartments, "skipped").Inc()
		return
	}

	c.setLoading(true)
	defer c.setLoading(false)

	resp, err := c.client.Send(ctx, http.MethodGet, departmentsPath, nil)
	if err != nil {
		c.log.Error().Err(err).Msg("department fetch failed")
		c.replaceAll([]models.Department{})
		metrics.CacheRefreshes.WithLabelValues(cacheDepartments, "error").Inc()
		return
	}

	var fetched []models.Department
	if err := resp.Decode(&fetched); err != nil {
		c.log.Error().Err(err).Msg("department payload malformed")
		c.replaceAll([]models.Department{})
		metrics.CacheRefreshes.WithLabelValues(cacheDepartments, "error").Inc()
		return
	}

	c.replaceAll(fetched)
	metrics.CacheRefreshes.WithLabelValues(cacheDepartments, "ok").Inc()
}

// Create sends the create request and appends the server-returned
// record. Validation failures never reach the wire.
func (c *DepartmentCache) Create(ctx context.Context, input DepartmentInput) (*models.Department, error) {
	if err := validation.ValidateStruct(&input); err != nil {
		return nil, err
	}

	resp, err := c.client.Send(ctx, http.MethodPost, departmentsPath, input)
	if err != nil {
		return nil, err
	}
	var created models.Department
	if err := resp.Decode(&created); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.records = append(c.records, created)
	metrics.CacheRecords.WithLabelValues(cacheDepartments).Set(float64(len(c.records)))
	c.mu.Unlock()
	return &created, nil
}

// Update replaces the matching entry with the server-returned record.
func (c *DepartmentCache) Update(ctx context.Context, id models.ID, patch map[string]any) (*models.Department, error) {
	resp, err := c.client.Send(ctx, http.MethodPut, departmentsPath+"/"+id.String(), patch)
	if err != nil {
		return nil, err
	}
	var updated models.Department
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

// Delete removes the department on the server, then locally. A failed
// delete leaves the collection untouched.
func (c *DepartmentCache) Delete(ctx context.Context, id models.ID) error {
	if _, err := c.client.Send(ctx, http.MethodDelete, departmentsPath+"/"+id.String(), nil); err != nil {
		return err
	}

	c.mu.Lock()
	kept := c.records[:0]
	for _, rec := range c.records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	c.records = kept
	metrics.CacheRecords.WithLabelValues(cacheDepartments).Set(float64(len(c.records)))
	c.mu.Unlock()
	return nil
}

func (c *DepartmentCache) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

func (c *DepartmentCache) replaceAll(records []models.Department) {
	c.mu.Lock()
	c.records = records
	metrics.CacheRecords.WithLabelValues(cacheDepartments).Set(float64(len(records)))
	c.mu.Unlock()
}
