// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package store

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/crewgrid/crewgrid/internal/logging"
	"github.com/crewgrid/crewgrid/internal/metrics"
	"github.com/crewgrid/crewgrid/internal/models"
	"github.com/crewgrid/crewgrid/internal/transport"
)

const employeesPath = "/employees"

// EmployeeCache mirrors the employee directory. Only admin and HR may
// fetch the full collection; for anyone else Refetch short-circuits and
// the collection keeps its previous value.
type EmployeeCache struct {
	client  transport.API
	session Session
	log     zerolog.Logger

	mu      sync.RWMutex
	records []models.Employee
	loading bool
}

// NewEmployeeCache creates an empty employee cache.
func NewEmployeeCache(client transport.API, session Session) *EmployeeCache {
	return &EmployeeCache{
		client:  client,
		session: session,
		records: []models.Employee{},
		log:     logging.With().Str("component", "employee-cache").Logger(),
	}
}

// Records returns a snapshot of the collection.
func (c *EmployeeCache) Records() []models.Employee {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Employee, len(c.records))
	copy(out, c.records)
	return out
}

// IsLoading reports whether a fetch is in flight.
func (c *EmployeeCache) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Refetch replaces the collection with the server's current set. The
// fetch is role-gated: without an authorized role no request goes out.
// Fetch failures degrade to an empty collection and are logged; they
// never propagate, so dashboards still partially render.
func (c *EmployeeCache) Refetch(ctx context.Context) {
	if !roleAllowed(cacheEmployees, c.session.Role()) {
		c.setLoading(false)
		metrics.CacheRefreshes.WithLabelValues(cacheEmployees, "skipped").Inc()
		return
	}

	c.setLoading(true)
	defer c.setLoading(false)

	resp, err := c.client.Send(ctx, http.MethodGet, employeesPath, nil)
	if err != nil {
		c.log.Error().Err(err).Msg("employee fetch failed")
		c.replaceAll([]models.Employee{})
		metrics.CacheRefreshes.WithLabelValues(cacheEmployees, "error").Inc()
		return
	}

	var fetched []models.Employee
	if err := resp.Decode(&fetched); err != nil {
		c.log.Error().Err(err).Msg("employee payload malformed")
		c.replaceAll([]models.Employee{})
		metrics.CacheRefreshes.WithLabelValues(cacheEmployees, "error").Inc()
		return
	}

	c.replaceAll(fetched)
	metrics.CacheRefreshes.WithLabelValues(cacheEmployees, "ok").Inc()
}

// Get fetches one employee by id. The collection entry with the same id
// is refreshed in place when present; absent ids do not grow the
// collection.
func (c *EmployeeCache) Get(ctx context.Context, id models.ID) (*models.Employee, error) {
	resp, err := c.client.Send(ctx, http.MethodGet, employeesPath+"/"+id.String(), nil)
	if err != nil {
		return nil, err
	}
	var emp models.Employee
	if err := resp.Decode(&emp); err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i := range c.records {
		if c.records[i].ID == emp.ID {
			c.records[i] = emp
			break
		}
	}
	c.mu.Unlock()
	return &emp, nil
}

// Create sends a multipart create request (employee records carry a
// photo) and appends the server-returned record to the collection.
// Append-only: fetch order is preserved, new records are not re-sorted
// in. Failures propagate with the collection untouched.
func (c *EmployeeCache) Create(ctx context.Context, form io.Reader, contentType string) (*models.Employee, error) {
	resp, err := c.client.Send(ctx, http.MethodPost, employeesPath, nil,
		transport.WithMultipart(form, contentType))
	if err != nil {
		return nil, err
	}
	var created models.Employee
	if err := resp.Decode(&created); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.records = append(c.records, created)
	metrics.CacheRecords.WithLabelValues(cacheEmployees).Set(float64(len(c.records)))
	c.mu.Unlock()
	return &created, nil
}

// Update sends a patch and replaces the matching entry with the
// server-returned record. The server response is authoritative: this is
// a replacement, not a local merge.
func (c *EmployeeCache) Update(ctx context.Context, id models.ID, patch map[string]any) (*models.Employee, error) {
	resp, err := c.client.Send(ctx, http.MethodPut, employeesPath+"/"+id.String(), patch)
	if err != nil {
		return nil, err
	}
	var updated models.Employee
	if err := resp.Decode(&updated); err != nil {
		return nil, err
	}

	c.replaceByID(id, updated)
	return &updated, nil
}

// Activate marks an employee active.
func (c *EmployeeCache) Activate(ctx context.Context, id models.ID) error {
	return c.setActivation(ctx, id, "activate", "active")
}

// Deactivate marks an employee inactive.
func (c *EmployeeCache) Deactivate(ctx context.Context, id models.ID) error {
	return c.setActivation(ctx, id, "deactivate", "inactive")
}

// setActivation hits the activation endpoint and patches the local
// status. These endpoints are not guaranteed to return the full record,
// so only the status field changes locally unless the server sent one.
func (c *EmployeeCache) setActivation(ctx context.Context, id models.ID, action, status string) error {
	resp, err := c.client.Send(ctx, http.MethodPost, employeesPath+"/"+id.String()+"/"+action, nil)
	if err != nil {
		return err
	}

	var updated models.Employee
	if err := resp.Decode(&updated); err == nil && !updated.ID.IsZero() {
		c.replaceByID(id, updated)
		return nil
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

// UpdatePhoto replaces an employee's photo via a multipart patch and
// refreshes the matching entry when the server returns the record.
func (c *EmployeeCache) UpdatePhoto(ctx context.Context, id models.ID, form io.Reader, contentType string) (*models.Employee, error) {
	resp, err := c.client.Send(ctx, http.MethodPatch, employeesPath+"/"+id.String()+"/photo", nil,
		transport.WithMultipart(form, contentType))
	if err != nil {
		return nil, err
	}
	var updated models.Employee
	if err := resp.Decode(&updated); err != nil {
		return nil, err
	}
	c.replaceByID(id, updated)
	return &updated, nil
}

func (c *EmployeeCache) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

func (c *EmployeeCache) replaceAll(records []models.Employee) {
	c.mu.Lock()
	c.records = records
	metrics.CacheRecords.WithLabelValues(cacheEmployees).Set(float64(len(records)))
	c.mu.Unlock()
}

func (c *EmployeeCache) replaceByID(id models.ID, updated models.Employee) {
	c.mu.Lock()
	for i := range c.records {
		if c.records[i].ID == id {
			c.records[i] = updated
			break
		}
	}
	c.mu.Unlock()
}
