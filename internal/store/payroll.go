// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package store

import (
	"context"
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

const (
	payrollPath        = "/payroll"
	payrollCyclesPath  = "/payroll/cycles"
	payrollReportsPath = "/payroll/reports"
)

// PayrollCache mirrors payroll records and pay cycles. Scoped like the
// leave cache: admin and HR see the global collection, other roles only
// their own records with an empty-collection fallback.
type PayrollCache struct {
	client  transport.API
	session Session
	log     zerolog.Logger

	mu      sync.RWMutex
	records []models.PayrollRecord
	cycles  []models.PayrollCycle
	loading bool
}

// NewPayrollCache creates an empty payroll cache.
func NewPayrollCache(client transport.API, session Session) *PayrollCache {
	return &PayrollCache{
		client:  client,
		session: session,
		records: []models.PayrollRecord{},
		cycles:  []models.PayrollCycle{},
		log:     logging.With().Str("component", "payroll-cache").Logger(),
	}
}

// Records returns a snapshot of the payroll collection.
func (c *PayrollCache) Records() []models.PayrollRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.PayrollRecord, len(c.records))
	copy(out, c.records)
	return out
}

// IsLoading reports whether a fetch is in flight.
func (c *PayrollCache) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Refetch replaces the payroll collection, scoped by role. Failures
// degrade to empty; they never propagate.
func (c *PayrollCache) Refetch(ctx context.Context) {
	c.setLoading(true)
	defer c.setLoading(false)

	var opts []transport.RequestOption
	if !roleAllowed(cachePayroll, c.session.Role()) {
		identity := c.session.Identity()
		if identity == nil {
			c.replaceAll([]models.PayrollRecord{})
			metrics.CacheRefreshes.WithLabelValues(cachePayroll, "skipped").Inc()
			return
		}
		q := url.Values{}
		q.Set("employee_id", identity.ID.String())
		opts = append(opts, transport.WithQuery(q))
	}

	resp, err := c.client.Send(ctx, http.MethodGet, payrollPath, nil, opts...)
	if err != nil {
		c.log.Error().Err(err).Msg("payroll fetch failed")
		c.replaceAll([]models.PayrollRecord{})
		metrics.CacheRefreshes.WithLabelValues(cachePayroll, "error").Inc()
		return
	}

	var fetched []models.PayrollRecord
	if err := resp.Decode(&fetched); err != nil {
		c.log.Error().Err(err).Msg("payroll payload malformed")
		c.replaceAll([]models.PayrollRecord{})
		metrics.CacheRefreshes.WithLabelValues(cachePayroll, "error").Inc()
		return
	}

	c.replaceAll(fetched)
	metrics.CacheRefreshes.WithLabelValues(cachePayroll, "ok").Inc()
}

// Create issues a payroll record and appends the server's record.
func (c *PayrollCache) Create(ctx context.Context, input map[string]any) (*models.PayrollRecord, error) {
	resp, err := c.client.Send(ctx, http.MethodPost, payrollPath, input)
	if err != nil {
		return nil, err
	}
	var created models.PayrollRecord
	if err := resp.Decode(&created); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.records = append(c.records, created)
	metrics.CacheRecords.WithLabelValues(cachePayroll).Set(float64(len(c.records)))
	c.mu.Unlock()
	return &created, nil
}

// Cycles fetches the pay cycles, caching the result. Cycle fetch errors
// propagate: cycles back a form, not a dashboard panel.
func (c *PayrollCache) Cycles(ctx context.Context) ([]models.PayrollCycle, error) {
	resp, err := c.client.Send(ctx, http.MethodGet, payrollCyclesPath, nil)
	if err != nil {
		return nil, err
	}
	var cycles []models.PayrollCycle
	if err := resp.Decode(&cycles); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cycles = cycles
	c.mu.Unlock()

	out := make([]models.PayrollCycle, len(cycles))
	copy(out, cycles)
	return out, nil
}

// CreateCycle opens a new pay cycle and appends it to the cached list.
func (c *PayrollCache) CreateCycle(ctx context.Context, input models.PayrollCycleInput) (*models.PayrollCycle, error) {
	if err := validation.ValidateStruct(&input); err != nil {
		return nil, err
	}

	resp, err := c.client.Send(ctx, http.MethodPost, payrollCyclesPath, input)
	if err != nil {
		return nil, err
	}
	var created models.PayrollCycle
	if err := resp.Decode(&created); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cycles = append(c.cycles, created)
	c.mu.Unlock()
	return &created, nil
}

// Reports fetches the aggregated payroll report. Pass-through: report
// rows are not cached.
func (c *PayrollCache) Reports(ctx context.Context) ([]models.PayrollReport, error) {
	resp, err := c.client.Send(ctx, http.MethodGet, payrollReportsPath, nil)
	if err != nil {
		return nil, err
	}
	var reports []models.PayrollReport
	if err := resp.Decode(&reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *PayrollCache) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

func (c *PayrollCache) replaceAll(records []models.PayrollRecord) {
	c.mu.Lock()
	c.records = records
	metrics.CacheRecords.WithLabelValues(cachePayroll).Set(float64(len(records)))
	c.mu.Unlock()
}
