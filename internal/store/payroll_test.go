// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package store

import (
	"context"
	"net/http"
	"testing"

	"github.com/crewgrid/crewgrid/internal/models"
	"github.com/crewgrid/crewgrid/internal/transport"
)

func TestPayrollRefetchScopesToIdentityForEmployee(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `[
			{"id": 1, "employee_id": 9, "base_salary": 5000, "net_pay": 4200}
		]`)
	})

	cache := NewPayrollCache(newTestClient(t, srv), employeeSession("9"))
	cache.Refetch(context.Background())

	if q := srv.query("GET /payroll"); q != "employee_id=9" {
		t.Errorf("query = %q, want employee_id=9", q)
	}
	records := cache.Records()
	if len(records) != 1 || records[0].NetPay != 4200 {
		t.Fatalf("records = %+v", records)
	}
}

func TestPayrollRefetchSkippedWithoutIdentity(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `[]`)
	})

	cache := NewPayrollCache(newTestClient(t, srv), &fakeSession{})
	cache.Refetch(context.Background())

	if srv.total() != 0 {
		t.Error("anonymous refetch reached the server")
	}
	if records := cache.Records(); records == nil || len(records) != 0 {
		t.Errorf("records = %v, want empty non-nil collection", records)
	}
}

func TestPayrollCyclesCacheAndPropagateErrors(t *testing.T) {
	fail := false
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			writeJSON(t, w, http.StatusInternalServerError, `{"message": "down"}`)
			return
		}
		writeJSON(t, w, http.StatusOK, `[
			{"id": 1, "name": "August 2026", "start_date": "2026-08-01", "end_date": "2026-08-31"}
		]`)
	})

	cache := NewPayrollCache(newTestClient(t, srv), adminSession())
	cycles, err := cache.Cycles(context.Background())
	if err != nil {
		t.Fatalf("Cycles: %v", err)
	}
	if len(cycles) != 1 || cycles[0].Name != "August 2026" {
		t.Fatalf("cycles = %+v", cycles)
	}

	fail = true
	if _, err := cache.Cycles(context.Background()); !transport.Retriable(err) {
		t.Errorf("err = %v, cycle fetch failures must propagate", err)
	}
}

func TestPayrollCreateCycleValidatesAndAppends(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusCreated,
			`{"id": 2, "name": "September 2026", "start_date": "2026-09-01", "end_date": "2026-09-30"}`)
	})

	cache := NewPayrollCache(newTestClient(t, srv), adminSession())
	if _, err := cache.CreateCycle(context.Background(), models.PayrollCycleInput{Name: "x"}); err == nil {
		t.Fatal("CreateCycle with missing dates succeeded, want validation error")
	}
	if srv.total() != 0 {
		t.Error("invalid input reached the server")
	}

	created, err := cache.CreateCycle(context.Background(), models.PayrollCycleInput{
		Name:      "September 2026",
		StartDate: "2026-09-01",
		EndDate:   "2026-09-30",
	})
	if err != nil {
		t.Fatalf("CreateCycle: %v", err)
	}
	if created.ID != "2" {
		t.Errorf("created = %+v", created)
	}
}
