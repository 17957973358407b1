// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package store

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

func TestEmployeeRefetchPopulatesForAdmin(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `[
			{"id": 1, "name": "Ada", "email": "ada@example.com", "role": "Admin"},
			{"id": 2, "name": "Eve", "email": "eve@example.com", "role": {"name": "Employee"}}
		]`)
	})

	cache := NewEmployeeCache(newTestClient(t, srv), adminSession())
	cache.Refetch(context.Background())

	records := cache.Records()
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Name != "Ada" {
		t.Errorf("records[0].Name = %q, want Ada", records[0].Name)
	}
	if got := records[1].Role.Normalize(); got != "employee" {
		t.Errorf("records[1] role = %q, want employee", got)
	}
	if srv.seen("GET /employees") != 1 {
		t.Errorf("GET /employees hit %d times, want 1", srv.seen("GET /employees"))
	}
}

func TestEmployeeRefetchSkippedForEmployeeRole(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `[{"id": 1, "name": "Ada", "email": "a@b.c"}]`)
	})

	cache := NewEmployeeCache(newTestClient(t, srv), employeeSession("9"))
	cache.Refetch(context.Background())

	if n := srv.seen("GET /employees"); n != 0 {
		t.Errorf("server hit %d times, want 0: gated roles must not fetch", n)
	}
	if records := cache.Records(); len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
	if cache.Records() == nil {
		t.Error("gated cache must expose an empty collection, not nil")
	}
}

func TestEmployeeRefetchFailureEmptiesCache(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, `{"message": "boom"}`)
	})

	cache := NewEmployeeCache(newTestClient(t, srv), adminSession())
	cache.Refetch(context.Background())

	if records := cache.Records(); len(records) != 0 {
		t.Errorf("records = %d after failed fetch, want 0", len(records))
	}
}

func TestEmployeeCreateAppendsServerRecord(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/form-data") {
				t.Errorf("Content-Type = %q, want multipart", ct)
			}
			writeJSON(t, w, http.StatusCreated, `{"id": 7, "name": "New Hire", "email": "n@x.y"}`)
			return
		}
		writeJSON(t, w, http.StatusOK, `[]`)
	})

	cache := NewEmployeeCache(newTestClient(t, srv), adminSession())
	cache.Refetch(context.Background())

	form := strings.NewReader("--b\r\nContent-Disposition: form-data; name=\"name\"\r\n\r\nNew Hire\r\n--b--\r\n")
	created, err := cache.Create(context.Background(), form, "multipart/form-data; boundary=b")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "7" {
		t.Errorf("created.ID = %q, want 7", created.ID)
	}

	records := cache.Records()
	if len(records) != 1 || records[0].Name != "New Hire" {
		t.Fatalf("records = %+v, want the created entry appended", records)
	}
}

func TestEmployeeUpdateReplacesMatchingEntry(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			writeJSON(t, w, http.StatusOK, `{"id": 2, "name": "Eve Updated", "email": "eve@example.com"}`)
			return
		}
		writeJSON(t, w, http.StatusOK, `[
			{"id": 1, "name": "Ada", "email": "ada@example.com"},
			{"id": 2, "name": "Eve", "email": "eve@example.com"}
		]`)
	})

	cache := NewEmployeeCache(newTestClient(t, srv), adminSession())
	cache.Refetch(context.Background())

	if _, err := cache.Update(context.Background(), "2", map[string]any{"name": "Eve Updated"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	records := cache.Records()
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2: update must replace, not append", len(records))
	}
	if records[1].Name != "Eve Updated" {
		t.Errorf("records[1].Name = %q, want Eve Updated", records[1].Name)
	}
	if records[0].Name != "Ada" {
		t.Errorf("records[0].Name = %q, other entries must be untouched", records[0].Name)
	}
}

func TestEmployeeDeactivatePatchesStatusLocally(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(t, w, http.StatusOK, `[{"id": 1, "name": "Ada", "email": "a@b.c", "status": "active"}]`)
	})

	cache := NewEmployeeCache(newTestClient(t, srv), adminSession())
	cache.Refetch(context.Background())

	if err := cache.Deactivate(context.Background(), "1"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if got := cache.Records()[0].Status; got != "inactive" {
		t.Errorf("status = %q, want inactive", got)
	}
}
