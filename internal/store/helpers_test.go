// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package store

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/crewgrid/crewgrid/internal/models"
	"github.com/crewgrid/crewgrid/internal/transport"
)

// fakeSession satisfies Session with a fixed identity.
type fakeSession struct {
	identity *models.UserRecord
}

func (f *fakeSession) Identity() *models.UserRecord { return f.identity }

func (f *fakeSession) Role() string {
	if f.identity == nil {
		return ""
	}
	return f.identity.Role.String()
}

func (f *fakeSession) IsAuthenticated() bool { return f.identity != nil }

func adminSession() *fakeSession {
	return &fakeSession{identity: &models.UserRecord{
		ID:    "1",
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  models.NewRole(models.RoleAdmin),
	}}
}

func employeeSession(id models.ID) *fakeSession {
	return &fakeSession{identity: &models.UserRecord{
		ID:    id,
		Name:  "Eve",
		Email: "eve@example.com",
		Role:  models.NewRole(models.RoleEmployee),
	}}
}

// recordingServer is an httptest server that records every request it
// saw, keyed "<METHOD> <path>".
type recordingServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
	queries  map[string]string
}

func newRecordingServer(t *testing.T, handler http.HandlerFunc) *recordingServer {
	t.Helper()
	rs := &recordingServer{queries: map[string]string{}}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		rs.mu.Lock()
		rs.requests = append(rs.requests, key)
		rs.queries[key] = r.URL.RawQuery
		rs.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) seen(key string) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	n := 0
	for _, k := range rs.requests {
		if k == key {
			n++
		}
	}
	return n
}

func (rs *recordingServer) total() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.requests)
}

func (rs *recordingServer) query(key string) string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.queries[key]
}

// newTestClient builds a real transport client against the server.
func newTestClient(t *testing.T, srv *recordingServer) transport.API {
	t.Helper()
	return transport.New(transport.Config{BaseURL: srv.URL}, nil)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		t.Errorf("write response: %v", err)
	}
}
