// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package credstore

import (
	"testing"

	"github.com/crewgrid/crewgrid/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEmptyStore(t *testing.T) {
	s := newTestStore(t)

	token, err := s.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "" {
		t.Errorf("token = %q, want empty", token)
	}

	identity, err := s.Identity()
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if identity != nil {
		t.Errorf("identity = %+v, want nil", identity)
	}
}

func TestSetCredentialsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	user := &models.UserRecord{
		ID:    "7",
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  models.NewRole("Admin"),
	}
	if err := s.SetCredentials("abc123", user); err != nil {
		t.Fatalf("SetCredentials: %v", err)
	}

	token, err := s.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "abc123" {
		t.Errorf("token = %q, want abc123", token)
	}

	got, err := s.Identity()
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if got == nil {
		t.Fatal("identity is nil after SetCredentials")
	}
	if got.Email != "ada@example.com" {
		t.Errorf("email = %q, want ada@example.com", got.Email)
	}
	if got.Role.Normalize() != models.RoleAdmin {
		t.Errorf("role = %q, want admin", got.Role.Normalize())
	}
}

func TestClearRemovesBothKeys(t *testing.T) {
	s := newTestStore(t)

	user := &models.UserRecord{ID: "1", Name: "Bo", Email: "bo@example.com"}
	if err := s.SetCredentials("tok", user); err != nil {
		t.Fatalf("SetCredentials: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	token, _ := s.Token()
	if token != "" {
		t.Errorf("token survived Clear: %q", token)
	}
	identity, _ := s.Identity()
	if identity != nil {
		t.Errorf("identity survived Clear: %+v", identity)
	}

	// Clearing an already-empty store is a no-op.
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestSetIdentityKeepsToken(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetCredentials("tok", &models.UserRecord{ID: "1", Name: "Bo"}); err != nil {
		t.Fatalf("SetCredentials: %v", err)
	}
	if err := s.SetIdentity(&models.UserRecord{ID: "1", Name: "Bo Updated"}); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}

	token, _ := s.Token()
	if token != "tok" {
		t.Errorf("token = %q, want tok", token)
	}
	identity, _ := s.Identity()
	if identity == nil || identity.Name != "Bo Updated" {
		t.Errorf("identity = %+v, want name Bo Updated", identity)
	}
}
