// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package transport

import (
	"context"
	"errors"
	"net/http"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestBreakerOpensAfterSustainedServerFailures(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message": "down"}`))
	})

	bc := NewBreakerClient(New(Config{BaseURL: srv.URL}, nil), "test-open")

	for i := 0; i < 10; i++ {
		_, _ = bc.Send(context.Background(), http.MethodGet, "/employees", nil)
	}
	if bc.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v after 10 failures, want open", bc.State())
	}

	_, err := bc.Send(context.Background(), http.MethodGet, "/employees", nil)
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %T, want *NetworkError for open circuit", err)
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Error("open-circuit error must wrap gobreaker.ErrOpenState")
	}
}

func TestBreakerIgnoresClientRejections(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message": "invalid"}`))
	})

	bc := NewBreakerClient(New(Config{BaseURL: srv.URL}, nil), "test-4xx")

	for i := 0; i < 20; i++ {
		_, err := bc.Send(context.Background(), http.MethodPost, "/employees", map[string]string{})
		if _, ok := AsValidation(err); !ok {
			t.Fatalf("call %d: err = %T, want *ValidationError", i, err)
		}
	}
	if bc.State() != gobreaker.StateClosed {
		t.Errorf("state = %v after 4xx storm, want closed", bc.State())
	}
}
