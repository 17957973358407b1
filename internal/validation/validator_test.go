// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package validation

import (
	"strings"
	"testing"
)

type sampleInput struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
	Count int    `validate:"min=1"`
}

func TestValidateStructPasses(t *testing.T) {
	in := sampleInput{Name: "Ada", Email: "ada@example.com", Count: 3}
	if err := ValidateStruct(&in); err != nil {
		t.Errorf("ValidateStruct = %v, want nil", err)
	}
}

func TestValidateStructCollectsFieldErrors(t *testing.T) {
	in := sampleInput{Email: "not-an-email"}
	err := ValidateStruct(&in)
	if err == nil {
		t.Fatal("ValidateStruct = nil, want error")
	}

	m := err.FieldMap()
	if len(m) != 3 {
		t.Fatalf("FieldMap has %d entries, want 3: %v", len(m), m)
	}
	if msg := m["Name"]; msg != "Name is required" {
		t.Errorf("Name message = %q", msg)
	}
	if msg := m["Email"]; msg != "Email must be a valid email address" {
		t.Errorf("Email message = %q", msg)
	}
	if msg := m["Count"]; !strings.Contains(msg, "at least 1") {
		t.Errorf("Count message = %q", msg)
	}
}
