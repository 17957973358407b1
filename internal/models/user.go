// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package models

import (
	"strings"

	"github.com/goccy/go-json"
)

// Known role tags after normalization.
const (
	RoleAdmin    = "admin"
	RoleHR       = "hr"
	RoleEmployee = "employee"
)

// Role absorbs the two wire shapes the API uses for roles: a plain string
// tag ("Admin") or an object carrying a name ({"name": "Admin", ...}).
// Comparisons must always go through Normalize.
type Role struct {
	raw string
}

// NewRole constructs a Role from a plain tag. Used by tests and defaults.
func NewRole(tag string) Role {
	return Role{raw: tag}
}

// Normalize returns the lowercase role tag, or "" when no role is set.
func (r Role) Normalize() string {
	return strings.ToLower(strings.TrimSpace(r.raw))
}

// IsZero reports whether no role was present on the wire.
func (r Role) IsZero() bool {
	return r.raw == ""
}

// String returns the raw role tag as received.
func (r Role) String() string {
	return r.raw
}

// UnmarshalJSON accepts either a string or an object with a "name" field.
func (r *Role) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		r.raw = tag
		return nil
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.raw = obj.Name
	return nil
}

// MarshalJSON always writes the plain-string form.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.raw)
}

// NormalizeRole lowercases a raw role value of any accepted wire shape.
// This is the single role gate helper: every role comparison in the
// client goes through here rather than re-implementing the duck-typed
// check per call site.
func NormalizeRole(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case Role:
		return v.Normalize()
	case *Role:
		if v == nil {
			return ""
		}
		return v.Normalize()
	case map[string]any:
		if name, ok := v["name"].(string); ok {
			return strings.ToLower(strings.TrimSpace(name))
		}
		return ""
	default:
		return ""
	}
}

// UserRecord is the authenticated identity as returned by the API.
type UserRecord struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Phone    string `json:"phone,omitempty"`
	Position string `json:"position,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// Clone returns a deep-enough copy; UserRecord has no reference fields
// beyond strings, so a value copy suffices.
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
