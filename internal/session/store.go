// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

/*
store.go - Session store

Owns the authenticated-identity lifecycle: restore from the persisted
credential pair at startup, login, registration, logout, and profile
updates. Exactly one Store exists per running agent; it is the only
writer of the credential store, and every other component reads the
identity through its accessors.

State machine: UNINITIALIZED -> RESTORING -> {AUTHENTICATED, ANONYMOUS}.
Initialize always terminates in one of the two stable states. Both the
explicit Logout call and the transport's unauthorized broadcast converge
on the identical anonymous state.
*/

package session

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/crewgrid/crewgrid/internal/credstore"
	"github.com/crewgrid/crewgrid/internal/logging"
	"github.com/crewgrid/crewgrid/internal/metrics"
	"github.com/crewgrid/crewgrid/internal/models"
	"github.com/crewgrid/crewgrid/internal/transport"
	"github.com/crewgrid/crewgrid/internal/validation"
)

// State is the session lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateRestoring
	StateAuthenticated
	StateAnonymous
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// API paths owned by the session store.
const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	profilePath  = "/auth/profile"
)

// Store is the process-wide session store.
type Store struct {
	client transport.API
	creds  *credstore.Store
	log    zerolog.Logger

	mu       sync.RWMutex
	state    State
	identity *models.UserRecord

	changeMu sync.RWMutex
	onChange []func(*models.UserRecord)
}

// New creates the session store. Call ListenUnauthorized to wire the
// transport's 401 broadcast into the logout path, then Initialize once
// at startup.
func New(client transport.API, creds *credstore.Store) *Store {
	return &Store{
		client: client,
		creds:  creds,
		state:  StateUninitialized,
		log:    logging.With().Str("component", "session").Logger(),
	}
}

// ListenUnauthorized subscribes the store to the transport's
// unauthorized signal. A 401 on any protected resource then forces the
// same state transition as an explicit logout.
func (s *Store) ListenUnauthorized(n transport.UnauthorizedNotifier) {
	n.OnUnauthorized(func() {
		s.log.Warn().Msg("unauthorized signal received, clearing session")
		s.Logout()
	})
}

// OnChange registers a listener invoked after every identity transition:
// with the new identity after login/restore/profile update, with nil
// after logout. Listeners run outside the store's lock.
func (s *Store) OnChange(fn func(*models.UserRecord)) {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Initialize restores the session from the persisted credential pair.
// Called once at startup. It always terminates in AUTHENTICATED or
// ANONYMOUS; a partial pair (token without identity or vice versa ) is
// cleared and treated as no session.
func (s *Store) Initialize(ctx context.Context) error {
	s.setState(StateRestoring, nil)

	token, err := s.creds.Token()
	if err != nil {
		s.log.Error().Err(err).Msg("credential store read failed during restore")
	}
	identity, err := s.creds.Identity()
	if err != nil {
		s.log.Error().Err(err).Msg("identity read failed during restore")
	}

	if !transport.UsableToken(token) || identity == nil || tokenExpired(token, time.Now()) {
		if err := s.creds.Clear(); err != nil {
			s.log.Error().Err(err).Msg("clearing partial credentials failed")
		}
		s.setState(StateAnonymous, nil)
		s.log.Info().Msg("no persisted session, starting anonymous")
		return nil
	}

	s.setState(StateAuthenticated, identity)
	s.log.Info().Str("user", identity.Email).Str("role", identity.Role.Normalize()).Msg("session restored")
	return nil
}

// loginResponse is the login payload. The credential arrives under
// either field name depending on the server version; the transport may
// also have injected a header-issued token under "token".
type loginResponse struct {
	Token       string             `json:"token"`
	AccessToken string             `json:"access_token"`
	User        *models.UserRecord `json:"user"`
}

func (r *loginResponse) credential() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// Login authenticates with the API. The email is normalized (trim +
// lowercase) before sending. A 200 response without a usable credential
// is a login failure, not a success.
func (s *Store) Login(ctx context.Context, email, password string) (*models.UserRecord, error) {
	body := map[string]string{
		"email":    NormalizeEmail(email),
		"password": password,
	}

	resp, err := s.client.Send(ctx, http.MethodPost, loginPath, body)
	if err != nil {
		return nil, err
	}

	var payload loginResponse
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}

	token := payload.credential()
	if !transport.UsableToken(token) {
		return nil, &transport.AuthError{Message: "login response carried no credential"}
	}
	if payload.User == nil {
		return nil, &transport.AuthError{Message: "login response carried no user"}
	}

	if err := s.creds.SetCredentials(token, payload.User); err != nil {
		return nil, err
	}
	s.setState(StateAuthenticated, payload.User)
	s.log.Info().Str("user", payload.User.Email).Msg("login succeeded")
	return payload.User.Clone(), nil
}

// RegisterInput is the plain registration payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Position string `json:"position,omitempty"`
}

// Register creates an account with a plain field set. The email gets the
// same normalization as login and a default role is assigned when none
// was supplied. Registration does not authenticate the new account.
func (s *Store) Register(ctx context.Context, input RegisterInput) error {
	input.Email = NormalizeEmail(input.Email)
	if input.Role == "" {
		input.Role = models.RoleEmployee
	}
	if err := validation.ValidateStruct(&input); err != nil {
		return err
	}

	_, err := s.client.Send(ctx, http.MethodPost, registerPath, input)
	return err
}

// RegisterMultipart creates an account from a prepared multipart payload
// (registration with a photo attached). The payload is passed through
// unnormalized: multipart bodies are binary-safe and never rewritten.
func (s *Store) RegisterMultipart(ctx context.Context, body io.Reader, contentType string) error {
	_, err := s.client.Send(ctx, http.MethodPost, registerPath, nil,
		transport.WithMultipart(body, contentType))
	return err
}

// Logout clears the credential pair and transitions to ANONYMOUS. It is
// reached both by explicit user action and by the transport's
// unauthorized broadcast; both paths converge here.
func (s *Store) Logout() {
	if err := s.creds.Clear(); err != nil {
		s.log.Error().Err(err).Msg("clearing credentials on logout failed")
	}
	s.setState(StateAnonymous, nil)
	s.log.Info().Msg("session cleared")
}

// UpdateProfile merges partial into the in-memory identity immediately
// so callers observe the change with zero latency, then sends the update
// to the server. On success the server's authoritative record replaces
// the merge and is re-persisted. On failure the optimistic merge stays
// in place and the error is surfaced to the caller.
func (s *Store) UpdateProfile(ctx context.Context, partial map[string]any) (*models.UserRecord, error) {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return nil, &transport.AuthError{Message: "no authenticated session"}
	}
	merged := mergeIdentity(s.identity, partial)
	s.identity = merged
	s.mu.Unlock()
	s.notifyChange(merged.Clone())

	resp, err := s.client.Send(ctx, http.MethodPut, profilePath, partial)
	if err != nil {
		return nil, err
	}

	var authoritative models.UserRecord
	if decodeErr := decodeUserPayload(resp, &authoritative); decodeErr != nil {
		return nil, decodeErr
	}

	s.mu.Lock()
	s.identity = &authoritative
	s.mu.Unlock()
	if err := s.creds.SetIdentity(&authoritative); err != nil {
		s.log.Error().Err(err).Msg("re-persisting identity failed")
	}
	s.notifyChange(authoritative.Clone())
	return authoritative.Clone(), nil
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns a copy of the current identity, or nil when the
// session is anonymous.
func (s *Store) Identity() *models.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.Clone()
}

// IsAuthenticated reports whether a full credential pair is live.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated && s.identity != nil
}

// Role returns the normalized role of the current identity, or "" when
// anonymous.
func (s *Store) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.Role.Normalize()
}

// NormalizeEmail applies the trim + lowercase normalization used for
// every email the client sends.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// setState updates state and identity together and notifies listeners.
func (s *Store) setState(state State, identity *models.UserRecord) {
	s.mu.Lock()
	s.state = state
	s.identity = identity
	s.mu.Unlock()

	metrics.SessionState.Set(float64(state))
	if state != StateRestoring {
		s.notifyChange(identity.Clone())
	}
}

func (s *Store) notifyChange(identity *models.UserRecord) {
	s.changeMu.RLock()
	listeners := make([]func(*models.UserRecord), len(s.onChange))
	copy(listeners, s.onChange)
	s.changeMu.RUnlock()

	for _, fn := range listeners {
		fn(identity)
	}
}

// mergeIdentity applies a partial field map over an identity by going
// through JSON: marshal the current record, overlay the partial keys,
// and decode back. Unknown keys are dropped by the decode.
func mergeIdentity(current *models.UserRecord, partial map[string]any) *models.UserRecord {
	base, err := json.Marshal(current)
	if err != nil {
		return current.Clone()
	}
	var fields map[string]any
	if err := json.Unmarshal(base, &fields); err != nil {
		return current.Clone()
	}
	for k, v := range partial {
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return current.Clone()
	}
	out := current.Clone()
	if err := json.Unmarshal(merged, out); err != nil {
		return current.Clone()
	}
	return out
}

// decodeUserPayload accepts both response shapes for profile updates:
// the bare user object and an envelope carrying it under "user".
func decodeUserPayload(resp *transport.Response, out *models.UserRecord) error {
	var envelope struct {
		User *models.UserRecord `json:"user"`
	}
	if err := resp.Decode(&envelope); err == nil && envelope.User != nil {
		*out = *envelope.User
		return nil
	}
	return resp.Decode(out)
}

// tokenExpired inspects the persisted bearer token's exp claim without
// verifying the signature (the client has no key material). Opaque
// non-JWT tokens are accepted; only a parseable token with an exp in the
// past is rejected.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
