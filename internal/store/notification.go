// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

/*
notification.go - Ephemeral toasts and polled system notifications

Two unrelated concerns share one store because both feed the same
notification surface: short-lived toast messages raised locally, and
persistent system notifications mirrored from the server on a fixed
poll interval while a session is active.
*/

package store

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crewgrid/crewgrid/internal/logging"
	"github.com/crewgrid/crewgrid/internal/metrics"
	"github.com/crewgrid/crewgrid/internal/models"
	"github.com/crewgrid/crewgrid/internal/transport"
	"github.com/crewgrid/crewgrid/internal/validation"
)

const notificationsPath = "/notifications"

// DefaultToastDuration applies when a toast is raised without an
// explicit lifetime.
const DefaultToastDuration = 3 * time.Second

// DefaultPollInterval is how often system notifications are refreshed
// while a session is active.
const DefaultPollInterval = 30 * time.Second

// NotificationStore holds ephemeral toasts and the mirrored system
// notification collection.
type NotificationStore struct {
	client       transport.API
	session      Session
	log          zerolog.Logger
	pollInterval time.Duration

	mu     sync.Mutex
	toasts []models.Toast
	timers map[string]*time.Timer
	system []models.SystemNotification

	pollMu   sync.Mutex
	stopPoll context.CancelFunc
}

// NewNotificationStore creates an empty notification store polling at
// the default interval.
func NewNotificationStore(client transport.API, session Session) *NotificationStore {
	return &NotificationStore{
		client:       client,
		session:      session,
		pollInterval: DefaultPollInterval,
		toasts:       []models.Toast{},
		timers:       map[string]*time.Timer{},
		system:       []models.SystemNotification{},
		log:          logging.With().Str("component", "notifications").Logger(),
	}
}

// SetPollInterval overrides the system notification poll interval.
// Takes effect on the next poller start.
func (s *NotificationStore) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.pollInterval = d
	}
}

// ShowNotification raises a toast that removes itself after duration
// (DefaultToastDuration when zero or negative) and returns its id.
func (s *NotificationStore) ShowNotification(message, kind string, duration time.Duration) string {
	if duration <= 0 {
		duration = DefaultToastDuration
	}
	id := uuid.NewString()

	s.mu.Lock()
	s.toasts = append(s.toasts, models.Toast{ID: id, Message: message, Type: kind, CreatedAt: time.Now()})
	s.timers[id] = time.AfterFunc(duration, func() { s.RemoveToast(id) })
	s.mu.Unlock()

	return id
}

// RemoveToast dismisses a toast early. Removing an already-expired or
// unknown id is a no-op, so manual dismissal racing the expiry timer is
// harmless.
func (s *NotificationStore) RemoveToast(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
	for i := range s.toasts {
		if s.toasts[i].ID == id {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			return
		}
	}
}

// Toasts returns a snapshot of the live toasts.
func (s *NotificationStore) Toasts() []models.Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Toast, len(s.toasts))
	copy(out, s.toasts)
	return out
}

// System returns a snapshot of the mirrored system notifications.
func (s *NotificationStore) System() []models.SystemNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SystemNotification, len(s.system))
	copy(out, s.system)
	return out
}

// FetchSystem replaces the system notification collection from the
// server. Without an authenticated identity the fetch is skipped and
// the current collection kept, so a poll firing during logout does not
// blank the surface before the identity change handler clears it.
func (s *NotificationStore) FetchSystem(ctx context.Context) error {
	if s.session.Identity() == nil {
		return nil
	}

	resp, err := s.client.Send(ctx, http.MethodGet, notificationsPath, nil)
	if err != nil {
		return err
	}
	var fetched []models.SystemNotification
	if err := resp.Decode(&fetched); err != nil {
		return err
	}

	s.mu.Lock()
	s.system = fetched
	s.mu.Unlock()
	return nil
}

// Push creates a system notification and raises a toast reporting the
// outcome either way. On success the collection refreshes so the new
// entry appears without waiting for the next poll.
func (s *NotificationStore) Push(ctx context.Context, input models.NotificationInput) error {
	if err := validation.ValidateStruct(input); err != nil {
		return err
	}

	_, err := s.client.Send(ctx, http.MethodPost, notificationsPath, input)
	if err != nil {
		s.ShowNotification("Failed to send notification", models.ToastError, 0)
		return err
	}

	s.ShowNotification("Notification sent", models.ToastSuccess, 0)
	if ferr := s.FetchSystem(ctx); ferr != nil {
		s.log.Warn().Err(ferr).Msg("refresh after push failed")
	}
	return nil
}

// MarkAsRead flips a notification to read locally before asking the
// server. A failed request leaves the optimistic flip in place; the
// next poll reconciles.
func (s *NotificationStore) MarkAsRead(ctx context.Context, id models.ID) error {
	s.mu.Lock()
	for i := range s.system {
		if s.system[i].ID == id {
			s.system[i].Read = true
			break
		}
	}
	s.mu.Unlock()

	_, err := s.client.Send(ctx, http.MethodPut, notificationsPath+"/"+id.String(), nil)
	return err
}

// Delete removes a system notification on the server, then locally.
func (s *NotificationStore) Delete(ctx context.Context, id models.ID) error {
	if _, err := s.client.Send(ctx, http.MethodDelete, notificationsPath+"/"+id.String(), nil); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.system {
		if s.system[i].ID == id {
			s.system = append(s.system[:i], s.system[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// HandleIdentityChange reacts to session transitions: a new identity
// starts the poller with an immediate fetch, a nil identity stops it
// and clears the mirrored collection. Wire it to the session store's
// OnChange hook.
func (s *NotificationStore) HandleIdentityChange(ctx context.Context, identity *models.UserRecord) {
	if identity == nil {
		s.StopPolling()
		s.mu.Lock()
		s.system = []models.SystemNotification{}
		s.mu.Unlock()
		return
	}
	s.StartPolling(ctx)
}

// StartPolling launches the system notification poller. Calling it
// while a poller is already running restarts it.
func (s *NotificationStore) StartPolling(ctx context.Context) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	if s.stopPoll != nil {
		s.stopPoll()
	}
	pollCtx, cancel := context.WithCancel(ctx)
	s.stopPoll = cancel

	go s.pollLoop(pollCtx)
}

// StopPolling cancels the running poller, if any.
func (s *NotificationStore) StopPolling() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if s.stopPoll != nil {
		s.stopPoll()
		s.stopPoll = nil
	}
}

// pollLoop fetches immediately, then on every tick until cancelled.
// Each fetch retries transient transport failures with exponential
// backoff capped well under the poll interval; auth and validation
// failures abort the attempt and wait for the next tick.
func (s *NotificationStore) pollLoop(ctx context.Context) {
	s.PollOnce(ctx)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PollOnce(ctx)
		}
	}
}

// PollOnce runs one poll attempt with retry. Exposed for supervised
// drivers that own the poll cadence themselves.
func (s *NotificationStore) PollOnce(ctx context.Context) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)

	err := backoff.Retry(func() error {
		err := s.FetchSystem(ctx)
		if err != nil && !transport.Retriable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)

	if err != nil {
		s.log.Warn().Err(err).Msg("notification poll failed")
		metrics.PollerRuns.WithLabelValues("error").Inc()
		return
	}
	metrics.PollerRuns.WithLabelValues("ok").Inc()
}
