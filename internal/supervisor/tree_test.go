// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package supervisor

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crewgrid/crewgrid/internal/models"
	"github.com/crewgrid/crewgrid/internal/store"
	"github.com/crewgrid/crewgrid/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// crashingService fails a fixed number of times before settling.
type crashingService struct {
	failures int32
	serves   int32
}

func (c *crashingService) Serve(ctx context.Context) error {
	atomic.AddInt32(&c.serves, 1)
	if atomic.AddInt32(&c.failures, -1) >= 0 {
		return context.DeadlineExceeded // any non-nil error triggers restart
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestTreeRestartsFailingService(t *testing.T) {
	tree := NewTree(testLogger(), DefaultTreeConfig())
	svc := &crashingService{failures: 2}
	tree.AddSyncService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadInt32(&svc.serves) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("serves = %d, service was not restarted", atomic.LoadInt32(&svc.serves))
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}

// pollFakeAPI counts notification fetches.
type pollFakeAPI struct {
	calls int32
}

func (f *pollFakeAPI) Send(ctx context.Context, method, path string, body any, opts ...transport.RequestOption) (*transport.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	return transport.NewResponse(http.StatusOK, nil, []byte(`[]`)), nil
}

type fixedSession struct {
	authed   bool
	identity *models.UserRecord
}

func (f *fixedSession) IsAuthenticated() bool        { return f.authed }
func (f *fixedSession) Identity() *models.UserRecord { return f.identity }
func (f *fixedSession) Role() string                 { return "" }

func TestPollerServiceSkipsAnonymousTicks(t *testing.T) {
	api := &pollFakeAPI{}
	session := &fixedSession{authed: false}
	ns := store.NewNotificationStore(api, session)

	svc := NewPollerService(ns, session, 20*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_ = svc.Serve(ctx)
	if n := atomic.LoadInt32(&api.calls); n != 0 {
		t.Errorf("api calls = %d while anonymous, want 0", n)
	}
}

func TestPollerServiceFetchesWhileAuthenticated(t *testing.T) {
	api := &pollFakeAPI{}
	session := &fixedSession{
		authed:   true,
		identity: &models.UserRecord{ID: "1", Email: "a@b.c"},
	}
	ns := store.NewNotificationStore(api, session)

	svc := NewPollerService(ns, session, 20*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_ = svc.Serve(ctx)
	if n := atomic.LoadInt32(&api.calls); n < 2 {
		t.Errorf("api calls = %d, want immediate fetch plus ticks", n)
	}
}
