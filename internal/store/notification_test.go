// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package store

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/crewgrid/crewgrid/internal/models"
)

func newNotificationStore(t *testing.T, handler http.HandlerFunc, session Session) (*NotificationStore, *recordingServer) {
	t.Helper()
	srv := newRecordingServer(t, handler)
	return NewNotificationStore(newTestClient(t, srv), session), srv
}

func TestToastAutoExpires(t *testing.T) {
	store, _ := newNotificationStore(t, func(w http.ResponseWriter, r *http.Request) {}, adminSession())

	id := store.ShowNotification("saved", models.ToastSuccess, 50*time.Millisecond)
	if got := store.Toasts(); len(got) != 1 || got[0].ID != id {
		t.Fatalf("toasts = %+v, want the raised toast", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(store.Toasts()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("toast did not expire")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRemoveToastIsIdempotent(t *testing.T) {
	store, _ := newNotificationStore(t, func(w http.ResponseWriter, r *http.Request) {}, adminSession())

	id := store.ShowNotification("hello", models.ToastInfo, time.Minute)
	store.RemoveToast(id)
	store.RemoveToast(id) // racing the expiry timer must be harmless
	store.RemoveToast("no-such-id")

	if got := store.Toasts(); len(got) != 0 {
		t.Errorf("toasts = %+v, want empty", got)
	}
}

func TestFetchSystemReplacesCollection(t *testing.T) {
	store, srv := newNotificationStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `[
			{"id": 1, "title": "Payday", "message": "Payroll processed", "read": false}
		]`)
	}, adminSession())

	if err := store.FetchSystem(context.Background()); err != nil {
		t.Fatalf("FetchSystem: %v", err)
	}
	if got := store.System(); len(got) != 1 || got[0].Title != "Payday" {
		t.Fatalf("system = %+v", got)
	}
	if srv.seen("GET /notifications") != 1 {
		t.Error("notifications endpoint not hit")
	}
}

func TestFetchSystemSkippedWithoutIdentity(t *testing.T) {
	store, srv := newNotificationStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `[]`)
	}, &fakeSession{})

	if err := store.FetchSystem(context.Background()); err != nil {
		t.Fatalf("FetchSystem: %v", err)
	}
	if srv.total() != 0 {
		t.Error("fetch without identity reached the server")
	}
}

func TestPushRaisesOutcomeToast(t *testing.T) {
	store, _ := newNotificationStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(t, w, http.StatusCreated, `{"id": 2}`)
			return
		}
		writeJSON(t, w, http.StatusOK, `[]`)
	}, adminSession())

	err := store.Push(context.Background(), models.NotificationInput{Title: "Notice", Message: "Body"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}

	toasts := store.Toasts()
	if len(toasts) != 1 || toasts[0].Type != models.ToastSuccess {
		t.Fatalf("toasts = %+v, want one success toast", toasts)
	}
}

func TestPushFailureRaisesErrorToast(t *testing.T) {
	store, _ := newNotificationStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, `{"message": "down"}`)
	}, adminSession())

	err := store.Push(context.Background(), models.NotificationInput{Title: "Notice", Message: "Body"})
	if err == nil {
		t.Fatal("Push succeeded against a failing server")
	}

	toasts := store.Toasts()
	if len(toasts) != 1 || toasts[0].Type != models.ToastError {
		t.Fatalf("toasts = %+v, want one error toast", toasts)
	}
}

func TestMarkAsReadFlipsOptimistically(t *testing.T) {
	store, srv := newNotificationStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			// Server failure must not roll back the optimistic flip.
			writeJSON(t, w, http.StatusInternalServerError, `{"message": "down"}`)
			return
		}
		writeJSON(t, w, http.StatusOK, `[
			{"id": 1, "title": "Payday", "message": "Processed", "read": false}
		]`)
	}, adminSession())

	if err := store.FetchSystem(context.Background()); err != nil {
		t.Fatalf("FetchSystem: %v", err)
	}
	if err := store.MarkAsRead(context.Background(), "1"); err == nil {
		t.Fatal("MarkAsRead succeeded against a failing server")
	}
	if srv.seen("PUT /notifications/1") != 1 {
		t.Error("read update must go through PUT /notifications/:id")
	}
	if got := store.System(); !got[0].Read {
		t.Error("read flag not flipped optimistically")
	}
}

func TestDeleteRemovesLocallyAfterServer(t *testing.T) {
	store, _ := newNotificationStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(t, w, http.StatusOK, `[
			{"id": 1, "title": "A", "message": "a", "read": false},
			{"id": 2, "title": "B", "message": "b", "read": false}
		]`)
	}, adminSession())

	if err := store.FetchSystem(context.Background()); err != nil {
		t.Fatalf("FetchSystem: %v", err)
	}
	if err := store.Delete(context.Background(), "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got := store.System()
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("system = %+v, want only id 2 left", got)
	}
}

func TestIdentityChangeClearsAndStopsPolling(t *testing.T) {
	store, srv := newNotificationStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `[
			{"id": 1, "title": "Payday", "message": "Processed", "read": false}
		]`)
	}, adminSession())
	store.SetPollInterval(time.Hour) // only the immediate fetch matters here

	ctx := context.Background()
	store.HandleIdentityChange(ctx, adminSession().Identity())

	deadline := time.Now().Add(2 * time.Second)
	for len(store.System()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("poller never populated the collection")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if srv.seen("GET /notifications") == 0 {
		t.Fatal("poller start must fetch immediately")
	}

	store.HandleIdentityChange(ctx, nil)
	if got := store.System(); len(got) != 0 {
		t.Errorf("system = %+v after logout, want cleared", got)
	}
}
