package unicrew

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Concurrent refresh demand is awaited, not rejected: a caller arriving
// while a refresh is in flight blocks for that call's outcome instead of
// failing fast, so every waiter below must succeed with the shared token.
func TestConcurrentRefreshCallsCoalesce(t *testing.T) {
	const waiters = 8

	var refreshCalls atomic.Int32
	mux := newTestMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		// Hold the response long enough for every waiter to join the
		// in-flight call.
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]string{"access": "A2"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := &memStore{pair: &TokenPair{Access: "A1", Refresh: "R1"}}
	session := NewSession(server.URL, store)
	defer session.Close()
	session.Initialize(context.Background())

	var wg sync.WaitGroup
	errs := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = session.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("waiter %d: Refresh() error: %v", i, err)
		}
	}
	if n := refreshCalls.Load(); n != 1 {
		t.Errorf("refresh endpoint called %d times for %d concurrent callers, want 1", n, waiters)
	}
	if got := session.Tokens(); got == nil || got.Access != "A2" {
		t.Errorf("Tokens() = %+v, want the shared refreshed pair", got)
	}
}

func TestConcurrent401sTriggerOneRefresh(t *testing.T) {
	const requests = 6

	var refreshCalls atomic.Int32
	mux := newTestMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]string{"access": "A2"})
	})
	mux.HandleFunc("/teams/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, Page[Team]{Count: 0, Results: []Team{}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := &memStore{pair: &TokenPair{Access: "A1", Refresh: "R1"}}
	session := NewSession(server.URL, store)
	defer session.Close()
	session.Initialize(context.Background())

	var wg sync.WaitGroup
	errs := make([]error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = session.Teams().List(context.Background(), TeamFilter{})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d failed: %v", i, err)
		}
	}
	if n := refreshCalls.Load(); n != 1 {
		t.Errorf("refresh endpoint called %d times for %d simultaneous 401s, want 1", n, requests)
	}
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	server := httptest.NewServer(newTestMux())
	defer server.Close()

	session := NewSession(server.URL, &memStore{})
	defer session.Close()

	if err := session.Refresh(context.Background()); !errors.Is(err, ErrNoRefreshToken) {
		t.Errorf("Refresh() without tokens = %v, want ErrNoRefreshToken", err)
	}
}

func TestRefreshMalformedResponseLogsOut(t *testing.T) {
	mux := newTestMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := &memStore{pair: &TokenPair{Access: "A1", Refresh: "R1"}}
	session := NewSession(server.URL, store)
	defer session.Close()
	session.Initialize(context.Background())

	if err := session.Refresh(context.Background()); !errors.Is(err, ErrMalformedRefresh) {
		t.Fatalf("Refresh() = %v, want ErrMalformedRefresh", err)
	}
	if session.IsAuthenticated() {
		t.Error("session authenticated after malformed refresh")
	}
	if store.stored() != nil {
		t.Error("store not cleared after malformed refresh")
	}
}

func TestRefreshRotatesRefreshToken(t *testing.T) {
	mux := newTestMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"access": "A2", "refresh": "R2"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := &memStore{pair: &TokenPair{Access: "A1", Refresh: "R1"}}
	session := NewSession(server.URL, store)
	defer session.Close()
	session.Initialize(context.Background())

	if err := session.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if got := store.stored(); got == nil || got.Access != "A2" || got.Refresh != "R2" {
		t.Errorf("store = %+v, want rotated pair A2/R2", got)
	}
}

func TestRefreshPersistFailureLogsOut(t *testing.T) {
	mux := newTestMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"access": "A2"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := &memStore{pair: &TokenPair{Access: "A1", Refresh: "R1"}}
	session := NewSession(server.URL, store)
	defer session.Close()
	session.Initialize(context.Background())

	store.mu.Lock()
	store.saveErr = errors.New("disk full")
	store.mu.Unlock()

	if err := session.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() succeeded although the new pair could not be persisted")
	}
	// A pair that cannot be persisted is never installed: memory and disk
	// stay consistent via logout.
	if session.IsAuthenticated() {
		t.Error("session authenticated with an unpersistable pair")
	}
	if got := session.Tokens(); got != nil {
		t.Errorf("Tokens() = %+v, want nil", got)
	}
}

// Logout is terminal: a refresh already in flight when Logout lands must not
// resurrect the session when its response finally arrives. The late result is
// discarded and both the state and the store stay cleared.
func TestLogoutDuringRefreshStaysLoggedOut(t *testing.T) {
	release := make(chan struct{})
	mux := newTestMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, map[string]string{"access": "A2", "refresh": "R2"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := &memStore{pair: &TokenPair{Access: "A1", Refresh: "R1"}}
	session := NewSession(server.URL, store)
	defer session.Close()
	session.Initialize(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- session.Refresh(context.Background())
	}()

	// Wait until the refresh call is actually in flight before logging out.
	deadline := time.Now().Add(2 * time.Second)
	for !session.IsRefreshing() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !session.IsRefreshing() {
		t.Fatal("refresh never started")
	}

	session.Logout()
	close(release)

	if err := <-done; !errors.Is(err, errRefreshSuperseded) {
		t.Errorf("Refresh() after mid-flight logout = %v, want errRefreshSuperseded", err)
	}
	if session.IsAuthenticated() {
		t.Error("session re-authenticated by a refresh that completed after Logout")
	}
	if got := session.Tokens(); got != nil {
		t.Errorf("Tokens() = %+v after Logout, want nil", got)
	}
	if got := store.stored(); got != nil {
		t.Errorf("store = %+v after Logout, want nil", got)
	}
}

func TestCancelledWaiterDoesNotAbortRefresh(t *testing.T) {
	release := make(chan struct{})
	mux := newTestMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, map[string]string{"access": "A2"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := &memStore{pair: &TokenPair{Access: "A1", Refresh: "R1"}}
	session := NewSession(server.URL, store)
	defer session.Close()
	session.Initialize(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	impatient := make(chan error, 1)
	go func() {
		impatient <- session.Refresh(ctx)
	}()
	patient := make(chan error, 1)
	go func() {
		patient <- session.Refresh(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	if err := <-impatient; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled waiter got %v, want context.Canceled", err)
	}

	close(release)
	if err := <-patient; err != nil {
		t.Errorf("remaining waiter got %v, want the completed refresh", err)
	}
	if got := session.Tokens(); got == nil || got.Access != "A2" {
		t.Errorf("Tokens() = %+v, want A2 despite one waiter giving up", got)
	}
}
