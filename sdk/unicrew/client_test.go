package unicrew

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestConfiguredListTimeoutApplies(t *testing.T) {
	t.Parallel()

	mux := newTestMux()
	mux.HandleFunc("/teams/", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(400 * time.Millisecond)
		writeJSON(w, http.StatusOK, Page[Team]{Count: 0, Results: []Team{}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := &memStore{pair: &TokenPair{Access: "A1", Refresh: "R1"}}
	session := NewSession(server.URL, store,
		WithClientOptions(WithListTimeout(100*time.Millisecond)))
	defer session.Close()
	session.Initialize(context.Background())

	start := time.Now()
	_, err := session.Teams().List(context.Background(), TeamFilter{})
	if !IsTimeout(err) {
		t.Fatalf("List() with a 100ms list timeout against a 400ms endpoint = %v, want timeout", err)
	}
	if elapsed := time.Since(start); elapsed >= 400*time.Millisecond {
		t.Errorf("List() returned after %v, want the configured timeout to cut it short", elapsed)
	}

	// Non-list requests are not bound by the list timeout.
	if _, err := session.Users().Profile(context.Background()); err != nil {
		t.Errorf("Profile() error: %v", err)
	}
}

func TestListTimeoutDefaultsToConstant(t *testing.T) {
	t.Parallel()

	c := NewClient("http://127.0.0.1:0")
	if c.listTimeout != ListTimeout {
		t.Errorf("listTimeout = %v, want %v", c.listTimeout, ListTimeout)
	}
	if c.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.timeout, DefaultTimeout)
	}
}
