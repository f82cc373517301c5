package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ilasdev/ilas/internal/models"
	"github.com/ilasdev/ilas/internal/session"
	"github.com/ilasdev/ilas/internal/shared"
)

// backend is a configurable stand-in for the ILAS API: a protected resource
// that 401s unless the expected bearer token is presented, and a refresh
// endpoint with a scriptable outcome.
type backend struct {
	server *httptest.Server

	validToken    atomic.Value // string
	refreshCalls  atomic.Int64
	resourceCalls atomic.Int64
	refreshDelay  time.Duration
	refreshStatus int
	refreshBody   map[string]any
	// frozen keeps the valid token fixed even after a refresh, modelling a
	// backend that rejects the renewed token too.
	frozen bool
}

func newBackend(t *testing.T) *backend {
	t.Helper()

	b := &backend{refreshStatus: http.StatusOK}
	b.validToken.Store("tok1")
	b.refreshBody = map[string]any{"access": "tok2"}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if b.refreshDelay > 0 {
			time.Sleep(b.refreshDelay)
		}

		var payload struct {
			Refresh string `json:"refresh"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Refresh == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(b.refreshStatus)
		json.NewEncoder(w).Encode(b.refreshBody)

		if access, ok := b.refreshBody["access"].(string); ok && !b.frozen {
			b.validToken.Store(access)
		}
	})
	mux.HandleFunc("/protected/", func(w http.ResponseWriter, r *http.Request) {
		b.resourceCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+b.validToken.Load().(string) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func seededStore(t *testing.T) session.Store {
	t.Helper()
	store := session.NewMemoryStore()
	err := store.Set(session.Session{
		AccessToken:  "tok1",
		RefreshToken: "ref1",
		User:         &models.User{ID: 1, Username: "alice"},
	})
	if err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return store
}

func newPipeline(t *testing.T, b *backend, store session.Store) *http.Client {
	t.Helper()
	coordinator := NewCoordinator(store, b.server.URL+"/auth/token/refresh/", nil, nil)
	transport := NewTransport(store, TransportOptions{Refresher: coordinator})
	return &http.Client{Transport: transport}
}

func TestRefreshCoordinator(t *testing.T) {
	t.Run("SingleFlight", func(t *testing.T) {
		b := newBackend(t)
		b.refreshDelay = 50 * time.Millisecond
		store := seededStore(t)
		httpClient := newPipeline(t, b, store)

		// Expire the seeded token server-side so every request 401s first.
		b.validToken.Store("tok2")
		b.refreshBody = map[string]any{"access": "tok2"}

		const n = 3
		var wg sync.WaitGroup
		statuses := make([]int, n)
		errs := make([]error, n)

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				resp, err := httpClient.Get(b.server.URL + "/protected/")
				if err != nil {
					errs[i] = err
					return
				}
				defer resp.Body.Close()
				statuses[i] = resp.StatusCode
			}(i)
		}
		wg.Wait()

		for i := 0; i < n; i++ {
			if errs[i] != nil {
				t.Errorf("request %d failed: %v", i, errs[i])
			}
			if statuses[i] != http.StatusOK {
				t.Errorf("request %d got status %d, want 200", i, statuses[i])
			}
		}

		if got := b.refreshCalls.Load(); got != 1 {
			t.Errorf("expected exactly 1 refresh call, got %d", got)
		}
	})

	t.Run("RetryBound", func(t *testing.T) {
		b := newBackend(t)
		store := seededStore(t)
		httpClient := newPipeline(t, b, store)

		// Refresh succeeds but the resource keeps rejecting: the caller must
		// see the second 401 with no further refresh attempts.
		b.frozen = true
		b.validToken.Store("never-issued")
		b.refreshBody = map[string]any{"access": "tok2"}

		resp, err := httpClient.Get(b.server.URL + "/protected/")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected eventual 401, got %d", resp.StatusCode)
		}
		if got := b.resourceCalls.Load(); got != 2 {
			t.Errorf("expected exactly 2 resource calls (original + one retry), got %d", got)
		}
		if got := b.refreshCalls.Load(); got != 1 {
			t.Errorf("expected exactly 1 refresh call, got %d", got)
		}
	})

	t.Run("RefreshFailureClearsSessionAndRejectsAll", func(t *testing.T) {
		b := newBackend(t)
		b.refreshStatus = http.StatusBadRequest
		b.refreshDelay = 50 * time.Millisecond
		store := seededStore(t)
		httpClient := newPipeline(t, b, store)

		b.validToken.Store("tok2") // force 401s

		const n = 2
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				resp, err := httpClient.Get(b.server.URL + "/protected/")
				if err == nil {
					resp.Body.Close()
				}
				errs[i] = err
			}(i)
		}
		wg.Wait()

		for i := 0; i < n; i++ {
			if !errors.Is(errs[i], shared.ErrRefreshFailed) {
				t.Errorf("request %d: expected ErrRefreshFailed, got %v", i, errs[i])
			}
		}
		if !store.Get().Empty() {
			t.Errorf("session should be cleared after refresh failure, got %+v", store.Get())
		}
		if got := b.refreshCalls.Load(); got != 1 {
			t.Errorf("expected exactly 1 refresh call, got %d", got)
		}
	})

	t.Run("MalformedRefreshResponse", func(t *testing.T) {
		b := newBackend(t)
		b.refreshBody = map[string]any{"unexpected": "shape"}
		store := seededStore(t)
		httpClient := newPipeline(t, b, store)

		b.validToken.Store("tok2")

		_, err := httpClient.Get(b.server.URL + "/protected/")
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
		if !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse in chain, got %v", err)
		}
		if !store.Get().Empty() {
			t.Error("session should be cleared after malformed refresh response")
		}
	})

	t.Run("NestedTokenShapeAccepted", func(t *testing.T) {
		b := newBackend(t)
		b.refreshBody = map[string]any{"tokens": map[string]any{"access": "tok2"}}
		store := seededStore(t)
		httpClient := newPipeline(t, b, store)

		b.validToken.Store("tok2")

		resp, err := httpClient.Get(b.server.URL + "/protected/")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200 after nested-shape refresh, got %d", resp.StatusCode)
		}
	})

	t.Run("NoRefreshTokenPropagatesOriginal401", func(t *testing.T) {
		b := newBackend(t)
		store := session.NewMemoryStore() // empty: no tokens at all
		httpClient := newPipeline(t, b, store)

		resp, err := httpClient.Get(b.server.URL + "/protected/")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected original 401, got %d", resp.StatusCode)
		}
		if got := b.refreshCalls.Load(); got != 0 {
			t.Errorf("refresh endpoint should not be called, got %d calls", got)
		}
		if !store.Get().Empty() {
			t.Error("session should remain untouched")
		}
	})

	t.Run("SessionAtomicAfterRefresh", func(t *testing.T) {
		b := newBackend(t)
		store := seededStore(t)
		httpClient := newPipeline(t, b, store)

		b.validToken.Store("tok2")

		resp, err := httpClient.Get(b.server.URL + "/protected/")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		got := store.Get()
		if !got.Populated() {
			t.Fatalf("session should stay fully populated, got %+v", got)
		}
		if got.AccessToken != "tok2" {
			t.Errorf("expected rotated access token tok2, got %q", got.AccessToken)
		}
		if got.RefreshToken != "ref1" {
			t.Errorf("refresh token should be preserved, got %q", got.RefreshToken)
		}
		if got.User == nil || got.User.Username != "alice" {
			t.Errorf("user should be preserved, got %+v", got.User)
		}
	})

	t.Run("WaitersResolveInFIFOOrder", func(t *testing.T) {
		store := seededStore(t)
		c := NewCoordinator(store, "http://unused.invalid/", nil, nil)

		chA, lead := c.join()
		if !lead {
			t.Fatal("first joiner should lead the refresh")
		}
		chB, lead := c.join()
		if lead {
			t.Fatal("second joiner must not lead")
		}
		chC, lead := c.join()
		if lead {
			t.Fatal("third joiner must not lead")
		}

		go c.settle(refreshResult{token: "tok2"})

		// Sends are unbuffered and sequential: B cannot be ready while A is
		// still unreceived, and C cannot be ready while B is.
		time.Sleep(20 * time.Millisecond)
		select {
		case <-chB:
			t.Fatal("B resolved before A was received")
		default:
		}

		if res := <-chA; res.token != "tok2" {
			t.Errorf("A got %+v", res)
		}

		time.Sleep(20 * time.Millisecond)
		select {
		case <-chC:
			t.Fatal("C resolved before B was received")
		default:
		}

		if res := <-chB; res.token != "tok2" {
			t.Errorf("B got %+v", res)
		}
		if res := <-chC; res.token != "tok2" {
			t.Errorf("C got %+v", res)
		}

		// The coordinator is idle again: a fresh joiner leads.
		chD, lead := c.join()
		if !lead {
			t.Fatal("joiner after settlement should lead a new refresh")
		}
		go c.settle(refreshResult{err: context.Canceled})
		if res := <-chD; res.err == nil {
			t.Error("D should receive the settlement error")
		}
	})
}
