package cookai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func refreshHandler(t *testing.T, hits *atomic.Int64, respond func(w http.ResponseWriter, body map[string]string)) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/refresh" {
			http.NotFound(w, r)
			return
		}
		if hits != nil {
			hits.Add(1)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode refresh body: %v", err)
		}
		respond(w, body)
	})
}

func TestRefreshNoTokenSkipsNetwork(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(refreshHandler(t, &hits, func(w http.ResponseWriter, _ map[string]string) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := newMemStore()
	store.put(KeyAccessToken, "stale-access")
	client := newTestClient(t, server.URL, store)

	outcome, err := client.Refresh(context.Background())
	if outcome != RefreshNoToken {
		t.Fatalf("outcome = %d, want RefreshNoToken", outcome)
	}
	if !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("error = %v, want ErrNoRefreshToken", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("refresh endpoint was hit %d times, want 0", hits.Load())
	}
	if store.has(KeyAccessToken) {
		t.Fatal("stale access token not cleared")
	}
}

func TestRefreshSuccessPersistsBothTokens(t *testing.T) {
	server := httptest.NewServer(refreshHandler(t, nil, func(w http.ResponseWriter, body map[string]string) {
		if body["refreshToken"] != "refresh-old" {
			t.Errorf("refresh request carried token %q", body["refreshToken"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "access-new",
			"refreshToken": "refresh-new",
		})
	}))
	defer server.Close()

	store := newMemStore()
	seedSession(store, "access-old", "refresh-old")
	client := newTestClient(t, server.URL, store)

	outcome, err := client.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if outcome != RefreshNewPair {
		t.Fatalf("outcome = %d, want RefreshNewPair", outcome)
	}
	if store.get(KeyAccessToken) != "access-new" || store.get(KeyRefreshToken) != "refresh-new" {
		t.Fatalf("stored pair = %q/%q, want access-new/refresh-new",
			store.get(KeyAccessToken), store.get(KeyRefreshToken))
	}
}

func TestRefreshRejectedClearsSession(t *testing.T) {
	server := httptest.NewServer(refreshHandler(t, nil, func(w http.ResponseWriter, _ map[string]string) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer server.Close()

	store := newMemStore()
	seedSession(store, "access-old", "refresh-old")
	client := newTestClient(t, server.URL, store)

	outcome, err := client.Refresh(context.Background())
	if outcome != RefreshRejected {
		t.Fatalf("outcome = %d, want RefreshRejected", outcome)
	}
	if !errors.Is(err, ErrRefreshRejected) {
		t.Fatalf("error = %v, want ErrRefreshRejected", err)
	}

	for _, key := range SessionKeys {
		if store.has(key) {
			t.Fatalf("session key %q survived a rejected refresh", key)
		}
	}
	if store.get(KeyDeviceID) != "device-1" {
		t.Fatal("device id did not survive the session clear")
	}
}

func TestRefreshServerErrorPreservesTokens(t *testing.T) {
	server := httptest.NewServer(refreshHandler(t, nil, func(w http.ResponseWriter, _ map[string]string) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := newMemStore()
	seedSession(store, "access-old", "refresh-old")
	client := newTestClient(t, server.URL, store)

	outcome, err := client.Refresh(context.Background())
	if outcome != RefreshNetworkError {
		t.Fatalf("outcome = %d, want RefreshNetworkError", outcome)
	}
	if !errors.Is(err, ErrRefreshUnavailable) {
		t.Fatalf("error = %v, want ErrRefreshUnavailable", err)
	}
	if store.get(KeyAccessToken) != "access-old" || store.get(KeyRefreshToken) != "refresh-old" {
		t.Fatal("tokens were not preserved across a transient failure")
	}
}

func TestRefreshTransportErrorPreservesTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // every request now fails at the transport level

	store := newMemStore()
	seedSession(store, "access-old", "refresh-old")
	client := newTestClient(t, server.URL, store)

	outcome, err := client.Refresh(context.Background())
	if outcome != RefreshNetworkError {
		t.Fatalf("outcome = %d, want RefreshNetworkError", outcome)
	}
	if !errors.Is(err, ErrRefreshUnavailable) {
		t.Fatalf("error = %v, want ErrRefreshUnavailable", err)
	}
	if store.get(KeyRefreshToken) != "refresh-old" {
		t.Fatal("refresh token was not preserved across a transport failure")
	}
}

func TestRefreshInvalidBodyPreservesTokens(t *testing.T) {
	server := httptest.NewServer(refreshHandler(t, nil, func(w http.ResponseWriter, _ map[string]string) {
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "only-half-a-pair"})
	}))
	defer server.Close()

	store := newMemStore()
	seedSession(store, "access-old", "refresh-old")
	client := newTestClient(t, server.URL, store)

	outcome, err := client.Refresh(context.Background())
	if outcome != RefreshNetworkError {
		t.Fatalf("outcome = %d, want RefreshNetworkError", outcome)
	}
	if !errors.Is(err, ErrWireSchema) {
		t.Fatalf("error = %v, want ErrWireSchema", err)
	}
	if store.get(KeyRefreshToken) != "refresh-old" {
		t.Fatal("refresh token was overwritten by an invalid response")
	}
}

func TestRefreshConcurrencySingleExchange(t *testing.T) {
	var hits atomic.Int64
	release := make(chan struct{})

	server := httptest.NewServer(refreshHandler(t, &hits, func(w http.ResponseWriter, _ map[string]string) {
		<-release
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "access-new",
			"refreshToken": "refresh-new",
		})
	}))
	defer server.Close()

	store := newMemStore()
	seedSession(store, "access-old", "refresh-old")
	client := newTestClient(t, server.URL, store)

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan RefreshOutcome, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			outcome, err := client.Refresh(context.Background())
			if err != nil {
				t.Errorf("refresh failed: %v", err)
			}
			results <- outcome
		}()
	}

	// Give the goroutines time to pile onto the in-flight exchange, then let
	// the one network call complete.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for outcome := range results {
		if outcome != RefreshNewPair {
			t.Fatalf("unexpected outcome %d", outcome)
		}
	}

	if got := hits.Load(); got != 1 {
		t.Fatalf("refresh endpoint was hit %d times, want exactly 1", got)
	}
	if store.get(KeyRefreshToken) != "refresh-new" {
		t.Fatal("rotated refresh token was not persisted")
	}

	snapshot := client.MetricsSnapshot()
	if snapshot.Counters[MetricRefreshSuccess] != 1 {
		t.Fatalf("refresh success counter = %d, want 1", snapshot.Counters[MetricRefreshSuccess])
	}
	if snapshot.Counters[MetricRefreshCoalesced] == 0 {
		t.Fatal("no callers were coalesced")
	}
}

func TestRefreshStoreReadFaultReadsAsAbsent(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(refreshHandler(t, &hits, func(w http.ResponseWriter, _ map[string]string) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// A faulting store reads as "no token stored": the client must steer
	// toward re-authentication, not spend the fault as a network attempt.
	store := newMemStore()
	store.failGet = fmt.Errorf("keychain locked")
	client := newTestClient(t, server.URL, store)

	outcome, err := client.Refresh(context.Background())
	if outcome != RefreshNoToken {
		t.Fatalf("outcome = %d, want RefreshNoToken", outcome)
	}
	if !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("error = %v, want ErrNoRefreshToken", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("refresh endpoint was hit %d times, want 0", hits.Load())
	}

	snapshot := client.MetricsSnapshot()
	if snapshot.Counters[MetricStoreReadError] == 0 {
		t.Fatal("store read fault was not counted")
	}
}
