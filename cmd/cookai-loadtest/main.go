package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"

	cookai "github.com/taliieva/cook-ai-client"
	"github.com/taliieva/cook-ai-client/metrics/export/prometheus"
	"github.com/taliieva/cook-ai-client/store"
)

// mockBackend serves a refresh endpoint with rotation plus an API route that
// periodically answers 401 to force the retry path.
type mockBackend struct {
	mu           sync.Mutex
	validAccess  string
	validRefresh string
	rotations    int

	rejectEvery int
	apiHits     atomic.Int64
}

func (b *mockBackend) rotate() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rotations++
	b.validAccess = fmt.Sprintf("access-%d", b.rotations)
	b.validRefresh = fmt.Sprintf("refresh-%d", b.rotations)
	return b.validAccess, b.validRefresh
}

func (b *mockBackend) expireAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rotations++
	b.validAccess = fmt.Sprintf("access-%d", b.rotations)
}

func (b *mockBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/guest", func(w http.ResponseWriter, r *http.Request) {
		access, refresh := b.rotate()
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  access,
			"refreshToken": refresh,
			"userId":       "guest-loadtest",
		})
	})

	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		b.mu.Lock()
		valid := req["refreshToken"] == b.validRefresh
		b.mu.Unlock()

		if !valid {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		access, refresh := b.rotate()
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  access,
			"refreshToken": refresh,
		})
	})

	mux.HandleFunc("GET /recipes", func(w http.ResponseWriter, r *http.Request) {
		hit := b.apiHits.Add(1)

		b.mu.Lock()
		authorized := r.Header.Get("Authorization") == "Bearer "+b.validAccess
		b.mu.Unlock()

		if !authorized || (b.rejectEvery > 0 && hit%int64(b.rejectEvery) == 0) {
			if b.rejectEvery > 0 && hit%int64(b.rejectEvery) == 0 {
				// Expire the current access token (the refresh token stays
				// valid) so the retry needs a real refresh.
				b.expireAccess()
			}
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	return mux
}

func main() {
	_ = godotenv.Load()

	var (
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "total authenticated requests to issue")
		rejectEvery = flag.Int("reject-every", 100, "every Nth API hit answers 401 (0 disables)")
		showProm    = flag.Bool("prometheus", false, "print Prometheus exposition instead of the raw snapshot")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency and ops must be > 0")
		os.Exit(2)
	}

	backend := &mockBackend{rejectEvery: *rejectEvery}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	cfg := cookai.Config{
		API: cookai.APIConfig{
			BaseURL:        server.URL,
			RefreshPath:    "/auth/refresh",
			GuestPath:      "/auth/guest",
			AccountPath:    "/auth/account",
			RequestTimeout: 15 * time.Second,
		},
		Device: cookai.DeviceConfig{Platform: "loadtest"},
		Refresh: cookai.RefreshConfig{
			Coalesce: true,
			Timeout:  10 * time.Second,
		},
	}

	client, err := cookai.New().
		WithConfig(cfg).
		WithTokenStore(store.NewMemory()).
		WithHTTPClient(http.DefaultClient).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx := context.Background()
	if _, err := client.SignInAsGuest(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "guest sign-in: %v\n", err)
		os.Exit(1)
	}

	var (
		wg       sync.WaitGroup
		issued   atomic.Int64
		statuses sync.Map
	)

	start := time.Now()
	wg.Add(*concurrency)
	for w := 0; w < *concurrency; w++ {
		go func() {
			defer wg.Done()
			for {
				n := issued.Add(1)
				if n > int64(*ops) {
					return
				}

				req, err := http.NewRequest(http.MethodGet, server.URL+"/recipes", nil)
				if err != nil {
					fmt.Fprintf(os.Stderr, "build request: %v\n", err)
					return
				}
				resp, err := client.Do(ctx, req)
				if err != nil {
					fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
					continue
				}
				resp.Body.Close()

				count, _ := statuses.LoadOrStore(resp.StatusCode, new(atomic.Int64))
				count.(*atomic.Int64).Add(1)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	fmt.Printf("issued %d requests with %d workers in %s (%.0f req/s)\n",
		*ops, *concurrency, elapsed.Round(time.Millisecond), float64(*ops)/elapsed.Seconds())

	var codes []int
	statuses.Range(func(key, _ any) bool {
		codes = append(codes, key.(int))
		return true
	})
	sort.Ints(codes)
	for _, code := range codes {
		count, _ := statuses.Load(code)
		fmt.Printf("  status %d: %d\n", code, count.(*atomic.Int64).Load())
	}

	if *showProm {
		fmt.Println(prometheus.NewPrometheusExporter(client).Render())
		return
	}

	snapshot := client.MetricsSnapshot()
	fmt.Printf("refresh success=%d coalesced=%d rejected=%d network_err=%d\n",
		snapshot.Counters[cookai.MetricRefreshSuccess],
		snapshot.Counters[cookai.MetricRefreshCoalesced],
		snapshot.Counters[cookai.MetricRefreshRejected],
		snapshot.Counters[cookai.MetricRefreshNetworkError])
	fmt.Printf("requests total=%d unauthorized=%d retried=%d retry_exhausted=%d\n",
		snapshot.Counters[cookai.MetricRequestTotal],
		snapshot.Counters[cookai.MetricRequestUnauthorized],
		snapshot.Counters[cookai.MetricRequestRetried],
		snapshot.Counters[cookai.MetricRequestRetryExhausted])
	if buckets, ok := snapshot.Histograms[cookai.MetricRequestLatency]; ok {
		fmt.Printf("latency buckets (<=5ms..+Inf): %v\n", buckets)
	}
}
