package cookai

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// memStore is an in-memory TokenStore with fault injection for tests.
type memStore struct {
	mu     sync.Mutex
	values map[string]string

	failGet    error
	failSet    error
	failDelete error
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return "", s.failGet
	}
	value, ok := s.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete != nil {
		return s.failDelete
	}
	delete(s.values, key)
	return nil
}

func (s *memStore) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *memStore) put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

func testConfig(baseURL string) Config {
	cfg := defaultConfig()
	cfg.API.BaseURL = baseURL
	return cfg
}

func newTestClient(t *testing.T, baseURL string, store TokenStore) *Client {
	t.Helper()

	client, err := New().
		WithConfig(testConfig(baseURL)).
		WithTokenStore(store).
		WithHTTPClient(http.DefaultClient).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func makeToken(t *testing.T, email string, expiresIn time.Duration) string {
	t.Helper()

	claims := gojwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(expiresIn).Unix(),
	}
	if email != "" {
		claims["email"] = email
	}

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func seedSession(store *memStore, access, refresh string) {
	store.put(KeyAccessToken, access)
	store.put(KeyRefreshToken, refresh)
	store.put(KeyUserID, "user-1")
	store.put(KeyUserEmail, "alice@example.com")
	store.put(KeyDisplayName, "Alice")
	store.put(KeyDeviceID, "device-1")
}
