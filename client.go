package cookai

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taliieva/cook-ai-client/jwt"
)

// Doer defines a public type used by cookai APIs.
//
// Doer instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Doer interface {
	DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error)
}

// plainDoer adapts a bare *http.Client to the Doer contract.
type plainDoer struct {
	client *http.Client
}

func (d plainDoer) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return d.client.Do(req.WithContext(ctx))
}

// Client defines a public type used by cookai APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	config    Config
	store     TokenStore
	http      Doer
	inspector *jwt.Inspector
	audit     *auditDispatcher
	metrics   *Metrics

	refreshMu sync.Mutex
	inflight  *refreshCall

	closed atomic.Bool
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.closed.Swap(true) {
		return
	}
	c.audit.Close()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

func (c *Client) metricInc(id MetricID) {
	c.metrics.Inc(id)
}

func (c *Client) observeLatency(start time.Time) {
	c.metrics.Observe(MetricRequestLatency, time.Since(start))
}

func (c *Client) emitAudit(ctx context.Context, eventType string, success bool, status int, errMsg string, metadata map[string]string) {
	if c.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		Endpoint:  c.config.API.BaseURL,
		Status:    status,
		Success:   success,
		Error:     errMsg,
		Metadata:  metadata,
	}

	if surface := surfaceFromContext(ctx); surface != "" {
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		event.Metadata["surface"] = surface
	}
	if requestID := requestIDFromContext(ctx); requestID != "" {
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		event.Metadata["request_id"] = requestID
	}
	if deviceID := c.storedValue(ctx, KeyDeviceID); deviceID != "" {
		event.DeviceID = deviceID
	}

	c.audit.Emit(ctx, event)
}

// storedValue reads one key, mapping both the absent signal and storage-layer
// read faults to an empty string. Reads fail open: a locked keychain looks
// like a missing token, which steers the caller toward re-authentication
// instead of surfacing a local error the screens cannot act on. The fault is
// still counted.
func (c *Client) storedValue(ctx context.Context, key string) string {
	value, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			c.metricInc(MetricStoreReadError)
		}
		return ""
	}
	return value
}

// clearSession deletes every session key, keeping the device id. All deletes
// are attempted even when some fail; the failures are joined.
func (c *Client) clearSession(ctx context.Context) error {
	var errs []error
	for _, key := range SessionKeys {
		if err := c.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrKeyNotFound) {
			c.metricInc(MetricStoreWriteError)
			errs = append(errs, err)
		}
	}

	c.metricInc(MetricSessionCleared)

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrStoreUnavailable}, errs...)...)
	}
	return nil
}

// persistPair stores a fresh credential pair. The refresh token lands first:
// if the second write fails the client is left with a stale access token and a
// usable refresh token, which the next refresh repairs.
func (c *Client) persistPair(ctx context.Context, pair TokenPair) error {
	if err := c.store.Set(ctx, KeyRefreshToken, pair.RefreshToken); err != nil {
		c.metricInc(MetricStoreWriteError)
		return errors.Join(ErrStoreUnavailable, err)
	}
	if err := c.store.Set(ctx, KeyAccessToken, pair.AccessToken); err != nil {
		c.metricInc(MetricStoreWriteError)
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// CurrentIdentity describes the currentidentity operation and its observable behavior.
//
// CurrentIdentity may return an error when input validation, dependency calls, or security checks fail.
// CurrentIdentity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) CurrentIdentity(ctx context.Context) (SessionIdentity, error) {
	if c == nil {
		return SessionIdentity{}, ErrClientNotReady
	}

	if c.storedValue(ctx, KeyAccessToken) == "" {
		return SessionIdentity{}, ErrSessionInvalid
	}

	return c.readIdentity(ctx), nil
}

func (c *Client) readIdentity(ctx context.Context) SessionIdentity {
	return SessionIdentity{
		UserID:      c.storedValue(ctx, KeyUserID),
		Email:       c.storedValue(ctx, KeyUserEmail),
		DisplayName: c.storedValue(ctx, KeyDisplayName),
	}
}
