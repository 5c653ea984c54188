package cookai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/taliieva/cook-ai-client/internal/wire"
)

type refreshResult struct {
	outcome RefreshOutcome
	pair    TokenPair
	err     error
}

type refreshCall struct {
	done   chan struct{}
	result refreshResult
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Concurrent callers share one in-flight exchange when Coalesce is enabled:
// the backend rotates refresh tokens on use, so a second exchange with the
// same token would be rejected and take the session down with it.
func (c *Client) Refresh(ctx context.Context) (RefreshOutcome, error) {
	if c == nil {
		return RefreshNetworkError, ErrClientNotReady
	}

	if !c.config.Refresh.Coalesce {
		result := c.doRefresh(ctx)
		return result.outcome, result.err
	}

	c.refreshMu.Lock()
	if call := c.inflight; call != nil {
		c.refreshMu.Unlock()
		c.metricInc(MetricRefreshCoalesced)

		select {
		case <-call.done:
			return call.result.outcome, call.result.err
		case <-ctx.Done():
			return RefreshNetworkError, ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	c.inflight = call
	c.refreshMu.Unlock()

	// The shared exchange outlives any single caller's cancellation; only the
	// configured timeout bounds it.
	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.Refresh.Timeout)
	call.result = c.doRefresh(refreshCtx)
	cancel()

	c.refreshMu.Lock()
	c.inflight = nil
	c.refreshMu.Unlock()
	close(call.done)

	return call.result.outcome, call.result.err
}

func (c *Client) doRefresh(ctx context.Context) refreshResult {
	refreshToken := c.storedValue(ctx, KeyRefreshToken)
	if refreshToken == "" {
		c.metricInc(MetricRefreshNoToken)
		c.emitAudit(ctx, "refresh.no_token", false, 0, ErrNoRefreshToken.Error(), nil)
		if clearErr := c.clearSession(ctx); clearErr != nil {
			return refreshResult{outcome: RefreshNoToken, err: errors.Join(ErrNoRefreshToken, clearErr)}
		}
		return refreshResult{outcome: RefreshNoToken, err: ErrNoRefreshToken}
	}

	deviceID := c.storedValue(ctx, KeyDeviceID)

	body, err := json.Marshal(wire.RefreshRequest{
		RefreshToken: refreshToken,
		DeviceID:     deviceID,
	})
	if err != nil {
		return refreshResult{outcome: RefreshNetworkError, err: fmt.Errorf("encode refresh request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.API.BaseURL+c.config.API.RefreshPath, bytes.NewReader(body))
	if err != nil {
		return refreshResult{outcome: RefreshNetworkError, err: fmt.Errorf("build refresh request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		c.metricInc(MetricRefreshNetworkError)
		c.emitAudit(ctx, "refresh.network_error", false, 0, err.Error(), nil)
		return refreshResult{outcome: RefreshNetworkError, err: errors.Join(ErrRefreshUnavailable, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return c.acceptRefreshResponse(ctx, resp)

	case resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden:
		reason := decodeErrorReason(resp.Body)
		c.metricInc(MetricRefreshRejected)
		c.emitAudit(ctx, "refresh.rejected", false, resp.StatusCode, reason, nil)

		rejectionErr := ErrRefreshRejected
		if reason != "" {
			rejectionErr = fmt.Errorf("%w: %s", ErrRefreshRejected, reason)
		}
		if clearErr := c.clearSession(ctx); clearErr != nil {
			return refreshResult{outcome: RefreshRejected, err: errors.Join(rejectionErr, clearErr)}
		}
		return refreshResult{outcome: RefreshRejected, err: rejectionErr}

	default:
		// 5xx and anything unexpected reads as a transient outage. Stored
		// credentials stay untouched so the session survives the blip.
		c.metricInc(MetricRefreshNetworkError)
		c.emitAudit(ctx, "refresh.network_error", false, resp.StatusCode, "", nil)
		return refreshResult{
			outcome: RefreshNetworkError,
			err:     fmt.Errorf("%w: unexpected status %d", ErrRefreshUnavailable, resp.StatusCode),
		}
	}
}

func (c *Client) acceptRefreshResponse(ctx context.Context, resp *http.Response) refreshResult {
	var payload wire.TokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		c.metricInc(MetricRefreshNetworkError)
		return refreshResult{outcome: RefreshNetworkError, err: errors.Join(ErrWireSchema, err)}
	}
	if err := payload.Validate(); err != nil {
		c.metricInc(MetricRefreshNetworkError)
		return refreshResult{outcome: RefreshNetworkError, err: errors.Join(ErrWireSchema, err)}
	}

	pair := TokenPair{
		AccessToken:      payload.AccessToken,
		RefreshToken:     payload.RefreshToken,
		AccessExpiresIn:  payload.AccessExpiresIn,
		RefreshExpiresIn: payload.RefreshExpiresIn,
	}

	if err := c.persistPair(ctx, pair); err != nil {
		return refreshResult{outcome: RefreshNetworkError, err: err}
	}

	c.metricInc(MetricRefreshSuccess)
	c.emitAudit(ctx, "refresh.success", true, resp.StatusCode, "", nil)

	return refreshResult{outcome: RefreshNewPair, pair: pair}
}

func decodeErrorReason(body io.Reader) string {
	var payload wire.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Reason()
}
