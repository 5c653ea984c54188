package cookai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// Do describes the do operation and its observable behavior.
//
// Do may return an error when input validation, dependency calls, or security checks fail.
// Do does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Do attaches the stored access token as a Bearer credential, executes the
// request, and on a 401 refreshes once and replays the request with the new
// token. The replayed response is returned as-is, 401 included; non-401
// statuses are never interpreted. Callers own the returned body.
//
// A request with a non-replayable body (Body set, GetBody nil) skips the
// replay and returns the first response.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	if req == nil {
		return nil, errors.New("nil request")
	}

	start := time.Now()
	c.metricInc(MetricRequestTotal)

	// The configured timeout only kicks in when the caller brought no deadline
	// of their own; streaming callers pass a longer-lived context. The cancel
	// is handed to the response body so the stream stays readable after Do
	// returns.
	reqCtx := ctx
	cancel := context.CancelFunc(func() {})
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.config.API.RequestTimeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.config.API.RequestTimeout)
	}

	if access := c.storedValue(reqCtx, KeyAccessToken); access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	// The backend speaks JSON only; the wrapper's content type wins over
	// whatever the caller set.
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.DoWithContext(reqCtx, req)
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		c.observeLatency(start)
		return ownBody(resp, cancel), nil
	}

	c.metricInc(MetricRequestUnauthorized)

	retryReq, ok := rewindRequest(req)
	if !ok {
		c.observeLatency(start)
		return ownBody(resp, cancel), nil
	}

	outcome, refreshErr := c.Refresh(reqCtx)
	if outcome != RefreshNewPair {
		// The original 401 is the caller's signal; the refresh failure rides
		// along for diagnostics.
		c.metricInc(MetricRequestRetryExhausted)
		c.emitAudit(ctx, "request.retry_exhausted", false, resp.StatusCode, errString(refreshErr), nil)
		c.observeLatency(start)
		return ownBody(resp, cancel), nil
	}

	drainAndClose(resp.Body)

	if access := c.storedValue(reqCtx, KeyAccessToken); access != "" {
		retryReq.Header.Set("Authorization", "Bearer "+access)
	}
	c.metricInc(MetricRequestRetried)

	retryResp, err := c.http.DoWithContext(reqCtx, retryReq)
	if err != nil {
		cancel()
		return nil, err
	}

	c.observeLatency(start)
	return ownBody(retryResp, cancel), nil
}

// ownBody ties the request-scoped cancel to the response body so the caller
// can keep reading after Do returns and resources are released on Close.
func ownBody(resp *http.Response, cancel context.CancelFunc) *http.Response {
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// rewindRequest produces a replayable clone of req. Requests without a body
// always replay; requests with a body need GetBody.
func rewindRequest(req *http.Request) (*http.Request, bool) {
	clone := req.Clone(req.Context())

	if req.Body == nil || req.Body == http.NoBody {
		clone.Body = nil
		return clone, true
	}
	if req.GetBody == nil {
		return nil, false
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone.Body = body
	return clone, true
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
