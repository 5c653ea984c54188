package cookai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// SignOut describes the signout operation and its observable behavior.
//
// SignOut may return an error when input validation, dependency calls, or security checks fail.
// SignOut does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// SignOut is purely local: it clears the stored session and keeps the device
// id. The backend's refresh token expires on its own.
func (c *Client) SignOut(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}

	err := c.clearSession(ctx)

	c.metricInc(MetricSignOut)
	c.emitAudit(ctx, "session.sign_out", err == nil, 0, errString(err), nil)

	return err
}

// DeleteAccount describes the deleteaccount operation and its observable behavior.
//
// DeleteAccount may return an error when input validation, dependency calls, or security checks fail.
// DeleteAccount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The delete goes through the authenticated wrapper, so an expired access
// token is refreshed transparently. Local session state is cleared only after
// the backend confirms the deletion.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.config.API.BaseURL+c.config.API.AccountPath, nil)
	if err != nil {
		return fmt.Errorf("build account deletion request: %w", err)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		c.emitAudit(ctx, "account.delete_failed", false, 0, err.Error(), nil)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := decodeErrorReason(resp.Body)
		c.emitAudit(ctx, "account.delete_failed", false, resp.StatusCode, reason, nil)
		if reason != "" {
			return fmt.Errorf("%w: status %d: %s", ErrAccountDeletionFailed, resp.StatusCode, reason)
		}
		return fmt.Errorf("%w: status %d", ErrAccountDeletionFailed, resp.StatusCode)
	}

	clearErr := c.clearSession(ctx)

	c.metricInc(MetricAccountDeleted)
	c.emitAudit(ctx, "account.deleted", clearErr == nil, resp.StatusCode, errString(clearErr), nil)

	if clearErr != nil {
		return errors.Join(errors.New("account deleted remotely but local session clear failed"), clearErr)
	}
	return nil
}
