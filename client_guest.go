package cookai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/taliieva/cook-ai-client/internal/wire"
)

// SignInAsGuest describes the signinasguest operation and its observable behavior.
//
// SignInAsGuest may return an error when input validation, dependency calls, or security checks fail.
// SignInAsGuest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The device id is minted on first use and survives sign-outs, so a returning
// guest lands on the same server-side account.
func (c *Client) SignInAsGuest(ctx context.Context) (SessionIdentity, error) {
	if c == nil {
		return SessionIdentity{}, ErrClientNotReady
	}

	deviceID, err := c.ensureDeviceID(ctx)
	if err != nil {
		return SessionIdentity{}, err
	}

	body, err := json.Marshal(wire.GuestRequest{
		DeviceID:   deviceID,
		Platform:   c.config.Device.Platform,
		AppVersion: c.config.Device.AppVersion,
		Locale:     c.config.Device.Locale,
	})
	if err != nil {
		return SessionIdentity{}, fmt.Errorf("encode guest request: %w", err)
	}

	reqCtx := ctx
	cancel := func() {}
	if c.config.API.RequestTimeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.config.API.RequestTimeout)
	}
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.config.API.BaseURL+c.config.API.GuestPath, bytes.NewReader(body))
	if err != nil {
		return SessionIdentity{}, fmt.Errorf("build guest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.DoWithContext(reqCtx, req)
	if err != nil {
		c.emitAudit(ctx, "guest.network_error", false, 0, err.Error(), nil)
		return SessionIdentity{}, errors.Join(ErrGuestCreationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := decodeErrorReason(resp.Body)
		c.emitAudit(ctx, "guest.rejected", false, resp.StatusCode, reason, nil)
		if reason != "" {
			return SessionIdentity{}, fmt.Errorf("%w: status %d: %s", ErrGuestCreationFailed, resp.StatusCode, reason)
		}
		return SessionIdentity{}, fmt.Errorf("%w: status %d", ErrGuestCreationFailed, resp.StatusCode)
	}

	var payload wire.GuestResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return SessionIdentity{}, errors.Join(ErrGuestCreationFailed, ErrWireSchema, err)
	}
	if err := payload.Validate(); err != nil {
		return SessionIdentity{}, errors.Join(ErrGuestCreationFailed, err)
	}

	if err := c.persistPair(ctx, TokenPair{
		AccessToken:      payload.AccessToken,
		RefreshToken:     payload.RefreshToken,
		AccessExpiresIn:  payload.AccessExpiresIn,
		RefreshExpiresIn: payload.RefreshExpiresIn,
	}); err != nil {
		return SessionIdentity{}, err
	}
	if err := c.store.Set(ctx, KeyUserID, payload.UserID); err != nil {
		c.metricInc(MetricStoreWriteError)
		return SessionIdentity{}, errors.Join(ErrStoreUnavailable, err)
	}

	// Guests have no email or display name; stale values from a previous
	// signed-in session must not leak into the new one.
	for _, key := range []string{KeyUserEmail, KeyDisplayName} {
		if err := c.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrKeyNotFound) {
			c.metricInc(MetricStoreWriteError)
			return SessionIdentity{}, errors.Join(ErrStoreUnavailable, err)
		}
	}

	c.metricInc(MetricGuestCreated)
	c.emitAudit(ctx, "guest.created", true, resp.StatusCode, "", map[string]string{"user_id": payload.UserID})

	return SessionIdentity{UserID: payload.UserID}, nil
}

// ensureDeviceID returns the stored device id, minting and persisting one on
// first use.
func (c *Client) ensureDeviceID(ctx context.Context) (string, error) {
	if deviceID := c.storedValue(ctx, KeyDeviceID); deviceID != "" {
		return deviceID, nil
	}

	deviceID := uuid.NewString()
	if err := c.store.Set(ctx, KeyDeviceID, deviceID); err != nil {
		c.metricInc(MetricStoreWriteError)
		return "", errors.Join(ErrStoreUnavailable, err)
	}
	return deviceID, nil
}
