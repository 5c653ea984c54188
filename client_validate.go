package cookai

import (
	"context"
	"errors"

	"github.com/taliieva/cook-ai-client/jwt"
)

// ValidateAuthState describes the validateauthstate operation and its observable behavior.
//
// ValidateAuthState may return an error when input validation, dependency calls, or security checks fail.
// ValidateAuthState does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A valid or freshly refreshed session yields Valid=true with the cached
// identity; an empty email marks the session as a guest session. A terminal
// refresh failure yields Valid=false with a nil error after the session is
// cleared. A transient failure yields Valid=false together with the error,
// and stored credentials are left alone so the session can recover once the
// backend is reachable again.
func (c *Client) ValidateAuthState(ctx context.Context) (AuthState, error) {
	if c == nil {
		return AuthState{}, ErrClientNotReady
	}

	if access := c.storedValue(ctx, KeyAccessToken); access != "" {
		switch c.inspector.Inspect(access) {
		case jwt.StatusValid:
			identity := c.readIdentity(ctx)
			c.metricInc(MetricValidateSuccess)
			return AuthState{
				Valid:    true,
				Guest:    identity.Email == "",
				Identity: identity,
			}, nil

		case jwt.StatusExpired:
			c.metricInc(MetricTokenExpired)

		case jwt.StatusMalformed:
			c.metricInc(MetricTokenMalformed)
		}
	}

	// No usable access token: only a successful refresh can rescue the
	// session.
	outcome, refreshErr := c.Refresh(ctx)
	switch outcome {
	case RefreshNewPair:
		// The backend controls what it hands out; a pair whose access token
		// already fails the local inspection must not validate the session.
		if c.inspector.Inspect(c.storedValue(ctx, KeyAccessToken)) != jwt.StatusValid {
			c.metricInc(MetricValidateFailure)
			return AuthState{}, nil
		}
		identity := c.readIdentity(ctx)
		c.metricInc(MetricValidateSuccess)
		return AuthState{
			Valid:    true,
			Guest:    identity.Email == "",
			Identity: identity,
		}, nil

	case RefreshNoToken, RefreshRejected:
		c.metricInc(MetricValidateFailure)
		// Session state is already cleared by the refresh path; the terminal
		// outcome itself is not an error here, but a clearing failure still
		// surfaces.
		if errors.Is(refreshErr, ErrStoreUnavailable) {
			return AuthState{}, refreshErr
		}
		return AuthState{}, nil

	default:
		c.metricInc(MetricValidateFailure)
		return AuthState{}, refreshErr
	}
}
