package test

import (
	cookai "github.com/taliieva/cook-ai-client"
	"github.com/taliieva/cook-ai-client/jwt"
	"github.com/taliieva/cook-ai-client/store"
	"github.com/taliieva/cook-ai-client/stream"
	"testing"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = cookai.New

	var _ *cookai.Client
	var _ cookai.Config
	var _ cookai.TokenStore
	var _ cookai.TokenPair
	var _ cookai.SessionIdentity
	var _ cookai.AuthState
	var _ cookai.RefreshOutcome
	var _ cookai.AuditSink
	var _ cookai.MetricsSnapshot

	var _ error = cookai.ErrClientNotReady
	var _ error = cookai.ErrNoRefreshToken
	var _ error = cookai.ErrRefreshRejected
	var _ error = cookai.ErrRefreshUnavailable
	var _ error = cookai.ErrTokenMalformed
	var _ error = cookai.ErrTokenExpired
	var _ error = cookai.ErrSessionInvalid
	var _ error = cookai.ErrStoreUnavailable
	var _ error = cookai.ErrGuestCreationFailed
	var _ error = cookai.ErrAccountDeletionFailed
	var _ error = cookai.ErrKeyNotFound

	var _ cookai.TokenStore = (*store.Memory)(nil)
	var _ cookai.TokenStore = (*store.File)(nil)
	var _ cookai.TokenStore = (*store.Redis)(nil)

	var _ *jwt.Inspector
	var _ = jwt.StatusValid

	var _ *stream.Registry
	var _ stream.Dish
	var _ stream.Event
}
