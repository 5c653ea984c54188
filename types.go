package cookai

import (
	"context"
	"errors"
	"io"

	internalaudit "github.com/taliieva/cook-ai-client/internal/audit"
)

// Recognized TokenStore keys. The session key set is everything a sign-out or
// failed re-validation clears; KeyDeviceID survives clears for the lifetime of
// the install.
const (
	// KeyAccessToken is an exported constant or variable used by the client core.
	KeyAccessToken = "accessToken"
	// KeyRefreshToken is an exported constant or variable used by the client core.
	KeyRefreshToken = "refreshToken"
	// KeyUserID is an exported constant or variable used by the client core.
	KeyUserID = "userId"
	// KeyUserEmail is an exported constant or variable used by the client core.
	KeyUserEmail = "userEmail"
	// KeyDisplayName is an exported constant or variable used by the client core.
	KeyDisplayName = "displayName"
	// KeyDeviceID is an exported constant or variable used by the client core.
	KeyDeviceID = "deviceId"
)

// SessionKeys is the ordered key set cleared by sign-out, account deletion, and
// terminal validation failure. KeyDeviceID is intentionally absent.
var SessionKeys = []string{
	KeyAccessToken,
	KeyRefreshToken,
	KeyUserID,
	KeyUserEmail,
	KeyDisplayName,
}

// ErrKeyNotFound is returned by [TokenStore.Get] for a key that was never set.
// It is the absent signal, not a storage fault; callers that only need
// "value or empty" should treat it as an empty value.
var ErrKeyNotFound = errors.New("token store key not found")

// TokenStore is the durable, device-scoped persistence contract that callers
// must implement (or take from the store subpackage) to integrate the client
// with their platform's secure storage.
//
// Get must return [ErrKeyNotFound] for a missing key and reserve other errors
// for storage-layer faults. Implementations must serialize their own writes;
// the client performs no locking around store access.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// TokenPair is the access/refresh credential tuple representing one session.
// A successful refresh replaces both members.
type TokenPair struct {
	AccessToken  string
	RefreshToken string

	AccessExpiresIn  int64
	RefreshExpiresIn int64
}

// SessionIdentity is the display-only identity cached alongside the Credential
// Pair. It is never used for authorization decisions; an empty Email marks the
// session as a guest session.
type SessionIdentity struct {
	UserID      string
	Email       string
	DisplayName string
}

// AuthState is returned by [Client.ValidateAuthState]. When Valid is false the
// Identity fields are zero.
type AuthState struct {
	Valid    bool
	Guest    bool
	Identity SessionIdentity
}

// RefreshOutcome classifies the result of one refresh attempt. It mirrors the
// sentinel errors ([ErrNoRefreshToken], [ErrRefreshRejected],
// [ErrRefreshUnavailable]) for callers that prefer a switch over errors.Is.
type RefreshOutcome uint8

const (
	// RefreshNewPair is an exported constant or variable used by the client core.
	RefreshNewPair RefreshOutcome = iota
	// RefreshNoToken is an exported constant or variable used by the client core.
	RefreshNoToken
	// RefreshRejected is an exported constant or variable used by the client core.
	RefreshRejected
	// RefreshNetworkError is an exported constant or variable used by the client core.
	RefreshNetworkError
)

// AuditEvent is a structured audit record emitted by the client.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the client's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
