package cookai

import "errors"

var (
	// ErrClientNotReady is an exported constant or variable used by the client core.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrNoRefreshToken is an exported constant or variable used by the client core.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrRefreshRejected is an exported constant or variable used by the client core.
	ErrRefreshRejected = errors.New("refresh token rejected by server")
	// ErrRefreshUnavailable is an exported constant or variable used by the client core.
	ErrRefreshUnavailable = errors.New("refresh endpoint unavailable")
	// ErrTokenMalformed is an exported constant or variable used by the client core.
	ErrTokenMalformed = errors.New("malformed access token")
	// ErrTokenExpired is an exported constant or variable used by the client core.
	ErrTokenExpired = errors.New("access token expired")
	// ErrSessionInvalid is an exported constant or variable used by the client core.
	ErrSessionInvalid = errors.New("no usable session")
	// ErrStoreUnavailable is an exported constant or variable used by the client core.
	ErrStoreUnavailable = errors.New("token store unavailable")
	// ErrGuestCreationFailed is an exported constant or variable used by the client core.
	ErrGuestCreationFailed = errors.New("guest session creation failed")
	// ErrAccountDeletionFailed is an exported constant or variable used by the client core.
	ErrAccountDeletionFailed = errors.New("account deletion rejected by server")
	// ErrWireSchema is an exported constant or variable used by the client core.
	ErrWireSchema = errors.New("unexpected response schema")
)
