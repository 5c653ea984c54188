package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is an exported constant or variable used by the client core.
	ErrMalformed = errors.New("token is not a decodable JWT")
	// ErrMissingExpiry is an exported constant or variable used by the client core.
	ErrMissingExpiry = errors.New("token carries no exp claim")
)

// Status defines a public type used by cookai APIs.
//
// Status instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Status uint8

const (
	// StatusValid is an exported constant or variable used by the client core.
	StatusValid Status = iota
	// StatusExpired is an exported constant or variable used by the client core.
	StatusExpired
	// StatusMalformed is an exported constant or variable used by the client core.
	StatusMalformed
)

// AccessClaims defines a public type used by cookai APIs.
//
// AccessClaims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccessClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Config defines a public type used by cookai APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// ExpirySkew is subtracted from the exp claim so a token that would expire
	// while a request is in flight already reads as expired.
	ExpirySkew time.Duration

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Inspector defines a public type used by cookai APIs.
//
// Inspector instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Inspector struct {
	config Config
	parser *jwt.Parser
}

// NewInspector describes the newinspector operation and its observable behavior.
//
// NewInspector may return an error when input validation, dependency calls, or security checks fail.
// NewInspector does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewInspector(cfg Config) (*Inspector, error) {
	if cfg.ExpirySkew < 0 || cfg.ExpirySkew > 5*time.Minute {
		return nil, errors.New("invalid ExpirySkew configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Inspector{
		config: cfg,
		parser: jwt.NewParser(),
	}, nil
}

// Decode describes the decode operation and its observable behavior.
//
// Decode may return an error when input validation, dependency calls, or security checks fail.
// Decode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Decode never verifies the signature. Callers must not treat decoded claims as
// trustworthy for anything beyond display and local expiry scheduling.
func (i *Inspector) Decode(tokenString string) (*AccessClaims, error) {
	if i == nil {
		return nil, ErrMalformed
	}
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMalformed
	}

	claims := &AccessClaims{}
	if _, _, err := i.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrMalformed
	}

	return claims, nil
}

// ExpiresAt describes the expiresat operation and its observable behavior.
//
// ExpiresAt may return an error when input validation, dependency calls, or security checks fail.
// ExpiresAt does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (i *Inspector) ExpiresAt(tokenString string) (time.Time, error) {
	claims, err := i.Decode(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMissingExpiry
	}

	return claims.ExpiresAt.Time, nil
}

// Inspect describes the inspect operation and its observable behavior.
//
// Inspect may return an error when input validation, dependency calls, or security checks fail.
// Inspect does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A token with no integer exp claim reports StatusMalformed: the contract is
// that every access token carries one.
func (i *Inspector) Inspect(tokenString string) Status {
	claims, err := i.Decode(tokenString)
	if err != nil {
		return StatusMalformed
	}
	if claims.ExpiresAt == nil {
		return StatusMalformed
	}

	deadline := claims.ExpiresAt.Time.Add(-i.config.ExpirySkew)
	if !i.config.Now().Before(deadline) {
		return StatusExpired
	}

	return StatusValid
}
