// Package wire holds the JSON request and response shapes exchanged with the
// backend auth endpoints, plus the schema checks applied before a response is
// allowed to touch stored credentials.
package wire

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema is returned when a response decodes but fails validation.
var ErrSchema = errors.New("invalid response schema")

// RefreshRequest is the body POSTed to the refresh endpoint.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	DeviceID     string `json:"deviceId,omitempty"`
}

// TokenResponse is the credential payload returned by the refresh and guest
// endpoints.
type TokenResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	AccessExpiresIn  int64  `json:"accessExpiresIn,omitempty"`
	RefreshExpiresIn int64  `json:"refreshExpiresIn,omitempty"`
}

// GuestRequest is the body POSTed to the guest sign-in endpoint.
type GuestRequest struct {
	DeviceID   string `json:"deviceId"`
	Platform   string `json:"platform"`
	AppVersion string `json:"appVersion,omitempty"`
	Locale     string `json:"locale,omitempty"`
}

// GuestResponse is the guest sign-in payload: a fresh credential pair plus the
// server-assigned guest user id.
type GuestResponse struct {
	TokenResponse
	UserID string `json:"userId"`
}

// ErrorResponse is the backend's error envelope. Both fields are optional.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Validate checks that a token response carries a usable credential pair.
// A response that validates here is the only thing allowed to overwrite the
// stored pair.
func (r *TokenResponse) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: empty body", ErrSchema)
	}
	if strings.TrimSpace(r.AccessToken) == "" {
		return fmt.Errorf("%w: missing accessToken", ErrSchema)
	}
	if strings.TrimSpace(r.RefreshToken) == "" {
		return fmt.Errorf("%w: missing refreshToken", ErrSchema)
	}
	if r.AccessExpiresIn < 0 || r.RefreshExpiresIn < 0 {
		return fmt.Errorf("%w: negative expiry", ErrSchema)
	}
	return nil
}

// Validate checks a guest response: the credential pair rules plus a non-empty
// user id.
func (r *GuestResponse) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: empty body", ErrSchema)
	}
	if err := r.TokenResponse.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: missing userId", ErrSchema)
	}
	return nil
}

// Reason renders the server's error envelope as a short diagnostic string.
func (r *ErrorResponse) Reason() string {
	if r == nil {
		return ""
	}
	switch {
	case r.Error != "" && r.Message != "":
		return r.Error + ": " + r.Message
	case r.Error != "":
		return r.Error
	default:
		return r.Message
	}
}
