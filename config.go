package cookai

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config defines a public type used by cookai APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API      APIConfig
	Device   DeviceConfig
	Refresh  RefreshConfig
	Token    TokenConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig defines a public type used by cookai APIs.
//
// APIConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APIConfig struct {
	BaseURL        string
	RefreshPath    string
	GuestPath      string
	AccountPath    string
	RequestTimeout time.Duration
}

/*
====================================
DEVICE CONFIG
====================================
*/

// DeviceConfig defines a public type used by cookai APIs.
//
// DeviceConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DeviceConfig struct {
	Platform   string
	AppVersion string
	Locale     string
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig defines a public type used by cookai APIs.
//
// RefreshConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RefreshConfig struct {
	// Coalesce collapses concurrent refresh attempts into a single in-flight
	// request. Required when the backend rotates refresh tokens on use.
	Coalesce bool
	Timeout  time.Duration
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by cookai APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	// ExpirySkew is subtracted from the decoded exp claim so a token about to
	// expire in transit is treated as already expired.
	ExpirySkew time.Duration
}

// AuditConfig defines a public type used by cookai APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by cookai APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by cookai APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	ProductionMode bool
	// RequireTLS rejects plain-http base URLs at Build time. Forced on by
	// ProductionMode.
	RequireTLS bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			RefreshPath:    "/auth/refresh",
			GuestPath:      "/auth/guest",
			AccountPath:    "/auth/account",
			RequestTimeout: 15 * time.Second,
		},
		Device: DeviceConfig{
			Platform: "unknown",
		},
		Refresh: RefreshConfig{
			Coalesce: true,
			Timeout:  10 * time.Second,
		},
		Token: TokenConfig{
			ExpirySkew: 0,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			ProductionMode: false,
			RequireTLS:     false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// API
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return errors.New("API BaseURL is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("API BaseURL scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("API BaseURL must include a host")
	}
	if !strings.HasPrefix(c.API.RefreshPath, "/") {
		return errors.New("API RefreshPath must start with /")
	}
	if !strings.HasPrefix(c.API.GuestPath, "/") {
		return errors.New("API GuestPath must start with /")
	}
	if !strings.HasPrefix(c.API.AccountPath, "/") {
		return errors.New("API AccountPath must start with /")
	}
	if c.API.RequestTimeout <= 0 {
		return errors.New("API RequestTimeout must be > 0")
	}

	// Refresh
	if c.Refresh.Timeout <= 0 {
		return errors.New("Refresh Timeout must be > 0")
	}

	// Token
	if c.Token.ExpirySkew < 0 {
		return errors.New("Token ExpirySkew must be >= 0")
	}
	if c.Token.ExpirySkew > 5*time.Minute {
		return errors.New("Token ExpirySkew must be <= 5m")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	// Security
	if c.Security.RequireTLS && u.Scheme != "https" {
		return errors.New("RequireTLS requires an https API BaseURL")
	}

	if c.Security.ProductionMode {
		if u.Scheme != "https" {
			return errors.New("ProductionMode requires an https API BaseURL")
		}
		if !c.Refresh.Coalesce {
			return errors.New("ProductionMode requires Refresh Coalesce")
		}
		if c.API.RequestTimeout > time.Minute {
			return errors.New("ProductionMode requires API RequestTimeout <= 1m")
		}
		if c.Refresh.Timeout > 30*time.Second {
			return errors.New("ProductionMode requires Refresh Timeout <= 30s")
		}
	}

	return nil
}
