package internaldefs

import (
	cookai "github.com/taliieva/cook-ai-client"
)

// CounterDef defines a public type used by cookai APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   cookai.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by cookai APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   cookai.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the client core.
var CounterDefs = []CounterDef{
	{ID: cookai.MetricRequestTotal, Name: "cookai_request_total", Help: "Authenticated requests issued."},
	{ID: cookai.MetricRequestUnauthorized, Name: "cookai_request_unauthorized_total", Help: "Requests answered with 401."},
	{ID: cookai.MetricRequestRetried, Name: "cookai_request_retried_total", Help: "Requests replayed after a refresh."},
	{ID: cookai.MetricRequestRetryExhausted, Name: "cookai_request_retry_exhausted_total", Help: "401 responses returned because the refresh could not produce a new pair."},
	{ID: cookai.MetricRefreshSuccess, Name: "cookai_refresh_success_total", Help: "Refresh exchanges that produced a new credential pair."},
	{ID: cookai.MetricRefreshRejected, Name: "cookai_refresh_rejected_total", Help: "Refresh exchanges rejected by the backend."},
	{ID: cookai.MetricRefreshNetworkError, Name: "cookai_refresh_network_error_total", Help: "Refresh exchanges that failed transiently."},
	{ID: cookai.MetricRefreshNoToken, Name: "cookai_refresh_no_token_total", Help: "Refresh attempts without a stored refresh token."},
	{ID: cookai.MetricRefreshCoalesced, Name: "cookai_refresh_coalesced_total", Help: "Refresh callers that joined an in-flight exchange."},
	{ID: cookai.MetricValidateSuccess, Name: "cookai_validate_success_total", Help: "Session validations that ended valid."},
	{ID: cookai.MetricValidateFailure, Name: "cookai_validate_failure_total", Help: "Session validations that ended invalid."},
	{ID: cookai.MetricTokenExpired, Name: "cookai_token_expired_total", Help: "Access tokens found expired during validation."},
	{ID: cookai.MetricTokenMalformed, Name: "cookai_token_malformed_total", Help: "Access tokens that failed local decoding."},
	{ID: cookai.MetricGuestCreated, Name: "cookai_guest_created_total", Help: "Guest sessions created."},
	{ID: cookai.MetricSessionCleared, Name: "cookai_session_cleared_total", Help: "Session clears performed."},
	{ID: cookai.MetricSignOut, Name: "cookai_sign_out_total", Help: "Sign-out operations."},
	{ID: cookai.MetricAccountDeleted, Name: "cookai_account_deleted_total", Help: "Account deletions confirmed by the backend."},
	{ID: cookai.MetricStoreReadError, Name: "cookai_store_read_error_total", Help: "Token store read faults."},
	{ID: cookai.MetricStoreWriteError, Name: "cookai_store_write_error_total", Help: "Token store write and delete faults."},
}

// HistogramDefs is an exported constant or variable used by the client core.
var HistogramDefs = []HistogramDef{
	{ID: cookai.MetricRequestLatency, Name: "cookai_request_latency_seconds", Help: "Authenticated request latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the client core.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the client core.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
