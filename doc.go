// Package cookai provides the device-side authentication core of the CookAI
// recipe app: durable token storage, local access-token expiry inspection,
// coalesced refresh against the CookAI backend, and an authenticated request
// wrapper with retry-once-on-401 semantics.
//
// The package is designed for event-driven client workloads: Client methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build], and concurrent callers that hit an expired access token share
// a single in-flight refresh instead of each spending the refresh token.
//
// # Architecture boundaries
//
// cookai is the public surface. It exposes [Client], [Builder], [Config], the
// [TokenStore] contract, and value types (AuthState, MetricsSnapshot, etc.).
// Wire schemas for the refresh and guest endpoints live under internal/ and are
// never exported. Store backends live in the store subpackage; the streaming
// dish-generation consumer lives in the stream subpackage and depends on this
// package only through a small request-doer contract.
//
// # What this package must NOT do
//
//   - Verify token signatures. Expiry inspection is a local optimization; the
//     backend's 401 remains the only authorization boundary.
//   - Interpret business-level responses. Anything that is not a 401 passes
//     through to the caller untouched.
//   - Destroy stored credentials on transient failures. Only terminal outcomes
//     clear session state: a refresh explicitly rejected by the backend, or a
//     session with no refresh token left to spend.
package cookai
