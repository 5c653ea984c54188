// Package store ships ready-made TokenStore backends: an in-memory map for
// tests and prototypes, a JSON file with atomic replace semantics for desktop
// and CLI hosts, and a Redis backend for hosts that keep session state in a
// shared cache. Mobile integrations typically bridge to platform keychains
// instead and only need the interface from the root package.
package store
