// Package jwt inspects access tokens on the client side: it decodes the claims
// segment without verifying the signature and reports whether a token is still
// usable. Verification belongs to the backend; a client holding a token it
// cannot verify still needs to know when to refresh it.
package jwt
