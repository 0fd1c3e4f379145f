// Package auth provides bearer-token minting and validation plus password
// hashing for the credential layer.
package auth

import "errors"

// Token validation errors. Handlers map all of them to 401 responses.
var (
	// ErrInvalidToken is returned for malformed tokens, bad signatures,
	// and unparseable claims.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when the token's expiry has passed.
	ErrExpiredToken = errors.New("token expired")
)
