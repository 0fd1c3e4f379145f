package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Claims are the validated contents of a bearer token.
type Claims struct {
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// JWTService mints and validates signed bearer tokens carrying a user ID.
type JWTService interface {
	// GenerateToken creates a signed token for the given user.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken verifies the signature and time claims, returning the
	// claims on success. Returns ErrExpiredToken or ErrInvalidToken on
	// failure. A valid signature alone does not authenticate a request:
	// the token must also still be present in the owner's token list.
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}
