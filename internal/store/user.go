package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// UserStore defines the interface for user persistence, including the
// per-user token list and the avatar binary.
type UserStore interface {
	// Create saves a new user. The user must already carry a hashed
	// password. Returns ErrEmailExists if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID, without the avatar bytes.
	// Returns ErrUserNotFound if no such user exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email, without the avatar bytes.
	// Returns ErrUserNotFound if no such user exists.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByToken retrieves the user whose token list contains exactly
	// this token string. Returns ErrUserNotFound if no user holds the
	// token, which covers both revoked and never-issued tokens.
	GetByToken(ctx context.Context, token string) (*domain.User, error)

	// Update persists name, email, hashed password, and age changes.
	// Returns ErrUserNotFound if the user does not exist and
	// ErrEmailExists when updating to an email already in use.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes the user row. The caller is responsible for
	// removing owned tasks first, within the same transaction.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddToken records a newly issued token for the user.
	AddToken(ctx context.Context, userID uuid.UUID, token string) error

	// RemoveToken revokes a single token for the user.
	RemoveToken(ctx context.Context, userID uuid.UUID, token string) error

	// RemoveAllTokens revokes every token issued to the user.
	RemoveAllTokens(ctx context.Context, userID uuid.UUID) error

	// SetAvatar replaces the user's avatar binary. A nil or empty slice
	// clears it. Returns ErrUserNotFound if the user does not exist.
	SetAvatar(ctx context.Context, id uuid.UUID, avatar []byte) error

	// GetAvatar returns the stored avatar bytes. Returns
	// ErrAvatarNotFound if the user is missing or has no avatar.
	GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, error)

	// WithTx returns a UserStore bound to the given transaction. A nil
	// transaction returns the store unchanged.
	WithTx(tx *sql.Tx) UserStore
}
