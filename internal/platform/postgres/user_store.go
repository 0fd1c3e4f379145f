package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/store"
)

// UserStore implements store.UserStore backed by PostgreSQL.
type UserStore struct {
	db store.DBTX
}

// NewUserStore creates a PostgreSQL implementation of store.UserStore.
// The connection (or transaction) is managed by the caller.
func NewUserStore(db store.DBTX) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &UserStore{db: db}
}

var _ store.UserStore = (*UserStore)(nil)

// WithTx implements store.UserStore.WithTx.
func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	if tx == nil {
		return s
	}
	return &UserStore{db: tx}
}

// Create implements store.UserStore.Create.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO users (id, name, email, hashed_password, age, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.HashedPassword,
		user.Age,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEmailExists
		}
		log.Error("failed to insert user", "user_id", user.ID, "error", err)
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

const userColumns = "id, name, email, hashed_password, age, created_at, updated_at"

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanUser(ctx, s.db.QueryRowContext(ctx, query, id))
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.scanUser(ctx, s.db.QueryRowContext(ctx, query, domain.NormalizeEmail(email)))
}

// GetByToken implements store.UserStore.GetByToken. The join against
// user_tokens is what makes a logged-out token unusable even when its
// signature still verifies.
func (s *UserStore) GetByToken(ctx context.Context, token string) (*domain.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.hashed_password, u.age, u.created_at, u.updated_at
		FROM users u
		JOIN user_tokens t ON t.user_id = u.id
		WHERE t.token = $1
	`
	return s.scanUser(ctx, s.db.QueryRowContext(ctx, query, token))
}

func (s *UserStore) scanUser(ctx context.Context, row *sql.Row) (*domain.User, error) {
	log := logger.FromContext(ctx)

	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.HashedPassword,
		&user.Age,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to scan user row", "error", err)
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}

	return &user, nil
}

// Update implements store.UserStore.Update.
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE users
		SET name = $1, email = $2, hashed_password = $3, age = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.HashedPassword,
		user.Age,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEmailExists
		}
		log.Error("failed to update user", "user_id", user.ID, "error", err)
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrUserNotFound
	}

	return nil
}

// Delete implements store.UserStore.Delete.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContext(ctx)

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete user", "user_id", id, "error", err)
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrUserNotFound
	}

	return nil
}

// AddToken implements store.UserStore.AddToken.
func (s *UserStore) AddToken(ctx context.Context, userID uuid.UUID, token string) error {
	query := `
		INSERT INTO user_tokens (user_id, token, created_at)
		VALUES ($1, $2, now())
	`
	if _, err := s.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to record token: %w", err)
	}
	return nil
}

// RemoveToken implements store.UserStore.RemoveToken. Removing a token
// that is already gone is a no-op.
func (s *UserStore) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	query := `DELETE FROM user_tokens WHERE user_id = $1 AND token = $2`
	if _, err := s.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// RemoveAllTokens implements store.UserStore.RemoveAllTokens.
func (s *UserStore) RemoveAllTokens(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM user_tokens WHERE user_id = $1`
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to remove tokens: %w", err)
	}
	return nil
}

// SetAvatar implements store.UserStore.SetAvatar.
func (s *UserStore) SetAvatar(ctx context.Context, id uuid.UUID, avatar []byte) error {
	log := logger.FromContext(ctx)

	// Empty means cleared; store NULL rather than a zero-length value.
	var value any
	if len(avatar) > 0 {
		value = avatar
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET avatar = $1, updated_at = now() WHERE id = $2`, value, id)
	if err != nil {
		log.Error("failed to set avatar", "user_id", id, "error", err)
		return fmt.Errorf("failed to set avatar: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrUserNotFound
	}

	return nil
}

// GetAvatar implements store.UserStore.GetAvatar.
func (s *UserStore) GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, error) {
	log := logger.FromContext(ctx)

	var avatar []byte
	err := s.db.QueryRowContext(ctx, `SELECT avatar FROM users WHERE id = $1`, id).Scan(&avatar)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAvatarNotFound
		}
		log.Error("failed to read avatar", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}
	if len(avatar) == 0 {
		return nil, store.ErrAvatarNotFound
	}

	return avatar, nil
}
