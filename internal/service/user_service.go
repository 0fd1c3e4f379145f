package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/store"
)

// Fields a user may change about themselves. Any other key in a patch
// rejects the whole update.
var userPatchFields = []string{"name", "email", "password", "age"}

// UserService provides registration, authentication, profile, and avatar
// operations. Hashing and the task cascade are explicit steps here rather
// than hidden persistence hooks, so each is testable in isolation.
type UserService interface {
	// Register creates a user and issues their first token.
	Register(ctx context.Context, name, email, password string, age int) (*domain.User, string, error)

	// Authenticate verifies credentials and issues a token. Every
	// credential failure returns ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, string, error)

	// GetUser returns the user's own record.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateUser applies an allow-listed partial update and re-runs
	// validation and hashing. Disallowed keys reject the whole patch.
	UpdateUser(ctx context.Context, userID uuid.UUID, patch Patch) (*domain.User, error)

	// DeleteUser removes the user and all their tasks as one atomic unit.
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// Logout revokes the single token used by this session.
	Logout(ctx context.Context, userID uuid.UUID, token string) error

	// LogoutAll revokes every token issued to the user.
	LogoutAll(ctx context.Context, userID uuid.UUID) error

	// SetAvatar stores processed avatar bytes on the user.
	SetAvatar(ctx context.Context, userID uuid.UUID, avatar []byte) error

	// ClearAvatar removes the user's avatar.
	ClearAvatar(ctx context.Context, userID uuid.UUID) error

	// GetAvatar returns avatar bytes for any user; public, no auth.
	GetAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error)
}

// UserServiceImpl implements UserService.
type UserServiceImpl struct {
	userStore store.UserStore
	taskStore store.TaskStore
	txRunner  store.TxRunner
	hasher    auth.PasswordHasher
	verifier  auth.PasswordVerifier
	jwt       auth.JWTService
	logger    *slog.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a UserService.
func NewUserService(
	userStore store.UserStore,
	taskStore store.TaskStore,
	txRunner store.TxRunner,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	jwt auth.JWTService,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userStore: userStore,
		taskStore: taskStore,
		txRunner:  txRunner,
		hasher:    hasher,
		verifier:  verifier,
		jwt:       jwt,
		logger:    logger.With("component", "user_service"),
	}
}

// Register implements UserService.Register.
func (s *UserServiceImpl) Register(ctx context.Context, name, email, password string, age int) (*domain.User, string, error) {
	user, err := domain.NewUser(name, email, password, age)
	if err != nil {
		return nil, "", err
	}

	if err := s.hashPassword(user); err != nil {
		return nil, "", err
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Authenticate implements UserService.Authenticate.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetUser implements UserService.GetUser.
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userStore.GetByID(ctx, userID)
}

// UpdateUser implements UserService.UpdateUser.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, userID uuid.UUID, patch Patch) (*domain.User, error) {
	if err := patch.Allow(userPatchFields...); err != nil {
		return nil, err
	}

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name, ok, err := patch.String("name"); err != nil {
		return nil, err
	} else if ok {
		user.Name = name
	}
	if email, ok, err := patch.String("email"); err != nil {
		return nil, err
	} else if ok {
		user.Email = domain.NormalizeEmail(email)
	}
	if age, ok, err := patch.Int("age"); err != nil {
		return nil, err
	} else if ok {
		user.Age = age
	}
	if password, ok, err := patch.String("password"); err != nil {
		return nil, err
	} else if ok {
		// Only a changed password goes back through the hasher, so an
		// update to other fields never rehashes the stored hash.
		user.Password = password
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.hashPassword(user); err != nil {
		return nil, err
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.userStore.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteUser implements UserService.DeleteUser. The task cascade and the
// user removal run in one transaction: if either fails, neither happens.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		users := s.userStore.WithTx(tx)
		tasks := s.taskStore.WithTx(tx)

		removed, err := tasks.DeleteByOwner(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to cascade task deletion: %w", err)
		}

		if err := users.Delete(ctx, userID); err != nil {
			return err
		}

		s.logger.Info("user deleted", "user_id", userID, "tasks_removed", removed)
		return nil
	})
}

// Logout implements UserService.Logout.
func (s *UserServiceImpl) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	return s.userStore.RemoveToken(ctx, userID, token)
}

// LogoutAll implements UserService.LogoutAll.
func (s *UserServiceImpl) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.userStore.RemoveAllTokens(ctx, userID)
}

// SetAvatar implements UserService.SetAvatar.
func (s *UserServiceImpl) SetAvatar(ctx context.Context, userID uuid.UUID, avatar []byte) error {
	return s.userStore.SetAvatar(ctx, userID, avatar)
}

// ClearAvatar implements UserService.ClearAvatar.
func (s *UserServiceImpl) ClearAvatar(ctx context.Context, userID uuid.UUID) error {
	return s.userStore.SetAvatar(ctx, userID, nil)
}

// GetAvatar implements UserService.GetAvatar.
func (s *UserServiceImpl) GetAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	return s.userStore.GetAvatar(ctx, userID)
}

// hashPassword replaces the transient plaintext with its hash. A user
// whose plaintext is empty is left untouched, which keeps the operation
// idempotent across updates that never touched the password.
func (s *UserServiceImpl) hashPassword(user *domain.User) error {
	if user.Password == "" {
		return nil
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.HashedPassword = hashed
	user.Password = ""
	return nil
}

// issueToken mints a token and records it in the user's token list so it
// can later be revoked individually or en masse.
func (s *UserServiceImpl) issueToken(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := s.jwt.GenerateToken(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := s.userStore.AddToken(ctx, userID, token); err != nil {
		return "", fmt.Errorf("failed to record issued token: %w", err)
	}

	return token, nil
}
