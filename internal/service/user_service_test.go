package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/mocks"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type userServiceFixture struct {
	users    *mocks.MockUserStore
	tasks    *mocks.MockTaskStore
	txRunner *mocks.MockTxRunner
	svc      service.UserService
}

func newUserServiceFixture(t *testing.T) *userServiceFixture {
	t.Helper()

	users := mocks.NewMockUserStore()
	tasks := mocks.NewMockTaskStore()
	txRunner := &mocks.MockTxRunner{}

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "0123456789abcdef0123456789abcdef",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &userServiceFixture{
		users:    users,
		tasks:    tasks,
		txRunner: txRunner,
		svc:      service.NewUserService(users, tasks, txRunner, hasher, hasher, jwtService, logger),
	}
}

func (f *userServiceFixture) register(t *testing.T, email string) (*domain.User, string) {
	t.Helper()

	user, token, err := f.svc.Register(context.Background(), "Ada", email, "correcthorse", 28)
	require.NoError(t, err)
	return user, token
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)

		user, token, err := f.svc.Register(context.Background(), "Ada", "ADA@Example.com", "correcthorse", 28)
		require.NoError(t, err)

		assert.Equal(t, "ada@example.com", user.Email)
		assert.NotEmpty(t, token)
		assert.Empty(t, user.Password, "plaintext must be cleared after hashing")
		assert.NotEmpty(t, user.HashedPassword)

		// The issued token must be usable for lookup, i.e. recorded.
		found, err := f.users.GetByToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.register(t, "ada@example.com")

		_, _, err := f.svc.Register(context.Background(), "Other", "ada@example.com", "correcthorse", 30)
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("invalid password", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)

		_, _, err := f.svc.Register(context.Background(), "Ada", "ada@example.com", "myPassword1", 28)
		assert.ErrorIs(t, err, domain.ErrPasswordForbidden)
		assert.Equal(t, 0, f.users.Count(), "no user should be stored")
	})
}

func TestUserService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		registered, _ := f.register(t, "ada@example.com")

		user, token, err := f.svc.Authenticate(context.Background(), "ada@example.com", "correcthorse")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.register(t, "ada@example.com")

		_, _, err := f.svc.Authenticate(context.Background(), "ada@example.com", "wronghorse")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)

		_, _, err := f.svc.Authenticate(context.Background(), "nobody@example.com", "correcthorse")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("failure cause is indistinguishable", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.register(t, "ada@example.com")

		_, _, wrongPass := f.svc.Authenticate(context.Background(), "ada@example.com", "wronghorse")
		_, _, wrongUser := f.svc.Authenticate(context.Background(), "nobody@example.com", "correcthorse")
		assert.Equal(t, wrongPass.Error(), wrongUser.Error())
	})

	t.Run("each login issues a distinct token", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		f.register(t, "ada@example.com")

		_, first, err := f.svc.Authenticate(context.Background(), "ada@example.com", "correcthorse")
		require.NoError(t, err)
		_, second, err := f.svc.Authenticate(context.Background(), "ada@example.com", "correcthorse")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()

	t.Run("updates allowed fields", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		user, _ := f.register(t, "ada@example.com")

		patch := decodePatch(t, `{"name":"Grace","email":"GRACE@Example.com","age":35}`)
		updated, err := f.svc.UpdateUser(context.Background(), user.ID, patch)
		require.NoError(t, err)

		assert.Equal(t, "Grace", updated.Name)
		assert.Equal(t, "grace@example.com", updated.Email)
		assert.Equal(t, 35, updated.Age)
	})

	t.Run("password update rehashes", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		user, _ := f.register(t, "ada@example.com")

		patch := decodePatch(t, `{"password":"newhorsebattery"}`)
		_, err := f.svc.UpdateUser(context.Background(), user.ID, patch)
		require.NoError(t, err)

		_, _, err = f.svc.Authenticate(context.Background(), "ada@example.com", "newhorsebattery")
		assert.NoError(t, err)
		_, _, err = f.svc.Authenticate(context.Background(), "ada@example.com", "correcthorse")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("disallowed field", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		user, _ := f.register(t, "ada@example.com")

		patch := decodePatch(t, `{"name":"Grace","tokens":[]}`)
		_, err := f.svc.UpdateUser(context.Background(), user.ID, patch)
		assert.ErrorIs(t, err, service.ErrFieldNotAllowed)

		// Nothing was applied.
		unchanged, err := f.svc.GetUser(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", unchanged.Name)
	})

	t.Run("invalid new password", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		user, _ := f.register(t, "ada@example.com")

		patch := decodePatch(t, `{"password":"short"}`)
		_, err := f.svc.UpdateUser(context.Background(), user.ID, patch)
		assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)

		patch := decodePatch(t, `{"name":"Grace"}`)
		_, err := f.svc.UpdateUser(context.Background(), uuid.New(), patch)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Parallel()

	f := newUserServiceFixture(t)
	user, _ := f.register(t, "ada@example.com")
	other, _ := f.register(t, "grace@example.com")

	ctx := context.Background()
	for _, desc := range []string{"one", "two", "three"} {
		task, err := domain.NewTask(user.ID, desc, false)
		require.NoError(t, err)
		require.NoError(t, f.tasks.Create(ctx, task))
	}
	keep, err := domain.NewTask(other.ID, "keep", false)
	require.NoError(t, err)
	require.NoError(t, f.tasks.Create(ctx, keep))

	require.NoError(t, f.svc.DeleteUser(ctx, user.ID))

	assert.Equal(t, 1, f.txRunner.Calls, "deletion must run in a transaction")
	_, err = f.users.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.Equal(t, 1, f.tasks.Count(), "only the other owner's task survives")
}

func TestUserService_Logout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("single session", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		user, first := f.register(t, "ada@example.com")
		_, second, err := f.svc.Authenticate(ctx, "ada@example.com", "correcthorse")
		require.NoError(t, err)

		require.NoError(t, f.svc.Logout(ctx, user.ID, first))

		_, err = f.users.GetByToken(ctx, first)
		assert.ErrorIs(t, err, store.ErrUserNotFound, "revoked token no longer resolves")
		_, err = f.users.GetByToken(ctx, second)
		assert.NoError(t, err, "other sessions stay valid")
	})

	t.Run("all sessions", func(t *testing.T) {
		t.Parallel()
		f := newUserServiceFixture(t)
		user, first := f.register(t, "ada@example.com")
		_, second, err := f.svc.Authenticate(ctx, "ada@example.com", "correcthorse")
		require.NoError(t, err)

		require.NoError(t, f.svc.LogoutAll(ctx, user.ID))

		_, err = f.users.GetByToken(ctx, first)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
		_, err = f.users.GetByToken(ctx, second)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestUserService_Avatar(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUserServiceFixture(t)
	user, _ := f.register(t, "ada@example.com")

	_, err := f.svc.GetAvatar(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrAvatarNotFound)

	data := []byte{0x89, 0x50, 0x4e, 0x47}
	require.NoError(t, f.svc.SetAvatar(ctx, user.ID, data))

	got, err := f.svc.GetAvatar(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, f.svc.ClearAvatar(ctx, user.ID))
	_, err = f.svc.GetAvatar(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrAvatarNotFound)
}
