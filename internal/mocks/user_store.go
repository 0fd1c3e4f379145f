package mocks

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// MockUserStore is an in-memory store.UserStore. It mirrors the postgres
// store's error contracts, including email uniqueness.
type MockUserStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*domain.User
	avatars map[uuid.UUID][]byte

	// Per-method error overrides for failure-path tests. When set, the
	// method returns the error without touching state.
	CreateErr error
	GetErr    error
	UpdateErr error
	DeleteErr error
	TokenErr  error
	AvatarErr error
}

// NewMockUserStore creates an empty MockUserStore.
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users:   make(map[uuid.UUID]*domain.User),
		avatars: make(map[uuid.UUID][]byte),
	}
}

var _ store.UserStore = (*MockUserStore)(nil)

// Create implements store.UserStore.
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	m.users[user.ID] = copyUser(user)
	return nil
}

// GetByID implements store.UserStore.
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return copyUser(user), nil
}

// GetByEmail implements store.UserStore.
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, store.ErrUserNotFound
}

// GetByToken implements store.UserStore.
func (m *MockUserStore) GetByToken(ctx context.Context, token string) (*domain.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		for _, t := range user.Tokens {
			if t == token {
				return copyUser(user), nil
			}
		}
	}
	return nil, store.ErrUserNotFound
}

// Update implements store.UserStore.
func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	for id, other := range m.users {
		if id != user.ID && other.Email == user.Email {
			return store.ErrEmailExists
		}
	}

	existing.Name = user.Name
	existing.Email = user.Email
	existing.HashedPassword = user.HashedPassword
	existing.Age = user.Age
	existing.UpdatedAt = time.Now().UTC()
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

// Delete implements store.UserStore.
func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(m.users, id)
	delete(m.avatars, id)
	return nil
}

// AddToken implements store.UserStore.
func (m *MockUserStore) AddToken(ctx context.Context, userID uuid.UUID, token string) error {
	if m.TokenErr != nil {
		return m.TokenErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	user.Tokens = append(user.Tokens, token)
	return nil
}

// RemoveToken implements store.UserStore.
func (m *MockUserStore) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	if m.TokenErr != nil {
		return m.TokenErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	kept := user.Tokens[:0]
	for _, t := range user.Tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	user.Tokens = kept
	return nil
}

// RemoveAllTokens implements store.UserStore.
func (m *MockUserStore) RemoveAllTokens(ctx context.Context, userID uuid.UUID) error {
	if m.TokenErr != nil {
		return m.TokenErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	user.Tokens = nil
	return nil
}

// SetAvatar implements store.UserStore.
func (m *MockUserStore) SetAvatar(ctx context.Context, id uuid.UUID, avatar []byte) error {
	if m.AvatarErr != nil {
		return m.AvatarErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return store.ErrUserNotFound
	}
	if len(avatar) == 0 {
		delete(m.avatars, id)
		return nil
	}
	m.avatars[id] = append([]byte(nil), avatar...)
	return nil
}

// GetAvatar implements store.UserStore.
func (m *MockUserStore) GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if m.AvatarErr != nil {
		return nil, m.AvatarErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.avatars[id]
	if !ok || len(data) == 0 {
		return nil, store.ErrAvatarNotFound
	}
	return append([]byte(nil), data...), nil
}

// WithTx implements store.UserStore. The mock has no transaction state, so
// it returns itself.
func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return m
}

// Count returns the number of stored users.
func (m *MockUserStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

func copyUser(u *domain.User) *domain.User {
	cp := *u
	cp.Tokens = append([]string(nil), u.Tokens...)
	return &cp
}
