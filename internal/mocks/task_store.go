package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// MockTaskStore is an in-memory store.TaskStore. Owner scoping matches the
// postgres implementation: another owner's task is indistinguishable from a
// missing one.
type MockTaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task

	CreateErr error
	GetErr    error
	ListErr   error
	UpdateErr error
	DeleteErr error
}

// NewMockTaskStore creates an empty MockTaskStore.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// Create implements store.TaskStore.
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

// GetByIDAndOwner implements store.TaskStore.
func (m *MockTaskStore) GetByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	cp := *task
	return &cp, nil
}

// ListByOwner implements store.TaskStore, applying the same filter,
// ordering, and pagination semantics as the SQL store.
func (m *MockTaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, opts store.TaskListOptions) ([]*domain.Task, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Task
	for _, task := range m.tasks {
		if task.OwnerID != ownerID {
			continue
		}
		if opts.Completed != nil && task.Completed != *opts.Completed {
			continue
		}
		cp := *task
		out = append(out, &cp)
	}

	if opts.SortBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			less := taskLess(out[i], out[j], opts.SortBy)
			if opts.SortDesc {
				return !less
			}
			return less
		})
	}

	if opts.Skip > 0 {
		if opts.Skip >= len(out) {
			out = nil
		} else {
			out = out[opts.Skip:]
		}
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Update implements store.TaskStore.
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.tasks[task.ID]
	if !ok || existing.OwnerID != task.OwnerID {
		return store.ErrTaskNotFound
	}
	existing.Description = task.Description
	existing.Completed = task.Completed
	existing.UpdatedAt = time.Now().UTC()
	task.UpdatedAt = existing.UpdatedAt
	return nil
}

// DeleteByIDAndOwner implements store.TaskStore.
func (m *MockTaskStore) DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

// DeleteByOwner implements store.TaskStore.
func (m *MockTaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, task := range m.tasks {
		if task.OwnerID == ownerID {
			delete(m.tasks, id)
			removed++
		}
	}
	return removed, nil
}

// WithTx implements store.TaskStore.
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

// Count returns the number of stored tasks.
func (m *MockTaskStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tasks)
}

func taskLess(a, b *domain.Task, sortBy string) bool {
	switch sortBy {
	case store.TaskSortCreatedAt:
		return a.CreatedAt.Before(b.CreatedAt)
	case store.TaskSortUpdatedAt:
		return a.UpdatedAt.Before(b.UpdatedAt)
	case store.TaskSortCompleted:
		return !a.Completed && b.Completed
	case store.TaskSortDescription:
		return a.Description < b.Description
	default:
		return false
	}
}
