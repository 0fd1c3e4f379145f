package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// Task sort columns accepted by TaskListOptions.SortBy.
const (
	TaskSortCreatedAt   = "created_at"
	TaskSortUpdatedAt   = "updated_at"
	TaskSortCompleted   = "completed"
	TaskSortDescription = "description"
)

// TaskListOptions controls filtering, pagination, and ordering of task
// listings. Zero values mean "no constraint": a nil Completed applies no
// filter, Limit/Skip at or below zero apply no pagination, and an empty
// SortBy leaves the order unspecified.
type TaskListOptions struct {
	Completed *bool
	Limit     int
	Skip      int
	SortBy    string
	SortDesc  bool
}

// TaskStore defines the interface for task persistence. Every read or
// mutation of an existing task is scoped by the owner's ID; a task that
// exists but belongs to someone else behaves exactly like a missing one.
type TaskStore interface {
	// Create saves a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByIDAndOwner retrieves the task only if it belongs to ownerID.
	// Returns ErrTaskNotFound otherwise.
	GetByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)

	// ListByOwner returns the owner's tasks per the given options.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, opts TaskListOptions) ([]*domain.Task, error)

	// Update persists description and completed changes, scoped by owner.
	// Returns ErrTaskNotFound if no owned task matches.
	Update(ctx context.Context, task *domain.Task) error

	// DeleteByIDAndOwner removes the task only if it belongs to ownerID.
	// Returns ErrTaskNotFound otherwise.
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) error

	// DeleteByOwner removes every task owned by ownerID and returns the
	// number removed. Used by the user-deletion cascade.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// WithTx returns a TaskStore bound to the given transaction. A nil
	// transaction returns the store unchanged.
	WithTx(tx *sql.Tx) TaskStore
}
