package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/store"
)

// TaskStore implements store.TaskStore backed by PostgreSQL.
type TaskStore struct {
	db store.DBTX
}

// NewTaskStore creates a PostgreSQL implementation of store.TaskStore.
func NewTaskStore(db store.DBTX) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &TaskStore{db: db}
}

var _ store.TaskStore = (*TaskStore)(nil)

// WithTx implements store.TaskStore.WithTx.
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	if tx == nil {
		return s
	}
	return &TaskStore{db: tx}
}

// Create implements store.TaskStore.Create.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO tasks (id, description, completed, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Description,
		task.Completed,
		task.OwnerID,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert task", "task_id", task.ID, "error", err)
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

const taskColumns = "id, description, completed, owner_id, created_at, updated_at"

// GetByIDAndOwner implements store.TaskStore.GetByIDAndOwner.
func (s *TaskStore) GetByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND owner_id = $2`

	var task domain.Task
	err := s.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&task.ID,
		&task.Description,
		&task.Completed,
		&task.OwnerID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to scan task row", "task_id", id, "error", err)
		return nil, fmt.Errorf("failed to scan task row: %w", err)
	}

	return &task, nil
}

// ListByOwner implements store.TaskStore.ListByOwner.
func (s *TaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, opts store.TaskListOptions) ([]*domain.Task, error) {
	log := logger.FromContext(ctx)

	query, args := buildTaskListQuery(ownerID, opts)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Error("failed to close task rows", "error", cerr)
		}
	}()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(
			&task.ID,
			&task.Description,
			&task.Completed,
			&task.OwnerID,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			log.Error("failed to scan task row", "owner_id", ownerID, "error", err)
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, &task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// buildTaskListQuery assembles the owner-scoped listing query. Kept as a
// pure function so the filter/pagination/sort construction is testable
// without a database. SortBy is trusted to be one of the store.TaskSort*
// columns; anything else is ignored.
func buildTaskListQuery(ownerID uuid.UUID, opts store.TaskListOptions) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`)
	args := []any{ownerID}

	if opts.Completed != nil {
		args = append(args, *opts.Completed)
		sb.WriteString(" AND completed = $" + strconv.Itoa(len(args)))
	}

	switch opts.SortBy {
	case store.TaskSortCreatedAt, store.TaskSortUpdatedAt, store.TaskSortCompleted, store.TaskSortDescription:
		dir := " ASC"
		if opts.SortDesc {
			dir = " DESC"
		}
		sb.WriteString(" ORDER BY " + opts.SortBy + dir)
	}

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if opts.Skip > 0 {
		args = append(args, opts.Skip)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}

	return sb.String(), args
}

// Update implements store.TaskStore.Update.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET description = $1, completed = $2, updated_at = $3
		WHERE id = $4 AND owner_id = $5
	`

	result, err := s.db.ExecContext(ctx, query,
		task.Description,
		task.Completed,
		task.UpdatedAt,
		task.ID,
		task.OwnerID,
	)
	if err != nil {
		log.Error("failed to update task", "task_id", task.ID, "error", err)
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// DeleteByIDAndOwner implements store.TaskStore.DeleteByIDAndOwner.
func (s *TaskStore) DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	log := logger.FromContext(ctx)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		log.Error("failed to delete task", "task_id", id, "error", err)
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// DeleteByOwner implements store.TaskStore.DeleteByOwner.
func (s *TaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		log.Error("failed to delete owned tasks", "owner_id", ownerID, "error", err)
		return 0, fmt.Errorf("failed to delete owned tasks: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
