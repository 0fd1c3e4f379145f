package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// Fields a task update may change.
var taskPatchFields = []string{"description", "completed"}

// TaskService provides owner-scoped task operations. A task belonging to
// another user is indistinguishable from a missing one at this layer.
type TaskService interface {
	// CreateTask creates a task owned by the caller.
	CreateTask(ctx context.Context, ownerID uuid.UUID, description string, completed bool) (*domain.Task, error)

	// ListTasks returns the caller's tasks per the given options.
	ListTasks(ctx context.Context, ownerID uuid.UUID, opts store.TaskListOptions) ([]*domain.Task, error)

	// GetTask returns a single owned task.
	GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)

	// UpdateTask applies an allow-listed partial update to an owned task.
	UpdateTask(ctx context.Context, ownerID, taskID uuid.UUID, patch Patch) (*domain.Task, error)

	// DeleteTask removes an owned task.
	DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error
}

// TaskServiceImpl implements TaskService.
type TaskServiceImpl struct {
	taskStore store.TaskStore
	logger    *slog.Logger
}

var _ TaskService = (*TaskServiceImpl)(nil)

// NewTaskService creates a TaskService.
func NewTaskService(taskStore store.TaskStore, logger *slog.Logger) *TaskServiceImpl {
	return &TaskServiceImpl{
		taskStore: taskStore,
		logger:    logger.With("component", "task_service"),
	}
}

// CreateTask implements TaskService.CreateTask.
func (s *TaskServiceImpl) CreateTask(ctx context.Context, ownerID uuid.UUID, description string, completed bool) (*domain.Task, error) {
	task, err := domain.NewTask(ownerID, description, completed)
	if err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Debug("task created", "task_id", task.ID, "owner_id", ownerID)
	return task, nil
}

// ListTasks implements TaskService.ListTasks.
func (s *TaskServiceImpl) ListTasks(ctx context.Context, ownerID uuid.UUID, opts store.TaskListOptions) ([]*domain.Task, error) {
	return s.taskStore.ListByOwner(ctx, ownerID, opts)
}

// GetTask implements TaskService.GetTask.
func (s *TaskServiceImpl) GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	return s.taskStore.GetByIDAndOwner(ctx, taskID, ownerID)
}

// UpdateTask implements TaskService.UpdateTask.
func (s *TaskServiceImpl) UpdateTask(ctx context.Context, ownerID, taskID uuid.UUID, patch Patch) (*domain.Task, error) {
	if err := patch.Allow(taskPatchFields...); err != nil {
		return nil, err
	}

	task, err := s.taskStore.GetByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		return nil, err
	}

	if description, ok, err := patch.String("description"); err != nil {
		return nil, err
	} else if ok {
		task.Description = description
	}
	if completed, ok, err := patch.Bool("completed"); err != nil {
		return nil, err
	} else if ok {
		task.Completed = completed
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	task.UpdatedAt = time.Now().UTC()
	if err := s.taskStore.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// DeleteTask implements TaskService.DeleteTask.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error {
	return s.taskStore.DeleteByIDAndOwner(ctx, taskID, ownerID)
}
