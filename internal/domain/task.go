package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task validation errors.
var (
	ErrEmptyTaskID      = errors.New("task ID cannot be empty")
	ErrEmptyDescription = errors.New("description cannot be empty")
	ErrEmptyOwner       = errors.New("task must have an owner")
)

// Task is a single to-do item owned by exactly one user. A task is only
// ever visible or mutable through its owner's session.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	OwnerID     uuid.UUID `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask creates a Task bound to the given owner.
func NewTask(ownerID uuid.UUID, description string, completed bool) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Description: strings.TrimSpace(description),
		Completed:   completed,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the task against the domain invariants.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.Description == "" {
		return ErrEmptyDescription
	}
	if t.OwnerID == uuid.Nil {
		return ErrEmptyOwner
	}
	return nil
}
