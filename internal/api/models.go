package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// RegisterRequest is the payload for POST /users.
type RegisterRequest struct {
	Name     string `json:"name"          validate:"required"`
	Email    string `json:"email"         validate:"required,email"`
	Password string `json:"password"      validate:"required"`
	Age      *int   `json:"age,omitempty" validate:"omitempty,gte=0"`
}

// LoginRequest is the payload for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateTaskRequest is the payload for POST /tasks.
type CreateTaskRequest struct {
	Description string `json:"description" validate:"required"`
	Completed   bool   `json:"completed"`
}

// UserResponse is the outward serialization of a user. The password hash,
// token list, and avatar bytes never appear here.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserResponse builds a UserResponse from a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// AuthResponse is returned by registration and login.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// TaskResponse is the outward serialization of a task.
type TaskResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Owner       uuid.UUID `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTaskResponse builds a TaskResponse from a domain task.
func NewTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Description: t.Description,
		Completed:   t.Completed,
		Owner:       t.OwnerID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewTaskListResponse builds the response array for GET /tasks. It always
// serializes as a JSON array, never null.
func NewTaskListResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTaskResponse(t))
	}
	return out
}
