package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/store"
)

// sortKeys maps client-facing sortBy names to store sort columns.
// Unknown keys are ignored rather than rejected.
var sortKeys = map[string]string{
	"createdAt":   store.TaskSortCreatedAt,
	"updatedAt":   store.TaskSortUpdatedAt,
	"completed":   store.TaskSortCompleted,
	"description": store.TaskSortDescription,
}

// TaskHandler handles the /tasks routes.
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
	}
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), user.ID, req.Description, req.Completed)
	if err != nil {
		status := MapErrorToStatusCode(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to create task", "error", err, "owner_id", user.ID)
		}
		shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}

// List handles GET /tasks with optional completed, limit, skip, and
// sortBy=field:asc|desc query parameters.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	opts := parseTaskListOptions(r.URL.Query())

	tasks, err := h.taskService.ListTasks(r.Context(), user.ID, opts)
	if err != nil {
		slog.Error("failed to list tasks", "error", err, "owner_id", user.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskListResponse(tasks))
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	taskID, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), user.ID, taskID)
	if err != nil {
		status := MapErrorToStatusCode(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to get task", "error", err, "task_id", taskID)
		}
		shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}

// Update handles PATCH /tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	taskID, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	var patch service.Patch
	if err := shared.DecodeJSON(r, &patch); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), user.ID, taskID, patch)
	if err != nil {
		status := MapErrorToStatusCode(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to update task", "error", err, "task_id", taskID)
		}
		shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	taskID, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), user.ID, taskID); err != nil {
		status := MapErrorToStatusCode(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to delete task", "error", err, "task_id", taskID)
		}
		shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"message": "task deleted"})
}

// taskIDFromPath validates the {id} path segment. A malformed ID responds
// 404, not 400, so the route never reveals whether an ID could exist.
func taskIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return uuid.Nil, false
	}
	return id, true
}

// parseTaskListOptions builds listing options from query parameters.
// Malformed or negative limit/skip values are treated as absent rather
// than as errors. completed matches only the literal "true"; any other
// value filters for incomplete tasks.
func parseTaskListOptions(values url.Values) store.TaskListOptions {
	var opts store.TaskListOptions

	if v := values.Get("completed"); v != "" {
		completed := v == "true"
		opts.Completed = &completed
	}

	if v := values.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	if v := values.Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Skip = n
		}
	}

	if v := values.Get("sortBy"); v != "" {
		parts := strings.SplitN(v, ":", 2)
		if column, ok := sortKeys[parts[0]]; ok {
			opts.SortBy = column
			opts.SortDesc = len(parts) == 2 && parts[1] == "desc"
		}
	}

	return opts
}
