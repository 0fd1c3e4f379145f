package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/api/middleware"
	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/avatar"
)

// maxMultipartBody bounds the multipart request body. It sits above the
// avatar size ceiling so an over-limit file reaches the pipeline's own
// size check and gets the specific "too large" message.
const maxMultipartBody = 4 * avatar.MaxUploadBytes

// UserHandler handles the /users routes.
type UserHandler struct {
	userService service.UserService
	avatars     *avatar.Processor
	validator   *validator.Validate
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(userService service.UserService, avatars *avatar.Processor) *UserHandler {
	return &UserHandler{
		userService: userService,
		avatars:     avatars,
		validator:   validator.New(),
	}
}

// Register handles POST /users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	age := 0
	if req.Age != nil {
		age = *req.Age
	}

	user, token, err := h.userService.Register(r.Context(), req.Name, req.Email, req.Password, age)
	if err != nil {
		status := MapErrorToStatusCode(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to register user", "error", err)
		}
		shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		User:  NewUserResponse(user),
		Token: token,
	})
}

// Login handles POST /users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, token, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		status := MapErrorToStatusCode(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to authenticate user", "error", err)
		}
		shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		User:  NewUserResponse(user),
		Token: token,
	})
}

// Logout handles POST /users/logout. It revokes only the token used by
// this session; tokens on other devices stay valid.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, token, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	if err := h.userService.Logout(r.Context(), user.ID, token); err != nil {
		slog.Error("failed to log out", "error", err, "user_id", user.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to log out")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"message": "logged out"})
}

// LogoutAll handles POST /users/logoutAll, revoking every session.
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	if err := h.userService.LogoutAll(r.Context(), user.ID); err != nil {
		slog.Error("failed to log out all sessions", "error", err, "user_id", user.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to log out")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"message": "logged out of all devices"})
}

// Me handles GET /users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewUserResponse(user))
}

// UpdateMe handles PATCH /users/me. Keys outside the allow-list reject
// the whole patch with a 400 and nothing is applied.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	var patch service.Patch
	if err := shared.DecodeJSON(r, &patch); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	updated, err := h.userService.UpdateUser(r.Context(), user.ID, patch)
	if err != nil {
		status := MapErrorToStatusCode(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to update user", "error", err, "user_id", user.ID)
		}
		shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewUserResponse(updated))
}

// DeleteMe handles DELETE /users/me. The user's tasks go with them.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), user.ID); err != nil {
		slog.Error("failed to delete user", "error", err, "user_id", user.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewUserResponse(user))
}

// UploadAvatar handles POST /users/me/avatar. The file arrives as the
// multipart field "avatar" and is normalized to a 250x250 PNG before
// storage.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)

	file, header, err := r.FormFile("avatar")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			slog.Error("failed to close uploaded file", "error", cerr)
		}
	}()

	processed, err := h.avatars.Process(header.Filename, header.Size, file)
	if err != nil {
		if avatar.IsClientError(err) {
			shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to process avatar", "error", err, "user_id", user.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to process avatar")
		return
	}

	if err := h.userService.SetAvatar(r.Context(), user.ID, processed); err != nil {
		slog.Error("failed to store avatar", "error", err, "user_id", user.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to store avatar")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"message": "avatar uploaded"})
}

// DeleteAvatar handles DELETE /users/me/avatar.
func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	if err := h.userService.ClearAvatar(r.Context(), user.ID); err != nil {
		slog.Error("failed to clear avatar", "error", err, "user_id", user.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to clear avatar")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"message": "avatar removed"})
}

// GetAvatar handles GET /users/{id}/avatar. This route is public; a
// malformed ID, unknown user, and missing avatar all return the same 404.
func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
		return
	}

	data, err := h.userService.GetAvatar(r.Context(), id)
	if err != nil {
		status := MapErrorToStatusCode(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to fetch avatar", "error", err, "user_id", id)
			shared.RespondWithError(w, r, status, "Failed to fetch avatar")
			return
		}
		shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write avatar response", "error", err)
	}
}

// sessionFromContext pulls the authenticated user and raw token placed in
// the context by the auth middleware, responding 401 when absent.
func sessionFromContext(w http.ResponseWriter, r *http.Request) (*domain.User, string, bool) {
	user, found := middleware.GetUser(r)
	if !found {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return nil, "", false
	}
	token, _ := middleware.GetToken(r)
	return user, token, true
}
