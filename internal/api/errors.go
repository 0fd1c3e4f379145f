package api

import (
	"errors"
	"net/http"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal detail. Malformed IDs and not-owned resources both land
// on 404 so existence never leaks across owners.
func MapErrorToStatusCode(err error) int {
	var validationErr *domain.ValidationError

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case store.IsNotFoundError(err):
		return http.StatusNotFound

	case errors.Is(err, service.ErrFieldNotAllowed),
		errors.Is(err, service.ErrEmptyPatch),
		errors.Is(err, store.ErrEmailExists),
		errors.Is(err, domain.ErrValidation),
		errors.As(err, &validationErr),
		isDomainValidation(err):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the client-facing message for an error.
// Validation messages surface verbatim; everything unexpected collapses to
// an opaque message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch status := MapErrorToStatusCode(err); status {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusUnauthorized:
		if errors.Is(err, service.ErrInvalidCredentials) {
			return service.ErrInvalidCredentials.Error()
		}
		return "Invalid token"
	case http.StatusNotFound:
		if errors.Is(err, store.ErrUserNotFound) {
			return "User not found"
		}
		if errors.Is(err, store.ErrTaskNotFound) {
			return "Task not found"
		}
		return "Not found"
	default:
		return "An unexpected error occurred"
	}
}

// isDomainValidation reports whether err is one of the entity-level
// validation sentinels, which are raised at the data layer and surface to
// clients verbatim.
func isDomainValidation(err error) bool {
	for _, sentinel := range []error{
		domain.ErrEmptyName,
		domain.ErrEmptyEmail,
		domain.ErrInvalidEmail,
		domain.ErrEmptyPassword,
		domain.ErrPasswordTooShort,
		domain.ErrPasswordTooLong,
		domain.ErrPasswordForbidden,
		domain.ErrNegativeAge,
		domain.ErrEmptyDescription,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
