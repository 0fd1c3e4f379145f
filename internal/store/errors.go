package store

import (
	"errors"
	"fmt"
)

// Common store errors shared by all implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	// Entity-specific variants wrap it so errors.Is(err, ErrNotFound)
	// matches all of them.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would violate a
	// uniqueness constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTaskNotFound indicates the requested task does not exist or is
	// not owned by the caller. The two cases are deliberately
	// indistinguishable.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrAvatarNotFound indicates the user exists but has no avatar set,
	// or the user does not exist at all.
	ErrAvatarNotFound = fmt.Errorf("%w: avatar", ErrNotFound)

	// ErrEmailExists indicates a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)

// IsNotFoundError reports whether err is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is any kind of uniqueness violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
