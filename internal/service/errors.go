package service

import "errors"

// Service-level errors.
var (
	// ErrInvalidCredentials is returned for every credential failure at
	// login. Unknown email and wrong password deliberately share this
	// one error so responses never reveal which occurred.
	ErrInvalidCredentials = errors.New("unable to login")

	// ErrFieldNotAllowed is returned when a partial update contains a
	// key outside the operation's allow-list. The whole patch is
	// rejected; nothing is applied.
	ErrFieldNotAllowed = errors.New("field is not allowed")

	// ErrEmptyPatch is returned when a partial update contains no fields.
	ErrEmptyPatch = errors.New("update contains no fields")
)
