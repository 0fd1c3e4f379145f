package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Password length bounds. The upper bound is bcrypt's practical input limit.
const (
	MinPasswordLength = 7
	MaxPasswordLength = 72
)

// User validation errors.
var (
	ErrEmptyUserID        = errors.New("user ID cannot be empty")
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrEmptyEmail         = errors.New("email cannot be empty")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrEmptyPassword      = errors.New("password cannot be empty")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d characters long", MaxPasswordLength)
	ErrPasswordForbidden  = errors.New(`password must not contain the word "password"`)
	ErrNegativeAge        = errors.New("age must be a non-negative number")
)

// User represents a registered account. The plaintext Password field is
// transient: it is set during registration or a password update and must be
// hashed before the user reaches the store. Tokens holds every bearer token
// currently accepted for this user; removing a token revokes it.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	HashedPassword string    `json:"-"`
	Age            int       `json:"age"`
	Tokens         []string  `json:"-"`
	Avatar         []byte    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a User from registration input. Name and email are
// trimmed and the email lowercased before validation. The caller is
// responsible for hashing the password before persisting the user.
func NewUser(name, email, password string, age int) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Password:  strings.TrimSpace(password),
		Age:       age,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// NormalizeEmail trims surrounding whitespace and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the user against the domain invariants. Password rules
// apply to the transient plaintext only; a user loaded from the store
// carries just the hash and passes with an empty Password.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.Name == "" {
		return ErrEmptyName
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if !validEmail(u.Email) {
		return ErrInvalidEmail
	}
	if u.Age < 0 {
		return ErrNegativeAge
	}

	if u.Password != "" {
		return ValidatePassword(u.Password)
	}
	if u.HashedPassword == "" {
		return ErrEmptyPassword
	}
	return nil
}

// ValidatePassword checks the plaintext password rules: length bounds and
// the ban on the literal word "password" in any casing.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if strings.Contains(strings.ToLower(password), "password") {
		return ErrPasswordForbidden
	}
	return nil
}

// validEmail performs a structural check: one @ with a non-empty local
// part and a domain containing an interior dot.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if strings.Contains(email[at+1:], "@") {
		return false
	}
	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
