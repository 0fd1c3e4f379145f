package service

import (
	"encoding/json"
	"fmt"

	"github.com/taskhub/taskhub-api/internal/domain"
)

// Patch is a partial update payload keyed by JSON field name. Decoding a
// request body into a Patch preserves every key the client sent, which is
// what makes allow-list enforcement possible.
type Patch map[string]json.RawMessage

// Allow rejects the patch wholesale if any key falls outside the given
// allow-list, or if the patch is empty. No field is applied on failure.
func (p Patch) Allow(fields ...string) error {
	if len(p) == 0 {
		return ErrEmptyPatch
	}

	allowed := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		allowed[f] = struct{}{}
	}

	for key := range p {
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("%w: %q", ErrFieldNotAllowed, key)
		}
	}

	return nil
}

// Has reports whether the patch contains the given key.
func (p Patch) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String extracts a string field. The boolean reports presence; a present
// but non-string value is an error.
func (p Patch) String(key string) (string, bool, error) {
	raw, ok := p[key]
	if !ok {
		return "", false, nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", true, fmt.Errorf("field %q must be a string: %w", key, domain.ErrValidation)
	}
	return v, true, nil
}

// Int extracts an integer field.
func (p Patch) Int(key string) (int, bool, error) {
	raw, ok := p[key]
	if !ok {
		return 0, false, nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, true, fmt.Errorf("field %q must be an integer: %w", key, domain.ErrValidation)
	}
	return v, true, nil
}

// Bool extracts a boolean field.
func (p Patch) Bool(key string) (bool, bool, error) {
	raw, ok := p[key]
	if !ok {
		return false, false, nil
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, true, fmt.Errorf("field %q must be a boolean: %w", key, domain.ErrValidation)
	}
	return v, true, nil
}
