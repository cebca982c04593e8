// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"sort"
	"strings"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict indicates optimistic concurrency failure on a record that still exists.
	ErrVersionConflict = errors.New("version conflict")

	// ErrAlreadyExists indicates a uniqueness conflict (identification number or email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrReferenceNotFound indicates a policy references a client that does not exist.
	ErrReferenceNotFound = errors.New("referenced client not found")

	// ErrInvalidDateRange indicates endDate is not strictly after startDate.
	ErrInvalidDateRange = errors.New("end date must be after start date")

	// ErrAlreadyCancelled indicates an attempt to cancel a policy that is already cancelled.
	ErrAlreadyCancelled = errors.New("policy already cancelled")

	// ErrEmailInUse indicates the profile email is held by another client.
	ErrEmailInUse = errors.New("email already in use")
)

// Violations maps a field name to a human readable message.
type Violations map[string]string

// Empty reports whether no violation was recorded.
func (v Violations) Empty() bool { return len(v) == 0 }

// Add records msg for field unless the field already has a message.
func (v Violations) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// ValidationError carries field-level violations. Kind, when set, is the
// sentinel class the violations belong to (e.g. ErrAlreadyExists).
type ValidationError struct {
	Fields Violations
	Kind   error
}

// NewValidation returns nil when v is empty, otherwise a *ValidationError.
func NewValidation(v Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Fields: v}
}

// NewDuplicate wraps uniqueness violations so they match ErrAlreadyExists.
func NewDuplicate(v Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Fields: v, Kind: ErrAlreadyExists}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	prefix := "validation"
	if e.Kind != nil {
		prefix = e.Kind.Error()
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

// Unwrap exposes Kind for errors.Is.
func (e *ValidationError) Unwrap() error { return e.Kind }

// FieldsOf extracts the violation map from err, if any.
func FieldsOf(err error) (Violations, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields, true
	}
	return nil, false
}
