package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// TransformError marks a vendor record that cannot be normalized. It names
// the missing or malformed field and, when known, the vendor's own id, so a
// batch run can report exactly which record was dropped.
type TransformError struct {
	Entity   string
	Field    string
	SourceID string
	Reason   string
}

func (e *TransformError) Error() string {
	id := e.SourceID
	if id == "" {
		id = "?"
	}
	if e.Reason != "" {
		return fmt.Sprintf("transform %s %s: field %q: %s", e.Entity, id, e.Field, e.Reason)
	}
	return fmt.Sprintf("transform %s %s: field %q missing", e.Entity, id, e.Field)
}

// VendorError is a non-2xx or malformed vendor response, after the client's
// retry budget is spent.
type VendorError struct {
	Op     string
	Status int
	Err    error
}

func (e *VendorError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("vendor %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("vendor %s: %v", e.Op, e.Err)
}

func (e *VendorError) Unwrap() error { return e.Err }
