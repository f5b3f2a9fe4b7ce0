package shared

import "errors"

// Base error kinds. Domain packages wrap these so handlers can map any
// failure to a response class with errors.Is without importing every module.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a malformed or incomplete payload.
	ErrValidation = errors.New("validation failed")
	// ErrBusinessRule indicates a request rejected by a business rule.
	ErrBusinessRule = errors.New("business rule violation")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
)
