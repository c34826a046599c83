package models

import "errors"

// Error classes understood by the HTTP layer. Callers wrap them with context
// using fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("invalid credentials")
	ErrConflict          = errors.New("already exists")
	ErrStorage           = errors.New("storage failure")
)
