package domain

import "errors"

// Sentinel errors shared by the forecast, search and lifecycle components.
// Callers match them with errors.Is; producers wrap them with context.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrGenerationFailed    = errors.New("reply generation failed")
	ErrAlreadyInProgress   = errors.New("already in progress")
	ErrInvalidTransition   = errors.New("invalid transition")
)
