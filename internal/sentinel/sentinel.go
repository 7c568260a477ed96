package sentinel

import "errors"

// Sentinel dependency errors. Dependencies should return these (optionally wrapped)
// so services can translate them into domain errors exactly once.
var (
	ErrNotFound         = errors.New("not found")
	ErrTenantInactive   = errors.New("tenant inactive")
	ErrInvalidNamespace = errors.New("invalid namespace name")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyUsed      = errors.New("already used")
	ErrInvalidState     = errors.New("invalid state")
	ErrUnavailable      = errors.New("unavailable")
)
