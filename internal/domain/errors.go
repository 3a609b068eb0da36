package domain

import "errors"

// Sentinel errors. Services wrap them with context via fmt.Errorf and the
// handler layer maps each one to an HTTP status exactly once.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)
