package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel stores return for a missing document.
var ErrNotFound = errors.New("document not found")

// Boundary errors the HTTP and upgrade handlers translate to status
// codes. Each carries the vocabulary of the endpoint that raised it.
var (
	ErrUserNotFound     = errors.New("there is no user with the supplied ID")
	ErrVehicleNotFound  = errors.New("there is no vehicle with the supplied ID")
	ErrWrongCredentials = errors.New("wrong credentials")
	ErrNoAccess         = errors.New("this user has no access to the vehicle")
	ErrCodeExpired      = errors.New("this code has expired")
	ErrNoLogs           = errors.New("no logs recorded for this query")
)

// ConflictError reports a signup collision on a unique field.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("another user already exists with the %s %s", e.Field, e.Value)
}
