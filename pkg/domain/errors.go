package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrInvalidInput is returned when a request is malformed or violates a business rule
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when the caller could not be authenticated
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a user is not allowed to perform an action
	ErrForbidden = errors.New("forbidden")
	// ErrVersionConflict is returned when an optimistic version check fails
	ErrVersionConflict = errors.New("version conflict")
	// ErrLastAdmin is returned when a change would leave the system without an administrator
	ErrLastAdmin = errors.New("cannot remove the last administrator")
	// ErrConflict is returned when a write could not be completed because of concurrent activity
	ErrConflict = errors.New("conflict")
	// ErrSerialization is returned by storage when a unit of work lost a serialization race
	// or was chosen as a deadlock victim. Callers may retry the whole unit.
	ErrSerialization = errors.New("serialization failure")
)
