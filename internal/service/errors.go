package service

import "errors"

// Common service errors. The API layer maps these to HTTP status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request. Maps to 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrInvalidCredentials covers both unknown emails and wrong passwords so
	// callers cannot tell them apart. Maps to 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNothingToUpdate is returned for updates that carry no fields.
	// Maps to 400 Bad Request.
	ErrNothingToUpdate = errors.New("nothing to update")

	// ErrStatusNotSettable is returned when a client tries to set a status
	// reserved for the due-task sweep. Maps to 400 Bad Request.
	ErrStatusNotSettable = errors.New("status cannot be set by clients")
)
