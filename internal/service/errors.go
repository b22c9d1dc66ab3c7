package service

import "errors"

// Service-level errors. The HTTP layer maps these to status codes; the
// texts clients see live in internal/httpapi.
var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password. Callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken is returned when creating a user with an existing
	// username.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrPracticeNotFound is returned when no practice has the requested
	// name.
	ErrPracticeNotFound = errors.New("practice not found")

	// ErrPermissionDenied is returned when the caller's permission set
	// does not cover the requested practice.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date")
)
