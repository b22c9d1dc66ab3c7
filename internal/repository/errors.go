package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row. sql.ErrNoRows is
// translated at this boundary and never leaks to callers.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint (e.g. creating a user with a taken username).
var ErrDuplicate = errors.New("duplicate")
