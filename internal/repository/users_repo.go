package repository

import (
	"context"

	"github.com/francesco74/sonde/internal/domain"
)

// UsersRepository provides account lookup and creation.
type UsersRepository interface {
	// GetByUsername returns the user with the exact username, or
	// ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Create inserts a new user and returns its id. A taken username
	// yields ErrDuplicate.
	Create(ctx context.Context, username, passwordHash string) (int64, error)
}

// PermissionsRepository reads the two grant tables for a user. Empty
// results are valid: a user may have no access anywhere.
type PermissionsRepository interface {
	MacrogroupGrants(ctx context.Context, userID int64) ([]int64, error)
	PracticeGrants(ctx context.Context, userID int64) ([]int64, error)
}
