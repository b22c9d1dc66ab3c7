package repository

import (
	"context"

	"github.com/francesco74/sonde/internal/domain"
)

// PracticesRepository provides practice lookup and the permission-scoped
// listing that feeds the tree view.
type PracticesRepository interface {
	// GetByName returns the practice with the exact name, or ErrNotFound.
	GetByName(ctx context.Context, name string) (*domain.Practice, error)

	// ListAccessible returns every practice whose macrogroup is in
	// perms.Macrogroups or whose id is in perms.Practices, joined with
	// the macrogroup name, ordered by macrogroup name then practice
	// name. Callers must not invoke it with an empty permission set.
	ListAccessible(ctx context.Context, perms domain.PermissionSet) ([]domain.PracticeWithMacrogroup, error)
}
