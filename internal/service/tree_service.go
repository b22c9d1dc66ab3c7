package service

import (
	"context"
	"fmt"

	"github.com/francesco74/sonde/internal/domain"
	"github.com/francesco74/sonde/internal/repository"

	"go.uber.org/zap"
)

// TreeService builds the hierarchical practice listing scoped to a
// permission set.
type TreeService interface {
	BuildTree(ctx context.Context, perms domain.PermissionSet) ([]MacrogroupTree, error)
}

// MacrogroupTree is one macrogroup entry with its visible probes.
type MacrogroupTree struct {
	MacrogroupName string  `json:"macrogroup_name"`
	Probes         []Probe `json:"probes"`
}

// Probe is the tree view of a practice.
type Probe struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

type treeService struct {
	practices repository.PracticesRepository
	logger    *zap.Logger
}

func NewTreeService(practices repository.PracticesRepository, logger *zap.Logger) TreeService {
	return &treeService{practices: practices, logger: logger}
}

func (s *treeService) BuildTree(ctx context.Context, perms domain.PermissionSet) ([]MacrogroupTree, error) {
	// No grants at all: nothing can be visible, skip the store entirely.
	if perms.IsEmpty() {
		return []MacrogroupTree{}, nil
	}

	rows, err := s.practices.ListAccessible(ctx, perms)
	if err != nil {
		return nil, fmt.Errorf("failed to list accessible practices: %w", err)
	}

	// Group by macrogroup in query order. A practice granted through both
	// mechanisms must appear exactly once.
	tree := []MacrogroupTree{}
	seen := map[int64]bool{}
	for _, row := range rows {
		if seen[row.ID] {
			continue
		}
		seen[row.ID] = true

		if len(tree) == 0 || tree[len(tree)-1].MacrogroupName != row.MacrogroupName {
			tree = append(tree, MacrogroupTree{MacrogroupName: row.MacrogroupName, Probes: []Probe{}})
		}
		entry := &tree[len(tree)-1]
		entry.Probes = append(entry.Probes, Probe{
			Name:        row.Name,
			Description: row.Description,
			Latitude:    row.Latitude,
			Longitude:   row.Longitude,
		})
	}

	s.logger.Debug("Built practice tree",
		zap.Int("macrogroups", len(tree)),
		zap.Int("practices", len(seen)),
	)
	return tree, nil
}
