package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/francesco74/sonde/internal/domain"
)

// MemoryPracticesRepository is an in-memory PracticesRepository.
type MemoryPracticesRepository struct {
	mu          sync.RWMutex
	nextID      int64
	macrogroups map[int64]string
	practices   []domain.Practice
}

func NewMemoryPracticesRepository() *MemoryPracticesRepository {
	return &MemoryPracticesRepository{
		nextID:      1,
		macrogroups: map[int64]string{},
	}
}

var _ PracticesRepository = (*MemoryPracticesRepository)(nil)

// AddMacrogroup seeds a macrogroup and returns its id.
func (r *MemoryPracticesRepository) AddMacrogroup(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.macrogroups[id] = name
	return id
}

// AddPractice seeds a practice and returns its id.
func (r *MemoryPracticesRepository) AddPractice(name, description string, lat, lon float64, macrogroupID int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.practices = append(r.practices, domain.Practice{
		ID:           id,
		Name:         name,
		Description:  description,
		Latitude:     lat,
		Longitude:    lon,
		MacrogroupID: macrogroupID,
	})
	return id
}

func (r *MemoryPracticesRepository) GetByName(ctx context.Context, name string) (*domain.Practice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.practices {
		if p.Name == name {
			copy := p
			return &copy, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryPracticesRepository) ListAccessible(ctx context.Context, perms domain.PermissionSet) ([]domain.PracticeWithMacrogroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.PracticeWithMacrogroup
	for _, p := range r.practices {
		if !perms.Covers(&p) {
			continue
		}
		out = append(out, domain.PracticeWithMacrogroup{
			Practice:       p,
			MacrogroupName: r.macrogroups[p.MacrogroupID],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MacrogroupName != out[j].MacrogroupName {
			return out[i].MacrogroupName < out[j].MacrogroupName
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
