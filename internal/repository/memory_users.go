package repository

import (
	"context"
	"sync"

	"github.com/francesco74/sonde/internal/domain"
)

// MemoryUsersRepository is an in-memory UsersRepository plus
// PermissionsRepository, used in tests and as a wiring double.
type MemoryUsersRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]*domain.User // keyed by username

	macrogroupGrants map[int64][]int64 // user id -> macrogroup ids
	practiceGrants   map[int64][]int64 // user id -> practice ids
}

func NewMemoryUsersRepository() *MemoryUsersRepository {
	return &MemoryUsersRepository{
		nextID:           1,
		users:            map[string]*domain.User{},
		macrogroupGrants: map[int64][]int64{},
		practiceGrants:   map[int64][]int64{},
	}
}

var (
	_ UsersRepository       = (*MemoryUsersRepository)(nil)
	_ PermissionsRepository = (*MemoryUsersRepository)(nil)
)

func (r *MemoryUsersRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (r *MemoryUsersRepository) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; ok {
		return 0, ErrDuplicate
	}
	id := r.nextID
	r.nextID++
	r.users[username] = &domain.User{ID: id, Username: username, PasswordHash: passwordHash}
	return id, nil
}

func (r *MemoryUsersRepository) MacrogroupGrants(ctx context.Context, userID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]int64(nil), r.macrogroupGrants[userID]...), nil
}

func (r *MemoryUsersRepository) PracticeGrants(ctx context.Context, userID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]int64(nil), r.practiceGrants[userID]...), nil
}

// GrantMacrogroup seeds a macrogroup grant.
func (r *MemoryUsersRepository) GrantMacrogroup(userID, macrogroupID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.macrogroupGrants[userID] = append(r.macrogroupGrants[userID], macrogroupID)
}

// GrantPractice seeds a practice grant.
func (r *MemoryUsersRepository) GrantPractice(userID, practiceID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.practiceGrants[userID] = append(r.practiceGrants[userID], practiceID)
}
