package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/francesco74/sonde/internal/domain"

	"github.com/lib/pq"
)

// PostgresUsersRepository is the Postgres implementation of
// UsersRepository.
type PostgresUsersRepository struct {
	db *sql.DB
}

func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

func (r *PostgresUsersRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &u, nil
}

func (r *PostgresUsersRepository) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`,
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// PostgresPermissionsRepository is the Postgres implementation of
// PermissionsRepository.
type PostgresPermissionsRepository struct {
	db *sql.DB
}

func NewPostgresPermissionsRepository(db *sql.DB) *PostgresPermissionsRepository {
	return &PostgresPermissionsRepository{db: db}
}

var _ PermissionsRepository = (*PostgresPermissionsRepository)(nil)

func (r *PostgresPermissionsRepository) MacrogroupGrants(ctx context.Context, userID int64) ([]int64, error) {
	return r.grantIDs(ctx,
		`SELECT macrogroup_id FROM user_macrogroup_permissions WHERE user_id = $1`, userID)
}

func (r *PostgresPermissionsRepository) PracticeGrants(ctx context.Context, userID int64) ([]int64, error) {
	return r.grantIDs(ctx,
		`SELECT practice_id FROM user_practice_permissions WHERE user_id = $1`, userID)
}

func (r *PostgresPermissionsRepository) grantIDs(ctx context.Context, query string, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grants: %w", err)
	}
	return ids, nil
}
