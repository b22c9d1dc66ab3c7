package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/francesco74/sonde/internal/domain"

	"github.com/lib/pq"
)

// PostgresPracticesRepository is the Postgres implementation of
// PracticesRepository.
type PostgresPracticesRepository struct {
	db *sql.DB
}

func NewPostgresPracticesRepository(db *sql.DB) *PostgresPracticesRepository {
	return &PostgresPracticesRepository{db: db}
}

var _ PracticesRepository = (*PostgresPracticesRepository)(nil)

func (r *PostgresPracticesRepository) GetByName(ctx context.Context, name string) (*domain.Practice, error) {
	var p domain.Practice
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, latitude, longitude, macrogroup_id
		   FROM practices
		  WHERE name = $1`,
		name,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Latitude, &p.Longitude, &p.MacrogroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get practice by name: %w", err)
	}
	return &p, nil
}

// ListAccessible issues one fixed query; the OR of the two grant
// mechanisms is expressed with array parameters instead of string-built
// IN lists.
func (r *PostgresPracticesRepository) ListAccessible(ctx context.Context, perms domain.PermissionSet) ([]domain.PracticeWithMacrogroup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.name,
		        p.id, p.name, p.description, p.latitude, p.longitude, p.macrogroup_id
		   FROM practices p
		   JOIN macrogroups m ON p.macrogroup_id = m.id
		  WHERE p.macrogroup_id = ANY($1) OR p.id = ANY($2)
		  ORDER BY m.name, p.name`,
		pq.Array(perms.Macrogroups), pq.Array(perms.Practices),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accessible practices: %w", err)
	}
	defer rows.Close()

	var out []domain.PracticeWithMacrogroup
	for rows.Next() {
		var p domain.PracticeWithMacrogroup
		if err := rows.Scan(&p.MacrogroupName,
			&p.ID, &p.Name, &p.Description, &p.Latitude, &p.Longitude, &p.MacrogroupID); err != nil {
			return nil, fmt.Errorf("failed to scan practice: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read practices: %w", err)
	}
	return out, nil
}
