package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/francesco74/sonde/internal/domain"
)

// PostgresReadingsRepository is the Postgres implementation of
// ReadingsRepository.
type PostgresReadingsRepository struct {
	db *sql.DB
}

func NewPostgresReadingsRepository(db *sql.DB) *PostgresReadingsRepository {
	return &PostgresReadingsRepository{db: db}
}

var _ ReadingsRepository = (*PostgresReadingsRepository)(nil)

func (r *PostgresReadingsRepository) ReadingsInRange(ctx context.Context, practiceID int64, start, end time.Time) ([]domain.SensorReading, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.name, sr.timestamp, sr.value
		   FROM sensor_readings sr
		   JOIN sensors s ON sr.sensor_id = s.id
		  WHERE s.practice_id = $1 AND sr.timestamp BETWEEN $2 AND $3
		  ORDER BY sr.timestamp`,
		practiceID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var out []domain.SensorReading
	for rows.Next() {
		var sr domain.SensorReading
		if err := rows.Scan(&sr.SensorName, &sr.Timestamp, &sr.Value); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read readings: %w", err)
	}
	return out, nil
}

func (r *PostgresReadingsRepository) BeginImport(ctx context.Context) (ImportTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin import batch: %w", err)
	}
	return &postgresImportTx{tx: tx}, nil
}

type postgresImportTx struct {
	tx *sql.Tx
}

func (t *postgresImportTx) GetOrCreateSensor(ctx context.Context, practiceID int64, name string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM sensors WHERE practice_id = $1 AND name = $2`,
		practiceID, name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up sensor: %w", err)
	}

	err = t.tx.QueryRowContext(ctx,
		`INSERT INTO sensors (practice_id, name) VALUES ($1, $2) RETURNING id`,
		practiceID, name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create sensor: %w", err)
	}
	return id, nil
}

func (t *postgresImportTx) UpsertReading(ctx context.Context, sensorID int64, timestamp time.Time, value float64) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO sensor_readings (sensor_id, timestamp, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (sensor_id, timestamp) DO UPDATE SET value = EXCLUDED.value`,
		sensorID, timestamp, value,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reading: %w", err)
	}
	return nil
}

func (t *postgresImportTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import batch: %w", err)
	}
	return nil
}

func (t *postgresImportTx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back import batch: %w", err)
	}
	return nil
}
