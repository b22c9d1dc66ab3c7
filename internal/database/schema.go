package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements bootstrap the sonde data model. Every statement is
// idempotent so both the server and the importer can run them at startup.
//
// The UNIQUE constraint on (sensor_id, timestamp) makes re-importing a
// datalogger file overwrite readings instead of duplicating them.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            SERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS macrogroups (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS practices (
		id            SERIAL PRIMARY KEY,
		name          TEXT NOT NULL UNIQUE,
		description   TEXT NOT NULL DEFAULT '',
		latitude      DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude     DOUBLE PRECISION NOT NULL DEFAULT 0,
		macrogroup_id INTEGER NOT NULL REFERENCES macrogroups (id)
	)`,
	`CREATE TABLE IF NOT EXISTS sensors (
		id          SERIAL PRIMARY KEY,
		practice_id INTEGER NOT NULL REFERENCES practices (id),
		name        TEXT NOT NULL,
		UNIQUE (practice_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS sensor_readings (
		sensor_id INTEGER NOT NULL REFERENCES sensors (id),
		timestamp TIMESTAMPTZ NOT NULL,
		value     DOUBLE PRECISION NOT NULL,
		UNIQUE (sensor_id, timestamp)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_readings_sensor_ts
		ON sensor_readings (sensor_id, timestamp)`,
	`CREATE TABLE IF NOT EXISTS user_macrogroup_permissions (
		user_id       INTEGER NOT NULL REFERENCES users (id),
		macrogroup_id INTEGER NOT NULL REFERENCES macrogroups (id),
		UNIQUE (user_id, macrogroup_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_practice_permissions (
		user_id     INTEGER NOT NULL REFERENCES users (id),
		practice_id INTEGER NOT NULL REFERENCES practices (id),
		UNIQUE (user_id, practice_id)
	)`,
}

// EnsureSchema creates the tables the sonde services need if they do not
// exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
