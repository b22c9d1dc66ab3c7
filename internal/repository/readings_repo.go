package repository

import (
	"context"
	"time"

	"github.com/francesco74/sonde/internal/domain"
)

// ReadingsRepository provides the time-window read path and the
// transactional write path used by the importer.
type ReadingsRepository interface {
	// ReadingsInRange returns every reading of the practice's sensors
	// with start <= timestamp <= end, joined with the sensor name and
	// ordered by ascending timestamp. A reversed range simply matches
	// nothing.
	ReadingsInRange(ctx context.Context, practiceID int64, start, end time.Time) ([]domain.SensorReading, error)

	// BeginImport opens a batch. Everything written through the returned
	// ImportTx becomes visible atomically on Commit; Rollback discards
	// the whole batch.
	BeginImport(ctx context.Context) (ImportTx, error)
}

// ImportTx is one importer batch. Rollback after Commit is a no-op, so
// callers can keep it deferred.
type ImportTx interface {
	// GetOrCreateSensor resolves the sensor id for (practiceID, name),
	// creating the sensor if it does not exist. Calling it repeatedly
	// with the same pair returns the same id.
	GetOrCreateSensor(ctx context.Context, practiceID int64, name string) (int64, error)

	// UpsertReading writes one reading. A reading already present for
	// (sensorID, timestamp) gets its value replaced.
	UpsertReading(ctx context.Context, sensorID int64, timestamp time.Time, value float64) error

	Commit() error
	Rollback() error
}
