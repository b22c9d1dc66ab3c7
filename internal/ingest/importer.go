package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/francesco74/sonde/internal/domain"
	"github.com/francesco74/sonde/internal/repository"

	"go.uber.org/zap"
)

// ErrPracticeNotFound means the named practice does not exist; nothing is
// written in that case.
var ErrPracticeNotFound = errors.New("practice not found")

// Importer writes a parsed datalogger file into the store. The whole
// batch is one transaction: a store failure rolls everything back, while
// per-row and per-value parse failures are logged and skipped.
type Importer struct {
	practices repository.PracticesRepository
	readings  repository.ReadingsRepository
	logger    *zap.Logger
}

func NewImporter(practices repository.PracticesRepository, readings repository.ReadingsRepository, logger *zap.Logger) *Importer {
	return &Importer{practices: practices, readings: readings, logger: logger}
}

// Stats summarize one import run.
type Stats struct {
	RowsProcessed   int
	RowsSkipped     int
	ValuesSkipped   int
	ReadingsWritten int
}

// Import resolves the practice, then upserts every reading of the file in
// a single transaction. Sensor identities are get-or-create per
// (practice, name), so repeated imports never duplicate sensors; the
// uniqueness constraint on (sensor_id, timestamp) makes repeated imports
// of the same file idempotent for readings too.
func (im *Importer) Import(ctx context.Context, practiceName string, f *File) (*Stats, error) {
	practice, err := im.practices.GetByName(ctx, practiceName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPracticeNotFound, practiceName)
		}
		return nil, fmt.Errorf("failed to resolve practice: %w", err)
	}
	im.logger.Info("Resolved practice",
		zap.String("practice", practiceName),
		zap.Int64("practice_id", practice.ID),
	)

	stats := &Stats{}
	if len(f.Rows) == 0 {
		im.logger.Warn("No readings to insert")
		return stats, nil
	}

	tx, err := im.readings.BeginImport(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// The battery voltage is recorded under the synthetic VBATT sensor,
	// timestamped with the first data row. If that timestamp does not
	// parse, the voltage is dropped with a log line.
	firstTS, firstErr := time.Parse(TimestampLayout, f.Rows[0].Fields[DateColumn])
	if f.VBatt != nil {
		if firstErr != nil {
			im.logger.Error("Could not determine a timestamp for VBATT",
				zap.String("raw", f.Rows[0].Fields[DateColumn]),
			)
		} else {
			sensorID, err := tx.GetOrCreateSensor(ctx, practice.ID, domain.BatterySensorName)
			if err != nil {
				return nil, err
			}
			if err := tx.UpsertReading(ctx, sensorID, firstTS, *f.VBatt); err != nil {
				return nil, err
			}
			stats.ReadingsWritten++
			im.logger.Info("Inserted VBATT reading", zap.Time("timestamp", firstTS))
		}
	}

	for _, row := range f.Rows {
		ts, err := time.Parse(TimestampLayout, row.Fields[DateColumn])
		if err != nil {
			im.logger.Warn("Skipping row with invalid or missing date",
				zap.String("raw", row.Fields[DateColumn]),
			)
			stats.RowsSkipped++
			continue
		}
		stats.RowsProcessed++

		for _, name := range f.Columns {
			if name == DateColumn {
				continue
			}
			raw := row.Fields[name]
			if raw == "" {
				continue
			}
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				im.logger.Warn("Skipping non-numeric value",
					zap.String("sensor", name),
					zap.String("raw", raw),
				)
				stats.ValuesSkipped++
				continue
			}

			sensorID, err := tx.GetOrCreateSensor(ctx, practice.ID, name)
			if err != nil {
				return nil, err
			}
			if err := tx.UpsertReading(ctx, sensorID, ts, value); err != nil {
				return nil, err
			}
			stats.ReadingsWritten++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	im.logger.Info("Data import completed",
		zap.Int("rows_processed", stats.RowsProcessed),
		zap.Int("rows_skipped", stats.RowsSkipped),
		zap.Int("values_skipped", stats.ValuesSkipped),
		zap.Int("readings_written", stats.ReadingsWritten),
	)
	return stats, nil
}
