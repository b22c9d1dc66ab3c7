package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/francesco74/sonde/internal/domain"
)

// MemoryReadingsRepository is an in-memory ReadingsRepository. Import
// batches stage their writes and only become visible on Commit, matching
// the transactional contract of the Postgres implementation.
type MemoryReadingsRepository struct {
	mu       sync.RWMutex
	nextID   int64
	sensors  []domain.Sensor
	readings map[int64]map[int64]float64 // sensor id -> unix seconds -> value
}

func NewMemoryReadingsRepository() *MemoryReadingsRepository {
	return &MemoryReadingsRepository{
		nextID:   1,
		readings: map[int64]map[int64]float64{},
	}
}

var _ ReadingsRepository = (*MemoryReadingsRepository)(nil)

func (r *MemoryReadingsRepository) ReadingsInRange(ctx context.Context, practiceID int64, start, end time.Time) ([]domain.SensorReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.SensorReading
	for _, s := range r.sensors {
		if s.PracticeID != practiceID {
			continue
		}
		for unix, value := range r.readings[s.ID] {
			ts := time.Unix(unix, 0).UTC()
			if ts.Before(start) || ts.After(end) {
				continue
			}
			out = append(out, domain.SensorReading{SensorName: s.Name, Timestamp: ts, Value: value})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// SensorCount reports how many sensors exist for a practice (test helper).
func (r *MemoryReadingsRepository) SensorCount(practiceID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.sensors {
		if s.PracticeID == practiceID {
			n++
		}
	}
	return n
}

func (r *MemoryReadingsRepository) BeginImport(ctx context.Context) (ImportTx, error) {
	return &memoryImportTx{
		repo:     r,
		readings: map[int64]map[int64]float64{},
	}, nil
}

type memoryImportTx struct {
	repo     *MemoryReadingsRepository
	sensors  []domain.Sensor
	readings map[int64]map[int64]float64
	done     bool
}

func (t *memoryImportTx) GetOrCreateSensor(ctx context.Context, practiceID int64, name string) (int64, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	for _, s := range t.repo.sensors {
		if s.PracticeID == practiceID && s.Name == name {
			return s.ID, nil
		}
	}
	for _, s := range t.sensors {
		if s.PracticeID == practiceID && s.Name == name {
			return s.ID, nil
		}
	}
	id := t.repo.nextID
	t.repo.nextID++
	t.sensors = append(t.sensors, domain.Sensor{ID: id, PracticeID: practiceID, Name: name})
	return id, nil
}

func (t *memoryImportTx) UpsertReading(ctx context.Context, sensorID int64, timestamp time.Time, value float64) error {
	if t.readings[sensorID] == nil {
		t.readings[sensorID] = map[int64]float64{}
	}
	t.readings[sensorID][timestamp.Unix()] = value
	return nil
}

func (t *memoryImportTx) Commit() error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	t.repo.sensors = append(t.repo.sensors, t.sensors...)
	for sensorID, byTS := range t.readings {
		if t.repo.readings[sensorID] == nil {
			t.repo.readings[sensorID] = map[int64]float64{}
		}
		for unix, value := range byTS {
			t.repo.readings[sensorID][unix] = value
		}
	}
	t.done = true
	return nil
}

func (t *memoryImportTx) Rollback() error {
	if t.done {
		return nil
	}
	t.sensors = nil
	t.readings = map[int64]map[int64]float64{}
	return nil
}
