package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/francesco74/sonde/internal/domain"
	"github.com/francesco74/sonde/internal/repository"

	"go.uber.org/zap"
)

// dateLayout is the wire format for request dates.
const dateLayout = "2006-01-02"

// latestWindowDays is how far FetchLatest reaches back: today plus the 14
// preceding calendar days.
const latestWindowDays = 14

// SeriesService turns raw readings into per-sensor time series, enforcing
// the permission check on every call regardless of how old the caller's
// session snapshot is.
type SeriesService interface {
	// Fetch returns one ordered series per sensor of the named practice
	// that has at least one reading in [startDate, endDate]. A reversed
	// range yields an empty list, not an error.
	Fetch(ctx context.Context, practiceName, startDate, endDate string, perms domain.PermissionSet) ([]SensorSeries, error)

	// FetchLatest fixes the window to the trailing 15 calendar days and
	// wraps the series with the resolved dates, for the initial-load case.
	FetchLatest(ctx context.Context, practiceName string, perms domain.PermissionSet) (*LatestData, error)
}

// SensorSeries is one sensor's readings ordered by ascending timestamp.
type SensorSeries struct {
	Name   string  `json:"name"`
	Values []Point `json:"values"`
}

// Point is a single reading; the timestamp is epoch seconds.
type Point struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// LatestData is the initial-load payload of FetchLatest.
type LatestData struct {
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
	Series    []SensorSeries `json:"series"`
}

type seriesService struct {
	practices repository.PracticesRepository
	readings  repository.ReadingsRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewSeriesService(practices repository.PracticesRepository, readings repository.ReadingsRepository, logger *zap.Logger) SeriesService {
	return &seriesService{
		practices: practices,
		readings:  readings,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *seriesService) Fetch(ctx context.Context, practiceName, startDate, endDate string, perms domain.PermissionSet) ([]SensorSeries, error) {
	practice, err := s.practices.GetByName(ctx, practiceName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPracticeNotFound
		}
		return nil, fmt.Errorf("failed to resolve practice: %w", err)
	}

	if !perms.Covers(practice) {
		s.logger.Warn("Permission denied for practice",
			zap.String("practice", practiceName),
			zap.Int64("practice_id", practice.ID),
		)
		return nil, ErrPermissionDenied
	}

	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, ErrInvalidDate
	}

	rows, err := s.readings.ReadingsInRange(ctx, practice.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}

	return groupBySensor(rows), nil
}

func (s *seriesService) FetchLatest(ctx context.Context, practiceName string, perms domain.PermissionSet) (*LatestData, error) {
	end := s.now()
	start := end.AddDate(0, 0, -latestWindowDays)
	startDate := start.Format(dateLayout)
	endDate := end.Format(dateLayout)

	series, err := s.Fetch(ctx, practiceName, startDate, endDate, perms)
	if err != nil {
		return nil, err
	}
	return &LatestData{StartDate: startDate, EndDate: endDate, Series: series}, nil
}

// groupBySensor splits the timestamp-ordered rows into one series per
// sensor, keeping first-appearance order for the sensors and ascending
// timestamps within each series. Sensors with no readings in range never
// show up in rows, so they are omitted rather than emitted empty.
func groupBySensor(rows []domain.SensorReading) []SensorSeries {
	series := []SensorSeries{}
	index := map[string]int{}
	for _, row := range rows {
		i, ok := index[row.SensorName]
		if !ok {
			i = len(series)
			index[row.SensorName] = i
			series = append(series, SensorSeries{Name: row.SensorName, Values: []Point{}})
		}
		series[i].Values = append(series[i].Values, Point{
			Timestamp: row.Timestamp.Unix(),
			Value:     row.Value,
		})
	}
	return series
}
