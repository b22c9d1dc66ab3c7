package domain

import "time"

// BatterySensorName is the synthetic sensor a datalogger battery voltage
// is recorded under.
const BatterySensorName = "VBATT"

// Sensor is a named measurement channel. Its identity is scoped to one
// practice: (practice_id, name) is unique, the name alone is not.
type Sensor struct {
	ID         int64
	PracticeID int64
	Name       string
}

// Reading is a single timestamped value from one sensor.
type Reading struct {
	SensorID  int64
	Timestamp time.Time
	Value     float64
}

// SensorReading is a reading joined with its sensor name, as returned by
// the time-window query.
type SensorReading struct {
	SensorName string
	Timestamp  time.Time
	Value      float64
}
