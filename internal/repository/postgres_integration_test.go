//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/francesco74/sonde/internal/config"
	"github.com/francesco74/sonde/internal/database"
	"github.com/francesco74/sonde/internal/domain"
)

func getTestDB(t *testing.T) *sql.DB {
	cfg := &config.DatabaseConfig{
		Host:     testEnv("TEST_DB_HOST", "localhost"),
		Port:     testEnvInt("TEST_DB_PORT", 5432),
		User:     testEnv("TEST_DB_USER", "postgres"),
		Password: testEnv("TEST_DB_PASSWORD", "postgres"),
		Database: testEnv("TEST_DB_NAME", "sonde_test"),
		SSLMode:  testEnv("TEST_DB_SSLMODE", "disable"),
	}

	db, err := database.NewPostgres(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}

	if err := database.EnsureSchema(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return db
}

func testEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func testEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// seedTestPractice creates a macrogroup/practice pair with a unique name
// and returns cleanup.
func seedTestPractice(t *testing.T, db *sql.DB, name string) (practiceID int64, cleanup func()) {
	var mgID int64
	err := db.QueryRow(`INSERT INTO macrogroups (name) VALUES ($1) RETURNING id`, name+"-mg").Scan(&mgID)
	if err != nil {
		t.Fatalf("insert macrogroup failed: %v", err)
	}
	err = db.QueryRow(
		`INSERT INTO practices (name, description, latitude, longitude, macrogroup_id) VALUES ($1, '', 0, 0, $2) RETURNING id`,
		name, mgID,
	).Scan(&practiceID)
	if err != nil {
		t.Fatalf("insert practice failed: %v", err)
	}
	return practiceID, func() {
		db.Exec(`DELETE FROM sensor_readings WHERE sensor_id IN (SELECT id FROM sensors WHERE practice_id = $1)`, practiceID)
		db.Exec(`DELETE FROM sensors WHERE practice_id = $1`, practiceID)
		db.Exec(`DELETE FROM practices WHERE id = $1`, practiceID)
		db.Exec(`DELETE FROM macrogroups WHERE id = $1`, mgID)
	}
}

func TestPostgresReadings_RoundTrip(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	name := fmt.Sprintf("it-roundtrip-%d", time.Now().UnixNano())
	practiceID, cleanup := seedTestPractice(t, db, name)
	defer cleanup()

	repo := NewPostgresReadingsRepository(db)
	ctx := context.Background()

	tx, err := repo.BeginImport(ctx)
	if err != nil {
		t.Fatalf("BeginImport failed: %v", err)
	}
	defer tx.Rollback()

	sensorID, err := tx.GetOrCreateSensor(ctx, practiceID, "TEMP")
	if err != nil {
		t.Fatalf("GetOrCreateSensor failed: %v", err)
	}
	again, err := tx.GetOrCreateSensor(ctx, practiceID, "TEMP")
	if err != nil {
		t.Fatalf("GetOrCreateSensor (second call) failed: %v", err)
	}
	if sensorID != again {
		t.Fatalf("expected stable sensor id, got %d then %d", sensorID, again)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		if err := tx.UpsertReading(ctx, sensorID, ts, float64(20+i)); err != nil {
			t.Fatalf("UpsertReading failed: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	rows, err := repo.ReadingsInRange(ctx, practiceID, base, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("ReadingsInRange failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Timestamp.Before(rows[i-1].Timestamp) {
			t.Fatal("readings not ordered by timestamp")
		}
	}
	if rows[0].SensorName != "TEMP" || rows[0].Value != 20 {
		t.Fatalf("unexpected first reading: %+v", rows[0])
	}
}

func TestPostgresReadings_UpsertIsIdempotent(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	name := fmt.Sprintf("it-upsert-%d", time.Now().UnixNano())
	practiceID, cleanup := seedTestPractice(t, db, name)
	defer cleanup()

	repo := NewPostgresReadingsRepository(db)
	ctx := context.Background()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, value := range []float64{21.5, 22.0} {
		tx, err := repo.BeginImport(ctx)
		if err != nil {
			t.Fatalf("BeginImport failed: %v", err)
		}
		sensorID, err := tx.GetOrCreateSensor(ctx, practiceID, "TEMP")
		if err != nil {
			t.Fatalf("GetOrCreateSensor failed: %v", err)
		}
		if err := tx.UpsertReading(ctx, sensorID, ts, value); err != nil {
			t.Fatalf("UpsertReading failed: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	}

	rows, err := repo.ReadingsInRange(ctx, practiceID, ts, ts)
	if err != nil {
		t.Fatalf("ReadingsInRange failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single reading after re-upsert, got %d", len(rows))
	}
	if rows[0].Value != 22.0 {
		t.Fatalf("expected the later value to win, got %v", rows[0].Value)
	}
}

func TestPostgresReadings_RollbackDiscardsBatch(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	name := fmt.Sprintf("it-rollback-%d", time.Now().UnixNano())
	practiceID, cleanup := seedTestPractice(t, db, name)
	defer cleanup()

	repo := NewPostgresReadingsRepository(db)
	ctx := context.Background()

	tx, err := repo.BeginImport(ctx)
	if err != nil {
		t.Fatalf("BeginImport failed: %v", err)
	}
	sensorID, err := tx.GetOrCreateSensor(ctx, practiceID, "TEMP")
	if err != nil {
		t.Fatalf("GetOrCreateSensor failed: %v", err)
	}
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := tx.UpsertReading(ctx, sensorID, ts, 21.5); err != nil {
		t.Fatalf("UpsertReading failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	rows, err := repo.ReadingsInRange(ctx, practiceID, ts, ts)
	if err != nil {
		t.Fatalf("ReadingsInRange failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no readings after rollback, got %d", len(rows))
	}
}

func TestPostgresUsers_CreateAndGet(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresUsersRepository(db)
	ctx := context.Background()
	username := fmt.Sprintf("it-user-%d", time.Now().UnixNano())
	defer db.Exec(`DELETE FROM users WHERE username = $1`, username)

	id, err := repo.Create(ctx, username, "hash")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	u, err := repo.GetByUsername(ctx, username)
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if u.ID != id || u.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", u)
	}

	if _, err := repo.Create(ctx, username, "other"); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if _, err := repo.GetByUsername(ctx, username+"-missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresPractices_ListAccessible(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	name := fmt.Sprintf("it-list-%d", time.Now().UnixNano())
	practiceID, cleanup := seedTestPractice(t, db, name)
	defer cleanup()

	repo := NewPostgresPracticesRepository(db)
	ctx := context.Background()

	rows, err := repo.ListAccessible(ctx, domain.PermissionSet{Practices: []int64{practiceID}})
	if err != nil {
		t.Fatalf("ListAccessible failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != name {
		t.Fatalf("expected the seeded practice, got %+v", rows)
	}
	if rows[0].MacrogroupName != name+"-mg" {
		t.Fatalf("unexpected macrogroup name: %q", rows[0].MacrogroupName)
	}
}
