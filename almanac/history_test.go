package almanac

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/devskill-org/suntimes/solar"
	_ "github.com/lib/pq"
)

// TestHistory_SaveAndLoad tests the save and load cycle against a real
// database.
func TestHistory_SaveAndLoad(t *testing.T) {
	// Skip if no database connection available
	connString := os.Getenv("TEST_POSTGRES_CONN")
	if connString == "" {
		t.Skip("Skipping test: TEST_POSTGRES_CONN not set")
	}

	db, err := sql.Open("postgres", connString)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sun_events (
			day timestamptz NOT NULL,
			latitude double precision NOT NULL,
			longitude double precision NOT NULL,
			sunrise timestamptz,
			sunset timestamptz,
			sunrise_outcome text NOT NULL,
			sunset_outcome text NOT NULL,
			PRIMARY KEY (day, latitude, longitude)
		)
	`)
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	// Clean up table before test
	if _, err := db.Exec("DELETE FROM sun_events"); err != nil {
		t.Fatalf("Failed to clean up table: %v", err)
	}

	almanac := New(quebecConfig(), testLogger())
	almanac.db = db

	ctx := context.Background()
	day := time.Date(2015, time.December, 18, 0, 0, 0, 0, time.UTC)

	result, err := solar.Calculate(solar.Request{
		Date:      day,
		Location:  solar.Location{Latitude: 46.805, Longitude: -71.2316},
		UTCOffset: -5,
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if err := almanac.saveHistory(ctx, day, result); err != nil {
		t.Fatalf("saveHistory failed: %v", err)
	}

	// Saving the same day again must replace, not duplicate
	if err := almanac.saveHistory(ctx, day, result); err != nil {
		t.Fatalf("saveHistory (second) failed: %v", err)
	}

	entries, err := almanac.loadHistory(ctx, day.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("loadHistory failed: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if !entry.Day.Equal(day) {
		t.Errorf("Expected day %v, got %v", day, entry.Day)
	}
	if entry.Sunrise == nil || entry.Sunset == nil {
		t.Fatalf("Expected both event times, got %+v", entry)
	}
	if !entry.Sunrise.Equal(result.Sunrise.Time) {
		t.Errorf("Expected sunrise %v, got %v", result.Sunrise.Time, entry.Sunrise)
	}
	if entry.SunriseOutcome != "occurs" || entry.SunsetOutcome != "occurs" {
		t.Errorf("Expected occurring outcomes, got %+v", entry)
	}
}

// TestHistory_PolarDay verifies that no-event days store null timestamps
func TestHistory_PolarDay(t *testing.T) {
	connString := os.Getenv("TEST_POSTGRES_CONN")
	if connString == "" {
		t.Skip("Skipping test: TEST_POSTGRES_CONN not set")
	}

	db, err := sql.Open("postgres", connString)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("DELETE FROM sun_events"); err != nil {
		t.Fatalf("Failed to clean up table: %v", err)
	}

	config := quebecConfig()
	config.Latitude = 78.2232
	config.Longitude = 15.6267
	config.UTCOffset = 2

	almanac := New(config, testLogger())
	almanac.db = db

	ctx := context.Background()
	day := time.Date(2015, time.June, 18, 0, 0, 0, 0, time.UTC)

	result, err := solar.Calculate(solar.Request{
		Date:      day,
		Location:  solar.Location{Latitude: config.Latitude, Longitude: config.Longitude},
		UTCOffset: config.UTCOffset,
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if err := almanac.saveHistory(ctx, day, result); err != nil {
		t.Fatalf("saveHistory failed: %v", err)
	}

	entries, err := almanac.loadHistory(ctx, day)
	if err != nil {
		t.Fatalf("loadHistory failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Sunrise != nil || entry.Sunset != nil {
		t.Errorf("Expected null event times for polar day, got %+v", entry)
	}
	if entry.SunriseOutcome != "polar day" || entry.SunsetOutcome != "polar day" {
		t.Errorf("Expected polar day outcomes, got %+v", entry)
	}
}

func TestHistory_NoDatabase(t *testing.T) {
	almanac := New(quebecConfig(), testLogger())

	day := time.Date(2015, time.December, 18, 0, 0, 0, 0, time.UTC)
	result := &solar.Result{}

	if err := almanac.saveHistory(context.Background(), day, result); err == nil {
		t.Error("Expected error when saving without a database")
	}
	if _, err := almanac.loadHistory(context.Background(), day); err == nil {
		t.Error("Expected error when loading without a database")
	}
}
