package almanac

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/devskill-org/suntimes/solar"
)

// HistoryEntry is one recorded day of sun events
type HistoryEntry struct {
	Day            time.Time
	Latitude       float64
	Longitude      float64
	Sunrise        *time.Time
	Sunset         *time.Time
	SunriseOutcome string
	SunsetOutcome  string
}

// saveHistory persists the computed events for a day to the database.
// The row for (day, latitude, longitude) is replaced on recomputation.
func (a *Almanac) saveHistory(ctx context.Context, day time.Time, result *solar.Result) error {
	db := a.getDB()
	if db == nil {
		return fmt.Errorf("database connection not available")
	}

	config := a.GetConfig()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sun_events (
			day,
			latitude,
			longitude,
			sunrise,
			sunset,
			sunrise_outcome,
			sunset_outcome
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (day, latitude, longitude) DO UPDATE SET
			sunrise = EXCLUDED.sunrise,
			sunset = EXCLUDED.sunset,
			sunrise_outcome = EXCLUDED.sunrise_outcome,
			sunset_outcome = EXCLUDED.sunset_outcome
	`,
		day,
		config.Latitude,
		config.Longitude,
		eventTime(result.Sunrise),
		eventTime(result.Sunset),
		result.Sunrise.Outcome.String(),
		result.Sunset.Outcome.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sun events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	a.logger.Printf("History: saved sun events for %s at (%.4f, %.4f)",
		day.Format("2006-01-02"), config.Latitude, config.Longitude)
	return nil
}

// loadHistory loads recorded sun events for the configured location
// starting from the given day, ordered by day.
func (a *Almanac) loadHistory(ctx context.Context, since time.Time) ([]HistoryEntry, error) {
	db := a.getDB()
	if db == nil {
		return nil, fmt.Errorf("database connection not available")
	}

	config := a.GetConfig()

	rows, err := db.QueryContext(ctx, `
		SELECT
			day,
			latitude,
			longitude,
			sunrise,
			sunset,
			sunrise_outcome,
			sunset_outcome
		FROM sun_events
		WHERE day >= $1 AND latitude = $2 AND longitude = $3
		ORDER BY day ASC
	`, since, config.Latitude, config.Longitude)
	if err != nil {
		return nil, fmt.Errorf("failed to query sun events: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var sunrise, sunset sql.NullTime

		err := rows.Scan(
			&entry.Day,
			&entry.Latitude,
			&entry.Longitude,
			&sunrise,
			&sunset,
			&entry.SunriseOutcome,
			&entry.SunsetOutcome,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sun event row: %w", err)
		}

		if sunrise.Valid {
			t := sunrise.Time
			entry.Sunrise = &t
		}
		if sunset.Valid {
			t := sunset.Time
			entry.Sunset = &t
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sun event rows: %w", err)
	}

	a.logger.Printf("History: loaded %d sun event rows since %s", len(entries), since.Format("2006-01-02"))
	return entries, nil
}

// eventTime converts an event into a nullable timestamp for storage
func eventTime(e solar.Event) *time.Time {
	if !e.Occurs() {
		return nil
	}
	t := e.Time
	return &t
}
