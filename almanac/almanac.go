package almanac

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/devskill-org/suntimes/solar"
	_ "github.com/lib/pq"
)

// Almanac keeps the current day's sunrise/sunset times computed for the
// configured location and exposes them to the web server and history
// recorder.
type Almanac struct {
	// Configuration
	config *Config

	// State
	today      *solar.Result
	todayDate  time.Time
	computedAt time.Time
	isRunning  bool
	stopChan   chan struct{}
	mu         sync.RWMutex

	// Web server
	webServer *WebServer

	// Database connection
	db *sql.DB

	// Logging
	logger *log.Logger

	// Test hook for the clock
	nowFunc func() time.Time
}

// Status is a snapshot of the service state
type Status struct {
	IsRunning  bool       `json:"is_running"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	UTCOffset  float64    `json:"utc_offset"`
	ComputedAt *time.Time `json:"computed_at,omitempty"`
}

// SolarPosition is the sun's instantaneous position above the observer,
// in degrees.
type SolarPosition struct {
	Azimuth  float64 `json:"azimuth"`
	Altitude float64 `json:"altitude"`
}

// New creates a new almanac service instance
func New(config *Config, logger *log.Logger) *Almanac {
	if logger == nil {
		logger = log.Default()
	}

	return &Almanac{
		config:   config,
		stopChan: make(chan struct{}),
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// NewWithServer creates a new almanac service with the web server attached
func NewWithServer(config *Config, logger *log.Logger) *Almanac {
	a := New(config, logger)
	a.webServer = NewWebServer(a, config.ServerPort)
	return a
}

// GetConfig returns the current configuration
func (a *Almanac) GetConfig() *Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// GetStatus returns a snapshot of the service state
func (a *Almanac) GetStatus() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	status := Status{
		IsRunning: a.isRunning,
		Latitude:  a.config.Latitude,
		Longitude: a.config.Longitude,
		UTCOffset: a.config.UTCOffset,
	}
	if !a.computedAt.IsZero() {
		computedAt := a.computedAt
		status.ComputedAt = &computedAt
	}
	return status
}

// Today returns the cached result for the current day, or nil when no
// computation has completed yet.
func (a *Almanac) Today() (*solar.Result, time.Time) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.today, a.todayDate
}

// Position returns the sun's azimuth and altitude for the configured
// location at the given instant.
func (a *Almanac) Position(at time.Time) SolarPosition {
	config := a.GetConfig()
	pos := suncalc.GetPosition(at, config.Latitude, config.Longitude)
	return SolarPosition{
		Azimuth:  pos.Azimuth * 180 / math.Pi,
		Altitude: pos.Altitude * 180 / math.Pi,
	}
}

// IsDaylight reports whether the sun is up at the configured location
// at the given instant.
func (a *Almanac) IsDaylight(at time.Time) bool {
	config := a.GetConfig()
	sunTimes := suncalc.GetTimes(at, config.Latitude, config.Longitude)
	sunrise := sunTimes["sunrise"].Value
	sunset := sunTimes["sunset"].Value
	return !at.Before(sunrise) && !at.After(sunset)
}

// Start begins the periodic refresh task and the web server, and blocks
// until the context is cancelled or Stop is called.
func (a *Almanac) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.isRunning {
		a.mu.Unlock()
		return fmt.Errorf("almanac is already running")
	}
	a.isRunning = true
	a.stopChan = make(chan struct{})
	a.mu.Unlock()

	if a.config.DryRun {
		a.logger.Printf("DRY-RUN MODE ENABLED: history writes will be simulated only")
	}

	if a.config.PostgresConnString != "" && !a.config.DryRun {
		db, err := sql.Open("postgres", a.config.PostgresConnString)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		a.mu.Lock()
		a.db = db
		a.mu.Unlock()
		defer db.Close()
	}

	if a.webServer != nil {
		if err := a.webServer.Start(); err != nil {
			return fmt.Errorf("failed to start web server: %w", err)
		}
		a.logger.Printf("Web server started on port %d", a.config.ServerPort)
	}

	a.runPeriodic(ctx, "daily-refresh", a.config.RefreshInterval, func() {
		a.refresh(ctx)
	})

	// Shut the web server down on every exit path, including context
	// cancellation, not just an explicit Stop.
	if a.webServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.webServer.Stop(shutdownCtx); err != nil {
			a.logger.Printf("Web server shutdown error: %v", err)
		}
	}

	a.mu.Lock()
	a.isRunning = false
	a.mu.Unlock()

	return ctx.Err()
}

// Stop signals the service to shut down; Start tears the web server
// down as it returns.
func (a *Almanac) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isRunning {
		return
	}
	close(a.stopChan)
}

// runPeriodic runs fn immediately and then on every interval tick until
// the context is cancelled or the stop channel closes.
func (a *Almanac) runPeriodic(ctx context.Context, name string, interval time.Duration, fn func()) {
	a.logger.Printf("[%s] Started with interval: %v", name, interval)
	fn()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn()
		case <-ctx.Done():
			a.logger.Printf("[%s] Stopped due to context cancellation", name)
			return
		case <-a.stopChan:
			a.logger.Printf("[%s] Stopped due to stop signal", name)
			return
		}
	}
}

// refresh recomputes the current day's events and records them
func (a *Almanac) refresh(ctx context.Context) {
	config := a.GetConfig()
	now := a.nowFunc()

	req := solar.Request{
		Date:      now,
		Location:  solar.Location{Latitude: config.Latitude, Longitude: config.Longitude},
		Zenith:    config.Zenith,
		UTCOffset: config.UTCOffset,
	}

	result, err := solar.Calculate(req)
	if err != nil {
		a.logger.Printf("Refresh failed: %v", err)
		return
	}

	a.mu.Lock()
	a.today = result
	a.todayDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	a.computedAt = now
	a.mu.Unlock()

	a.logger.Printf("Refreshed sun times for %s: sunrise=%s sunset=%s",
		now.Format("2006-01-02"), describeEvent(result.Sunrise), describeEvent(result.Sunset))

	if config.DryRun {
		a.logger.Printf("History [DRY-RUN]: would save sun times for %s", now.Format("2006-01-02"))
		return
	}
	if a.getDB() != nil {
		if err := a.saveHistory(ctx, a.todayDate, result); err != nil {
			a.logger.Printf("History: failed to save sun times: %v", err)
		}
	}
}

func (a *Almanac) getDB() *sql.DB {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.db
}

// describeEvent formats an event for log output
func describeEvent(e solar.Event) string {
	if !e.Occurs() {
		return e.Outcome.String()
	}
	return e.Time.Format("15:04:05")
}
