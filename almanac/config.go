// Package almanac provides a long-running sun almanac service: it keeps
// the current day's sunrise/sunset times computed for a configured
// location, serves them over HTTP and WebSocket, and optionally records
// them to PostgreSQL.
package almanac

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Config represents the configuration for the almanac service
type Config struct {
	// Observer location
	Latitude  float64 `json:"latitude"`  // Latitude in decimal degrees
	Longitude float64 `json:"longitude"` // Longitude in decimal degrees

	// Calculation settings
	UTCOffset float64 `json:"utc_offset"` // Hours to add to UTC for local civil time
	Zenith    float64 `json:"zenith"`     // Zenith angle in degrees (0 = apparent sunrise/sunset)

	// Service settings
	RefreshInterval   time.Duration `json:"refresh_interval"`   // How often to recompute the current day
	BroadcastInterval time.Duration `json:"broadcast_interval"` // How often to push updates to WebSocket clients
	ServerPort        int           `json:"server_port"`        // Port for the HTTP/WebSocket server (0 = disabled)
	DryRun            bool          `json:"dry_run"`            // Log history writes without touching the database

	// History persistence
	PostgresConnString string `json:"postgres_conn_string"` // PostgreSQL connection string ("" = history disabled)
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Latitude:           56.9496, // Riga, Latvia
		Longitude:          24.1052, // Riga, Latvia
		UTCOffset:          0,
		Zenith:             0, // apparent sunrise/sunset
		RefreshInterval:    15 * time.Minute,
		BroadcastInterval:  5 * time.Second,
		ServerPort:         8080,
		DryRun:             false,
		PostgresConnString: "",
	}
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	config := DefaultConfig()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config JSON: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a JSON file
func (c *Config) SaveConfig(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config JSON: %w", err)
	}

	return nil
}

// ApplyEnv applies environment variable overrides to the configuration.
// POSTGRES_CONN_STRING takes precedence over the config file so that
// credentials can be kept out of it.
func (c *Config) ApplyEnv() {
	if conn := os.Getenv("POSTGRES_CONN_STRING"); conn != "" {
		c.PostgresConnString = conn
	}
}

// MarshalJSON implements custom JSON marshaling to handle durations
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		RefreshInterval   string `json:"refresh_interval"`
		BroadcastInterval string `json:"broadcast_interval"`
	}{
		Alias:             (*Alias)(c),
		RefreshInterval:   c.RefreshInterval.String(),
		BroadcastInterval: c.BroadcastInterval.String(),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling to handle durations
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := &struct {
		*Alias
		RefreshInterval   string `json:"refresh_interval"`
		BroadcastInterval string `json:"broadcast_interval"`
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if aux.RefreshInterval != "" {
		if c.RefreshInterval, err = time.ParseDuration(aux.RefreshInterval); err != nil {
			return fmt.Errorf("invalid refresh_interval: %w", err)
		}
	}

	if aux.BroadcastInterval != "" {
		if c.BroadcastInterval, err = time.ParseDuration(aux.BroadcastInterval); err != nil {
			return fmt.Errorf("invalid broadcast_interval: %w", err)
		}
	}

	return nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %f", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %f", c.Longitude)
	}
	if c.UTCOffset < -12 || c.UTCOffset > 14 {
		return fmt.Errorf("utc_offset must be between -12 and 14, got %f", c.UTCOffset)
	}
	if c.Zenith < 0 || c.Zenith > 180 {
		return fmt.Errorf("zenith must be between 0 and 180, got %f", c.Zenith)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %v", c.RefreshInterval)
	}
	if c.BroadcastInterval <= 0 {
		return fmt.Errorf("broadcast_interval must be positive, got %v", c.BroadcastInterval)
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port must be between 0 and 65535, got %d", c.ServerPort)
	}
	return nil
}
