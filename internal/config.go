package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/roadmap/internal/persist"
)

// State backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	State    StateConfig       `yaml:"state"`
	Baseline BaselineConfig    `yaml:"baseline"`
	Stats    StatsConfig       `yaml:"stats"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.State.Validate(); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	if err := c.Stats.Validate(); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// LogFile, when set, receives logs through a rotating writer.
	LogFile string     `yaml:"log_file"`
	HTTP    HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StateConfig selects where the roadmap snapshot is kept.
//
// Path is a directory for the file backend and a database file for the
// sqlite backend. The memory backend ignores it.
type StateConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Key     string `yaml:"key"`
}

// Validate validates the state configuration.
func (c *StateConfig) Validate() error {
	if c.Key == "" {
		c.Key = persist.DefaultKey
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendFile, BackendSQLite, BackendMemory)),
		validation.Field(&c.Path, validation.When(c.Backend != BackendMemory, validation.Required)),
	)
}

// BaselineConfig points at the dataset used to seed and reset the roadmap.
// An empty Path uses the embedded dataset.
type BaselineConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// StatsConfig holds stats aggregation settings.
type StatsConfig struct {
	// Timezone names the IANA zone that decides what "today" means.
	Timezone string `yaml:"timezone"`
}

// Validate validates the stats configuration.
func (c *StatsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timezone, validation.Required, validation.By(func(any) error {
			if _, err := time.LoadLocation(c.Timezone); err != nil {
				return validation.NewError("validation_timezone", "must be a known IANA time zone")
			}
			return nil
		})),
	)
}

// Location resolves Timezone, falling back to UTC.
func (c *StatsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		State: StateConfig{
			Backend: BackendFile,
			Path:    "./data",
			Key:     persist.DefaultKey,
		},
		Stats: StatsConfig{
			Timezone: "UTC",
		},
	}
}
