package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jgoulah/solarbill/internal/schedule"
)

const (
	DefaultLocation    = "America/Los_Angeles"
	DefaultTopicPrefix = "solarbill"
	DefaultMode        = "monthly"
	DefaultFormat      = "csv"

	// DateLayout is the layout of since and until
	DateLayout = "2006-01-02"
)

// Config holds the application configuration
type Config struct {
	Location  string              `yaml:"location,omitempty"` // IANA zone the meter's calendar lives in
	Usage     UsageConfig         `yaml:"usage"`
	Solar     SolarConfig         `yaml:"solar"`
	Since     string              `yaml:"since,omitempty"` // Inclusive, YYYY-MM-DD
	Until     string              `yaml:"until,omitempty"` // Exclusive, YYYY-MM-DD
	Report    ReportConfig        `yaml:"report,omitempty"`
	Schedules []schedule.Schedule `yaml:"schedules,omitempty"`
	MQTT      MQTTConfig          `yaml:"mqtt,omitempty"`
}

// UsageConfig selects the metered usage source. IntervalFile wins when both are set.
type UsageConfig struct {
	IntervalFile string             `yaml:"interval_file,omitempty"` // ESPI XML export
	Database     string             `yaml:"database,omitempty"`      // gridscraper SQLite database
	Service      string             `yaml:"service,omitempty"`       // Service to read from Database
	Rates        map[string]float64 `yaml:"rates,omitempty"`         // Cost per kWh by service
}

// SolarConfig holds the production model of each array
type SolarConfig struct {
	South ArrayConfig `yaml:"south"`
	West  ArrayConfig `yaml:"west"`
}

// ArrayConfig is one array's PVWatts export and the factor its output is scaled by
type ArrayConfig struct {
	File   string   `yaml:"file,omitempty"`
	Derate *float64 `yaml:"derate,omitempty"` // Defaults to 1.0
}

type ReportConfig struct {
	Mode   string `yaml:"mode,omitempty"`   // monthly or hourly
	Format string `yaml:"format,omitempty"` // csv or table
}

// MQTTConfig holds broker settings for publishing monthly bills
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // host:port, e.g. "homeassistant.local:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// Default returns a starting config with the built-in schedules spelled out
func Default() *Config {
	derate := 1.0
	return &Config{
		Location: DefaultLocation,
		Usage: UsageConfig{
			IntervalFile: "usage.xml",
		},
		Solar: SolarConfig{
			South: ArrayConfig{File: "pvwatts_hourly_south.csv", Derate: &derate},
			West:  ArrayConfig{File: "pvwatts_hourly_west.csv", Derate: &derate},
		},
		Report:    ReportConfig{Mode: DefaultMode, Format: DefaultFormat},
		Schedules: schedule.Defaults(),
		MQTT:      MQTTConfig{Broker: "localhost:1883", TopicPrefix: DefaultTopicPrefix},
	}
}

// GetLocation returns the configured zone, America/Los_Angeles if unset
func (c *Config) GetLocation() (*time.Location, error) {
	name := c.Location
	if name == "" {
		name = DefaultLocation
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading location %q: %w", name, err)
	}
	return loc, nil
}

// GetSince returns the start of the billing window in loc, zero if unset
func (c *Config) GetSince(loc *time.Location) (time.Time, error) {
	return parseDate("since", c.Since, loc)
}

// GetUntil returns the end of the billing window in loc, zero if unset
func (c *Config) GetUntil(loc *time.Location) (time.Time, error) {
	return parseDate("until", c.Until, loc)
}

func parseDate(field, value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", field, err)
	}
	return t, nil
}

// GetRate returns the rate for the specified service, or 0 if not set
func (c *Config) GetRate(service string) float64 {
	return c.Usage.Rates[service]
}

// GetDerate returns the array's derate, 1.0 if unset
func (a ArrayConfig) GetDerate() float64 {
	if a.Derate == nil {
		return 1.0
	}
	return *a.Derate
}

// GetSchedules returns the configured schedules, or the built-in E1 and E6
func (c *Config) GetSchedules() []schedule.Schedule {
	if len(c.Schedules) == 0 {
		return schedule.Defaults()
	}
	return c.Schedules
}

func (c *Config) GetMode() string {
	if c.Report.Mode == "" {
		return DefaultMode
	}
	return c.Report.Mode
}

func (c *Config) GetFormat() string {
	if c.Report.Format == "" {
		return DefaultFormat
	}
	return c.Report.Format
}

// GetTopicPrefix returns the MQTT topic prefix, "solarbill" if unset
func (c *Config) GetTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return DefaultTopicPrefix
	}
	return c.MQTT.TopicPrefix
}
