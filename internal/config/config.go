package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single ICS subscription source feeding the demo
// calendar.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the demo Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as the host display zone; day
	// buckets are keyed by this zone's start-of-day.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is the first day of the week in calendar views:
	// "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for
	// periodic ICS refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonYears bounds the page window to today ± this many years.
	HorizonYears int `yaml:"horizon_years" json:"horizon_years"`

	// MaxVisibleEvents is the per-day cell event cap before the overflow
	// label takes over.
	MaxVisibleEvents int `yaml:"max_visible_events" json:"max_visible_events"`

	// SortedMonthView selects continuity-packed event ordering in month
	// cells; false keeps plain event-list order.
	SortedMonthView *bool `yaml:"sorted_month_view" json:"sorted_month_view"`

	// ShowAdjacentMonths fills leading/trailing month-grid cells with
	// adjacent-month dates instead of blanks.
	ShowAdjacentMonths *bool `yaml:"show_adjacent_months" json:"show_adjacent_months"`

	// MoreLabel is the overflow label template; "{moreCount}" is replaced
	// with the number of hidden events.
	MoreLabel string `yaml:"more_label" json:"more_label"`

	// CacheRadius is the number of pages on each side of the current page
	// kept materialized.
	CacheRadius int `yaml:"cache_radius" json:"cache_radius"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	yes := true
	return &Config{
		Listen:             "127.0.0.1:8080",
		Timezone:           "Local",
		WeekStart:          "sunday",
		RefreshCron:        "*/15 * * * *",
		HorizonYears:       5,
		MaxVisibleEvents:   3,
		SortedMonthView:    &yes,
		ShowAdjacentMonths: &yes,
		MoreLabel:          "{moreCount} More",
		CacheRadius:        3,
		ICS:                []ICSConfig{},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	switch c.WeekStart {
	case "sunday", "monday":
	default:
		c.WeekStart = "sunday"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HorizonYears <= 0 {
		c.HorizonYears = 5
	}
	if c.MaxVisibleEvents <= 0 {
		c.MaxVisibleEvents = 3
	}
	if c.SortedMonthView == nil {
		yes := true
		c.SortedMonthView = &yes
	}
	if c.ShowAdjacentMonths == nil {
		yes := true
		c.ShowAdjacentMonths = &yes
	}
	if c.MoreLabel == "" {
		c.MoreLabel = "{moreCount} More"
	}
	if c.CacheRadius <= 0 {
		c.CacheRadius = 3
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// WeekStartDay maps the configured week start name to a time.Weekday.
func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// Location resolves the configured timezone, falling back to time.Local on
// unknown names.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (creating
// the parent directory) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg alongside the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path atomically (temp file + rename)
// with 0600 permissions, creating the parent directory as needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".bigcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
