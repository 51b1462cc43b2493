// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Events  EventsConfig  `mapstructure:"events"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig selects and configures the article store.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	Migrate  bool   `mapstructure:"migrate"`
}

// FetchConfig governs how the source page is retrieved.
type FetchConfig struct {
	UserAgent              string `mapstructure:"user_agent"`
	TimeoutSeconds         int    `mapstructure:"timeout_seconds"`
	RespectRobots          bool   `mapstructure:"respect_robots"`
	Headless               bool   `mapstructure:"headless"`
	HeadlessTimeoutSeconds int    `mapstructure:"headless_timeout_seconds"`
}

// ArchiveConfig sets where raw scraped pages are kept.
type ArchiveConfig struct {
	Driver    string `mapstructure:"driver"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// EventsConfig holds metadata for scrape event notifications.
type EventsConfig struct {
	Driver    string `mapstructure:"driver"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Supported driver names.
const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverLocal    = "local"
	DriverGCS      = "gcs"
	DriverPubSub   = "pubsub"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("db.driver", DriverPostgres)
	v.SetDefault("db.dsn", "postgres://localhost:5432/newsArticles?sslmode=disable")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.migrate", true)
	v.SetDefault("fetch.user_agent", "news-scraper/0.1")
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("fetch.headless", false)
	v.SetDefault("fetch.headless_timeout_seconds", 45)
	v.SetDefault("archive.driver", DriverNone)
	v.SetDefault("archive.base_dir", "data/pages")
	v.SetDefault("archive.gcs_bucket", "")
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("events.driver", DriverNone)
	v.SetDefault("events.project_id", "")
	v.SetDefault("events.topic", "scrape-events")
	v.SetDefault("logging.development", true)
}

// bindLegacyEnv lets the bare PORT and connection string variables used by
// hosting platforms override the listen port and store DSN. The prefixed
// name wins when both are set.
func bindLegacyEnv(v *viper.Viper) error {
	if err := v.BindEnv("server.port", "NEWS_SERVER_PORT", "PORT"); err != nil {
		return fmt.Errorf("bind port env: %w", err)
	}
	if err := v.BindEnv("db.dsn", "NEWS_DB_DSN", "DATABASE_URL", "MONGODB_URI"); err != nil {
		return fmt.Errorf("bind dsn env: %w", err)
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.driver is postgres")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("db.driver %q is not supported", c.DB.Driver)
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.Headless && c.Fetch.HeadlessTimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.headless_timeout_seconds must be > 0 when headless is enabled")
	}
	switch c.Archive.Driver {
	case DriverNone, DriverMemory:
	case DriverLocal:
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir must be set when archive.driver is local")
		}
	case DriverGCS:
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set when archive.driver is gcs")
		}
	default:
		return fmt.Errorf("archive.driver %q is not supported", c.Archive.Driver)
	}
	switch c.Events.Driver {
	case DriverNone, DriverMemory:
	case DriverPubSub:
		if c.Events.ProjectID == "" || c.Events.Topic == "" {
			return fmt.Errorf("events.project_id and events.topic must be set when events.driver is pubsub")
		}
	default:
		return fmt.Errorf("events.driver %q is not supported", c.Events.Driver)
	}
	return nil
}

// FetchTimeout converts the fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// HeadlessTimeout converts the headless navigation timeout into a duration.
func (c Config) HeadlessTimeout() time.Duration {
	return time.Duration(c.Fetch.HeadlessTimeoutSeconds) * time.Second
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
