package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Fatalf("expected default port 3000, got %d", cfg.Server.Port)
	}
	if cfg.DB.Driver != DriverPostgres || !strings.Contains(cfg.DB.DSN, "newsArticles") {
		t.Fatalf("unexpected db defaults: %+v", cfg.DB)
	}
	if got := cfg.FetchTimeout(); got != 30*time.Second {
		t.Fatalf("expected fetch timeout 30s, got %v", got)
	}
	if cfg.Archive.Driver != DriverNone || cfg.Events.Driver != DriverNone {
		t.Fatalf("expected archive and events to be disabled by default")
	}
	if cfg.Events.Topic != "scrape-events" || cfg.Archive.Prefix != "pages" {
		t.Fatalf("unexpected defaults: %+v %+v", cfg.Events, cfg.Archive)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
db:
  driver: memory
  migrate: false
fetch:
  user_agent: real-agent
  timeout_seconds: 12
  respect_robots: true
  headless: true
  headless_timeout_seconds: 20
archive:
  driver: gcs
  gcs_bucket: bucket
  prefix: raw
events:
  driver: pubsub
  project_id: news-project
  topic: scrapes
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Addr() != ":9090" {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.DB.Driver != DriverMemory || cfg.DB.Migrate {
		t.Fatalf("expected db overrides to apply: %+v", cfg.DB)
	}
	if cfg.Fetch.UserAgent != "real-agent" || !cfg.Fetch.RespectRobots || !cfg.Fetch.Headless {
		t.Fatalf("expected fetch overrides to apply: %+v", cfg.Fetch)
	}
	if got := cfg.HeadlessTimeout(); got != 20*time.Second {
		t.Fatalf("expected headless timeout 20s, got %v", got)
	}
	if cfg.Archive.GCSBucket != "bucket" || cfg.Archive.Prefix != "raw" {
		t.Fatalf("expected archive overrides to apply: %+v", cfg.Archive)
	}
	if cfg.Events.ProjectID != "news-project" || cfg.Events.Topic != "scrapes" {
		t.Fatalf("expected events overrides to apply: %+v", cfg.Events)
	}
	if cfg.Logging.Development {
		t.Fatalf("expected production logging")
	}
}

func TestLoadLegacyEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8123")
	t.Setenv("MONGODB_URI", "postgres://db.internal:5432/news")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8123 {
		t.Fatalf("expected PORT override, got %d", cfg.Server.Port)
	}
	if cfg.DB.DSN != "postgres://db.internal:5432/news" {
		t.Fatalf("expected MONGODB_URI override, got %q", cfg.DB.DSN)
	}

	t.Setenv("NEWS_SERVER_PORT", "9001")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Fatalf("expected prefixed env to win, got %d", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:  ServerConfig{Port: 3000},
		DB:      DBConfig{Driver: DriverMemory},
		Fetch:   FetchConfig{TimeoutSeconds: 30},
		Archive: ArchiveConfig{Driver: DriverNone},
		Events:  EventsConfig{Driver: DriverNone},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "unknown db driver",
			cfg: func() Config {
				c := base
				c.DB.Driver = "mongo"
				return c
			}(),
			want: "db.driver",
		},
		{
			name: "postgres missing dsn",
			cfg: func() Config {
				c := base
				c.DB.Driver = DriverPostgres
				return c
			}(),
			want: "db.dsn",
		},
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.Fetch.TimeoutSeconds = 0
				return c
			}(),
			want: "fetch.timeout_seconds",
		},
		{
			name: "headless missing timeout",
			cfg: func() Config {
				c := base
				c.Fetch.Headless = true
				return c
			}(),
			want: "fetch.headless_timeout_seconds",
		},
		{
			name: "local archive missing dir",
			cfg: func() Config {
				c := base
				c.Archive.Driver = DriverLocal
				return c
			}(),
			want: "archive.base_dir",
		},
		{
			name: "gcs archive missing bucket",
			cfg: func() Config {
				c := base
				c.Archive.Driver = DriverGCS
				return c
			}(),
			want: "archive.gcs_bucket",
		},
		{
			name: "unknown archive driver",
			cfg: func() Config {
				c := base
				c.Archive.Driver = "s3"
				return c
			}(),
			want: "archive.driver",
		},
		{
			name: "pubsub missing project",
			cfg: func() Config {
				c := base
				c.Events.Driver = DriverPubSub
				c.Events.Topic = "scrape-events"
				return c
			}(),
			want: "events.project_id",
		},
		{
			name: "unknown events driver",
			cfg: func() Config {
				c := base
				c.Events.Driver = "kafka"
				return c
			}(),
			want: "events.driver",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
