// Package config loads cafesync settings from a YAML file, a .env file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/cafesync/internal/realtime"
)

// Backend kinds.
const (
	BackendAuto     = "auto"
	BackendSupabase = "supabase"
	BackendSQL      = "sql"
	BackendNone     = "none"
)

// MinFetchLimit is the smallest accepted fetch limit.
const MinFetchLimit = 10

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// SearchPaths are tried in order when no explicit path is given.
var SearchPaths = []string{
	"cafesync.yaml",
	"configs/cafesync.yaml",
	"/etc/cafesync/cafesync.yaml",
}

// Config is the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	State   StateConfig   `yaml:"state" json:"state"`
	Backend BackendConfig `yaml:"backend" json:"backend"`
	Sync    SyncConfig    `yaml:"sync" json:"sync"`
	Notify  NotifyConfig  `yaml:"notify" json:"notify"`
	Bus     BusConfig     `yaml:"bus" json:"bus"`

	// ConfigPath is the file the configuration was read from, if any.
	ConfigPath string `yaml:"-" json:"config_path,omitempty"`
}

// ServerConfig is the local admin API listener.
type ServerConfig struct {
	Host    string `yaml:"host" json:"host"`
	Port    int    `yaml:"port" json:"port"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// StateConfig locates the local state database.
type StateConfig struct {
	Path string `yaml:"path" json:"path"`
}

// BackendConfig selects and configures the remote data source.
type BackendConfig struct {
	Kind        string `yaml:"kind" json:"kind"`
	SupabaseURL string `yaml:"supabase_url" json:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key" json:"supabase_key"`
	Bucket      string `yaml:"bucket" json:"bucket"`
	DBDriver    string `yaml:"db_driver" json:"db_driver"`
	DatabaseURL string `yaml:"database_url" json:"database_url"`
}

// SyncConfig tunes the sync loop.
type SyncConfig struct {
	RemoteInterval  time.Duration `yaml:"remote_interval" json:"remote_interval"`
	MailboxInterval time.Duration `yaml:"mailbox_interval" json:"mailbox_interval"`
	FetchLimit      int           `yaml:"fetch_limit" json:"fetch_limit"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	HistoryCapacity int           `yaml:"history_capacity" json:"history_capacity"`
	Reservations    bool          `yaml:"reservations" json:"reservations"`
	PollOnStart     bool          `yaml:"poll_on_start" json:"poll_on_start"`
}

// NotifyConfig controls notification presentation.
type NotifyConfig struct {
	DisplayDuration time.Duration `yaml:"display_duration" json:"display_duration"`
	Websocket       bool          `yaml:"websocket" json:"websocket"`

	// AllowedOrigins lists browser origins, besides the admin server's own,
	// that may open the websocket feed.
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins,omitempty"`
}

// BusConfig selects the change-signal transport. An empty NATSURL keeps
// signals in process.
type BusConfig struct {
	NATSURL       string `yaml:"nats_url" json:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix" json:"subject_prefix"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Port:    8080,
			Enabled: true,
		},
		State: StateConfig{
			Path: "cafesync.db",
		},
		Backend: BackendConfig{
			Kind:     BackendAuto,
			Bucket:   "cafe-images",
			DBDriver: "postgres",
		},
		Sync: SyncConfig{
			RemoteInterval:  realtime.DefaultRemoteInterval,
			MailboxInterval: realtime.DefaultMailboxInterval,
			FetchLimit:      realtime.DefaultFetchLimit,
			FetchTimeout:    realtime.DefaultFetchTimeout,
			HistoryCapacity: realtime.DefaultHistoryCapacity,
			Reservations:    true,
			PollOnStart:     true,
		},
		Notify: NotifyConfig{
			DisplayDuration: 10 * time.Second,
			Websocket:       true,
		},
		Bus: BusConfig{
			SubjectPrefix: "cafesync",
		},
	}
}

// Load reads .env, then the YAML file at path (or the first of
// SearchPaths that exists), then environment overrides, and validates the
// result. An explicit path must exist; with no path and no file found the
// defaults are used.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	data, loadedPath, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	if data != nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", loadedPath, err)
		}
		cfg.ConfigPath = loadedPath
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("read config: %w", err)
		}
		return data, path, nil
	}
	for _, candidate := range SearchPaths {
		data, err := os.ReadFile(candidate)
		if err == nil {
			return data, candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("read config %s: %w", candidate, err)
		}
	}
	return nil, "", nil
}

func (c *Config) applyEnv() error {
	c.Backend.SupabaseURL = getenv("CAFESYNC_SUPABASE_URL", c.Backend.SupabaseURL)
	c.Backend.SupabaseKey = getenv("CAFESYNC_SUPABASE_KEY", c.Backend.SupabaseKey)
	c.Backend.DatabaseURL = getenv("CAFESYNC_DATABASE_URL", c.Backend.DatabaseURL)
	c.Backend.DBDriver = getenv("CAFESYNC_DB_DRIVER", c.Backend.DBDriver)
	c.Bus.NATSURL = getenv("CAFESYNC_NATS_URL", c.Bus.NATSURL)
	c.State.Path = getenv("CAFESYNC_STATE_PATH", c.State.Path)

	if raw := strings.TrimSpace(os.Getenv("PORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: PORT %q is not a number", ErrInvalid, raw)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks intervals, limits and the backend selection.
func (c *Config) Validate() error {
	var problems []string
	if c.Sync.RemoteInterval <= 0 {
		problems = append(problems, "sync.remote_interval must be positive")
	}
	if c.Sync.MailboxInterval <= 0 {
		problems = append(problems, "sync.mailbox_interval must be positive")
	}
	if c.Sync.FetchTimeout <= 0 {
		problems = append(problems, "sync.fetch_timeout must be positive")
	}
	if c.Sync.FetchLimit < MinFetchLimit {
		problems = append(problems, fmt.Sprintf("sync.fetch_limit must be at least %d", MinFetchLimit))
	}
	if c.Sync.HistoryCapacity < 1 {
		problems = append(problems, "sync.history_capacity must be at least 1")
	}
	if c.Server.Enabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.State.Path) == "" {
		problems = append(problems, "state.path is required")
	}
	for _, origin := range c.Notify.AllowedOrigins {
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("notify.allowed_origins entry %q must be scheme://host[:port]", origin))
		}
	}

	switch c.Backend.Kind {
	case "", BackendAuto, BackendNone:
	case BackendSupabase:
		if c.Backend.SupabaseURL == "" || c.Backend.SupabaseKey == "" {
			problems = append(problems, "backend supabase needs supabase_url and supabase_key")
		}
	case BackendSQL:
		if c.Backend.DatabaseURL == "" {
			problems = append(problems, "backend sql needs database_url")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown backend %q", c.Backend.Kind))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// BackendKind resolves "auto": Supabase when a URL is set, SQL when a
// database URL is set, otherwise none.
func (c *Config) BackendKind() string {
	switch c.Backend.Kind {
	case BackendSupabase, BackendSQL, BackendNone:
		return c.Backend.Kind
	}
	switch {
	case c.Backend.SupabaseURL != "":
		return BackendSupabase
	case c.Backend.DatabaseURL != "":
		return BackendSQL
	}
	return BackendNone
}

// Addr returns the admin API listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// LoopOptions translates the sync settings into loop options.
func (c *Config) LoopOptions() []realtime.Option {
	return []realtime.Option{
		realtime.WithRemoteInterval(c.Sync.RemoteInterval),
		realtime.WithMailboxInterval(c.Sync.MailboxInterval),
		realtime.WithFetchLimit(c.Sync.FetchLimit),
		realtime.WithFetchTimeout(c.Sync.FetchTimeout),
		realtime.WithHistoryCapacity(c.Sync.HistoryCapacity),
		realtime.WithReservations(c.Sync.Reservations),
		realtime.WithPollOnStart(c.Sync.PollOnStart),
	}
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func getenv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}
