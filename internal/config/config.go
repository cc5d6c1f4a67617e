// Package config loads gateway configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supabase holds the managed-backend connection settings. URL and service key
// are required; their absence is a deployment error and fails startup.
type Supabase struct {
	URL        string        `yaml:"url" env:"SUPABASE_URL"`
	AnonKey    string        `yaml:"anon_key" env:"SUPABASE_ANON_KEY"`
	ServiceKey string        `yaml:"service_key" env:"SUPABASE_SERVICE_KEY"`
	JWTSecret  string        `yaml:"jwt_secret" env:"SUPABASE_JWT_SECRET"`
	Timeout    time.Duration `yaml:"timeout" env:"SUPABASE_TIMEOUT" envDefault:"30s"`
}

// Server holds the HTTP gateway settings.
type Server struct {
	Addr              string   `yaml:"addr" env:"GATEWAY_ADDR" envDefault:":8080"`
	CORSOrigins       []string `yaml:"cors_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	RequestsPerSecond int      `yaml:"requests_per_second" env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateBurst         int      `yaml:"rate_burst" env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// SecureStore holds token-store settings. ValueLimit is the backend's
// per-value ceiling; ChunkSize must leave encoding headroom below it.
type SecureStore struct {
	Path       string `yaml:"path" env:"SECURE_STORE_PATH" envDefault:"data/securestore"`
	LegacyPath string `yaml:"legacy_path" env:"LEGACY_STORE_PATH" envDefault:"data/legacystore"`
	Secret     string `yaml:"secret" env:"SECURE_STORE_SECRET"`
	ValueLimit int    `yaml:"value_limit" env:"SECURE_STORE_VALUE_LIMIT" envDefault:"2048"`
	ChunkSize  int    `yaml:"chunk_size" env:"SECURE_STORE_CHUNK_SIZE" envDefault:"2000"`
}

// Analytics holds the event-sink settings. An empty endpoint selects the
// no-op sink.
type Analytics struct {
	Endpoint string `yaml:"endpoint" env:"ANALYTICS_ENDPOINT"`
	APIKey   string `yaml:"api_key" env:"ANALYTICS_API_KEY"`
}

// Realtime transport modes.
const (
	RealtimeModePoll      = "poll"
	RealtimeModeWebsocket = "websocket"
)

// Realtime holds task-change notification settings. Websocket mode
// subscribes to the Supabase Realtime endpoint and falls back to polling
// when the connection cannot be established.
type Realtime struct {
	Enabled      bool          `yaml:"enabled" env:"REALTIME_ENABLED"`
	Mode         string        `yaml:"mode" env:"REALTIME_MODE" envDefault:"poll"`
	PollInterval time.Duration `yaml:"poll_interval" env:"REALTIME_POLL_INTERVAL" envDefault:"15s"`
}

// Config is the root gateway configuration.
type Config struct {
	Supabase    Supabase    `yaml:"supabase"`
	Server      Server      `yaml:"server"`
	SecureStore SecureStore `yaml:"secure_store"`
	Analytics   Analytics   `yaml:"analytics"`
	Realtime    Realtime    `yaml:"realtime"`
}

// Load reads config.yaml (when present), applies environment overrides and
// validates the result. A .env file in the working directory is honored.
func Load() (*Config, error) {
	return LoadFromPath("config.yaml")
}

// LoadFromPath loads configuration from a specific YAML path. A missing file
// is not an error; the environment alone can fully configure the service.
func LoadFromPath(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and internal consistency.
func (c *Config) Validate() error {
	if c.Supabase.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.Supabase.ServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.SecureStore.ChunkSize <= 0 {
		return fmt.Errorf("secure store chunk size must be positive")
	}
	if c.SecureStore.ValueLimit > 0 && c.SecureStore.ChunkSize > c.SecureStore.ValueLimit {
		return fmt.Errorf("secure store chunk size %d exceeds value limit %d", c.SecureStore.ChunkSize, c.SecureStore.ValueLimit)
	}
	if c.Server.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	switch c.Realtime.Mode {
	case "", RealtimeModePoll, RealtimeModeWebsocket:
	default:
		return fmt.Errorf("unknown realtime mode %q", c.Realtime.Mode)
	}
	return nil
}
