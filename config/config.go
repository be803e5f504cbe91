package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	VMC        VMCConfig        `yaml:"vmc"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	WSSendBuffer    int     `yaml:"ws_send_buffer"`
}

// VMCConfig holds the upstream vending-machine-controller link configuration.
type VMCConfig struct {
	Endpoint           string        `yaml:"endpoint"`
	ReconnectDelayMS   int           `yaml:"reconnect_delay_ms"`
	ReconnectDelay     time.Duration `yaml:"-"` // Ignored by YAML parser
	HandshakeTimeoutMS int           `yaml:"handshake_timeout_ms"`
	HandshakeTimeout   time.Duration `yaml:"-"`
}

// CatalogConfig points at the JSON product file seeded into the database at
// startup.
type CatalogConfig struct {
	ProductsPath string `yaml:"products_path"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.VMC.ReconnectDelayMS <= 0 {
		cfg.VMC.ReconnectDelayMS = 1500
	}
	cfg.VMC.ReconnectDelay = time.Duration(cfg.VMC.ReconnectDelayMS) * time.Millisecond

	if cfg.VMC.HandshakeTimeoutMS <= 0 {
		cfg.VMC.HandshakeTimeoutMS = 5000
	}
	cfg.VMC.HandshakeTimeout = time.Duration(cfg.VMC.HandshakeTimeoutMS) * time.Millisecond

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "vending.db"
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	if cfg.Server.WSSendBuffer <= 0 {
		cfg.Server.WSSendBuffer = 32
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
