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
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Retention  RetentionConfig  `yaml:"retention"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push notifications. Web push
// is optional; it is enabled when both keys are present.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether web push delivery is configured.
func (p *PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// SMTPConfig holds the outbound mail transport configuration. Email
// delivery is optional; it is enabled when a host is present.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Enabled reports whether email delivery is configured.
func (s *SMTPConfig) Enabled() bool {
	return s.Host != ""
}

// WorkerPoolConfig holds the configuration for the push worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// RetentionConfig holds the heartbeat retention settings.
type RetentionConfig struct {
	Enabled              bool          `yaml:"enabled"`
	MaxAgeDays           int           `yaml:"max_age_days"`
	SweepIntervalMinutes int           `yaml:"sweep_interval_minutes"`
	MaxAge               time.Duration `yaml:"-"` // Ignored by YAML parser
	SweepInterval        time.Duration `yaml:"-"`
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

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.SMTP.Port <= 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Retention.MaxAgeDays <= 0 {
		cfg.Retention.MaxAgeDays = 30
	}
	if cfg.Retention.SweepIntervalMinutes <= 0 {
		cfg.Retention.SweepIntervalMinutes = 60
	}
	cfg.Retention.MaxAge = time.Duration(cfg.Retention.MaxAgeDays) * 24 * time.Hour
	cfg.Retention.SweepInterval = time.Duration(cfg.Retention.SweepIntervalMinutes) * time.Minute

	return &cfg, nil
}
