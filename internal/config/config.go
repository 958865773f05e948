package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the dispatch service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Batch    BatchConfig    `yaml:"batch"`
	Worker   WorkerConfig   `yaml:"worker"`
	Tracking TrackingConfig `yaml:"tracking"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the shared rate-limit store settings. When disabled the
// worker falls back to the process-local memory store.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// AMQPConfig holds the optional event fan-out settings.
type AMQPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// SMTPConfig is the environment-level fallback sending configuration. When a
// host is set, server startup seeds an active GLOBAL sending config from it
// on installs that have none.
type SMTPConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Secure      bool   `yaml:"secure"`
	User        string `yaml:"user"`
	Pass        string `yaml:"pass"`
	FromAddress string `yaml:"from_address"`
	FromName    string `yaml:"from_name"`
}

// BatchConfig holds the cross-cutting dispatch pacing policy: how many
// recipients are sent per page, the delay between pages, and optional
// hourly/daily ceilings.
type BatchConfig struct {
	BatchSize         int `yaml:"batch_size"`
	InterBatchDelayMs int `yaml:"inter_batch_delay_ms"`
	MaxEmailsPerHour  int `yaml:"max_emails_per_hour"`
	MaxEmailsPerDay   int `yaml:"max_emails_per_day"`
}

// InterBatchDelay returns the configured inter-batch delay as a duration.
func (b BatchConfig) InterBatchDelay() time.Duration {
	return time.Duration(b.InterBatchDelayMs) * time.Millisecond
}

// WorkerConfig holds the tick loop settings.
type WorkerConfig struct {
	TickIntervalSeconds int `yaml:"tick_interval_seconds"`
	LimitGroups         int `yaml:"limit_groups"`
}

// TickInterval returns the configured tick interval as a duration.
func (w WorkerConfig) TickInterval() time.Duration {
	return time.Duration(w.TickIntervalSeconds) * time.Second
}

// TrackingConfig holds open-tracking settings.
type TrackingConfig struct {
	BaseURL string `yaml:"base_url"`
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.AMQP.Exchange == "" {
		cfg.AMQP.Exchange = "mail.events"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Batch.BatchSize == 0 {
		cfg.Batch.BatchSize = 10
	}
	if cfg.Worker.TickIntervalSeconds == 0 {
		cfg.Worker.TickIntervalSeconds = 15
	}
	if cfg.Worker.LimitGroups == 0 {
		cfg.Worker.LimitGroups = 50
	}
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
// The YAML file is optional; with no file, env vars and defaults apply.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		if loaded, err := Load(path); err == nil {
			cfg = loaded
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := envInt("SERVER_PORT"); port > 0 {
		cfg.Server.Port = port
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Redis.URL = url
		cfg.Redis.Enabled = true
	}
	if url := os.Getenv("AMQP_URL"); url != "" {
		cfg.AMQP.URL = url
		cfg.AMQP.Enabled = true
	}

	if host := os.Getenv("SMTP_HOST"); host != "" {
		cfg.SMTP.Host = host
	}
	if port := envInt("SMTP_PORT"); port > 0 {
		cfg.SMTP.Port = port
	}
	if os.Getenv("SMTP_SECURE") == "true" {
		cfg.SMTP.Secure = true
	}
	if user := os.Getenv("SMTP_USER"); user != "" {
		cfg.SMTP.User = user
	}
	if pass := os.Getenv("SMTP_PASS"); pass != "" {
		cfg.SMTP.Pass = pass
	}
	if from := os.Getenv("SMTP_FROM"); from != "" {
		cfg.SMTP.FromAddress = from
	}
	if name := os.Getenv("SMTP_FROM_NAME"); name != "" {
		cfg.SMTP.FromName = name
	}

	if n := envInt("MAIL_BATCH_SIZE"); n > 0 {
		cfg.Batch.BatchSize = n
	}
	if n := envInt("MAIL_INTER_BATCH_DELAY_MS"); n > 0 {
		cfg.Batch.InterBatchDelayMs = n
	}
	if n := envInt("MAIL_MAX_EMAILS_PER_HOUR"); n > 0 {
		cfg.Batch.MaxEmailsPerHour = n
	}
	if n := envInt("MAIL_MAX_EMAILS_PER_DAY"); n > 0 {
		cfg.Batch.MaxEmailsPerDay = n
	}
	if n := envInt("WORKER_TICK_INTERVAL_SECONDS"); n > 0 {
		cfg.Worker.TickIntervalSeconds = n
	}
	if n := envInt("WORKER_LIMIT_GROUPS"); n > 0 {
		cfg.Worker.LimitGroups = n
	}
	if url := os.Getenv("TRACKING_BASE_URL"); url != "" {
		cfg.Tracking.BaseURL = url
	}

	applyDefaults(cfg)
	return cfg, nil
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
