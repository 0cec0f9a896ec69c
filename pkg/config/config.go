// Package config loads application configuration from YAML or TOML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Dataset, SQLite, Postgres, Redis, Kafka, Search, etc.).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Dataset  DatasetConfig  `yaml:"dataset" toml:"dataset"`
	SQLite   SQLiteConfig   `yaml:"sqlite" toml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres" toml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka" toml:"kafka"`
	Redis    RedisConfig    `yaml:"redis" toml:"redis"`
	Search   SearchConfig   `yaml:"search" toml:"search"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing" toml:"tracing"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
}

// ServerConfig holds tool-server settings. Transport is "http" or "stdio".
type ServerConfig struct {
	Name            string          `yaml:"name" toml:"name"`
	Version         string          `yaml:"version" toml:"version"`
	Transport       string          `yaml:"transport" toml:"transport"`
	Host            string          `yaml:"host" toml:"host"`
	Port            int             `yaml:"port" toml:"port"`
	ReadTimeout     time.Duration   `yaml:"readTimeout" toml:"readTimeout"`
	WriteTimeout    time.Duration   `yaml:"writeTimeout" toml:"writeTimeout"`
	RequestTimeout  time.Duration   `yaml:"requestTimeout" toml:"requestTimeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout" toml:"shutdownTimeout"`
	AllowOrigins    []string        `yaml:"allowOrigins" toml:"allowOrigins"`
	RateLimit       RateLimitConfig `yaml:"rateLimit" toml:"rateLimit"`
}

// RateLimitConfig bounds tool calls per client address over HTTP.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled" toml:"enabled"`
	Requests int           `yaml:"requests" toml:"requests"`
	Window   time.Duration `yaml:"window" toml:"window"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatasetConfig selects where the food table is loaded from. Source is one
// of "file", "sqlite" or "postgres".
type DatasetConfig struct {
	Source      string        `yaml:"source" toml:"source"`
	Path        string        `yaml:"path" toml:"path"`
	Table       string        `yaml:"table" toml:"table"`
	LoadTimeout time.Duration `yaml:"loadTimeout" toml:"loadTimeout"`
}

// SQLiteConfig holds the SQLite database location.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host" toml:"host"`
	Port            int           `yaml:"port" toml:"port"`
	Database        string        `yaml:"database" toml:"database"`
	User            string        `yaml:"user" toml:"user"`
	Password        string        `yaml:"password" toml:"password"`
	SSLMode         string        `yaml:"sslMode" toml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns" toml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns" toml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" toml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings for query analytics.
type KafkaConfig struct {
	Enabled         bool          `yaml:"enabled" toml:"enabled"`
	Brokers         []string      `yaml:"brokers" toml:"brokers"`
	AnalyticsTopic  string        `yaml:"analyticsTopic" toml:"analyticsTopic"`
	BatchSize       int           `yaml:"batchSize" toml:"batchSize"`
	FlushInterval   time.Duration `yaml:"flushInterval" toml:"flushInterval"`
	CollectorBuffer int           `yaml:"collectorBuffer" toml:"collectorBuffer"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" toml:"enabled"`
	Addr     string        `yaml:"addr" toml:"addr"`
	Password string        `yaml:"password" toml:"password"`
	DB       int           `yaml:"db" toml:"db"`
	PoolSize int           `yaml:"poolSize" toml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL" toml:"cacheTTL"`
}

// SearchConfig controls query limits and batch fan-out.
type SearchConfig struct {
	DefaultLimit     int `yaml:"defaultLimit" toml:"defaultLimit"`
	MaxResults       int `yaml:"maxResults" toml:"maxResults"`
	BatchConcurrency int `yaml:"batchConcurrency" toml:"batchConcurrency"`
	MaxBatchItems    int `yaml:"maxBatchItems" toml:"maxBatchItems"`
}

// LoggingConfig controls structured logging level and output format.
// Format is one of "json", "text" or "console".
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// TracingConfig controls in-process span logging.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" toml:"enabled"`
	SampleRate float64 `yaml:"sampleRate" toml:"sampleRate"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	Port    int  `yaml:"port" toml:"port"`
}

// Load reads a YAML or TOML config file (if provided; TOML is chosen by a
// .toml extension) and applies environment-variable overrides. Missing
// values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case "http", "stdio":
	default:
		return fmt.Errorf("server.transport must be http or stdio, got %q", c.Server.Transport)
	}
	switch c.Dataset.Source {
	case "file", "sqlite", "postgres":
	default:
		return fmt.Errorf("dataset.source must be file, sqlite or postgres, got %q", c.Dataset.Source)
	}
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.defaultLimit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("search.maxResults (%d) must be >= search.defaultLimit (%d)", c.Search.MaxResults, c.Search.DefaultLimit)
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.Requests <= 0 || c.Server.RateLimit.Window <= 0) {
		return fmt.Errorf("server.rateLimit needs positive requests and window when enabled")
	}
	if c.Search.BatchConcurrency <= 0 {
		return fmt.Errorf("search.batchConcurrency must be positive, got %d", c.Search.BatchConcurrency)
	}
	return nil
}

// defaultConfig returns a Config suitable for local development against
// the bundled JSON dataset.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:            "taco-food-search",
			Version:         "1.0.0",
			Transport:       "http",
			Host:            "",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			AllowOrigins:    []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:  false,
				Requests: 600,
				Window:   time.Minute,
			},
		},
		Dataset: DatasetConfig{
			Source:      "file",
			Path:        "data/taco.json",
			Table:       "foods",
			LoadTimeout: 30 * time.Second,
		},
		SQLite: SQLiteConfig{
			Path: "data/taco.db",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "taco",
			User:            "taco",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Enabled:         false,
			Brokers:         []string{"localhost:9092"},
			AnalyticsTopic:  "food-query-events",
			BatchSize:       100,
			FlushInterval:   time.Second,
			CollectorBuffer: 10000,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Search: SearchConfig{
			DefaultLimit:     10,
			MaxResults:       100,
			BatchConcurrency: 4,
			MaxBatchItems:    20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			SampleRate: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads TACO_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TACO_SERVER_TRANSPORT"); v != "" {
		cfg.Server.Transport = v
	}
	if v := os.Getenv("TACO_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TACO_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TACO_DATASET_SOURCE"); v != "" {
		cfg.Dataset.Source = v
	}
	if v := os.Getenv("TACO_DATASET_PATH"); v != "" {
		cfg.Dataset.Path = v
	}
	if v := os.Getenv("TACO_DATASET_TABLE"); v != "" {
		cfg.Dataset.Table = v
	}
	if v := os.Getenv("TACO_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("TACO_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("TACO_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("TACO_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("TACO_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("TACO_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("TACO_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("TACO_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("TACO_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TACO_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("TACO_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TACO_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TACO_SEARCH_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.DefaultLimit = n
		}
	}
	if v := os.Getenv("TACO_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxResults = n
		}
	}
	if v := os.Getenv("TACO_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TACO_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TACO_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}
