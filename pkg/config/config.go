// Package config loads and validates configuration for the k-mer tools from
// YAML files with environment-variable overrides. Command-line flags in cmd/
// are applied on top of the loaded values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration shared by every tool.
type Config struct {
	Kmer     KmerConfig     `yaml:"kmer"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Coverage CoverageConfig `yaml:"coverage"`
	Sinks    SinksConfig    `yaml:"sinks"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Retry    RetryConfig    `yaml:"retry"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// KmerConfig holds the word size and the alphabet of the reference index.
// An empty alphabet means "guess from the reference file".
type KmerConfig struct {
	Size     int    `yaml:"size"`
	Alphabet string `yaml:"alphabet"`
}

// PipelineConfig controls index construction and the concurrent query phase.
type PipelineConfig struct {
	Index              string        `yaml:"index"`
	Threads            int           `yaml:"threads"`
	MaxOutstanding     int           `yaml:"maxOutstanding"`
	WaitTimeout        time.Duration `yaml:"waitTimeout"`
	TranslTable        int           `yaml:"translTable"`
	Aligned            bool          `yaml:"aligned"`
	CorrectOrientation bool          `yaml:"correctOrientation"`
}

// CoverageConfig controls the read-coverage accumulator.
type CoverageConfig struct {
	Threads        int  `yaml:"threads"`
	MaxOutstanding int  `yaml:"maxOutstanding"`
	StoreSummary   bool `yaml:"storeSummary"`
}

// SinksConfig selects the optional external hit sinks.
type SinksConfig struct {
	Kafka         bool          `yaml:"kafka"`
	Redis         bool          `yaml:"redis"`
	BatchSize     int           `yaml:"batchSize"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Hits string `yaml:"hits"`
}

// RedisConfig holds Redis connection parameters and the hit stream name.
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	PoolSize     int    `yaml:"poolSize"`
	HitStream    string `yaml:"hitStream"`
	StreamMaxLen int64  `yaml:"streamMaxLen"`
}

// RetryConfig controls backoff for external sinks and stores.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig toggles phase span logging.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Kmer: KmerConfig{
			Size: 45,
		},
		Pipeline: PipelineConfig{
			Index:          "hashed",
			Threads:        0,
			MaxOutstanding: 25000,
			WaitTimeout:    24 * time.Hour,
			TranslTable:    11,
		},
		Coverage: CoverageConfig{
			Threads:        1,
			MaxOutstanding: 25000,
		},
		Sinks: SinksConfig{
			BatchSize:     500,
			FlushInterval: 2 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "kmersearch",
			User:            "kmersearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "kmersearch-hitcollector",
			Topics: KafkaTopics{
				Hits: "kmer-hits",
			},
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			PoolSize:     10,
			HitStream:    "kmer:hits",
			StreamMaxLen: 1000000,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// Validate rejects values that would make any run meaningless. Alphabet-
// dependent bounds on the k-mer size are checked once the reference alphabet
// is known.
func (c *Config) Validate() error {
	if c.Kmer.Size < 1 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
			"kmer size must be positive, got %d", c.Kmer.Size)
	}
	switch c.Pipeline.Index {
	case "hashed", "trie":
	default:
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
			"unknown index kind %q (want hashed or trie)", c.Pipeline.Index)
	}
	if c.Pipeline.Threads < 0 || c.Coverage.Threads < 0 {
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
			"thread count must not be negative")
	}
	if c.Pipeline.MaxOutstanding < 1 || c.Coverage.MaxOutstanding < 1 {
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
			"maxOutstanding must be at least 1")
	}
	if (c.Sinks.Kafka && c.Kafka.Topics.Hits == "") || (c.Sinks.Redis && c.Redis.HitStream == "") {
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
			"enabled hit sink has no topic or stream")
	}
	return nil
}

// applyEnvOverrides reads KS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KS_KMER_SIZE"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Kmer.Size = k
		}
	}
	if v := os.Getenv("KS_KMER_ALPHABET"); v != "" {
		cfg.Kmer.Alphabet = v
	}
	if v := os.Getenv("KS_PIPELINE_INDEX"); v != "" {
		cfg.Pipeline.Index = v
	}
	if v := os.Getenv("KS_PIPELINE_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.Threads = n
		}
	}
	if v := os.Getenv("KS_PIPELINE_MAX_OUTSTANDING"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.MaxOutstanding = n
		}
	}
	if v := os.Getenv("KS_PIPELINE_TRANSL_TABLE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.TranslTable = n
		}
	}
	if v := os.Getenv("KS_SINKS_KAFKA"); v != "" {
		cfg.Sinks.Kafka = v == "true" || v == "1"
	}
	if v := os.Getenv("KS_SINKS_REDIS"); v != "" {
		cfg.Sinks.Redis = v == "true" || v == "1"
	}
	if v := os.Getenv("KS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("KS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("KS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("KS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("KS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("KS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("KS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("KS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("KS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("KS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
			cfg.Metrics.Enabled = true
		}
	}
}
