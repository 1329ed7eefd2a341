// Package config loads runtime settings for the socialmedia binaries from an
// optional socialmedia.yaml file and SOCIALMEDIA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jacentio/socialmedia/persist"
	"github.com/jacentio/socialmedia/platform"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
)

// Config holds settings loaded from file or environment variables.
type Config struct {
	Backend      string `mapstructure:"backend"`
	PlatformName string `mapstructure:"platform_name"`
	LogLevel     string `mapstructure:"log_level"`

	StateFile string `mapstructure:"state_file"`

	RedisAddr string        `mapstructure:"redis_addr"`
	RedisTTL  time.Duration `mapstructure:"redis_ttl"`

	DynamoTable  string `mapstructure:"dynamo_table"`
	DynamoShards int    `mapstructure:"dynamo_shards"`

	PostgresDSN string `mapstructure:"postgres_dsn"`

	MaxHandleLength  int `mapstructure:"max_handle_length"`
	MaxMessageLength int `mapstructure:"max_message_length"`
}

// Load reads socialmedia.yaml from the given directories (the working directory
// when none are given), then applies SOCIALMEDIA_* environment overrides.
// A missing file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("socialmedia")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("SOCIALMEDIA")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := platform.DefaultConfig()
	dynamo := persist.DefaultDynamoConfig()

	v.SetDefault("backend", BackendFile)
	v.SetDefault("platform_name", "default")
	v.SetDefault("log_level", "info")
	v.SetDefault("state_file", "socialmedia.json")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_ttl", time.Duration(0))
	v.SetDefault("dynamo_table", dynamo.Table)
	v.SetDefault("dynamo_shards", dynamo.NumShards)
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("max_handle_length", defaults.MaxHandleLength)
	v.SetDefault("max_message_length", defaults.MaxMessageLength)
}

// Validate ensures the selected backend has what it needs.
func (c *Config) Validate() error {
	if c.PlatformName == "" {
		return errors.New("platform_name is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxHandleLength < 1 || c.MaxMessageLength < 1 {
		return errors.New("max_handle_length and max_message_length must be positive")
	}

	switch c.Backend {
	case BackendFile:
		if c.StateFile == "" {
			return errors.New("state_file is required for the file backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("redis_addr is required for the redis backend")
		}
		if c.RedisTTL < 0 {
			return errors.New("redis_ttl must not be negative")
		}
	case BackendDynamoDB:
		if c.DynamoTable == "" {
			return errors.New("dynamo_table is required for the dynamodb backend")
		}
		if c.DynamoShards < 1 || c.DynamoShards > 256 {
			return fmt.Errorf("dynamo_shards must be between 1 and 256, got %d", c.DynamoShards)
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

// Platform returns the platform rules.
func (c *Config) Platform() platform.Config {
	cfg := platform.DefaultConfig()
	cfg.MaxHandleLength = c.MaxHandleLength
	cfg.MaxMessageLength = c.MaxMessageLength
	return cfg
}

// Dynamo returns the DynamoDB store settings.
func (c *Config) Dynamo() persist.DynamoConfig {
	cfg := persist.DefaultDynamoConfig()
	cfg.Table = c.DynamoTable
	cfg.Name = c.PlatformName
	cfg.NumShards = c.DynamoShards
	return cfg
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", s)
	}
	return level, nil
}
