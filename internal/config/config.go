// Package config loads the tunable limits of the status edit engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Statuses StatusesConfig `yaml:"statuses"`
	Polls    PollsConfig    `yaml:"polls"`
	Workers  WorkersConfig  `yaml:"workers"`
	Media    MediaConfig    `yaml:"media"`
}

// DatabaseConfig sizes the connection pool of network databases.
type DatabaseConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// LockPrefix is prepended to every lease key.
	LockPrefix string `yaml:"lock_prefix"`
}

type StatusesConfig struct {
	MaxMediaAttachments int `yaml:"max_media_attachments"`
	// LockTTL is how long a remote update may hold a status before the
	// lease expires on its own.
	LockTTL time.Duration `yaml:"lock_ttl"`
}

type PollsConfig struct {
	MinOptions        int           `yaml:"min_options"`
	MaxOptions        int           `yaml:"max_options"`
	MaxCharsPerOption int           `yaml:"max_characters_per_option"`
	MinExpiration     time.Duration `yaml:"min_expiration"`
	MaxExpiration     time.Duration `yaml:"max_expiration"`
}

type WorkersConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type MediaConfig struct {
	// MaxSize is the largest remote file, in bytes, which will be fetched.
	MaxSize int64         `yaml:"max_size"`
	Timeout time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			LockPrefix: "revise:",
		},
		Statuses: StatusesConfig{
			MaxMediaAttachments: 4,
			LockTTL:             15 * time.Minute,
		},
		Polls: PollsConfig{
			MinOptions:        2,
			MaxOptions:        4,
			MaxCharsPerOption: 50,
			MinExpiration:     5 * time.Minute,
			MaxExpiration:     31 * 24 * time.Hour,
		},
		Workers: WorkersConfig{
			Interval:    30 * time.Second,
			MaxAttempts: 3,
		},
		Media: MediaConfig{
			MaxSize: 16 << 20,
			Timeout: 30 * time.Second,
		},
	}
}

// Load returns the default configuration overlaid with the contents of
// the YAML file at path. An empty path, or a path that does not exist,
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}
	return nil
}

// Validate reports the first setting which is out of range.
func (c *Config) Validate() error {
	switch {
	case c.Database.MaxOpenConns < 1 || c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns:
		return fmt.Errorf("database: invalid pool size, %d idle of %d open", c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	case c.Database.ConnMaxLifetime < 0:
		return fmt.Errorf("database.conn_max_lifetime must not be negative, got %v", c.Database.ConnMaxLifetime)
	case c.Statuses.MaxMediaAttachments < 1:
		return fmt.Errorf("statuses.max_media_attachments must be positive, got %d", c.Statuses.MaxMediaAttachments)
	case c.Statuses.LockTTL <= 0:
		return fmt.Errorf("statuses.lock_ttl must be positive, got %v", c.Statuses.LockTTL)
	case c.Polls.MinOptions < 1 || c.Polls.MaxOptions < c.Polls.MinOptions:
		return fmt.Errorf("polls: invalid option range %d..%d", c.Polls.MinOptions, c.Polls.MaxOptions)
	case c.Polls.MaxCharsPerOption < 1:
		return fmt.Errorf("polls.max_characters_per_option must be positive, got %d", c.Polls.MaxCharsPerOption)
	case c.Polls.MinExpiration <= 0 || c.Polls.MaxExpiration < c.Polls.MinExpiration:
		return fmt.Errorf("polls: invalid expiration range %v..%v", c.Polls.MinExpiration, c.Polls.MaxExpiration)
	case c.Workers.Interval <= 0:
		return fmt.Errorf("workers.interval must be positive, got %v", c.Workers.Interval)
	case c.Workers.MaxAttempts < 1:
		return fmt.Errorf("workers.max_attempts must be positive, got %d", c.Workers.MaxAttempts)
	case c.Media.MaxSize <= 0:
		return fmt.Errorf("media.max_size must be positive, got %d", c.Media.MaxSize)
	case c.Media.Timeout <= 0:
		return fmt.Errorf("media.timeout must be positive, got %v", c.Media.Timeout)
	}
	return nil
}
