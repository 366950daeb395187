// Package config loads tomate settings from ~/.tomate/config.yaml with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/balkashynov/tomate/internal/timer"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "TOMATE_"

// Config is the complete application configuration
type Config struct {
	Pomodoro PomodoroConfig `yaml:"pomodoro" mapstructure:"pomodoro" envPrefix:"POMODORO_"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database" envPrefix:"DB_"`
	Log      LogConfig      `yaml:"log" mapstructure:"log" envPrefix:"LOG_"`
	Remote   RemoteConfig   `yaml:"remote" mapstructure:"remote" envPrefix:"REMOTE_"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server" envPrefix:"SERVER_"`
}

// PomodoroConfig holds timer durations and cycle behaviour
type PomodoroConfig struct {
	WorkDuration    time.Duration `yaml:"work_duration" mapstructure:"work_duration" env:"WORK_DURATION"`
	ShortBreak      time.Duration `yaml:"short_break" mapstructure:"short_break" env:"SHORT_BREAK"`
	LongBreak       time.Duration `yaml:"long_break" mapstructure:"long_break" env:"LONG_BREAK"`
	LongBreakAfter  int           `yaml:"long_break_after" mapstructure:"long_break_after" env:"LONG_BREAK_AFTER"`
	AutoStartBreaks bool          `yaml:"auto_start_breaks" mapstructure:"auto_start_breaks" env:"AUTO_START_BREAKS"`
	AutoStartWork   bool          `yaml:"auto_start_work" mapstructure:"auto_start_work" env:"AUTO_START_WORK"`
}

// DatabaseConfig locates the local sqlite database and timer state file
type DatabaseConfig struct {
	Path      string `yaml:"path" mapstructure:"path" env:"PATH"`
	StatePath string `yaml:"state_path" mapstructure:"state_path" env:"STATE_PATH"`
}

// LogConfig controls the logrus logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" env:"LEVEL"`
	Format string `yaml:"format" mapstructure:"format" env:"FORMAT"` // text, json
	File   string `yaml:"file" mapstructure:"file" env:"FILE"`
}

// RemoteConfig points at the optional hosted Postgres backend
type RemoteConfig struct {
	DSN        string        `yaml:"dsn" mapstructure:"dsn" env:"DSN"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries" env:"MAX_RETRIES"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout" env:"TIMEOUT"`
}

// Enabled reports whether a hosted backend is configured
func (r RemoteConfig) Enabled() bool {
	return r.DSN != ""
}

// ServerConfig configures `tomate serve`
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr" env:"ADDR"`
}

// DefaultConfig returns the built-in defaults rooted at dir
func DefaultConfig(dir string) *Config {
	return &Config{
		Pomodoro: PomodoroConfig{
			WorkDuration:   25 * time.Minute,
			ShortBreak:     5 * time.Minute,
			LongBreak:      15 * time.Minute,
			LongBreakAfter: 4,
		},
		Database: DatabaseConfig{
			Path:      filepath.Join(dir, "tomate.db"),
			StatePath: filepath.Join(dir, "state.json"),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Remote: RemoteConfig{
			MaxRetries: 5,
			Timeout:    30 * time.Second,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8425",
		},
	}
}

// Dir returns the tomate home directory (~/.tomate or $TOMATE_HOME)
func Dir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "HOME"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".tomate"), nil
}

// DefaultPath returns the path of the config file
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file at path on top of the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig(filepath.Dir(path))

	if err := loadFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

// Save writes cfg as YAML to path, creating the directory if needed
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// WriteDefault writes the default config to path unless a file exists
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := Save(DefaultConfig(filepath.Dir(path)), path); err != nil {
		return false, err
	}
	return true, nil
}

// Validate checks the values that would otherwise fail later
func (c *Config) Validate() error {
	if err := c.Timer().Validate(); err != nil {
		return fmt.Errorf("invalid pomodoro config: %w", err)
	}
	if c.Database.Path == "" {
		return errors.New("database.path must not be empty")
	}
	if c.Database.StatePath == "" {
		return errors.New("database.state_path must not be empty")
	}
	if c.Remote.MaxRetries < 1 {
		return fmt.Errorf("remote.max_retries must be positive, got %d", c.Remote.MaxRetries)
	}
	return nil
}

// Timer converts the pomodoro section into a timer configuration
func (c *Config) Timer() timer.Config {
	return timer.Config{
		WorkDuration:          c.Pomodoro.WorkDuration,
		ShortBreakDuration:    c.Pomodoro.ShortBreak,
		LongBreakDuration:     c.Pomodoro.LongBreak,
		CyclesBeforeLongBreak: c.Pomodoro.LongBreakAfter,
		AutoStartBreaks:       c.Pomodoro.AutoStartBreaks,
		AutoStartWork:         c.Pomodoro.AutoStartWork,
	}
}
