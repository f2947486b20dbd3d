// Package config provides YAML-based configuration loading for liveagent.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Environment variables that override file values.
const (
	EnvDriver   = "LIVEAGENT_DB_DRIVER"
	EnvHost     = "LIVEAGENT_DB_HOST"
	EnvPort     = "LIVEAGENT_DB_PORT"
	EnvUser     = "LIVEAGENT_DB_USER"
	EnvPassword = "LIVEAGENT_DB_PASSWORD"
	EnvName     = "LIVEAGENT_DB_NAME"
	EnvPath     = "LIVEAGENT_DB_PATH"
	EnvLogLevel = "LIVEAGENT_LOG_LEVEL"
)

// Config is the top-level liveagent configuration, loaded from liveagent.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds connection settings for the backing SQL database.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`    // sqlite only
	SSLMode  string `yaml:"sslmode"` // postgres only
	LogSQL   bool   `yaml:"log_sql"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A .env file in the working directory, if present, is loaded first so its
// LIVEAGENT_* variables take part in the environment overrides. A missing
// config file is not an error when the environment supplies a driver.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && os.Getenv(EnvDriver) != "" {
			return Parse(nil)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config, applying environment
// overrides and defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	d := &c.Database
	if v := os.Getenv(EnvDriver); v != "" {
		d.Driver = v
	}
	if v := os.Getenv(EnvHost); v != "" {
		d.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: invalid port %q", EnvPort, v)
		}
		d.Port = port
	}
	if v := os.Getenv(EnvUser); v != "" {
		d.User = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		d.Password = v
	}
	if v := os.Getenv(EnvName); v != "" {
		d.Name = v
	}
	if v := os.Getenv(EnvPath); v != "" {
		d.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	d := &c.Database
	d.Driver = strings.ToLower(strings.TrimSpace(d.Driver))
	if d.Driver == "" {
		d.Driver = DriverMySQL
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if d.Driver == DriverSQLite {
		if d.Path == "" {
			d.Path = "liveagent.db"
		}
		return
	}
	if d.Host == "" {
		d.Host = "127.0.0.1"
	}
	if d.Port == 0 {
		if d.Driver == DriverPostgres {
			d.Port = 5432
		} else {
			d.Port = 3306
		}
	}
	if d.User == "" {
		if d.Driver == DriverPostgres {
			d.User = "postgres"
		} else {
			d.User = "root"
		}
	}
	if d.Name == "" {
		d.Name = "liveagent"
	}
	if d.Driver == DriverPostgres && d.SSLMode == "" {
		d.SSLMode = "disable"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (want mysql, postgres or sqlite)", c.Database.Driver))
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port %d out of range", c.Database.Port))
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not valid", c.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
