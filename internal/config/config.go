package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/claude/runplan/internal/plan"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Plan      PlanConfig      `yaml:"plan"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// PlanConfig tunes plan generation.
type PlanConfig struct {
	// Rounding is "half_up" (default) or "half_even".
	Rounding string `yaml:"rounding"`
	// MaxWeeks rejects events further out than this many weeks.
	MaxWeeks int `yaml:"max_weeks"`
}

// Generator builds the plan generator described by the config.
func (p PlanConfig) Generator() (plan.Generator, error) {
	r, err := plan.ParseRounding(p.Rounding)
	if err != nil {
		return plan.Generator{}, err
	}
	return plan.Generator{Rounding: r}, nil
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix RUNPLAN_ and underscore-separated paths:
//
//	RUNPLAN_SERVER_HOST, RUNPLAN_SERVER_PORT,
//	RUNPLAN_DB_HOST, RUNPLAN_DB_PORT, RUNPLAN_DB_NAME,
//	RUNPLAN_DB_USER, RUNPLAN_DB_PASSWORD, RUNPLAN_DB_SSLMODE,
//	RUNPLAN_AUTH_API_KEY,
//	RUNPLAN_TAILSCALE_ENABLED, RUNPLAN_TAILSCALE_HOSTNAME, RUNPLAN_TAILSCALE_STATE_DIR,
//	RUNPLAN_PLAN_ROUNDING, RUNPLAN_PLAN_MAX_WEEKS
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RUNPLAN_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("RUNPLAN_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RUNPLAN_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("RUNPLAN_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("RUNPLAN_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("RUNPLAN_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("RUNPLAN_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("RUNPLAN_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("RUNPLAN_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("RUNPLAN_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("RUNPLAN_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("RUNPLAN_TAILSCALE_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
	if v := os.Getenv("RUNPLAN_PLAN_ROUNDING"); v != "" {
		cfg.Plan.Rounding = v
	}
	if v := os.Getenv("RUNPLAN_PLAN_MAX_WEEKS"); v != "" {
		if weeks, err := strconv.Atoi(v); err == nil {
			cfg.Plan.MaxWeeks = weeks
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "runplan"
	}
	if cfg.Plan.Rounding == "" {
		cfg.Plan.Rounding = "half_up"
	}
	if cfg.Plan.MaxWeeks == 0 {
		cfg.Plan.MaxWeeks = 52
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if _, err := plan.ParseRounding(c.Plan.Rounding); err != nil {
		return fmt.Errorf("plan.rounding: %w", err)
	}
	if c.Plan.MaxWeeks < 1 {
		return fmt.Errorf("plan.max_weeks must be at least 1")
	}
	return nil
}
