package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
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

// AnalyzerConfig tunes the exercise analyzer. Zero values use the analyzer
// defaults (debounce 3 frames, cooldown 30 frames, visibility 0.5).
type AnalyzerConfig struct {
	DebounceFrames         int     `yaml:"debounce_frames"`
	FeedbackCooldownFrames int     `yaml:"feedback_cooldown_frames"`
	MinVisibility          float64 `yaml:"min_visibility"`
	WarmupFrames           int     `yaml:"warmup_frames"`
	// ExercisesFile optionally overrides the embedded exercise
	// definitions.
	ExercisesFile string `yaml:"exercises_file"`
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

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix MOVASSIST_ and underscore-separated
// paths:
//
//	MOVASSIST_SERVER_HOST, MOVASSIST_SERVER_PORT,
//	MOVASSIST_DB_HOST, MOVASSIST_DB_PORT, MOVASSIST_DB_NAME,
//	MOVASSIST_DB_USER, MOVASSIST_DB_PASSWORD, MOVASSIST_DB_SSLMODE,
//	MOVASSIST_AUTH_API_KEY, MOVASSIST_EXERCISES_FILE
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

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MOVASSIST_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MOVASSIST_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MOVASSIST_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("MOVASSIST_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("MOVASSIST_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("MOVASSIST_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("MOVASSIST_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("MOVASSIST_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("MOVASSIST_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("MOVASSIST_EXERCISES_FILE"); v != "" {
		cfg.Analyzer.ExercisesFile = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
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
	if c.Analyzer.DebounceFrames < 0 {
		return fmt.Errorf("analyzer.debounce_frames must not be negative")
	}
	if c.Analyzer.MinVisibility < 0 || c.Analyzer.MinVisibility > 1 {
		return fmt.Errorf("analyzer.min_visibility must be between 0 and 1")
	}
	return nil
}
