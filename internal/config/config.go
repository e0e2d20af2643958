// Package config loads service configuration from a YAML file with
// environment variable overrides for the settings that differ per
// deployment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the chat service configuration.
type Config struct {
	Server struct {
		ListenAddr   string        `yaml:"listen_addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`
	Database struct {
		URL            string `yaml:"url"`
		MigrationsPath string `yaml:"migrations_path"`
	} `yaml:"database"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	NATS struct {
		URL  string `yaml:"url"`
		Name string `yaml:"name"`
	} `yaml:"nats"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Upload struct {
		Dir     string `yaml:"dir"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"upload"`
	Assign struct {
		DefaultMaxConcurrent int `yaml:"default_max_concurrent"`
	} `yaml:"assign"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.ListenAddr = ":8080"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Database.URL = "postgres://localhost:5432/workcity_chat?sslmode=disable"
	cfg.Database.MigrationsPath = "file://migrations"
	cfg.Redis.Addr = "localhost:6379"
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.NATS.Name = "chat-service"
	cfg.Upload.Dir = "uploads"
	cfg.Upload.BaseURL = "/uploads"
	cfg.Assign.DefaultMaxConcurrent = 5
	return cfg
}

// Load reads the YAML file at path (when non-empty) over the defaults and
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %s: %w", path, err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file values with environment variables, matching the
// deploy scripts which configure containers through the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("MIGRATIONS_PATH"); v != "" {
		c.Database.MigrationsPath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.Upload.Dir = v
	}
}
