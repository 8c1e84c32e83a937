// Package config loads server configuration from an optional YAML
// file, a local .env file, and RCORD_* environment variables, in that
// order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Presence PresenceConfig `yaml:"presence"`
	Ops      OpsConfig      `yaml:"ops"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Name      string `yaml:"name" env:"RCORD_SERVER_NAME"`
	Host      string `yaml:"host" env:"RCORD_HOST"`
	Port      int    `yaml:"port" env:"RCORD_PORT" validate:"min=0,max=65535"`
	MediaPort int    `yaml:"media_port" env:"RCORD_MEDIA_PORT" validate:"min=0,max=65535"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"RCORD_DB_PATH" validate:"required"`
}

// PresenceConfig fields are whole seconds, matching the wire-facing
// heartbeat contract.
type PresenceConfig struct {
	HeartbeatTimeout int `yaml:"heartbeat_timeout" env:"RCORD_HEARTBEAT_TIMEOUT" validate:"min=1"`
	CheckInterval    int `yaml:"check_interval" env:"RCORD_CHECK_INTERVAL" validate:"min=1"`
}

// OpsConfig controls the operational HTTP endpoint. An empty address
// disables it.
type OpsConfig struct {
	Addr string `yaml:"addr" env:"RCORD_OPS_ADDR"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"RCORD_LOG_LEVEL" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Load builds the configuration. The YAML path may be empty; a missing
// .env file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validateAll(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "RCord Server"
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8765
	}
	if c.Server.MediaPort == 0 {
		c.Server.MediaPort = c.Server.Port + 1
	}
	if c.Database.Path == "" {
		c.Database.Path = "DB.dat"
	}
	if c.Presence.HeartbeatTimeout == 0 {
		c.Presence.HeartbeatTimeout = 60
	}
	if c.Presence.CheckInterval == 0 {
		c.Presence.CheckInterval = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validateAll() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Server.MediaPort == c.Server.Port {
		return fmt.Errorf("server.media_port must differ from server.port")
	}
	return nil
}

// ControlAddr returns the control listener address.
func (c *Config) ControlAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MediaAddr returns the media listener address.
func (c *Config) MediaAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.MediaPort)
}

// HeartbeatTimeout returns the presence timeout as a duration.
func (c *Config) HeartbeatTimeout() time.Duration {
	return time.Duration(c.Presence.HeartbeatTimeout) * time.Second
}

// CheckInterval returns the monitor sweep interval as a duration.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Presence.CheckInterval) * time.Second
}
