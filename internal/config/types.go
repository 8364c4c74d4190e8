// Package config provides the configuration types shared by the dbbridge
// CLI and server, with their defaults and validation. Loading is done by
// internal/cli/config.
package config

import (
	"time"

	"github.com/leapstack-labs/dbbridge/pkg/core"
)

// Config is the complete dbbridge configuration.
type Config struct {
	Server   ServerConfig        `koanf:"server" yaml:"server"`
	Log      LogConfig           `koanf:"log" yaml:"log"`
	PageSize int                 `koanf:"page_size" yaml:"page_size"`
	Drivers  []core.DriverConfig `koanf:"drivers" yaml:"drivers"`
}

// ServerConfig configures the websocket and HTTP transport.
type ServerConfig struct {
	Addr           string        `koanf:"addr" yaml:"addr"`
	AllowedOrigins []string      `koanf:"allowed_origins" yaml:"allowed_origins,omitempty"`
	ReadLimit      int64         `koanf:"read_limit" yaml:"read_limit,omitempty"`
	PingPeriod     time.Duration `koanf:"ping_period" yaml:"ping_period,omitempty"`
	// Watch re-initializes the registry when a watched sqlite directory changes.
	Watch bool `koanf:"watch" yaml:"watch,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
