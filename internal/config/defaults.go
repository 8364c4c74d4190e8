package config

import "time"

// Default configuration values.
const (
	DefaultAddr       = ":9123"
	DefaultReadLimit  = 1 << 20
	DefaultPingPeriod = 30 * time.Second
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultPageSize   = 100
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "dbbridge.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "dbbridge.yml"

// Defaults returns the default values as a flat koanf map.
func Defaults() map[string]any {
	return map[string]any{
		"server.addr":        DefaultAddr,
		"server.read_limit":  DefaultReadLimit,
		"server.ping_period": DefaultPingPeriod.String(),
		"log.level":          DefaultLogLevel,
		"log.format":         DefaultLogFormat,
		"page_size":          DefaultPageSize,
	}
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadLimit == 0 {
		c.Server.ReadLimit = DefaultReadLimit
	}
	if c.Server.PingPeriod == 0 {
		c.Server.PingPeriod = DefaultPingPeriod
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
}
