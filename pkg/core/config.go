package core

// DriverConfig configures one driver instance. Drivers are registered by
// Type and receive the whole struct when opened.
type DriverConfig struct {
	Type string `koanf:"type" yaml:"type"`

	// Databases lists statically configured databases, in exposure order.
	Databases []DatabaseConfig `koanf:"databases" yaml:"databases,omitempty"`

	// Dir enables dynamic enumeration of database files (sqlite).
	Dir string `koanf:"dir" yaml:"dir,omitempty"`

	URI      string `koanf:"uri" yaml:"uri,omitempty"`
	Addr     string `koanf:"addr" yaml:"addr,omitempty"`
	Password string `koanf:"password" yaml:"password,omitempty"`
	Schema   string `koanf:"schema" yaml:"schema,omitempty"`

	Options map[string]string `koanf:"options" yaml:"options,omitempty"`
	Params  map[string]any    `koanf:"params" yaml:"params,omitempty"`
}

// DatabaseConfig names one database of a driver.
type DatabaseConfig struct {
	Name string `koanf:"name" yaml:"name"`
	// Path is a file path for embedded engines.
	Path string `koanf:"path" yaml:"path,omitempty"`
	// DSN is a connection string for server engines.
	DSN string `koanf:"dsn" yaml:"dsn,omitempty"`
	// Index selects a logical database number (redis).
	Index int `koanf:"index" yaml:"index,omitempty"`
}
