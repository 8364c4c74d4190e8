// Package config loads the dbbridge CLI configuration.
//
// The shared configuration types live in internal/config. This package adds
// the CLI-only fields and layers defaults, the config file, environment
// variables and command-line flags on top of each other.
package config

import (
	sharedcfg "github.com/leapstack-labs/dbbridge/internal/config"
	"github.com/leapstack-labs/dbbridge/pkg/core"
)

// DriverConfig is an alias for the shared driver configuration.
type DriverConfig = core.DriverConfig

// DatabaseConfig is an alias for the shared database configuration.
type DatabaseConfig = core.DatabaseConfig

// Config holds all CLI configuration options.
type Config struct {
	sharedcfg.Config `koanf:",squash"`

	// Output selects how commands render results: table or json.
	Output  string `koanf:"output"`
	Verbose bool   `koanf:"verbose"`

	// ConfigDir is the directory of the loaded config file. Relative
	// database paths are resolved against it.
	ConfigDir string `koanf:"-"`
}

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// DefaultOutput is the output format used when none is configured.
const DefaultOutput = OutputTable
