package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/dbbridge/pkg/core"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate checks the configuration. When available is non-empty, driver
// types must be among it. All problems are reported together.
func (c *Config) Validate(available []string) error {
	var errs []error

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level %q must be one of %s", c.Log.Level, strings.Join(logLevels, ", ")))
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		errs = append(errs, fmt.Errorf("log.format %q must be one of %s", c.Log.Format, strings.Join(logFormats, ", ")))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if c.Server.ReadLimit < 0 {
		errs = append(errs, fmt.Errorf("server.read_limit must not be negative"))
	}

	for i, d := range c.Drivers {
		if err := validateDriver(d, available); err != nil {
			errs = append(errs, fmt.Errorf("drivers[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func validateDriver(d core.DriverConfig, available []string) error {
	if d.Type == "" {
		return errors.New("type is required")
	}
	if len(available) > 0 && !slices.Contains(available, d.Type) {
		return fmt.Errorf("unknown driver type %q (available: %s)", d.Type, strings.Join(available, ", "))
	}

	seen := make(map[string]bool)
	for j, db := range d.Databases {
		name := db.Name
		if name == "" && db.Path != "" {
			name = filepath.Base(db.Path)
		}
		if d.Type == "sqlite" && db.Path == "" {
			return fmt.Errorf("databases[%d]: path is required", j)
		}
		if d.Type == "postgres" && db.DSN == "" && d.URI == "" {
			return fmt.Errorf("databases[%d]: dsn is required when uri is not set", j)
		}
		if d.Type == "redis" && db.Index < 0 {
			return fmt.Errorf("databases[%d]: index must not be negative", j)
		}
		if name == "" {
			continue
		}
		if seen[name] {
			return fmt.Errorf("duplicate database name %q", name)
		}
		seen[name] = true
	}
	return nil
}
