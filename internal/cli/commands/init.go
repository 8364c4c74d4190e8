package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sharedcfg "github.com/leapstack-labs/dbbridge/internal/config"
	"github.com/leapstack-labs/dbbridge/internal/sample"
	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Force    bool
	NoSample bool
}

// sampleDBPath is the sample database location, relative to the project.
const sampleDBPath = "data/sample.db"

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a dbbridge.yaml and a sample database",
		Long: `Initialize a dbbridge project.

This creates:
  - dbbridge.yaml exposing the sample database and the process realm
  - data/sample.db, a SQLite database with customers, products and orders`,
		Example: `  # Initialize in current directory
  dbbridge init

  # Initialize in a new directory without the sample database
  dbbridge init my-bridge --no-sample

  # Force overwrite existing config
  dbbridge init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&opts.NoSample, "no-sample", false, "Do not create the sample database")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, opts *InitOptions) error {
	r := NewCommandContextWithoutDrivers(cmd).Renderer

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, sharedcfg.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", sharedcfg.ConfigFileName)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	data, err := initialConfig(!opts.NoSample)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	r.Printf("created %s\n", configPath)

	if !opts.NoSample {
		dbPath := filepath.Join(dir, sampleDBPath)
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		if err := sample.Create(cmd.Context(), dbPath); err != nil {
			return fmt.Errorf("failed to create sample database: %w", err)
		}
		r.Printf("created %s\n", dbPath)
	}

	r.Println("")
	r.Println("Next steps:")
	r.Println("  dbbridge databases    List the exposed databases")
	r.Println("  dbbridge shell        Browse them interactively")
	r.Println("  dbbridge serve        Serve them to inspector clients")
	return nil
}

const configHeader = `# dbbridge configuration.
# Values can be overridden with DBBRIDGE_ environment variables
# (DBBRIDGE_SERVER__ADDR) or command line flags.
`

// initialConfig renders the starter configuration.
func initialConfig(withSample bool) ([]byte, error) {
	cfg := sharedcfg.Config{
		Server:   sharedcfg.ServerConfig{Addr: sharedcfg.DefaultAddr},
		Log:      sharedcfg.LogConfig{Level: sharedcfg.DefaultLogLevel, Format: sharedcfg.DefaultLogFormat},
		PageSize: sharedcfg.DefaultPageSize,
	}
	if withSample {
		cfg.Drivers = append(cfg.Drivers, core.DriverConfig{
			Type:      "sqlite",
			Databases: []core.DatabaseConfig{{Name: filepath.Base(sampleDBPath), Path: sampleDBPath}},
		})
	}
	cfg.Drivers = append(cfg.Drivers, core.DriverConfig{
		Type:      "objects",
		Databases: []core.DatabaseConfig{{Name: ProcessRealm}},
	})

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
