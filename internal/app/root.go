package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cincanproject/cincan-registry/internal/config"
	"github.com/cincanproject/cincan-registry/internal/logging"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	// cfg and logger are resolved in PersistentPreRunE.
	cfg    *config.Config
	logger = zap.NewNop()

	// RootCmd is the root command for cincan-registry
	RootCmd = &cobra.Command{
		Use:   "cincan-registry",
		Short: "Local cache of tool versions across images, registries and upstream sources",
		Long: `cincan-registry keeps a local SQLite cache of the versions observed for
analysis tools: the image on this host, the image in a remote registry and
the upstream project the tool is built from. Versions in different formats
are normalized before comparison so "v1.2.3", "1.2.3" and "release-1_2_3"
are treated as the same release.

Observations are imported from YAML feeds, either once with 'import' or
continuously with 'watch'.

Examples:
  # Import a feed
  cincan-registry import feed.yaml

  # List tools and whether they are up to date
  cincan-registry list

  # Show one tool in detail
  cincan-registry show cincan/radare2

  # Keep the cache in sync with a feed
  cincan-registry watch feed.yaml --daemon`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "cincan-registry: tool version cache")
			fmt.Fprintln(out)
			if _, err := os.Stat(getDBPath()); os.IsNotExist(err) {
				fmt.Fprintln(out, "Run 'cincan-registry import FILE' to populate the cache.")
			} else {
				fmt.Fprintln(out, "Tip: Run 'cincan-registry list' to see cached tools.")
			}
			fmt.Fprintln(out, "Run 'cincan-registry --help' for all commands.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.cincan/registry/tooldb.sqlite)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/cincan-registry/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return RootCmd.Execute()
}

// setup loads the config and builds the logger. Flags win over the config
// file and the environment.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.DBPath = dbPath
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := logging.New(c.LogLevel)
	if err != nil {
		return err
	}
	cfg = c
	logger = l
	return nil
}

// getDBPath returns the database path, using the flag value or the config
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if cfg != nil {
		return cfg.DBPath
	}
	return config.DefaultDBPath()
}

// stateDir returns the directory holding the database, created if missing.
func stateDir() (string, error) {
	dir := filepath.Dir(getDBPath())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}

// getDefaultPIDFile returns the default PID file path
func getDefaultPIDFile() (string, error) {
	dir, err := stateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.pid"), nil
}

// getDefaultLogFile returns the default log file path
func getDefaultLogFile() (string, error) {
	dir, err := stateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.log"), nil
}
