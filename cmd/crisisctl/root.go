package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/couchcryptid/crisis-triage-service/internal/app"
	"github.com/couchcryptid/crisis-triage-service/internal/config"
	"github.com/couchcryptid/crisis-triage-service/internal/observability"
	"github.com/couchcryptid/crisis-triage-service/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	catalogPath string
	noFixture   bool
	logLevel    string
	asJSON      bool
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

var rootCmd = &cobra.Command{
	Use:   "crisisctl",
	Short: "Inspect normalized crisis feeds and resource recommendations",
	Long: `crisisctl reads the same bulletin and hospital resource files as the
crisis triage service and prints what the service would serve.

  crisisctl crises               List normalized crises, most urgent first
  crisisctl resources            List normalized resource pools
  crisisctl recommend <id>       Rank the top resources for one crisis
  crisisctl validate             Check every feed record normalizes`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errValidationFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dataDir, "data-dir", "", "directory holding the feed files (default: DATA_DIR or ./data)")
	flags.StringVar(&catalogPath, "catalog", "", "YAML title catalog merged over the built-in labels")
	flags.BoolVar(&noFixture, "no-fixture", false, "leave the embedded facility fixture out of the crisis list")
	flags.StringVar(&logLevel, "log-level", "warn", "log level for skipped-record diagnostics (debug, info, warn, error)")
	flags.BoolVar(&asJSON, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(crisesCmd, resourcesCmd, recommendCmd, validateCmd)
}

// loadConfig reads the environment (and .env if present) the way the service
// does, then applies any flags the caller set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("catalog") {
		cfg.TitleCatalogPath = catalogPath
	}
	if noFixture {
		cfg.FacilityFixtureEnabled = false
	}
	return cfg, nil
}

func newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := observability.NewCLILogger(cmd.ErrOrStderr(), logLevel)
	return app.NewPipeline(cfg, nil, logger, observability.NewUnregisteredMetrics())
}
