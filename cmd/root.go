package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/aqireport/internal/config"
	"github.com/KaramelBytes/aqireport/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagLogLevel  string
	flagLogFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "aqireport",
	Short: "aqireport: turn hourly air-quality readings into a PDF report",
	Long: `aqireport loads an hourly pollutant dataset (CSV, TSV or XLSX), computes daily, monthly,
hourly and correlation views, renders them as charts and assembles a PDF report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.aqireport/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// effectiveConfig returns the loaded config or an empty one.
func effectiveConfig() *cfgpkg.Global {
	if cfg == nil {
		return &cfgpkg.Global{OutputPath: cfgpkg.DefaultOutputPath}
	}
	return cfg
}

func setupLogger() error {
	c := effectiveConfig()
	level, format := c.LogLevel, c.LogFormat
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if flagLogFormat != "" {
		format = flagLogFormat
	}
	if debug {
		level = "debug"
	}
	l, err := logger.New(level, format, os.Stderr)
	if err != nil {
		return err
	}
	log = l
	return nil
}
