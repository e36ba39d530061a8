package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/surveylens-cli/internal/config"
	"github.com/KaramelBytes/surveylens-cli/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration; never nil after loadConfig.
	cfg *cfgpkg.Global
	// logger writes diagnostics to stderr; user-facing output stays on stdout.
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "surveylens",
	Short: "SurveyLens CLI: describe, plot and test a student mental-health survey",
	Long: `SurveyLens loads one survey export (CSV, TSV or XLSX), summarizes its columns,
draws their distributions and runs a fixed set of hypothesis tests relating
lifestyle and academic variables to depression.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	defer func() { _ = logger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.surveylens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	l, err := logging.New(cfg.LogLevel, debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
		l, _ = logging.New("info", debug)
	}
	logger = l
}
