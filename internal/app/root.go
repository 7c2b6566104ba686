// Package app contains the Cobra command tree for insightwatch.
package app

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/insightwatch/internal/config"
	"github.com/blackwell-systems/insightwatch/internal/output"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

// Set by the persistent pre-run of every command.
var (
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "insightwatch",
	Short: "Rule-based business insights for construction and real-estate records",
	Long: `insightwatch turns payments, purchases, costs and platform KPIs into a short,
ranked list of plain-language insights. Records can be evaluated straight from
a YAML or JSON file, imported into a local store, or served over HTTP.

Run 'insightwatch' with no arguments to see the available commands.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("insightwatch", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  generate  Evaluate a domain and print its insights")
		fmt.Println("  import    Load records into the local store")
		fmt.Println("  history   List saved insight runs")
		fmt.Println("  dismiss   Hide an insight from stored results")
		fmt.Println("  serve     Expose insight generation over HTTP")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/insightwatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}

// setup loads the configuration and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg = c

	if flagNoColor || !cfg.Output.Color || !isTerminal(os.Stdout) {
		output.SetNoColor(true)
	}

	l, err := newLogger(cfg.Log, flagVerbose)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// newLogger builds a zap logger from the log settings. Verbose forces the
// debug level.
func newLogger(lc config.Log, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}

	level := zapcore.InfoLevel
	if lc.Level != "" {
		parsed, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
		}
		level = parsed
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return l, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
