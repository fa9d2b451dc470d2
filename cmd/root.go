// =============================================================================
// Hoshuko Library Tools - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (hoshuko)
//   ├── processCmd  (hoshuko process)
//   ├── validateCmd (hoshuko validate)
//   └── versionCmd  (hoshuko version)
//
// The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// defaultConfigFile is read when --config is not given. It may be absent.
const defaultConfigFile = "hoshuko.yaml"

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// mainConfig and logger are set up before any subcommand runs.
var (
	mainConfig *config.MainConfig
	logger     *zap.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "hoshuko",
	Short: "Hoshuko Library Tools - student rosters to library imports, cards and lists",
	Long: `Hoshuko Library Tools turns the school's student roster into the files the
library needs:

  - a tab-separated user import file for the library system
  - printable user cards, twelve per A4 sheet, one grade per sheet
  - printable class lists, twenty students per sheet

Rosters are CSV, TSV or XLSX files with the columns 学籍番号, 氏名, ふりがな
and 学年. Column names, encodings and clean-up rules are set in hoshuko.yaml.

Example Usage:
  hoshuko process roster.csv                    # Write the library import file
  hoshuko process --mode cards roster.xlsx      # Write the card workbook
  hoshuko process --mode list ./rosters         # Lists for every roster in a directory
  hoshuko validate roster.csv                   # Check a roster without writing anything`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// SETUP
// =============================================================================

// setup loads the configuration and builds the logger. The default config
// file is optional; a file named with --config must exist.
func setup(cmd *cobra.Command) error {
	explicit := cmd.Flags().Changed("config")

	cfg, err := config.LoadMainConfig(cfgFile, !explicit)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := newLogger(cfg, verbose)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	mainConfig = cfg
	logger = l

	logger.Debug("configuration loaded",
		zap.String("config", cfgFile),
		zap.Bool("default_file", !explicit),
		zap.String("output_dir", cfg.OutputDir),
	)

	return nil
}

// newLogger builds a console logger on stderr. log_file adds a second sink.
func newLogger(cfg *config.MainConfig, verbose bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zcfg.Sampling = nil
	zcfg.OutputPaths = []string{"stderr"}
	if cfg.LogFile != "" {
		zcfg.OutputPaths = append(zcfg.OutputPaths, cfg.LogFile)
	}

	return zcfg.Build()
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// --config: the YAML configuration file.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the configuration file",
	)

	// --verbose: debug logging, whatever log_level says.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
