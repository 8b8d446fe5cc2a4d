// Package main is the jobscout CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/jobscout/internal/app"
	"github.com/hyperjump/jobscout/internal/config"
	"github.com/hyperjump/jobscout/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/jobscout/config.yaml"

// errReported means the command already printed its failure.
var errReported = errors.New("reported")

var (
	configPath string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:           "jobscout",
	Short:         "Ask questions about freshly scraped job postings",
	Long:          "jobscout scrapes job postings into a local corpus, indexes them for semantic and keyword search, and answers questions grounded in the postings and your résumé.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if hints := errors.FlattenHints(err); hints != "" {
				fmt.Fprintf(os.Stderr, "Hint: %s\n", hints)
			}
		}
		os.Exit(1)
	}
}

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if present; when neither exists, built-in defaults are used.
// Returns the config and the path that was loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads config and builds a logger honoring --debug.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load config")
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create logger")
	}
	if resolved == "" {
		resolved = "(defaults)"
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger, nil
}

// withComponents runs fn with initialized components under a signal-aware context.
func withComponents(fn func(ctx context.Context, c *app.Components) error) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := app.Initialize(ctx, cfg, logger)
	if err != nil {
		return errors.Wrap(err, "failed to initialize components")
	}
	defer c.Close()
	return fn(ctx, c)
}
