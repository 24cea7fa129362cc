package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/bpmx"
	"github.com/aretw0/bpmx/internal/config"
	"github.com/aretw0/bpmx/internal/logger"
)

var (
	verbose    bool
	logFile    string
	configPath string

	cfg       *config.Config
	logCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bpmx",
	Short: "Document connectors and per-process history for BPMN engines",
	Long: `bpmx browses and edits documents through a connector and runs BPMN
processes against history levels chosen per process.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(configPath)
		if err != nil {
			return err
		}

		logCfg := logger.Config{
			Level:      cfg.Log.Level,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		}
		if verbose {
			logCfg.Level = "debug"
		}
		if logFile != "" {
			logCfg.File = logFile
		}

		log, closer, err := logger.New(logCfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logCloser = closer
		slog.SetDefault(log)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the root command and closes the log output afterwards.
// Cobra skips post-run hooks when a command fails, so closing happens here.
func run(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if logCloser != nil {
		if cerr := logCloser.Close(); cerr != nil && err == nil {
			err = cerr
		}
		logCloser = nil
	}
	return err
}

// loadConfig reads the explicit config file, or the bpmx.yaml of the
// enclosing project, or falls back to defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := bpmx.FindRoot(wd)
	if err != nil {
		return config.Default(), nil
	}

	c, err := config.Load(filepath.Join(root, "bpmx.yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return c, err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to a rotating file")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to bpmx.yaml (default: project root)")
}
