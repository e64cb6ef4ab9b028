// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"smarttax/receipt-ocr/internal/config"
	"smarttax/receipt-ocr/internal/container"
	"smarttax/receipt-ocr/internal/logging"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	ConfigFile string
	Output     string
	UserID     string
	LogLevel   string
	LogFormat  string
}

var (
	// Log is the shared logger instance for commands
	Log = logging.NewLogrusAdapter("info", "text")

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "receipt-ocr",
		Short: "A CLI tool to extract structured data from receipt OCR text.",
		Long: `receipt-ocr turns raw OCR text of shop receipts into structured records.
Known merchants are matched against templates; other receipts go through
dictionary correction and heuristic field extraction.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to receipt-ocr!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeContainer(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeContainer()
		},
	}

	// SharedFlags holds the flags accessible to all commands
	SharedFlags = CommonFlags{}

	appConfig    *config.Config
	appContainer *container.Container
)

// Init initializes the root command and all flags
func Init() {
	flags := Cmd.PersistentFlags()
	flags.StringVar(&SharedFlags.ConfigFile, "config", "", "Config file (default searches $HOME/.receipt-ocr, .receipt-ocr and .)")
	flags.StringVarP(&SharedFlags.Output, "output", "o", "", "Output file or directory (default stdout or current directory)")
	flags.StringVarP(&SharedFlags.UserID, "user", "u", "", "User whose personal dictionary is layered over the global one")
	flags.StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format (text or json)")
}

func initializeContainer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	config.LoadEnv(Log)

	cfg, err := config.InitializeConfig(SharedFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyFlagOverrides(cfg)

	Log = config.NewLogger(cfg)
	logging.SetLogger(Log)

	c, err := container.NewContainer(ctx, cfg, container.WithLogger(Log))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	appConfig = cfg
	appContainer = c
	return nil
}

func applyFlagOverrides(cfg *config.Config) {
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = SharedFlags.LogLevel
	}
	if SharedFlags.LogFormat != "" {
		cfg.Log.Format = SharedFlags.LogFormat
	}
	if SharedFlags.UserID != "" {
		cfg.Dictionary.UserID = SharedFlags.UserID
	}
}

func closeContainer() {
	if appContainer == nil {
		return
	}
	if err := appContainer.Close(); err != nil {
		Log.WithError(err).Warn("Failed to close application resources")
	}
	appContainer = nil
}

// GetContainer returns the container built for the running command, nil
// before PersistentPreRunE has run.
func GetContainer() *container.Container {
	return appContainer
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return appConfig
}

// GetLogger returns the shared command logger.
func GetLogger() logging.Logger {
	return Log
}

// LoadResources refreshes the dictionary and templates, logging each stage
// that failed. Commands keep running on whatever loaded.
func LoadResources(ctx context.Context) error {
	if appContainer == nil {
		return fmt.Errorf("container not initialized")
	}
	report := appContainer.Refresh(ctx)
	for _, w := range report.Warnings {
		Log.WithError(w).Warn("Resource load stage failed")
	}
	Log.Debug("Resources loaded",
		logging.Field{Key: "merchants", Value: report.Merchants},
		logging.Field{Key: "terms", Value: report.Terms},
		logging.Field{Key: "templates", Value: report.TemplatesLoaded})
	return nil
}
