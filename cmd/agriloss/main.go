package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/eugenekravchuk/agriculture-losses/internal/config"
	"github.com/eugenekravchuk/agriculture-losses/internal/predict"
	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"github.com/eugenekravchuk/agriculture-losses/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
)

var version = "dev"

// app carries the state shared by all subcommands once the root command has
// loaded the configuration.
type app struct {
	configPath   string
	logLevel     string
	outputFormat string
	lang         string

	conf   *config.Configuration
	logger *zap.Logger
	tag    language.Tag
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "agriloss",
		Short: "Cash-flow forecasts and agricultural loss reports",
		Long: `agriloss validates cash-flow tables and loss inventories, sends them to the
prediction service for a DCF forecast and renders loss reports as PDF.

Run "agriloss serve" to expose the same operations over HTTP.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: ./"+constants.DefaultConfigFile+" or $XDG_CONFIG_HOME/"+constants.XDGConfigFile+")")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	cmd.PersistentFlags().StringVar(&a.lang, "lang", "en", "language of user messages (en, uk)")

	cmd.AddCommand(a.serveCmd())
	cmd.AddCommand(a.forecastCmd())
	cmd.AddCommand(a.reportCmd())
	cmd.AddCommand(a.formatCmd())
	cmd.AddCommand(a.tablesCmd())
	cmd.AddCommand(a.itemsCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) initConfig(_ *cobra.Command, _ []string) error {
	conf, err := config.LoadConfiguration(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// CLI override takes precedence over config
	if a.outputFormat != "" {
		conf.Output.Format = a.outputFormat
	}
	if conf.Output.Format == "" {
		conf.Output.Format = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
		return err
	}

	logger, err := initializeLogger(conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	a.conf = conf
	a.logger = logger
	a.tag = i18n.Match(a.lang)
	return nil
}

func (a *app) client() *predict.Client {
	return predict.NewClient(a.conf.API.BaseURL, a.conf.API.Timeout, predict.WithLogger(a.logger))
}

// userError replaces err with its user-facing message when it carries one.
// The full chain is logged.
func (a *app) userError(err error, op string) error {
	msg, ok := i18n.MessageOf(err)
	if !ok {
		return err
	}
	a.logger.Debug("command failed",
		zap.String("op", op),
		zap.Error(err),
	)
	return errors.New(msg.In(a.tag))
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var config zap.Config
	switch format {
	case "console":
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return config.Build()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}
