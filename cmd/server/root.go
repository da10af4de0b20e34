package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/grams-server/internal/config"
	applog "github.com/vovakirdan/grams-server/internal/log"
)

var (
	configPath string
	overrides  config.Config

	cfg    config.Config
	logger *zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "grams",
	Short: "Grams server - share short posts",
	Long: `grams serves the Grams web application: HTML pages, a JSON API and a live
feed of gram changes. Without a subcommand it starts the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		bootstrap := applog.New("info", overrides.LogFormat)

		loaded, path, err := config.Load(bootstrap, configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		loaded.UpdateFrom(overrides)
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", path, err)
		}

		cfg = loaded
		logger = applog.New(cfg.LogLevel, cfg.LogFormat)
		logger.Debug().Str("config", path).Msg("configuration loaded")
		for _, key := range cfg.InsecureSecrets() {
			logger.Warn().Str("key", key).Str("config", path).Msg("secret is still the built-in placeholder, set it before exposing the server")
		}
		return nil
	},
	RunE: runServe,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to config file (default ./config.yaml)")
	flags.StringVar(&overrides.DatabasePath, "db", "", "SQLite database path")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&overrides.LogFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
}
