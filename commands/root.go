// Package commands is the order-assistant command line.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"order-assistant/config"
	"order-assistant/logger"
)

const version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "order-assistant",
	Short:   "Chat relay that turns a WhatsApp-style conversation into a pizza order",
	Version: version,
	Long: `order-assistant relays chat messages to an OpenAI chat-completion model,
keeps the conversation per session and posts the confirmed order to a webhook.

Without a subcommand it runs the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "optional config file (yaml, json or toml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statusCmd)
}

// bootstrap loads configuration and installs the process logger.
func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.Setup(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}
