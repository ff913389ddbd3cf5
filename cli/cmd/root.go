// Package cmd contains the identityswitcher CLI commands.
package cmd

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "identityswitcher",
	Short: "Tenant-scoped user impersonation service",
	Long: `identityswitcher lets an administrator impersonate other registered
users of a tenant for testing: list searchable profile fields, search the
user directory, and switch the active session to a chosen user.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; explicit environment wins anyway.
		_ = godotenv.Load()
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
}

func setupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(os.Getenv("IDSW_LOG_LEVEL")); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("IDSW_LOG_FORMAT") == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
