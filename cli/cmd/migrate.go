package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/identityswitcher/internal/config"
	"github.com/fluxbase-eu/identityswitcher/internal/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load configuration")
			return err
		}
		return migrations.Run(cfg.Database.URL())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
