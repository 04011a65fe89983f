package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meridianhq/meridian/internal/persistence/postgres"
)

func runMigrate(_ *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := postgres.Migrate(settings.DatabaseURL); err != nil {
		return err
	}
	log.Info().Msg("migrations applied")
	return nil
}
