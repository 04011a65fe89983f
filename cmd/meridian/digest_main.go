package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/meridianhq/meridian/internal/digest"
	"github.com/meridianhq/meridian/internal/models"
)

func runDigest(cmd *cobra.Command, _ []string) error {
	dateArg, _ := cmd.Flags().GetString("date")
	rebuild, _ := cmd.Flags().GetBool("rebuild")

	date := time.Now().UTC()
	if dateArg != "" {
		var err error
		if date, err = time.ParseInLocation("2006-01-02", dateArg, time.UTC); err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", dateArg)
		}
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	composer := digest.NewComposer(
		app.events(), app.prices(), app.calendar(),
		app.theses(), app.contexts(), app.digests(),
	)

	var d *models.DailyDigest
	if rebuild {
		d, err = composer.Build(cmd.Context(), date)
	} else {
		d, err = composer.GetOrCreate(cmd.Context(), date)
	}
	if err != nil {
		return err
	}
	fmt.Println(d.FullDigest)
	return nil
}
