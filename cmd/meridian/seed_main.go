package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridianhq/meridian/internal/seed"
)

func runSeedCases(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := seed.Cases(cmd.Context(), app.cases(), dir)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d historical cases\n", n)
	return nil
}

func runSeedMetals(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := seed.Metals(cmd.Context(), app.metals(), dir)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d metals knowledge entries\n", n)
	return nil
}

func runSeedEmbeddings(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := seed.Embeddings(cmd.Context(), app.cases(), path)
	if err != nil {
		return err
	}
	fmt.Printf("updated embeddings on %d cases\n", n)
	return nil
}
