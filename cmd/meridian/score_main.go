package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridianhq/meridian/internal/analysis"
	"github.com/meridianhq/meridian/internal/historical"
	"github.com/meridianhq/meridian/internal/score"
)

func runScore(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := score.NewPass(app.events()).Run(cmd.Context(), limit, dryRun)
	if err != nil {
		return err
	}
	fmt.Printf("scored %d events: %d priority, %d monitoring, %d logged\n",
		result.Scored, result.Priority, result.Monitoring, result.Logged)
	return nil
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	providerName, _ := cmd.Flags().GetString("provider")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	printPrompts, _ := cmd.Flags().GetBool("print-prompts")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if providerName == "" {
		providerName = "local"
		if app.settings.OpenRouterAPIKey != "" {
			providerName = "openrouter"
		}
	}
	var provider analysis.Provider
	switch providerName {
	case "local":
		provider = analysis.Local{}
	case "openrouter":
		if provider, err = analysis.NewOpenRouter(app.fetchClient(0), app.settings); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown provider %q: expected openrouter or local", providerName)
	}

	analyzer := analysis.NewAnalyzer(app.events(), app.metals(), app.cases(), provider)
	analyzer.DryRun = dryRun
	if printPrompts {
		analyzer.PromptWriter = os.Stdout
	}

	result, err := analyzer.RunBatch(cmd.Context(), limit, overwrite)
	if err != nil {
		return err
	}
	fmt.Printf("analysis batch: %d candidates, %d analyzed, %d skipped, %d failed\n",
		result.Candidates, result.Analyzed, result.Skipped, result.Failed)
	return nil
}

func runSimilarCases(cmd *cobra.Command, _ []string) error {
	text, _ := cmd.Flags().GetString("text")
	eventType, _ := cmd.Flags().GetString("event-type")
	limit, _ := cmd.Flags().GetInt("limit")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	matches, err := historical.NewMatcher(app.cases()).Find(cmd.Context(), historical.Query{
		EventText: text,
		EventType: eventType,
		Limit:     limit,
	})
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Println("no matching cases")
		return nil
	}

	for _, m := range matches {
		line := fmt.Sprintf("%s (%s)", m.EventName, m.DateRange)
		if m.SignificanceScore != nil {
			line += fmt.Sprintf(" significance=%d", *m.SignificanceScore)
		}
		switch {
		case m.Distance != nil:
			line += fmt.Sprintf(" distance=%.4f", *m.Distance)
		case m.MatchScore != nil:
			line += fmt.Sprintf(" score=%d", *m.MatchScore)
		}
		fmt.Printf("%s [%s]\n", line, m.MatchMethod)
	}
	return nil
}
