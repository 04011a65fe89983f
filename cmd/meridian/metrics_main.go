package main

import (
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// runMetricsDump prints every registered metric family with its current
// values.
func runMetricsDump(_ *cobra.Command, _ []string) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, family := range families {
		fmt.Printf("%s [%s] %s\n", family.GetName(), family.GetType().String(), family.GetHelp())
		for _, metric := range family.GetMetric() {
			labels := ""
			for _, pair := range metric.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", pair.GetName(), pair.GetValue())
			}
			switch {
			case metric.GetCounter() != nil:
				fmt.Printf("  %v%s\n", metric.GetCounter().GetValue(), labels)
			case metric.GetGauge() != nil:
				fmt.Printf("  %v%s\n", metric.GetGauge().GetValue(), labels)
			case metric.GetHistogram() != nil:
				fmt.Printf("  count=%d sum=%v%s\n",
					metric.GetHistogram().GetSampleCount(), metric.GetHistogram().GetSampleSum(), labels)
			}
		}
	}
	return nil
}
