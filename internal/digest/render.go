package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/meridianhq/meridian/internal/models"
)

// render produces the plain-text briefing. Every section prints even
// when empty so the layout stays stable day to day.
func render(
	day time.Time,
	events []eventView,
	metals []metalView,
	ratio *ratioView,
	calendar []models.EconomicEvent,
	theses []models.Thesis,
	mc *models.MarketContext,
) string {
	var lines []string
	lines = append(lines, "MERIDIAN DAILY BRIEFING")
	lines = append(lines, day.Format("Monday, Jan 02, 2006")+" (UTC)")
	lines = append(lines, "")

	lines = append(lines, renderContext(mc)...)
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("PRIORITY EVENTS (%d)", len(events)))
	if len(events) == 0 {
		lines = append(lines, "- None")
	}
	for _, e := range events {
		headline := e.Headline
		if headline == "" {
			headline = "untitled event"
		}
		scoreText := "n/a"
		if e.Score != nil {
			scoreText = fmt.Sprintf("%d/100", *e.Score)
		}
		suffix := ""
		if e.AnalysisReady {
			suffix = " [analysis ready]"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)%s", headline, scoreText, suffix))
	}

	lines = append(lines, "")
	lines = append(lines, "METALS SNAPSHOT")
	lines = append(lines, renderMetals(metals, ratio)...)

	lines = append(lines, "")
	lines = append(lines, "TODAY'S CALENDAR")
	if len(calendar) == 0 {
		lines = append(lines, "- None")
	}
	for _, e := range calendar {
		lines = append(lines, renderCalendarLine(e))
	}

	lines = append(lines, "")
	lines = append(lines, "THESIS UPDATES")
	if len(theses) == 0 {
		lines = append(lines, "- None")
	}
	for _, th := range theses {
		lines = append(lines, renderThesisLine(th))
	}

	return strings.Join(lines, "\n")
}

func renderContext(mc *models.MarketContext) []string {
	lines := []string{"MARKET CONTEXT"}
	if mc == nil {
		return append(lines, "- No market context available")
	}

	var regimes []string
	for _, part := range []struct{ label, value string }{
		{"Vol", mc.VolatilityRegime},
		{"USD", mc.DollarRegime},
		{"Curve", mc.CurveRegime},
		{"Credit", mc.CreditRegime},
	} {
		if part.value != "" {
			regimes = append(regimes, part.label+": "+strings.ToUpper(part.value))
		}
	}
	if len(regimes) > 0 {
		lines = append(lines, "Regimes: "+strings.Join(regimes, " | "))
	}

	var levels []string
	if mc.VIXLevel != nil {
		levels = append(levels, fmt.Sprintf("VIX %.1f", *mc.VIXLevel))
	}
	if mc.DXYLevel != nil {
		levels = append(levels, fmt.Sprintf("DXY %.1f", *mc.DXYLevel))
	}
	if mc.US10YLevel != nil {
		levels = append(levels, fmt.Sprintf("10Y %.2f%%", *mc.US10YLevel))
	}
	if mc.GoldLevel != nil {
		levels = append(levels, fmt.Sprintf("Gold $%.0f", *mc.GoldLevel))
	}
	if mc.OilLevel != nil {
		levels = append(levels, fmt.Sprintf("Oil $%.1f", *mc.OilLevel))
	}
	if len(levels) > 0 {
		lines = append(lines, "Levels: "+strings.Join(levels, " | "))
	}

	lines = append(lines, fmt.Sprintf("Position Sizing: %.0f%% of normal", mc.SuggestedSizeMultiplier*100))
	return lines
}

func renderMetals(metals []metalView, ratio *ratioView) []string {
	var lines []string
	for _, mv := range metals {
		if mv.Price == nil {
			continue
		}
		label := strings.ToUpper(mv.Metal[:1]) + mv.Metal[1:]
		lines = append(lines, fmt.Sprintf("%s: $%.2f (%s)", label, *mv.Price, formatPercent(mv.ChangePercent)))
	}
	if ratio != nil && ratio.Value != nil {
		lines = append(lines, fmt.Sprintf("G/S Ratio: %.2f (%s)", *ratio.Value, formatPercent(ratio.ChangePercent)))
	}
	if len(lines) == 0 {
		return []string{"- No price data"}
	}
	return lines
}

func renderCalendarLine(e models.EconomicEvent) string {
	when := "??:??"
	if !e.EventDate.IsZero() {
		when = e.EventDate.UTC().Format("15:04")
	}
	name := e.EventName
	if name == "" {
		name = "event"
	}
	impact := "N/A"
	if e.ImpactLevel != nil && *e.ImpactLevel != "" {
		impact = strings.ToUpper(*e.ImpactLevel)
	}
	regionLabel := ""
	if e.Region != nil && *e.Region != "" &&
		!strings.Contains(strings.ToUpper(name), strings.ToUpper(*e.Region)) {
		regionLabel = *e.Region + " "
	}
	return fmt.Sprintf("- %s %s%s (%s)", when, regionLabel, name, impact)
}

func renderThesisLine(th models.Thesis) string {
	title := th.Title
	if title == "" {
		title = "untitled thesis"
	}
	status := "unknown"
	if th.Status != nil && *th.Status != "" {
		status = *th.Status
	}
	var suffixParts []string
	if th.AssetSymbol != nil && *th.AssetSymbol != "" {
		suffixParts = append(suffixParts, *th.AssetSymbol)
	}
	if th.PriceChangePercent != nil {
		suffixParts = append(suffixParts, formatPercent(th.PriceChangePercent))
	}
	suffix := ""
	if len(suffixParts) > 0 {
		suffix = " " + strings.Join(suffixParts, " ")
	}
	return fmt.Sprintf("- %s (%s)%s", title, status, suffix)
}

// formatPercent renders a signed two-decimal percentage, "n/a" when nil.
func formatPercent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	sign := ""
	if *v > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, *v)
}
