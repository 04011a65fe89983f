package channels

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultMaxChannels caps how many channels discovery attaches to one event.
const DefaultMaxChannels = 5

// tickerPattern matches candidates like AAPL, CL=F, GC=F.
var tickerPattern = regexp.MustCompile(`\b([A-Z]{1,5}(?:=[A-Z])?)\b`)

var (
	bareTickerPattern   = regexp.MustCompile(`^[A-Z]{1,5}$`)
	dottedTickerPattern = regexp.MustCompile(`^[A-Z]{1,4}\.[A-Z]$`)
)

// nonTickers holds pattern matches that are never symbols: stopwords,
// institutions, data-release acronyms, calendar/unit shorthand.
var nonTickers = map[string]bool{
	"A": true, "I": true, "AND": true, "THE": true, "FOR": true, "WITH": true,
	"FROM": true, "THIS": true, "THAT": true, "THEY": true, "ARE": true,
	"WAS": true, "WERE": true, "BEEN": true, "HAVE": true, "HAS": true,
	"HAD": true, "DO": true, "DOES": true, "DID": true, "CAN": true,
	"COULD": true, "WOULD": true, "SHOULD": true, "MAY": true, "MIGHT": true,
	"MUST": true, "WILL": true, "IS": true, "IT": true, "BE": true,
	"TO": true, "OF": true, "IN": true, "ON": true, "AT": true, "BY": true,
	"AS": true, "OR": true, "AN": true, "IF": true, "SO": true, "NO": true,
	"YES": true, "NOT": true, "BUT": true, "ALL": true, "ANY": true, "NEW": true,
	"US": true, "UK": true, "EU": true,
	"FED": true, "ECB": true, "BOJ": true, "BOE": true, "PBOC": true,
	"OPEC": true, "GDP": true, "CPI": true, "PPI": true, "PMI": true,
	"NFP": true, "ISM": true, "FOMC": true, "RBI": true, "SNB": true,
	"CEO": true, "CFO": true, "COO": true, "IPO": true, "ETF": true,
	"NYSE": true, "NASDAQ": true, "DOW": true, "VS": true,
	"AM": true, "PM": true, "EST": true, "PST": true, "UTC": true, "GMT": true,
	"Q1": true, "Q2": true, "Q3": true, "Q4": true,
	"YTD": true, "YOY": true, "MOM": true, "QOQ": true,
	"BPS": true, "PCT": true, "MN": true, "BN": true, "TN": true, "MM": true, "K": true,
}

var validSuffixes = []string{"=F", "=X"}

// DiscoveryResult is the asset-discovery output for one event.
type DiscoveryResult struct {
	Channels         []Channel `json:"-"`
	PrimaryAssets    []string  `json:"primary_assets"`
	SecondaryAssets  []string  `json:"secondary_assets"`
	DiscoveredAssets []string  `json:"discovered_assets"`
	SearchQueries    []string  `json:"search_queries_used"`
	Errors           []string  `json:"errors,omitempty"`
}

// AllAssets returns every asset in priority order: primary, secondary,
// discovered; deduplicated.
func (r DiscoveryResult) AllAssets() []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]string{r.PrimaryAssets, r.SecondaryAssets, r.DiscoveredAssets} {
		for _, asset := range group {
			if !seen[asset] {
				seen[asset] = true
				out = append(out, asset)
			}
		}
	}
	return out
}

// ChannelTypes returns the matched channel type identifiers in order.
func (r DiscoveryResult) ChannelTypes() []string {
	types := make([]string, len(r.Channels))
	for i, c := range r.Channels {
		types[i] = c.Type
	}
	return types
}

// ToMap serialises the result for persistence in event JSON columns.
func (r DiscoveryResult) ToMap() map[string]any {
	names := make([]string, len(r.Channels))
	for i, c := range r.Channels {
		names[i] = c.Name
	}
	return map[string]any{
		"channels":            names,
		"channel_types":       r.ChannelTypes(),
		"primary_assets":      r.PrimaryAssets,
		"secondary_assets":    r.SecondaryAssets,
		"discovered_assets":   r.DiscoveredAssets,
		"all_assets":          r.AllAssets(),
		"search_queries_used": r.SearchQueries,
		"errors":              r.Errors,
	}
}

// DiscoverOptions tune a discovery run. Zero value means defaults.
type DiscoverOptions struct {
	MaxChannels      int
	ExcludeSecondary bool
}

// Discover matches an event to channels and collects their assets.
// Keyword matches come first (more specific), then event-type matches;
// channels dedupe by type and cap at MaxChannels. Secondary assets never
// shadow a primary.
func Discover(headline, eventType, fullText string, opts DiscoverOptions) DiscoveryResult {
	maxChannels := opts.MaxChannels
	if maxChannels <= 0 {
		maxChannels = DefaultMaxChannels
	}

	var result DiscoveryResult

	keywordMatched := MatchByKeywords(headline + " " + fullText)
	var typeMatched []Channel
	if eventType != "" {
		typeMatched = ForEventType(eventType)
	}

	seenTypes := make(map[string]bool)
	for _, group := range [][]Channel{keywordMatched, typeMatched} {
		for _, c := range group {
			if !seenTypes[c.Type] {
				seenTypes[c.Type] = true
				result.Channels = append(result.Channels, c)
			}
		}
	}
	if len(result.Channels) > maxChannels {
		result.Channels = result.Channels[:maxChannels]
	}

	primarySeen := make(map[string]bool)
	secondarySeen := make(map[string]bool)
	for _, c := range result.Channels {
		for _, asset := range c.PrimaryAssets {
			if !primarySeen[asset] {
				primarySeen[asset] = true
				result.PrimaryAssets = append(result.PrimaryAssets, asset)
			}
		}
		if opts.ExcludeSecondary {
			continue
		}
		for _, asset := range c.SecondaryAssets {
			if !secondarySeen[asset] && !primarySeen[asset] {
				secondarySeen[asset] = true
				result.SecondaryAssets = append(result.SecondaryAssets, asset)
			}
		}
	}

	for _, c := range result.Channels {
		result.SearchQueries = append(result.SearchQueries, c.SearchQueries...)
	}
	return result
}

// MergeResults folds several discovery results into one, preserving
// order: channels dedupe by type and stay capped at DefaultMaxChannels,
// secondary assets never shadow a primary, discovered assets never
// shadow either.
func MergeResults(results ...DiscoveryResult) DiscoveryResult {
	var merged DiscoveryResult

	seenTypes := make(map[string]bool)
	primarySeen := make(map[string]bool)
	secondarySeen := make(map[string]bool)
	discoveredSeen := make(map[string]bool)
	querySeen := make(map[string]bool)

	for _, r := range results {
		for _, c := range r.Channels {
			if !seenTypes[c.Type] && len(merged.Channels) < DefaultMaxChannels {
				seenTypes[c.Type] = true
				merged.Channels = append(merged.Channels, c)
			}
		}
		for _, asset := range r.PrimaryAssets {
			if !primarySeen[asset] {
				primarySeen[asset] = true
				merged.PrimaryAssets = append(merged.PrimaryAssets, asset)
			}
		}
		for _, asset := range r.SecondaryAssets {
			if !secondarySeen[asset] && !primarySeen[asset] {
				secondarySeen[asset] = true
				merged.SecondaryAssets = append(merged.SecondaryAssets, asset)
			}
		}
		for _, asset := range r.DiscoveredAssets {
			if !discoveredSeen[asset] && !primarySeen[asset] && !secondarySeen[asset] {
				discoveredSeen[asset] = true
				merged.DiscoveredAssets = append(merged.DiscoveredAssets, asset)
			}
		}
		for _, q := range r.SearchQueries {
			if !querySeen[q] {
				querySeen[q] = true
				merged.SearchQueries = append(merged.SearchQueries, q)
			}
		}
		merged.Errors = append(merged.Errors, r.Errors...)
	}
	return merged
}

// FormatForPrompt renders the discovery as plain text for prompt
// injection.
func FormatForPrompt(r DiscoveryResult) string {
	var b strings.Builder
	for _, c := range r.Channels {
		fmt.Fprintf(&b, "- %s (%s): %s\n", c.Name, c.Type, c.Description)
	}
	if len(r.PrimaryAssets) > 0 {
		fmt.Fprintf(&b, "Primary assets: %s\n", strings.Join(r.PrimaryAssets, ", "))
	}
	if len(r.SecondaryAssets) > 0 {
		fmt.Fprintf(&b, "Secondary assets: %s\n", strings.Join(r.SecondaryAssets, ", "))
	}
	if len(r.DiscoveredAssets) > 0 {
		fmt.Fprintf(&b, "Discovered assets: %s\n", strings.Join(r.DiscoveredAssets, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// DiscoverByChannelType returns one channel's assets directly.
func DiscoverByChannelType(channelType string, includeSecondary bool) DiscoveryResult {
	var result DiscoveryResult
	c, ok := ByType(channelType)
	if !ok {
		result.Errors = append(result.Errors, fmt.Sprintf("unknown channel type: %s", channelType))
		return result
	}
	result.Channels = []Channel{c}
	result.PrimaryAssets = append([]string(nil), c.PrimaryAssets...)
	if includeSecondary {
		result.SecondaryAssets = append([]string(nil), c.SecondaryAssets...)
	}
	result.SearchQueries = append([]string(nil), c.SearchQueries...)
	return result
}

// ExtractTickers pulls candidate symbols out of free text, filtering the
// stopword set. Bare candidates must be 2-5 letters; suffixed ones
// (CL=F, EURUSD=X) pass through the suffix allowlist.
func ExtractTickers(text string) []string {
	var tickers []string
	seen := make(map[string]bool)
	for _, match := range tickerPattern.FindAllString(text, -1) {
		upper := strings.ToUpper(match)
		if nonTickers[upper] || seen[upper] {
			continue
		}
		if strings.Contains(upper, "=") {
			if hasValidSuffix(upper) {
				seen[upper] = true
				tickers = append(tickers, upper)
			}
			continue
		}
		if len(upper) >= 2 && len(upper) <= 5 {
			seen[upper] = true
			tickers = append(tickers, upper)
		}
	}
	return tickers
}

// ValidateTickers keeps symbols that pass format checks: 1-5 letter bare
// tickers, allowlisted suffixes, and BRK.A-style class shares.
func ValidateTickers(tickers []string) []string {
	var valid []string
	for _, ticker := range tickers {
		if ticker == "" {
			continue
		}
		upper := strings.ToUpper(ticker)
		if nonTickers[upper] {
			continue
		}
		if strings.Contains(upper, "=") {
			if hasValidSuffix(upper) {
				valid = append(valid, ticker)
			}
			continue
		}
		if bareTickerPattern.MatchString(upper) || dottedTickerPattern.MatchString(upper) {
			valid = append(valid, upper)
		}
	}
	return valid
}

func hasValidSuffix(symbol string) bool {
	for _, suffix := range validSuffixes {
		if strings.HasSuffix(symbol, suffix) {
			return true
		}
	}
	return false
}
