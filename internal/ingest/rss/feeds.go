package rss

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Feed is one polled RSS source. Name becomes the event source column.
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DefaultFeeds is the built-in watch set: wire services plus topical
// aggregator queries.
var DefaultFeeds = []Feed{
	{
		Name: "reuters",
		URL:  "https://news.google.com/rss/search?q=when:24h+allinurl:reuters.com&ceid=US:en&hl=en-US&gl=US",
	},
	{
		Name: "ap",
		URL:  "https://news.google.com/rss/search?q=when:24h+allinurl:apnews.com&ceid=US:en&hl=en-US&gl=US",
	},
	{
		Name: "bloomberg",
		URL:  "https://news.google.com/rss/search?q=when:24h+allinurl:bloomberg.com&ceid=US:en&hl=en-US&gl=US",
	},
	{
		Name: "central_banks",
		URL:  "https://news.google.com/rss/search?q=federal+reserve+OR+FOMC+OR+ECB+OR+central+bank+interest+rate&hl=en-US&gl=US&ceid=US:en",
	},
	{
		Name: "commodities",
		URL:  "https://news.google.com/rss/search?q=gold+price+OR+silver+price+OR+copper+price+commodities+metals&hl=en-US&gl=US&ceid=US:en",
	},
	{
		Name: "geopolitical",
		URL:  "https://news.google.com/rss/search?q=sanctions+OR+tariffs+OR+trade+war+geopolitical+conflict&hl=en-US&gl=US&ceid=US:en",
	},
	{
		Name: "inflation",
		URL:  "https://news.google.com/rss/search?q=inflation+CPI+OR+PPI+economic+data&hl=en-US&gl=US&ceid=US:en",
	},
}

// LoadFeedsFile reads a YAML feed list, replacing the defaults.
func LoadFeedsFile(path string) ([]Feed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}
	var feeds []Feed
	if err := yaml.Unmarshal(raw, &feeds); err != nil {
		return nil, fmt.Errorf("parse feeds file %s: %w", path, err)
	}
	for i, f := range feeds {
		if f.Name == "" || f.URL == "" {
			return nil, fmt.Errorf("feeds file %s: entry %d needs name and url", path, i)
		}
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("feeds file %s: no feeds", path)
	}
	return feeds, nil
}
