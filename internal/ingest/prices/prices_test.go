package prices

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/internal/fetch"
	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

// chartJSON builds a two-day chart payload; the second close is null and
// must be dropped.
func chartJSON(ts1, ts2 int64) string {
	return fmt.Sprintf(`{"chart": {"result": [{
		"timestamp": [%d, %d],
		"indicators": {
			"quote": [{
				"open": [1990.0, 2001.0],
				"high": [2010.0, 2012.0],
				"low": [1985.0, 1999.0],
				"close": [2000.0, null],
				"volume": [120000, 110000]
			}],
			"adjclose": [{"adjclose": [2000.0, null]}]
		}
	}], "error": null}}`, ts1, ts2)
}

func TestDailyBarsDropsNullCloses(t *testing.T) {
	day1 := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/GC=F"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "true", r.URL.Query().Get("includeAdjustedClose"))
		_, _ = w.Write([]byte(chartJSON(day1.Unix(), day2.Unix())))
	}))
	defer server.Close()

	y := NewYahooClient(fetch.NewClient())
	y.baseURL = server.URL

	bars, err := y.DailyBars(context.Background(), "GC=F", day1.AddDate(0, 0, -10), day2)
	require.NoError(t, err)
	require.Len(t, bars, 1)

	bar := bars[0]
	assert.Equal(t, "GC=F", bar.Symbol)
	assert.Equal(t, day1, bar.PriceDate)
	assert.Equal(t, 2000.0, *bar.Close)
	assert.Equal(t, 1990.0, *bar.Open)
	assert.Equal(t, 2000.0, *bar.AdjClose)
	assert.Equal(t, int64(120000), *bar.Volume)
	assert.Equal(t, "yahoo", bar.Source)
}

func TestDailyBarsEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart": {"result": [], "error": null}}`))
	}))
	defer server.Close()

	y := NewYahooClient(fetch.NewClient())
	y.baseURL = server.URL

	_, err := y.DailyBars(context.Background(), "GC=F", time.Now().AddDate(0, 0, -1), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty result")
}

type capturePricesRepo struct {
	bars   []models.PriceBar
	ratios []models.PriceRatio
	closes map[string]map[string]float64
}

func (c *capturePricesRepo) UpsertBar(_ context.Context, bar models.PriceBar) error {
	c.bars = append(c.bars, bar)
	return nil
}

func (c *capturePricesRepo) UpsertRatio(_ context.Context, ratio models.PriceRatio) error {
	c.ratios = append(c.ratios, ratio)
	return nil
}

func (c *capturePricesRepo) LatestCloses(context.Context, string, time.Time, int) ([]models.PriceBar, error) {
	return nil, nil
}

func (c *capturePricesRepo) LatestRatios(context.Context, string, time.Time, int) ([]models.PriceRatio, error) {
	return nil, nil
}

func (c *capturePricesRepo) ClosesBySymbol(_ context.Context, symbol string, _ persistence.TimeRange) (map[string]float64, error) {
	return c.closes[symbol], nil
}

func TestRunIngestsAllSymbolsAndRatio(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fmt.Sprintf(`{"chart": {"result": [{
			"timestamp": [%d],
			"indicators": {"quote": [{"close": [100.0]}]}
		}], "error": null}}`, day.Unix())))
	}))
	defer server.Close()

	repo := &capturePricesRepo{closes: map[string]map[string]float64{
		"GC=F": {"2026-08-19": 1990, "2026-08-20": 2000},
		"SI=F": {"2026-08-20": 25, "2026-08-18": 24},
	}}
	ing := NewIngestor(fetch.NewClient(), repo)
	ing.yahoo.baseURL = server.URL
	ing.now = func() time.Time { return day }

	total, err := ing.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, len(CoreSymbols)+len(OptionalSymbols), total)

	// Only 2026-08-20 is shared by both legs.
	require.Len(t, repo.ratios, 1)
	ratio := repo.ratios[0]
	assert.Equal(t, "gold_silver", ratio.RatioName)
	assert.Equal(t, day, ratio.PriceDate)
	assert.InDelta(t, 80.0, ratio.Value, 1e-9)
	assert.Equal(t, "GC=F", ratio.BaseSymbol)
	assert.Equal(t, "SI=F", ratio.QuoteSymbol)
}

func TestRunContinuesPastFailingCoreSymbol(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Gold is down; every other symbol serves a bar.
		if strings.HasPrefix(r.URL.Path, "/GC=F") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(fmt.Sprintf(`{"chart": {"result": [{
			"timestamp": [%d],
			"indicators": {"quote": [{"close": [100.0]}]}
		}], "error": null}}`, day.Unix())))
	}))
	defer server.Close()

	// Stored closes from earlier runs keep the ratio refresh productive.
	repo := &capturePricesRepo{closes: map[string]map[string]float64{
		"GC=F": {"2026-08-19": 2000},
		"SI=F": {"2026-08-19": 25},
	}}
	ing := NewIngestor(fetch.NewClient(), repo)
	ing.yahoo.baseURL = server.URL
	ing.now = func() time.Time { return day }

	total, err := ing.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, len(CoreSymbols)+len(OptionalSymbols)-1, total)

	symbols := make(map[string]int)
	for _, bar := range repo.bars {
		symbols[bar.Symbol]++
	}
	assert.Zero(t, symbols["GC=F"])
	assert.Equal(t, 1, symbols["SI=F"])
	assert.Equal(t, 1, symbols["HG=F"])

	// The ratio refresh still ran after the failure.
	require.Len(t, repo.ratios, 1)
	assert.InDelta(t, 80.0, repo.ratios[0].Value, 1e-9)
}
