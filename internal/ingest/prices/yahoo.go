package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/meridianhq/meridian/internal/fetch"
	"github.com/meridianhq/meridian/internal/models"
)

// DefaultChartBaseURL serves Yahoo-compatible daily OHLCV charts.
const DefaultChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// chartTimeout bounds one chart request.
const chartTimeout = 10 * time.Second

// YahooClient fetches daily bars from the chart endpoint.
type YahooClient struct {
	client  *fetch.Client
	baseURL string
}

// NewYahooClient builds a chart client.
func NewYahooClient(client *fetch.Client) *YahooClient {
	return &YahooClient{client: client, baseURL: DefaultChartBaseURL}
}

// NewYahooClientAt targets a non-default chart endpoint.
func NewYahooClientAt(client *fetch.Client, baseURL string) *YahooClient {
	return &YahooClient{client: client, baseURL: baseURL}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// DailyBars returns the daily bars for symbol over [start, end]. Rows
// without a close are dropped.
func (y *YahooClient) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	// period2 is exclusive upstream; push it one day past the window.
	params.Set("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	params.Set("interval", "1d")
	params.Set("includeAdjustedClose", "true")

	ctx, cancel := context.WithTimeout(ctx, chartTimeout)
	defer cancel()
	body, err := y.client.Get(ctx, y.baseURL+"/"+url.PathEscape(symbol)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch chart %s: %w", symbol, err)
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode chart %s: %w", symbol, err)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart %s: empty result", symbol)
	}
	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart %s: no quote block", symbol)
	}
	quote := result.Indicators.Quote[0]

	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	var bars []models.PriceBar
	for i, ts := range result.Timestamp {
		closePx := at(quote.Close, i)
		if closePx == nil {
			continue
		}
		bar := models.PriceBar{
			Symbol:    symbol,
			PriceDate: time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:      at(quote.Open, i),
			High:      at(quote.High, i),
			Low:       at(quote.Low, i),
			Close:     closePx,
			AdjClose:  at(adjCloses, i),
			Source:    "yahoo",
		}
		if v := at(quote.Volume, i); v != nil {
			bar.Volume = v
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// LatestClose returns the most recent close inside the lookback window,
// nil when the symbol produced no bars.
func (y *YahooClient) LatestClose(ctx context.Context, symbol string, lookbackDays int) (*models.PriceBar, error) {
	end := time.Now().UTC()
	bars, err := y.DailyBars(ctx, symbol, end.AddDate(0, 0, -lookbackDays), end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, nil
	}
	return &bars[len(bars)-1], nil
}

func at[T any](values []*T, i int) *T {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}
