package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const yahooUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"

// yahooChartResponse is the subset of the v8 chart API we read.
type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *yahooChartError   `json:"error"`
	} `json:"chart"`
}

type yahooChartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		Currency           string  `json:"currency"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
}

type yahooChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// YahooRates fetches forex quotes from Yahoo Finance. Quotes are cached
// in-memory for ttl after they were fetched; a zero ttl disables the cache.
type YahooRates struct {
	httpClient *http.Client
	baseURL    string
	ttl        time.Duration
	now        func() time.Time
	mu         sync.RWMutex
	quotes     map[string]Quote // "USDEUR" -> 0.92 fetched at ...
}

// NewYahooRates creates a YahooRates reading from the chart endpoint at baseURL.
func NewYahooRates(httpClient *http.Client, baseURL string, ttl time.Duration) *YahooRates {
	return &YahooRates{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		ttl:        ttl,
		now:        time.Now,
		quotes:     make(map[string]Quote),
	}
}

// Rate implements RateSource.
func (y *YahooRates) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	q, _, err := y.Quote(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Rate, nil
}

// Quote implements QuoteSource. A cached quote younger than the ttl is
// returned with fresh set to false.
func (y *YahooRates) Quote(ctx context.Context, from, to string) (Quote, bool, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return Quote{From: from, To: to, Rate: decimal.NewFromInt(1), FetchedAt: y.now()}, false, nil
	}
	pair := from + to

	y.mu.RLock()
	cached, ok := y.quotes[pair]
	y.mu.RUnlock()
	if ok && y.now().Sub(cached.FetchedAt) < y.ttl {
		return cached, false, nil
	}

	rate, err := y.fetchRate(ctx, pair)
	if err != nil {
		return Quote{}, false, err
	}
	q := Quote{From: from, To: to, Rate: rate, FetchedAt: y.now()}

	if y.ttl > 0 {
		y.mu.Lock()
		y.quotes[pair] = q
		y.mu.Unlock()
	}
	return q, true, nil
}

// fetchRate fetches a pair like "USDEUR" using Yahoo's "USDEUR=X" ticker.
func (y *YahooRates) fetchRate(ctx context.Context, pair string) (decimal.Decimal, error) {
	ticker := pair + "=X"
	url := y.baseURL + "/" + ticker + "?interval=1d&range=1d"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("building forex request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("forex http request for %s: %w", ticker, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("forex request for %s: unexpected status %d", ticker, resp.StatusCode)
	}

	var chartResp yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartResp); err != nil {
		return decimal.Zero, fmt.Errorf("decoding forex response for %s: %w", ticker, err)
	}

	if chartResp.Chart.Error != nil {
		return decimal.Zero, fmt.Errorf("forex chart error for %s: %s: %s", ticker, chartResp.Chart.Error.Code, chartResp.Chart.Error.Description)
	}

	if len(chartResp.Chart.Result) == 0 {
		return decimal.Zero, fmt.Errorf("no forex results for %s", ticker)
	}

	price := chartResp.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return decimal.Zero, fmt.Errorf("invalid forex rate for %s: %f", ticker, price)
	}

	return decimal.NewFromFloat(price), nil
}
