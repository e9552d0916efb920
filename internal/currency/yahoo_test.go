package currency

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func chartResponse(symbol string, price float64) yahooChartResponse {
	var resp yahooChartResponse
	var result yahooChartResult
	result.Meta.Symbol = symbol
	result.Meta.RegularMarketPrice = price
	resp.Chart.Result = []yahooChartResult{result}
	return resp
}

func chartErrorResponse(code, description string) yahooChartResponse {
	var resp yahooChartResponse
	resp.Chart.Error = &yahooChartError{Code: code, Description: description}
	return resp
}

// newForexMockServer serves chart responses; rateMap maps ticker (e.g. "USDEUR=X") to rate.
func newForexMockServer(rateMap map[string]float64, hits *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		ticker := strings.TrimPrefix(r.URL.Path, "/")
		w.Header().Set("Content-Type", "application/json")

		rate, ok := rateMap[ticker]
		if !ok {
			_ = json.NewEncoder(w).Encode(chartErrorResponse("Not Found", "No data found for "+ticker))
			return
		}
		_ = json.NewEncoder(w).Encode(chartResponse(ticker, rate))
	}))
}

// priceServer serves one ticker whose price can change between requests.
type priceServer struct {
	*httptest.Server
	mu    sync.Mutex
	price float64
	hits  atomic.Int32
}

func newPriceServer(ticker string, price float64) *priceServer {
	p := &priceServer{price: price}
	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		p.hits.Add(1)
		p.mu.Lock()
		price := p.price
		p.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chartResponse(ticker, price))
	}))
	return p
}

func (p *priceServer) setPrice(price float64) {
	p.mu.Lock()
	p.price = price
	p.mu.Unlock()
}

// clock is a settable time source for cache expiry tests.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestYahooRates_Rate(t *testing.T) {
	server := newForexMockServer(map[string]float64{"USDEUR=X": 0.92, "EURJPY=X": 162.3}, nil)
	defer server.Close()

	y := NewYahooRates(server.Client(), server.URL+"/", time.Minute)

	rate, err := y.Rate(context.Background(), "usd", "eur")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate.String() != "0.92" {
		t.Errorf("USDEUR rate = %s, want 0.92", rate)
	}

	rate, err = y.Rate(context.Background(), "EUR", "JPY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate.String() != "162.3" {
		t.Errorf("EURJPY rate = %s, want 162.3", rate)
	}
}

func TestYahooRates_SameCurrency(t *testing.T) {
	y := NewYahooRates(http.DefaultClient, "http://127.0.0.1:0", time.Minute)

	rate, err := y.Rate(context.Background(), "EUR", "eur")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.IsInteger() || rate.IntPart() != 1 {
		t.Errorf("rate = %s, want 1", rate)
	}
}

func TestYahooRates_Cached(t *testing.T) {
	var hits atomic.Int32
	server := newForexMockServer(map[string]float64{"USDEUR=X": 0.92}, &hits)
	defer server.Close()

	y := NewYahooRates(server.Client(), server.URL, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := y.Rate(context.Background(), "USD", "EUR"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestYahooRates_Errors(t *testing.T) {
	t.Run("chart error", func(t *testing.T) {
		server := newForexMockServer(map[string]float64{}, nil)
		defer server.Close()

		y := NewYahooRates(server.Client(), server.URL, time.Minute)
		if _, err := y.Rate(context.Background(), "USD", "XAU"); err == nil {
			t.Fatal("expected error for unknown ticker")
		}
	})

	t.Run("bad status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		y := NewYahooRates(server.Client(), server.URL, time.Minute)
		if _, err := y.Rate(context.Background(), "USD", "EUR"); err == nil {
			t.Fatal("expected error for 429")
		}
	})

	t.Run("non-positive rate", func(t *testing.T) {
		server := newForexMockServer(map[string]float64{"USDEUR=X": 0}, nil)
		defer server.Close()

		y := NewYahooRates(server.Client(), server.URL, time.Minute)
		if _, err := y.Rate(context.Background(), "USD", "EUR"); err == nil {
			t.Fatal("expected error for zero rate")
		}
	})
}

func TestYahooRates_CacheExpires(t *testing.T) {
	server := newPriceServer("USDEUR=X", 0.92)
	defer server.Close()

	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	y := NewYahooRates(server.Client(), server.URL, time.Minute)
	y.now = clk.now

	q, fresh, err := y.Quote(context.Background(), "USD", "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fresh || q.Rate.String() != "0.92" || !q.FetchedAt.Equal(clk.t) {
		t.Errorf("first quote = %+v fresh=%v, want fresh 0.92 at %v", q, fresh, clk.t)
	}

	server.setPrice(0.80)
	clk.advance(30 * time.Second)
	q, fresh, err = y.Quote(context.Background(), "USD", "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh || q.Rate.String() != "0.92" {
		t.Errorf("quote within ttl = %s fresh=%v, want cached 0.92", q.Rate, fresh)
	}
	if got := server.hits.Load(); got != 1 {
		t.Errorf("requests within ttl = %d, want 1", got)
	}

	clk.advance(time.Minute)
	q, fresh, err = y.Quote(context.Background(), "USD", "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fresh || q.Rate.String() != "0.8" {
		t.Errorf("quote after ttl = %s fresh=%v, want fresh 0.8", q.Rate, fresh)
	}
	if got := server.hits.Load(); got != 2 {
		t.Errorf("requests after ttl = %d, want 2", got)
	}
}

func TestYahooRates_ZeroTTLDisablesCache(t *testing.T) {
	var hits atomic.Int32
	server := newForexMockServer(map[string]float64{"USDEUR=X": 0.92}, &hits)
	defer server.Close()

	y := NewYahooRates(server.Client(), server.URL, 0)
	for i := 0; i < 2; i++ {
		_, fresh, err := y.Quote(context.Background(), "USD", "EUR")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fresh {
			t.Errorf("call %d: quote served from cache with zero ttl", i)
		}
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}
