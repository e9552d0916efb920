// Package currency converts loan record amounts between account currencies.
package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrRateUnavailable is returned when no source can quote a currency pair.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// RateSource quotes how many units of the target currency one unit of the
// source currency buys.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Quote is a rate for one currency pair as observed at FetchedAt.
type Quote struct {
	From      string
	To        string
	Rate      decimal.Decimal
	FetchedAt time.Time
}

// QuoteSource is a RateSource that can tell a quote fetched just now from
// one served out of a cache. fresh is false for cached quotes.
type QuoteSource interface {
	RateSource
	Quote(ctx context.Context, from, to string) (q Quote, fresh bool, err error)
}

// RateStore is a RateSource that can also remember quotes. A stored quote is
// never replaced by one fetched earlier.
type RateStore interface {
	RateSource
	SaveRate(ctx context.Context, from, to string, rate decimal.Decimal, fetchedAt time.Time) error
	// SaveRates stores every quote or none.
	SaveRates(ctx context.Context, quotes []Quote) error
}

// FallbackRates asks the live source first and falls back to the last stored
// quote. Quotes the live source actually fetched are written through to the
// store; cached ones are not.
type FallbackRates struct {
	live  RateSource
	store RateStore
	log   *zap.SugaredLogger
	now   func() time.Time
}

// NewFallbackRates creates a FallbackRates. Either source may be nil.
func NewFallbackRates(live RateSource, store RateStore, log *zap.SugaredLogger) *FallbackRates {
	return &FallbackRates{
		live:  live,
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Rate implements RateSource.
func (f *FallbackRates) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	if f.live != nil {
		q, fresh, err := f.liveQuote(ctx, from, to)
		if err == nil {
			if fresh && f.store != nil {
				if saveErr := f.store.SaveRate(ctx, from, to, q.Rate, q.FetchedAt); saveErr != nil {
					f.log.Warnw("failed to store exchange rate", "from", from, "to", to, "error", saveErr)
				}
			}
			return q.Rate, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return decimal.Zero, ctxErr
		}
		f.log.Warnw("live rate fetch failed, trying stored rate", "from", from, "to", to, "error", err)
	}

	if f.store != nil {
		rate, err := f.store.Rate(ctx, from, to)
		if err == nil {
			f.log.Infow("using stored exchange rate", "from", from, "to", to, "rate", rate.String())
			return rate, nil
		}
		if !errors.Is(err, ErrRateUnavailable) {
			f.log.Warnw("stored rate lookup failed", "from", from, "to", to, "error", err)
		}
	}

	return decimal.Zero, fmt.Errorf("%w: %s/%s", ErrRateUnavailable, from, to)
}

// liveQuote asks the live source. Sources that cannot report freshness are
// treated as always fresh.
func (f *FallbackRates) liveQuote(ctx context.Context, from, to string) (Quote, bool, error) {
	if qs, ok := f.live.(QuoteSource); ok {
		return qs.Quote(ctx, from, to)
	}
	rate, err := f.live.Rate(ctx, from, to)
	if err != nil {
		return Quote{}, false, err
	}
	return Quote{From: from, To: to, Rate: rate, FetchedAt: f.now()}, true, nil
}
