package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kuberan/loansync/internal/currency"
	apperrors "github.com/kuberan/loansync/internal/errors"
	"github.com/kuberan/loansync/internal/logger"
)

// RateHandler serves exchange rates and accepts quotes from the rate feed.
type RateHandler struct {
	rates currency.RateSource
	store currency.RateStore
	now   func() time.Time
}

// NewRateHandler creates a new RateHandler. Reads go through rates, feed
// quotes are written to store.
func NewRateHandler(rates currency.RateSource, store currency.RateStore) *RateHandler {
	return &RateHandler{rates: rates, store: store, now: time.Now}
}

// RateResponse is a single quote.
type RateResponse struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

// RateQuote is one pair pushed by the rate feed.
type RateQuote struct {
	From      string          `json:"from" binding:"required,iso4217"`
	To        string          `json:"to" binding:"required,iso4217"`
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt *time.Time      `json:"fetched_at"`
}

// PutRatesRequest represents the rate feed payload.
type PutRatesRequest struct {
	Quotes []RateQuote `json:"quotes" binding:"required,min=1,max=500,dive"`
}

// GetRate returns the current rate for a currency pair
// @Summary     Get exchange rate
// @Description Quote how many units of the target currency one unit of the source currency buys
// @Tags        rates
// @Produce     json
// @Security    BearerAuth
// @Param       from query string true "Source currency (ISO 4217)"
// @Param       to   query string true "Target currency (ISO 4217)"
// @Success     200 {object} RateResponse "Rate"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Rate unavailable"
// @Router      /rates [get]
func (h *RateHandler) GetRate(c *gin.Context) {
	from := strings.ToUpper(c.Query("from"))
	to := strings.ToUpper(c.Query("to"))
	if len(from) != 3 || len(to) != 3 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from and to must be ISO 4217 codes"))
		return
	}

	rate, err := h.rates.Rate(c.Request.Context(), from, to)
	if errors.Is(err, currency.ErrRateUnavailable) {
		respondWithError(c, apperrors.ErrRateUnavailable)
		return
	}
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, RateResponse{From: from, To: to, Rate: rate})
}

// PutRates upserts a batch of quotes pushed by the internal rate feed. Every
// quote is validated before any is stored.
func (h *RateHandler) PutRates(c *gin.Context) {
	var req PutRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	for _, q := range req.Quotes {
		if !q.Rate.IsPositive() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "rate must be positive"))
			return
		}
	}

	now := h.now()
	quotes := make([]currency.Quote, 0, len(req.Quotes))
	for _, q := range req.Quotes {
		fetchedAt := now
		if q.FetchedAt != nil {
			fetchedAt = *q.FetchedAt
		}
		quotes = append(quotes, currency.Quote{From: q.From, To: q.To, Rate: q.Rate, FetchedAt: fetchedAt})
	}
	if err := h.store.SaveRates(c.Request.Context(), quotes); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	logger.Named("rate_feed").Infow("stored rate quotes",
		"source", c.GetString("feedSource"),
		"count", len(req.Quotes),
	)
	c.JSON(http.StatusOK, gin.H{"stored": len(req.Quotes)})
}
