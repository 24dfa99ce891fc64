package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// AlphaVantage fetches quotes from the Alpha Vantage GLOBAL_QUOTE endpoint.
// Every call is bounded by the client timeout; there are no retries.
type AlphaVantage struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewAlphaVantage(apiKey string) *AlphaVantage {
	return &AlphaVantage{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// NewAlphaVantageWithBaseURL points the client at a different endpoint.
// Used by tests.
func NewAlphaVantageWithBaseURL(apiKey, baseURL string) *AlphaVantage {
	av := NewAlphaVantage(apiKey)
	av.baseURL = baseURL
	return av
}

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
}

func (av *AlphaVantage) Quote(ctx context.Context, symbol string) (Quote, error) {
	reqURL := fmt.Sprintf("%s?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		av.baseURL, url.QueryEscape(symbol), av.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	log.Debug().Str("symbol", symbol).Msg("requesting stock quote")

	res, err := av.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("quote request failed")
		return Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		log.Error().Int("status", res.StatusCode).Str("symbol", symbol).Msg("quote request rejected")
		return Quote{}, fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}

	var payload globalQuoteResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Alpha Vantage reports an unknown symbol as an empty Global Quote object
	if payload.GlobalQuote.Price == "" {
		return Quote{}, ErrInvalidSymbol
	}

	price, err := decimal.NewFromString(payload.GlobalQuote.Price)
	if err != nil || !price.IsPositive() {
		return Quote{}, fmt.Errorf("%w: bad price %q", ErrUnavailable, payload.GlobalQuote.Price)
	}

	return Quote{Symbol: symbol, Price: price, AsOf: time.Now()}, nil
}
