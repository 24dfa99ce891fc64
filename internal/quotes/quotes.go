package quotes

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidSymbol is returned when the upstream has no data for the symbol
	ErrInvalidSymbol = errors.New("invalid stock symbol")
	// ErrUnavailable is returned on timeout or transport failure. Callers may
	// retry; the ledger never does.
	ErrUnavailable = errors.New("quote source unavailable")
)

// Quote is an oracle-supplied current price. Never persisted.
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"as_of"`
}

// Quoter resolves a ticker symbol to a current price
type Quoter interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}
