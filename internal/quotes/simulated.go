package quotes

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Simulated is a random-walk Quoter over a fixed symbol universe. It stands
// in for the real oracle when no API key is configured, and feeds the
// websocket price ticker.
type Simulated struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	rng    *rand.Rand
}

// NewSimulated seeds the default symbol universe
func NewSimulated(seed int64) *Simulated {
	return &Simulated{
		prices: map[string]decimal.Decimal{
			"AAPL":  decimal.NewFromFloat(150.00),
			"GOOGL": decimal.NewFromFloat(140.00),
			"MSFT":  decimal.NewFromFloat(380.00),
			"TSLA":  decimal.NewFromFloat(250.00),
			"AMZN":  decimal.NewFromFloat(180.00),
		},
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Quote walks the symbol's price by -2%..+2% and returns the new value.
// Symbols outside the universe report as invalid, matching the real oracle.
func (s *Simulated) Quote(ctx context.Context, symbol string) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, ok := s.prices[symbol]
	if !ok {
		return Quote{}, ErrInvalidSymbol
	}

	changePercent := (s.rng.Float64() - 0.5) * 4
	factor := decimal.NewFromFloat(1 + changePercent/100)
	next := price.Mul(factor).Round(4)
	s.prices[symbol] = next

	return Quote{Symbol: symbol, Price: next, AsOf: time.Now()}, nil
}

// Symbols lists the simulated universe in stable order
func (s *Simulated) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbols := make([]string, 0, len(s.prices))
	for symbol := range s.prices {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
