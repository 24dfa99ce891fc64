package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atharvakonge/paper-trader/internal/models"
	"github.com/atharvakonge/paper-trader/internal/store"
)

// Reporter produces read-only portfolio valuations. Holdings are valued at
// their recorded cost basis; cash is reported alongside but not summed into
// the total.
type Reporter struct {
	store store.Store
}

func NewReporter(st store.Store) *Reporter {
	return &Reporter{store: st}
}

func (r *Reporter) Snapshot(ctx context.Context, accountID int) (models.PortfolioSnapshot, error) {
	account, err := r.store.Accounts().FindByID(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return models.PortfolioSnapshot{}, ErrAccountNotFound
	}
	if err != nil {
		return models.PortfolioSnapshot{}, fmt.Errorf("storage: %w", err)
	}

	positions, err := r.store.Positions().ListByAccount(ctx, accountID)
	if err != nil {
		return models.PortfolioSnapshot{}, fmt.Errorf("storage: %w", err)
	}

	snapshot := models.PortfolioSnapshot{
		Username:   account.Username,
		Balance:    account.Balance,
		Positions:  make([]models.Holding, 0, len(positions)),
		TotalValue: decimal.Zero,
	}

	for _, pos := range positions {
		value := pos.AverageCost.Mul(pos.Quantity)
		snapshot.Positions = append(snapshot.Positions, models.Holding{
			Symbol:      pos.Symbol,
			AverageCost: pos.AverageCost,
			Quantity:    pos.Quantity,
			MarketValue: value,
		})
		snapshot.TotalValue = snapshot.TotalValue.Add(value)
	}

	return snapshot, nil
}
