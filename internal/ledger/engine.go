package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/atharvakonge/paper-trader/internal/quotes"
	"github.com/atharvakonge/paper-trader/internal/store"
)

// Engine executes buy/sell transactions against the stores and the price
// oracle. Each transaction runs under the account's mutex and inside one
// store transaction, so a failure at any step leaves balance and positions
// untouched.
type Engine struct {
	store  store.Store
	quoter quotes.Quoter
	locks  *accountLocks
}

func NewEngine(st store.Store, quoter quotes.Quoter) *Engine {
	return &Engine{
		store:  st,
		quoter: quoter,
		locks:  newAccountLocks(),
	}
}

// Buy purchases quantity shares of symbol at the current oracle price and
// returns the new cash balance.
func (e *Engine) Buy(ctx context.Context, accountID int, symbol string, quantity decimal.Decimal) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, ErrInvalidQuantity
	}

	mu := e.locks.acquire(accountID)
	defer mu.Unlock()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("storage: %w", err)
	}
	defer tx.Rollback()

	account, err := tx.Accounts().FindByID(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Zero, ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("storage: %w", err)
	}

	quote, err := e.quoter.Quote(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	cost := quote.Price.Mul(quantity)
	if account.Balance.LessThan(cost) {
		return decimal.Zero, ErrInsufficientFunds
	}

	position, err := tx.Positions().FindByAccountAndSymbol(ctx, accountID, symbol)
	switch {
	case err == nil:
		// Repeated buys bump quantity; the recorded cost basis stays at the
		// first purchase price.
		newQuantity := position.Quantity.Add(quantity)
		if err := tx.Positions().UpdateQuantity(ctx, position.ID, newQuantity); err != nil {
			return decimal.Zero, fmt.Errorf("storage: %w", err)
		}
	case errors.Is(err, store.ErrNotFound):
		if _, err := tx.Positions().Insert(ctx, accountID, symbol, quote.Price, quantity); err != nil {
			return decimal.Zero, fmt.Errorf("storage: %w", err)
		}
	default:
		return decimal.Zero, fmt.Errorf("storage: %w", err)
	}

	newBalance := account.Balance.Sub(cost)
	if err := tx.Accounts().UpdateBalance(ctx, accountID, newBalance); err != nil {
		return decimal.Zero, fmt.Errorf("storage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("storage: %w", err)
	}

	log.Info().
		Int("account_id", accountID).
		Str("symbol", symbol).
		Str("quantity", quantity.String()).
		Str("price", quote.Price.String()).
		Str("cost", cost.String()).
		Msg("buy executed")

	return newBalance, nil
}

// Sell liquidates quantity shares of symbol at the current oracle price and
// returns the new cash balance. The position row is deleted when its
// quantity reaches exactly zero.
func (e *Engine) Sell(ctx context.Context, accountID int, symbol string, quantity decimal.Decimal) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, ErrInvalidQuantity
	}

	mu := e.locks.acquire(accountID)
	defer mu.Unlock()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("storage: %w", err)
	}
	defer tx.Rollback()

	account, err := tx.Accounts().FindByID(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Zero, ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("storage: %w", err)
	}

	position, err := tx.Positions().FindByAccountAndSymbol(ctx, accountID, symbol)
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Zero, ErrInsufficientHoldings
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("storage: %w", err)
	}
	if position.Quantity.LessThan(quantity) {
		return decimal.Zero, ErrInsufficientHoldings
	}

	quote, err := e.quoter.Quote(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	proceeds := quote.Price.Mul(quantity)

	remaining := position.Quantity.Sub(quantity)
	if remaining.IsZero() {
		if err := tx.Positions().Delete(ctx, position.ID); err != nil {
			return decimal.Zero, fmt.Errorf("storage: %w", err)
		}
	} else {
		if err := tx.Positions().UpdateQuantity(ctx, position.ID, remaining); err != nil {
			return decimal.Zero, fmt.Errorf("storage: %w", err)
		}
	}

	newBalance := account.Balance.Add(proceeds)
	if err := tx.Accounts().UpdateBalance(ctx, accountID, newBalance); err != nil {
		return decimal.Zero, fmt.Errorf("storage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("storage: %w", err)
	}

	log.Info().
		Int("account_id", accountID).
		Str("symbol", symbol).
		Str("quantity", quantity.String()).
		Str("price", quote.Price.String()).
		Str("proceeds", proceeds.String()).
		Msg("sell executed")

	return newBalance, nil
}
