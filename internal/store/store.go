package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/atharvakonge/paper-trader/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would violate a unique constraint
	ErrConflict = errors.New("already exists")
)

// AccountStore defines operations on account rows. Balance updates are
// unconditional writes of a precomputed value; the caller owns the arithmetic
// and the transaction scoping.
type AccountStore interface {
	FindByID(ctx context.Context, id int) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	Create(ctx context.Context, username, credentialHash string, balance decimal.Decimal) (*models.Account, error)
	UpdateBalance(ctx context.Context, id int, newBalance decimal.Decimal) error
	UpdateCredential(ctx context.Context, id int, newHash string) error
}

// PositionStore defines operations on position rows, keyed by the
// (account_id, symbol) unique constraint.
type PositionStore interface {
	FindByAccountAndSymbol(ctx context.Context, accountID int, symbol string) (*models.Position, error)
	ListByAccount(ctx context.Context, accountID int) ([]models.Position, error)
	Insert(ctx context.Context, accountID int, symbol string, price, quantity decimal.Decimal) (*models.Position, error)
	UpdateQuantity(ctx context.Context, positionID int, newQuantity decimal.Decimal) error
	Delete(ctx context.Context, positionID int) error
}

// Tx scopes account and position writes to a single atomic unit.
// Reads through a Tx lock the rows they touch until Commit or Rollback.
type Tx interface {
	Accounts() AccountStore
	Positions() PositionStore
	Commit() error
	Rollback() error
}

// Store is the overall persistence interface
type Store interface {
	Accounts() AccountStore
	Positions() PositionStore
	Begin(ctx context.Context) (Tx, error)
	Close() error
}
