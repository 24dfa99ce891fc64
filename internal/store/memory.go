package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atharvakonge/paper-trader/internal/models"
)

// MemoryStore implements Store without a database. It backs tests and the
// no-database dev mode. A transaction holds the store lock from Begin until
// Commit/Rollback and works on a staged copy, so a rolled-back transaction
// leaves no trace.
type MemoryStore struct {
	mu   sync.Mutex
	data memData
}

type memData struct {
	accounts       map[int]models.Account
	positions      map[int]models.Position
	nextAccountID  int
	nextPositionID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: memData{
			accounts:       make(map[int]models.Account),
			positions:      make(map[int]models.Position),
			nextAccountID:  1,
			nextPositionID: 1,
		},
	}
}

func (s *MemoryStore) Accounts() AccountStore   { return &memAccounts{store: s} }
func (s *MemoryStore) Positions() PositionStore { return &memPositions{store: s} }

func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	return &memTx{store: s, staged: s.data.clone()}, nil
}

func (s *MemoryStore) Close() error { return nil }

type memTx struct {
	store  *MemoryStore
	staged memData
	done   bool
}

func (t *memTx) Accounts() AccountStore   { return &memAccounts{tx: t} }
func (t *memTx) Positions() PositionStore { return &memPositions{tx: t} }

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.data = t.staged
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (d memData) clone() memData {
	accounts := make(map[int]models.Account, len(d.accounts))
	for id, acc := range d.accounts {
		accounts[id] = acc
	}
	positions := make(map[int]models.Position, len(d.positions))
	for id, pos := range d.positions {
		positions[id] = pos
	}
	return memData{
		accounts:       accounts,
		positions:      positions,
		nextAccountID:  d.nextAccountID,
		nextPositionID: d.nextPositionID,
	}
}

// memAccounts routes to either the live store (locking per call) or a
// transaction's staged data (lock already held).
type memAccounts struct {
	store *MemoryStore
	tx    *memTx
}

func (a *memAccounts) with(fn func(d *memData) error) error {
	if a.tx != nil {
		return fn(&a.tx.staged)
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return fn(&a.store.data)
}

func (a *memAccounts) FindByID(ctx context.Context, id int) (*models.Account, error) {
	var out *models.Account
	err := a.with(func(d *memData) error {
		acc, ok := d.accounts[id]
		if !ok {
			return ErrNotFound
		}
		out = &acc
		return nil
	})
	return out, err
}

func (a *memAccounts) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	var out *models.Account
	err := a.with(func(d *memData) error {
		for _, acc := range d.accounts {
			if acc.Username == username {
				out = &acc
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (a *memAccounts) Create(ctx context.Context, username, credentialHash string, balance decimal.Decimal) (*models.Account, error) {
	var out *models.Account
	err := a.with(func(d *memData) error {
		for _, acc := range d.accounts {
			if acc.Username == username {
				return ErrConflict
			}
		}
		acc := models.Account{
			ID:             d.nextAccountID,
			Username:       username,
			CredentialHash: credentialHash,
			Balance:        balance,
			CreatedAt:      time.Now(),
		}
		d.nextAccountID++
		d.accounts[acc.ID] = acc
		out = &acc
		return nil
	})
	return out, err
}

func (a *memAccounts) UpdateBalance(ctx context.Context, id int, newBalance decimal.Decimal) error {
	return a.with(func(d *memData) error {
		acc, ok := d.accounts[id]
		if !ok {
			return ErrNotFound
		}
		acc.Balance = newBalance
		d.accounts[id] = acc
		return nil
	})
}

func (a *memAccounts) UpdateCredential(ctx context.Context, id int, newHash string) error {
	return a.with(func(d *memData) error {
		acc, ok := d.accounts[id]
		if !ok {
			return ErrNotFound
		}
		acc.CredentialHash = newHash
		d.accounts[id] = acc
		return nil
	})
}

type memPositions struct {
	store *MemoryStore
	tx    *memTx
}

func (p *memPositions) with(fn func(d *memData) error) error {
	if p.tx != nil {
		return fn(&p.tx.staged)
	}
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	return fn(&p.store.data)
}

func (p *memPositions) FindByAccountAndSymbol(ctx context.Context, accountID int, symbol string) (*models.Position, error) {
	var out *models.Position
	err := p.with(func(d *memData) error {
		for _, pos := range d.positions {
			if pos.AccountID == accountID && pos.Symbol == symbol {
				out = &pos
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (p *memPositions) ListByAccount(ctx context.Context, accountID int) ([]models.Position, error) {
	out := make([]models.Position, 0)
	err := p.with(func(d *memData) error {
		for _, pos := range d.positions {
			if pos.AccountID == accountID {
				out = append(out, pos)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortPositionsBySymbol(out)
	return out, nil
}

func (p *memPositions) Insert(ctx context.Context, accountID int, symbol string, price, quantity decimal.Decimal) (*models.Position, error) {
	var out *models.Position
	err := p.with(func(d *memData) error {
		for _, pos := range d.positions {
			if pos.AccountID == accountID && pos.Symbol == symbol {
				return ErrConflict
			}
		}
		pos := models.Position{
			ID:          d.nextPositionID,
			AccountID:   accountID,
			Symbol:      symbol,
			AverageCost: price,
			Quantity:    quantity,
			UpdatedAt:   time.Now(),
		}
		d.nextPositionID++
		d.positions[pos.ID] = pos
		out = &pos
		return nil
	})
	return out, err
}

func (p *memPositions) UpdateQuantity(ctx context.Context, positionID int, newQuantity decimal.Decimal) error {
	return p.with(func(d *memData) error {
		pos, ok := d.positions[positionID]
		if !ok {
			return ErrNotFound
		}
		pos.Quantity = newQuantity
		pos.UpdatedAt = time.Now()
		d.positions[positionID] = pos
		return nil
	})
}

func (p *memPositions) Delete(ctx context.Context, positionID int) error {
	return p.with(func(d *memData) error {
		if _, ok := d.positions[positionID]; !ok {
			return ErrNotFound
		}
		delete(d.positions, positionID)
		return nil
	})
}

func sortPositionsBySymbol(positions []models.Position) {
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
}
