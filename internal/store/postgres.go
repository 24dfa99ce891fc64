package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/atharvakonge/paper-trader/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresStore implements Store on top of database/sql
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Accounts() AccountStore {
	return &pgAccounts{q: s.db}
}

func (s *PostgresStore) Positions() PositionStore {
	return &pgPositions{q: s.db}
}

func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// pgTx scopes store operations to one database transaction. Reads through
// the transaction take row locks so concurrent transactions on the same
// account serialize at the database as well.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) Accounts() AccountStore { return &pgAccounts{q: t.tx, forUpdate: true} }

func (t *pgTx) Positions() PositionStore { return &pgPositions{q: t.tx, forUpdate: true} }

func (t *pgTx) Commit() error { return t.tx.Commit() }

func (t *pgTx) Rollback() error { return t.tx.Rollback() }

type pgAccounts struct {
	q         querier
	forUpdate bool
}

func (a *pgAccounts) FindByID(ctx context.Context, id int) (*models.Account, error) {
	query := `SELECT id, username, credential_hash, balance, created_at FROM accounts WHERE id = $1`
	if a.forUpdate {
		query += ` FOR UPDATE`
	}
	return scanAccount(a.q.QueryRowContext(ctx, query, id))
}

func (a *pgAccounts) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT id, username, credential_hash, balance, created_at FROM accounts WHERE username = $1`
	if a.forUpdate {
		query += ` FOR UPDATE`
	}
	return scanAccount(a.q.QueryRowContext(ctx, query, username))
}

func (a *pgAccounts) Create(ctx context.Context, username, credentialHash string, balance decimal.Decimal) (*models.Account, error) {
	row := a.q.QueryRowContext(ctx, `
        INSERT INTO accounts (username, credential_hash, balance)
        VALUES ($1, $2, $3)
        RETURNING id, username, credential_hash, balance, created_at
    `, username, credentialHash, balance)

	account, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return account, nil
}

func (a *pgAccounts) UpdateBalance(ctx context.Context, id int, newBalance decimal.Decimal) error {
	res, err := a.q.ExecContext(ctx,
		`UPDATE accounts SET balance = $1 WHERE id = $2`, newBalance, id)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return requireOneRow(res)
}

func (a *pgAccounts) UpdateCredential(ctx context.Context, id int, newHash string) error {
	res, err := a.q.ExecContext(ctx,
		`UPDATE accounts SET credential_hash = $1 WHERE id = $2`, newHash, id)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	return requireOneRow(res)
}

type pgPositions struct {
	q         querier
	forUpdate bool
}

func (p *pgPositions) FindByAccountAndSymbol(ctx context.Context, accountID int, symbol string) (*models.Position, error) {
	query := `
        SELECT id, account_id, symbol, average_cost, quantity, updated_at
        FROM positions
        WHERE account_id = $1 AND symbol = $2`
	if p.forUpdate {
		query += ` FOR UPDATE`
	}
	return scanPosition(p.q.QueryRowContext(ctx, query, accountID, symbol))
}

func (p *pgPositions) ListByAccount(ctx context.Context, accountID int) ([]models.Position, error) {
	rows, err := p.q.QueryContext(ctx, `
        SELECT id, account_id, symbol, average_cost, quantity, updated_at
        FROM positions
        WHERE account_id = $1
        ORDER BY symbol
    `, accountID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	positions := make([]models.Position, 0)
	for rows.Next() {
		var pos models.Position
		if err := rows.Scan(&pos.ID, &pos.AccountID, &pos.Symbol,
			&pos.AverageCost, &pos.Quantity, &pos.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func (p *pgPositions) Insert(ctx context.Context, accountID int, symbol string, price, quantity decimal.Decimal) (*models.Position, error) {
	row := p.q.QueryRowContext(ctx, `
        INSERT INTO positions (account_id, symbol, average_cost, quantity)
        VALUES ($1, $2, $3, $4)
        RETURNING id, account_id, symbol, average_cost, quantity, updated_at
    `, accountID, symbol, price, quantity)

	position, err := scanPosition(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return position, nil
}

func (p *pgPositions) UpdateQuantity(ctx context.Context, positionID int, newQuantity decimal.Decimal) error {
	res, err := p.q.ExecContext(ctx,
		`UPDATE positions SET quantity = $1, updated_at = NOW() WHERE id = $2`,
		newQuantity, positionID)
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	return requireOneRow(res)
}

func (p *pgPositions) Delete(ctx context.Context, positionID int) error {
	res, err := p.q.ExecContext(ctx, `DELETE FROM positions WHERE id = $1`, positionID)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	return requireOneRow(res)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var acc models.Account
	err := row.Scan(&acc.ID, &acc.Username, &acc.CredentialHash, &acc.Balance, &acc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &acc, nil
}

func scanPosition(row *sql.Row) (*models.Position, error) {
	var pos models.Position
	err := row.Scan(&pos.ID, &pos.AccountID, &pos.Symbol, &pos.AverageCost, &pos.Quantity, &pos.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan position: %w", err)
	}
	return &pos, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
