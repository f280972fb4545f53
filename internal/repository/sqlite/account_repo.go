package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/yourorg/paper-trade/internal/domain"
)

type AccountRepo struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Create inserts the account and its zero-baseline equity row for today in
// one transaction.
func (r *AccountRepo) Create(ctx context.Context, name string, capital float64) (*domain.Account, error) {
	now := time.Now()
	acct := &domain.Account{
		Name:           name,
		InitialCapital: capital,
		Cash:           capital,
		CreatedAt:      now,
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (name, initial_capital, cash, created_at) VALUES (?, ?, ?, ?)`,
		acct.Name, acct.InitialCapital, acct.Cash, acct.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO equity_history (account_name, date, equity, pnl, pnl_pct) VALUES (?, ?, ?, 0, 0)`,
		acct.Name, now.Format("2006-01-02"), capital)
	if err != nil {
		return nil, fmt.Errorf("insert baseline equity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return acct, nil
}

func (r *AccountRepo) Get(ctx context.Context, name string) (*domain.Account, error) {
	var a domain.Account
	err := r.db.GetContext(ctx, &a, `SELECT * FROM accounts WHERE name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

func (r *AccountRepo) GetTx(ctx context.Context, tx *sqlx.Tx, name string) (*domain.Account, error) {
	var a domain.Account
	err := tx.GetContext(ctx, &a, `SELECT * FROM accounts WHERE name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

func (r *AccountRepo) GetAll(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	err := r.db.SelectContext(ctx, &accounts, `SELECT * FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM accounts`); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *AccountRepo) UpdateCashTx(ctx context.Context, tx *sqlx.Tx, name string, cash float64) error {
	_, err := tx.ExecContext(ctx, `UPDATE accounts SET cash = ? WHERE name = ?`, cash, name)
	return err
}

// Reset wipes positions, orders, trades, and equity history for the account,
// reseeds cash, and writes a fresh baseline snapshot. All or nothing.
func (r *AccountRepo) Reset(ctx context.Context, name string, capital float64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := r.GetTx(ctx, tx, name); err != nil {
		return err
	}

	now := time.Now()
	for _, q := range []string{
		`DELETE FROM positions WHERE account_name = ?`,
		`DELETE FROM orders WHERE account_name = ?`,
		`DELETE FROM trades WHERE account_name = ?`,
		`DELETE FROM equity_history WHERE account_name = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, name); err != nil {
			return fmt.Errorf("reset account: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET initial_capital = ?, cash = ?, created_at = ? WHERE name = ?`,
		capital, capital, now, name)
	if err != nil {
		return fmt.Errorf("reset account: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO equity_history (account_name, date, equity, pnl, pnl_pct) VALUES (?, ?, ?, 0, 0)`,
		name, now.Format("2006-01-02"), capital)
	if err != nil {
		return fmt.Errorf("reset baseline equity: %w", err)
	}

	return tx.Commit()
}

// Delete removes the account and cascades to its positions, orders, trades,
// and equity history.
func (r *AccountRepo) Delete(ctx context.Context, name string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM positions WHERE account_name = ?`,
		`DELETE FROM orders WHERE account_name = ?`,
		`DELETE FROM trades WHERE account_name = ?`,
		`DELETE FROM equity_history WHERE account_name = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, name); err != nil {
			return fmt.Errorf("delete account data: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return tx.Commit()
}
