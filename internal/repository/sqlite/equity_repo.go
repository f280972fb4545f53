package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yourorg/paper-trade/internal/domain"
)

type EquityRepo struct {
	db *sqlx.DB
}

func NewEquityRepo(db *sqlx.DB) *EquityRepo {
	return &EquityRepo{db: db}
}

// UpsertTx replaces the snapshot for (account, date). At most one row per
// account per calendar day.
func (r *EquityRepo) UpsertTx(ctx context.Context, tx *sqlx.Tx, s *domain.EquitySnapshot) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO equity_history (account_name, date, equity, pnl, pnl_pct)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (account_name, date)
		DO UPDATE SET equity = excluded.equity, pnl = excluded.pnl, pnl_pct = excluded.pnl_pct`,
		s.AccountName, s.Date, s.Equity, s.PnL, s.PnLPct)
	if err != nil {
		return fmt.Errorf("upsert equity snapshot: %w", err)
	}
	return nil
}

func (r *EquityRepo) Upsert(ctx context.Context, s *domain.EquitySnapshot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := r.UpsertTx(ctx, tx, s); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByAccount returns the snapshot series in chronological order.
func (r *EquityRepo) GetByAccount(ctx context.Context, account string) ([]domain.EquitySnapshot, error) {
	var history []domain.EquitySnapshot
	err := r.db.SelectContext(ctx, &history, `
		SELECT account_name, date, equity, pnl, pnl_pct
		FROM equity_history WHERE account_name = ? ORDER BY date`, account)
	if err != nil {
		return nil, fmt.Errorf("list equity history: %w", err)
	}
	return history, nil
}
