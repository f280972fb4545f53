package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yourorg/paper-trade/internal/domain"
)

type TradeRepo struct {
	db *sqlx.DB
}

func NewTradeRepo(db *sqlx.DB) *TradeRepo {
	return &TradeRepo{db: db}
}

func (r *TradeRepo) InsertTx(ctx context.Context, tx *sqlx.Tx, t *domain.Trade) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO trades (account_name, symbol, side, qty, price, value, time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.AccountName, t.Symbol, t.Side, t.Qty, t.Price, t.Value, t.Time)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

// GetByAccount returns the account's trades most-recent-first.
func (r *TradeRepo) GetByAccount(ctx context.Context, account string, limit int) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := r.db.SelectContext(ctx, &trades,
		`SELECT * FROM trades WHERE account_name = ? ORDER BY id DESC LIMIT ?`, account, limit)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	return trades, nil
}

// GetChronological returns the account's trades oldest-first, the order the
// analytics replay needs.
func (r *TradeRepo) GetChronological(ctx context.Context, account string) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := r.db.SelectContext(ctx, &trades,
		`SELECT * FROM trades WHERE account_name = ? ORDER BY id`, account)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	return trades, nil
}
