package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yourorg/paper-trade/internal/domain"
)

type OrderRepo struct {
	db *sqlx.DB
}

func NewOrderRepo(db *sqlx.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) InsertTx(ctx context.Context, tx *sqlx.Tx, o *domain.Order) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (account_name, symbol, side, qty, price, value, time, status, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.AccountName, o.Symbol, o.Side, o.Qty, o.Price, o.Value, o.Time, o.Status, o.Source)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	o.ID, err = res.LastInsertId()
	return err
}

// GetByAccount returns the account's orders most-recent-first.
func (r *OrderRepo) GetByAccount(ctx context.Context, account string, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.SelectContext(ctx, &orders,
		`SELECT * FROM orders WHERE account_name = ? ORDER BY id DESC LIMIT ?`, account, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
