package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yourorg/paper-trade/internal/domain"
)

type PositionRepo struct {
	db *sqlx.DB
}

func NewPositionRepo(db *sqlx.DB) *PositionRepo {
	return &PositionRepo{db: db}
}

func (r *PositionRepo) GetByAccount(ctx context.Context, account string) ([]domain.Position, error) {
	var positions []domain.Position
	err := r.db.SelectContext(ctx, &positions,
		`SELECT * FROM positions WHERE account_name = ? ORDER BY symbol`, account)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

func (r *PositionRepo) GetByAccountTx(ctx context.Context, tx *sqlx.Tx, account string) ([]domain.Position, error) {
	var positions []domain.Position
	err := tx.SelectContext(ctx, &positions,
		`SELECT * FROM positions WHERE account_name = ? ORDER BY symbol`, account)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

func (r *PositionRepo) Get(ctx context.Context, account, symbol string) (*domain.Position, error) {
	var p domain.Position
	err := r.db.GetContext(ctx, &p,
		`SELECT * FROM positions WHERE account_name = ? AND symbol = ?`, account, symbol)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get position: %w", err)
	}
	return &p, nil
}

func (r *PositionRepo) GetTx(ctx context.Context, tx *sqlx.Tx, account, symbol string) (*domain.Position, error) {
	var p domain.Position
	err := tx.GetContext(ctx, &p,
		`SELECT * FROM positions WHERE account_name = ? AND symbol = ?`, account, symbol)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get position: %w", err)
	}
	return &p, nil
}

// SetTx writes the position to qty/avgPrice, deleting the row when qty drops
// to zero. Rows exist only while qty > 0.
func (r *PositionRepo) SetTx(ctx context.Context, tx *sqlx.Tx, account, symbol string, qty int64, avgPrice float64) error {
	if qty <= 0 {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM positions WHERE account_name = ? AND symbol = ?`, account, symbol)
		return err
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO positions (account_name, symbol, qty, avg_price)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (account_name, symbol)
		DO UPDATE SET qty = excluded.qty, avg_price = excluded.avg_price`,
		account, symbol, qty, avgPrice)
	return err
}
