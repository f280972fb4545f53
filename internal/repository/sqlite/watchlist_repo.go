package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/yourorg/paper-trade/internal/domain"
)

var ErrWatchExists = errors.New("symbol already watched")

type WatchlistRepo struct {
	db *sqlx.DB
}

func NewWatchlistRepo(db *sqlx.DB) *WatchlistRepo {
	return &WatchlistRepo{db: db}
}

func (r *WatchlistRepo) GetAll(ctx context.Context) ([]domain.WatchlistEntry, error) {
	var entries []domain.WatchlistEntry
	err := r.db.SelectContext(ctx, &entries, `SELECT * FROM watchlist ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	return entries, nil
}

func (r *WatchlistRepo) Add(ctx context.Context, symbol, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO watchlist (symbol, name, status) VALUES (?, ?, ?)`,
		symbol, name, domain.WatchPending)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrWatchExists
		}
		return fmt.Errorf("add watchlist entry: %w", err)
	}
	return nil
}

func (r *WatchlistRepo) Remove(ctx context.Context, symbol string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM watchlist WHERE symbol = ?`, symbol)
	if err != nil {
		return false, fmt.Errorf("remove watchlist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *WatchlistRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM watchlist`)
	return err
}

// UpdateQuote records the outcome of a quote fetch for the symbol. The stored
// name is only replaced when a non-empty one is supplied.
func (r *WatchlistRepo) UpdateQuote(ctx context.Context, symbol string, price float64, name string, status domain.WatchStatus, fetchErr string) error {
	var errVal *string
	if fetchErr != "" {
		errVal = &fetchErr
	}
	var nameVal *string
	if name != "" {
		nameVal = &name
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE watchlist
		SET last_price = ?, last_update = ?, status = ?, error = ?, name = COALESCE(?, name)
		WHERE symbol = ?`,
		price, time.Now(), status, errVal, nameVal, symbol)
	if err != nil {
		return fmt.Errorf("update watchlist quote: %w", err)
	}
	return nil
}
