package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const currentAccountKey = "current_account"

type SettingsRepo struct {
	db *sqlx.DB
}

func NewSettingsRepo(db *sqlx.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// CurrentAccount returns the process-wide current account pointer, defaulting
// to "default" before it has been set.
func (r *SettingsRepo) CurrentAccount(ctx context.Context) (string, error) {
	var v string
	err := r.db.GetContext(ctx, &v,
		`SELECT value FROM settings WHERE key = ?`, currentAccountKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "default", nil
		}
		return "", fmt.Errorf("get current account: %w", err)
	}
	return v, nil
}

func (r *SettingsRepo) SetCurrentAccount(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		currentAccountKey, name)
	if err != nil {
		return fmt.Errorf("set current account: %w", err)
	}
	return nil
}
