package sqlite

import (
	"context"
	"errors"
	"fmt"
)

const DefaultCapital = 1_000_000

var defaultWatchlist = []struct{ symbol, name string }{
	{"GOOGL", "Google"},
	{"SPY", "S&P 500 ETF"},
	{"QQQ", "Nasdaq 100 ETF"},
	{"GLD", "Gold ETF"},
	{"SLV", "Silver ETF"},
	{"0700.HK", "Tencent"},
}

// Bootstrap creates the default account and seeds the default watchlist on a
// fresh database. Safe to call on every boot.
func Bootstrap(ctx context.Context, accounts *AccountRepo, settings *SettingsRepo, watchlist *WatchlistRepo) error {
	n, err := accounts.Count(ctx)
	if err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if n == 0 {
		if _, err := accounts.Create(ctx, "default", DefaultCapital); err != nil {
			return fmt.Errorf("create default account: %w", err)
		}
		if err := settings.SetCurrentAccount(ctx, "default"); err != nil {
			return err
		}
	}

	entries, err := watchlist.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		for _, w := range defaultWatchlist {
			if err := watchlist.Add(ctx, w.symbol, w.name); err != nil && !errors.Is(err, ErrWatchExists) {
				return err
			}
		}
	}
	return nil
}

// SeedWatchlist inserts any missing default watchlist symbols, returning the
// added and skipped sets.
func SeedWatchlist(ctx context.Context, watchlist *WatchlistRepo) (added, skipped []string, err error) {
	for _, w := range defaultWatchlist {
		switch err := watchlist.Add(ctx, w.symbol, w.name); {
		case err == nil:
			added = append(added, w.symbol)
		case errors.Is(err, ErrWatchExists):
			skipped = append(skipped, w.symbol)
		default:
			return nil, nil, err
		}
	}
	return added, skipped, nil
}
