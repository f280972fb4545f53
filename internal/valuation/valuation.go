package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/yourorg/paper-trade/internal/domain"
	sqliteRepo "github.com/yourorg/paper-trade/internal/repository/sqlite"
)

// Compute marks the account to market. Positions use the supplied quote when
// it is present and positive, else their cost basis; equity is cash plus the
// marked value of every position.
func Compute(acct *domain.Account, positions []domain.Position, quotes map[string]domain.Quote, date string) domain.EquitySnapshot {
	var positionValue float64
	for _, pos := range positions {
		price := pos.AvgPrice
		if q, ok := quotes[pos.Symbol]; ok && q.Price > 0 {
			price = q.Price
		}
		positionValue += float64(pos.Qty) * price
	}

	equity := acct.Cash + positionValue
	pnl := equity - acct.InitialCapital
	var pnlPct float64
	if acct.InitialCapital > 0 {
		pnlPct = pnl / acct.InitialCapital * 100
	}

	return domain.EquitySnapshot{
		AccountName: acct.Name,
		Date:        date,
		Equity:      equity,
		PnL:         pnl,
		PnLPct:      pnlPct,
	}
}

// Today is the calendar date snapshots are keyed by.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// Valuer writes one equity snapshot per account per day, replacing any
// earlier snapshot for the same day.
type Valuer struct {
	accounts  *sqliteRepo.AccountRepo
	positions *sqliteRepo.PositionRepo
	equity    *sqliteRepo.EquityRepo
}

func New(accounts *sqliteRepo.AccountRepo, positions *sqliteRepo.PositionRepo, equity *sqliteRepo.EquityRepo) *Valuer {
	return &Valuer{accounts: accounts, positions: positions, equity: equity}
}

// BatchFetcher resolves live quotes for a symbol set; per-symbol failures
// come back as invalid quotes, never as a missing entry.
type BatchFetcher interface {
	GetBatch(ctx context.Context, symbols []string, concurrency int) map[string]domain.Quote
}

// AccountResult reports one account's revaluation, including the symbols
// whose quotes failed and fell back to cost basis.
type AccountResult struct {
	Account      string   `json:"account"`
	Positions    int      `json:"positions"`
	Equity       float64  `json:"equity"`
	QuotesFailed []string `json:"quote_failed,omitempty"`
}

// Revalue recomputes and upserts today's snapshot. quotes may be nil, in
// which case every position is valued at cost basis.
func (v *Valuer) Revalue(ctx context.Context, account string, quotes map[string]domain.Quote) (*domain.EquitySnapshot, error) {
	acct, err := v.accounts.Get(ctx, account)
	if err != nil {
		return nil, err
	}
	positions, err := v.positions.GetByAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	snap := Compute(acct, positions, quotes, Today())
	if err := v.equity.Upsert(ctx, &snap); err != nil {
		return nil, fmt.Errorf("revalue %s: %w", account, err)
	}
	return &snap, nil
}

// RevalueAllLive revalues every account with live quotes for its held
// symbols. A failed quote downgrades that symbol to cost basis; it never
// fails the account, and one account's failure never stops the rest.
func (v *Valuer) RevalueAllLive(ctx context.Context, fetcher BatchFetcher) ([]AccountResult, error) {
	accounts, err := v.accounts.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]AccountResult, 0, len(accounts))
	for _, acct := range accounts {
		positions, err := v.positions.GetByAccount(ctx, acct.Name)
		if err != nil {
			return results, err
		}

		var quotes map[string]domain.Quote
		var failed []string
		if len(positions) > 0 {
			symbols := make([]string, 0, len(positions))
			for _, p := range positions {
				symbols = append(symbols, p.Symbol)
			}
			quotes = fetcher.GetBatch(ctx, symbols, 0)
			for sym, q := range quotes {
				if !q.Valid || q.Price <= 0 {
					failed = append(failed, sym)
				}
			}
		}

		snap, err := v.Revalue(ctx, acct.Name, quotes)
		if err != nil {
			return results, err
		}
		results = append(results, AccountResult{
			Account:      acct.Name,
			Positions:    len(positions),
			Equity:       snap.Equity,
			QuotesFailed: failed,
		})
	}
	return results, nil
}
