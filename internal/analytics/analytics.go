package analytics

import (
	"context"
	"math"

	"github.com/yourorg/paper-trade/internal/domain"
	sqliteRepo "github.com/yourorg/paper-trade/internal/repository/sqlite"
)

const tradingDaysPerYear = 252

type SharpeResult struct {
	Sharpe  float64 `json:"sharpe"`
	Samples int     `json:"samples"`
}

type DrawdownResult struct {
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	PeakDate       string  `json:"peak_date,omitempty"`
	TroughDate     string  `json:"trough_date,omitempty"`
}

type TradeStats struct {
	ClosedTrades    int     `json:"closed_trades"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	WinRate         float64 `json:"win_rate"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
	ProfitLossRatio float64 `json:"profit_loss_ratio"`
	RealizedPnL     float64 `json:"realized_pnl"`
}

type PositionDetail struct {
	Symbol       string  `json:"symbol"`
	Qty          int64   `json:"qty"`
	AvgPrice     float64 `json:"avg_price"`
	Cost         float64 `json:"cost"`
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
	PnL          float64 `json:"pnl"`
	PnLPct       float64 `json:"pnl_pct"`
	PriceSource  string  `json:"price_source"`
}

type PositionAnalysis struct {
	Positions        []PositionDetail `json:"positions"`
	TotalCost        float64          `json:"total_cost"`
	TotalMarketValue float64          `json:"total_market_value"`
	TotalPnL         float64          `json:"total_pnl"`
	TotalPnLPct      float64          `json:"total_pnl_pct"`
}

type Report struct {
	Sharpe    SharpeResult     `json:"sharpe"`
	Drawdown  DrawdownResult   `json:"drawdown"`
	Trades    TradeStats       `json:"trade_stats"`
	Positions PositionAnalysis `json:"positions"`
}

// SharpeRatio computes the annualized Sharpe ratio of day-over-day returns
// of the equity series, zero risk-free rate. Fewer than two snapshots or a
// flat series yields 0, not an error.
func SharpeRatio(history []domain.EquitySnapshot) SharpeResult {
	if len(history) < 2 {
		return SharpeResult{Samples: len(history)}
	}

	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		prev := history[i-1].Equity
		if prev > 0 {
			returns = append(returns, (history[i].Equity-prev)/prev)
		}
	}
	if len(returns) == 0 {
		return SharpeResult{Samples: len(history)}
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	if variance == 0 {
		return SharpeResult{Samples: len(history)}
	}

	return SharpeResult{
		Sharpe:  mean / math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear),
		Samples: len(history),
	}
}

// MaxDrawdown finds the largest peak-to-trough percentage decline. A
// monotonically non-decreasing series, or one with fewer than two points,
// reports 0.
func MaxDrawdown(history []domain.EquitySnapshot) DrawdownResult {
	if len(history) < 2 {
		return DrawdownResult{}
	}

	var out DrawdownResult
	peak := history[0]
	for _, point := range history[1:] {
		if point.Equity > peak.Equity {
			peak = point
			continue
		}
		if peak.Equity <= 0 {
			continue
		}
		dd := (peak.Equity - point.Equity) / peak.Equity * 100
		if dd > out.MaxDrawdownPct {
			out.MaxDrawdownPct = dd
			out.PeakDate = peak.Date
			out.TroughDate = point.Date
		}
	}
	return out
}

// ComputeTradeStats replays the trade ledger chronologically, keeping a
// running (qty, avg cost) per symbol. Each sell realizes P&L against the
// basis at the time of sale; sells without a tracked basis are skipped.
// A buy-only history reports zero closed trades. Break-even closes count
// toward ClosedTrades but are neither wins nor losses.
func ComputeTradeStats(trades []domain.Trade) TradeStats {
	type basis struct {
		qty      int64
		avgPrice float64
	}
	open := make(map[string]basis)

	var stats TradeStats
	var sumWins, sumLosses float64

	for _, t := range trades {
		switch t.Side {
		case domain.SideBuy:
			b := open[t.Symbol]
			oldValue := float64(b.qty) * b.avgPrice
			b.qty += t.Qty
			b.avgPrice = (oldValue + t.Value) / float64(b.qty)
			open[t.Symbol] = b

		case domain.SideSell:
			b, ok := open[t.Symbol]
			if !ok || b.qty == 0 {
				continue
			}
			qty := t.Qty
			if qty > b.qty {
				qty = b.qty
			}
			pnl := (t.Price - b.avgPrice) * float64(qty)

			stats.ClosedTrades++
			stats.RealizedPnL += pnl
			switch {
			case pnl > 0:
				stats.Wins++
				sumWins += pnl
			case pnl < 0:
				stats.Losses++
				sumLosses += -pnl
			}

			b.qty -= qty
			if b.qty == 0 {
				delete(open, t.Symbol)
			} else {
				open[t.Symbol] = b
			}
		}
	}

	if stats.ClosedTrades > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.ClosedTrades) * 100
	}
	if stats.Wins > 0 {
		stats.AvgWin = sumWins / float64(stats.Wins)
	}
	if stats.Losses > 0 {
		stats.AvgLoss = sumLosses / float64(stats.Losses)
	}
	if stats.AvgLoss > 0 {
		stats.ProfitLossRatio = stats.AvgWin / stats.AvgLoss
	}
	return stats
}

// AnalyzePositions prices each held position with the quote when available
// and positive, cost basis otherwise, and aggregates portfolio totals.
func AnalyzePositions(positions []domain.Position, quotes map[string]domain.Quote) PositionAnalysis {
	out := PositionAnalysis{Positions: make([]PositionDetail, 0, len(positions))}

	for _, pos := range positions {
		cost := float64(pos.Qty) * pos.AvgPrice
		price := pos.AvgPrice
		source := "cost"
		if q, ok := quotes[pos.Symbol]; ok && q.Price > 0 {
			price = q.Price
			source = "quote"
		}
		marketValue := float64(pos.Qty) * price
		pnl := marketValue - cost

		detail := PositionDetail{
			Symbol:       pos.Symbol,
			Qty:          pos.Qty,
			AvgPrice:     pos.AvgPrice,
			Cost:         cost,
			CurrentPrice: price,
			MarketValue:  marketValue,
			PnL:          pnl,
			PriceSource:  source,
		}
		if cost > 0 {
			detail.PnLPct = pnl / cost * 100
		}
		out.Positions = append(out.Positions, detail)

		out.TotalCost += cost
		out.TotalMarketValue += marketValue
		out.TotalPnL += pnl
	}

	if out.TotalCost > 0 {
		out.TotalPnLPct = out.TotalPnL / out.TotalCost * 100
	}
	return out
}

// Engine is the read-only analytics facade over the ledger store.
type Engine struct {
	equity    *sqliteRepo.EquityRepo
	trades    *sqliteRepo.TradeRepo
	positions *sqliteRepo.PositionRepo
}

func NewEngine(equity *sqliteRepo.EquityRepo, trades *sqliteRepo.TradeRepo, positions *sqliteRepo.PositionRepo) *Engine {
	return &Engine{equity: equity, trades: trades, positions: positions}
}

func (e *Engine) Sharpe(ctx context.Context, account string) (SharpeResult, error) {
	history, err := e.equity.GetByAccount(ctx, account)
	if err != nil {
		return SharpeResult{}, err
	}
	return SharpeRatio(history), nil
}

func (e *Engine) Drawdown(ctx context.Context, account string) (DrawdownResult, error) {
	history, err := e.equity.GetByAccount(ctx, account)
	if err != nil {
		return DrawdownResult{}, err
	}
	return MaxDrawdown(history), nil
}

func (e *Engine) TradeStats(ctx context.Context, account string) (TradeStats, error) {
	trades, err := e.trades.GetChronological(ctx, account)
	if err != nil {
		return TradeStats{}, err
	}
	return ComputeTradeStats(trades), nil
}

func (e *Engine) PositionAnalysis(ctx context.Context, account string, quotes map[string]domain.Quote) (PositionAnalysis, error) {
	positions, err := e.positions.GetByAccount(ctx, account)
	if err != nil {
		return PositionAnalysis{}, err
	}
	return AnalyzePositions(positions, quotes), nil
}

func (e *Engine) FullReport(ctx context.Context, account string, quotes map[string]domain.Quote) (*Report, error) {
	sharpe, err := e.Sharpe(ctx, account)
	if err != nil {
		return nil, err
	}
	drawdown, err := e.Drawdown(ctx, account)
	if err != nil {
		return nil, err
	}
	stats, err := e.TradeStats(ctx, account)
	if err != nil {
		return nil, err
	}
	positions, err := e.PositionAnalysis(ctx, account, quotes)
	if err != nil {
		return nil, err
	}
	return &Report{Sharpe: sharpe, Drawdown: drawdown, Trades: stats, Positions: positions}, nil
}
