package analytics

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/paper-trade/internal/domain"
)

func equitySeries(values ...float64) []domain.EquitySnapshot {
	out := make([]domain.EquitySnapshot, len(values))
	for i, v := range values {
		out[i] = domain.EquitySnapshot{Date: dateFor(i), Equity: v}
	}
	return out
}

func dateFor(i int) string {
	return fmt.Sprintf("2026-08-%02d", i+1)
}

func TestSharpeRatioTooFewPoints(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio(nil).Sharpe)
	assert.Equal(t, 0.0, SharpeRatio(equitySeries(100)).Sharpe)
}

func TestSharpeRatioFlatSeries(t *testing.T) {
	result := SharpeRatio(equitySeries(100, 100, 100, 100))
	assert.Equal(t, 0.0, result.Sharpe)
	assert.Equal(t, 4, result.Samples)
}

func TestSharpeRatio(t *testing.T) {
	// Returns: +10%, -5%. Mean 0.025, population std 0.075.
	result := SharpeRatio(equitySeries(100, 110, 104.5))
	want := 0.025 / 0.075 * math.Sqrt(252)
	assert.InDelta(t, want, result.Sharpe, 1e-9)
	assert.Equal(t, 3, result.Samples)

	// A rising series has a positive ratio, a falling one negative.
	assert.Positive(t, SharpeRatio(equitySeries(100, 105, 112, 118)).Sharpe)
	assert.Negative(t, SharpeRatio(equitySeries(118, 112, 105, 100)).Sharpe)
}

func TestMaxDrawdown(t *testing.T) {
	result := MaxDrawdown(equitySeries(100, 120, 90, 110))
	assert.InDelta(t, 25.0, result.MaxDrawdownPct, 1e-9)
	assert.Equal(t, dateFor(1), result.PeakDate)
	assert.Equal(t, dateFor(2), result.TroughDate)
}

func TestMaxDrawdownMonotonic(t *testing.T) {
	result := MaxDrawdown(equitySeries(100, 110, 120, 130))
	assert.Equal(t, 0.0, result.MaxDrawdownPct)
	assert.Empty(t, result.PeakDate)
}

func TestMaxDrawdownTooFewPoints(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown(equitySeries(100)).MaxDrawdownPct)
}

func trade(symbol string, side domain.OrderSide, qty int64, price float64) domain.Trade {
	return domain.Trade{Symbol: symbol, Side: side, Qty: qty, Price: price, Value: float64(qty) * price}
}

func TestComputeTradeStatsBuyOnly(t *testing.T) {
	stats := ComputeTradeStats([]domain.Trade{
		trade("AAPL", domain.SideBuy, 100, 185),
		trade("SPY", domain.SideBuy, 10, 500),
	})
	assert.Zero(t, stats.ClosedTrades)
	assert.Zero(t, stats.WinRate)
	assert.Zero(t, stats.RealizedPnL)
}

func TestComputeTradeStatsWinAndLoss(t *testing.T) {
	stats := ComputeTradeStats([]domain.Trade{
		trade("AAPL", domain.SideBuy, 100, 100),
		trade("AAPL", domain.SideSell, 100, 110), // +1000
		trade("SPY", domain.SideBuy, 10, 500),
		trade("SPY", domain.SideSell, 10, 450), // -500
	})
	assert.Equal(t, 2, stats.ClosedTrades)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 50.0, stats.WinRate)
	assert.Equal(t, 1000.0, stats.AvgWin)
	assert.Equal(t, 500.0, stats.AvgLoss)
	assert.Equal(t, 2.0, stats.ProfitLossRatio)
	assert.Equal(t, 500.0, stats.RealizedPnL)
}

func TestComputeTradeStatsBreakEvenIsNeutral(t *testing.T) {
	stats := ComputeTradeStats([]domain.Trade{
		trade("AAPL", domain.SideBuy, 100, 100),
		trade("AAPL", domain.SideSell, 100, 100), // break-even
		trade("SPY", domain.SideBuy, 10, 500),
		trade("SPY", domain.SideSell, 10, 550), // +500
	})
	assert.Equal(t, 2, stats.ClosedTrades)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 0, stats.Losses)
	assert.Equal(t, 50.0, stats.WinRate)
	assert.Equal(t, 0.0, stats.AvgLoss)
	assert.Equal(t, 500.0, stats.RealizedPnL)
}

func TestComputeTradeStatsAveragedBasis(t *testing.T) {
	// Two buys average to 150; selling everything at 160 realizes +2000.
	stats := ComputeTradeStats([]domain.Trade{
		trade("AAPL", domain.SideBuy, 100, 100),
		trade("AAPL", domain.SideBuy, 100, 200),
		trade("AAPL", domain.SideSell, 200, 160),
	})
	assert.Equal(t, 1, stats.ClosedTrades)
	assert.InDelta(t, 2000.0, stats.RealizedPnL, 1e-9)
}

func TestComputeTradeStatsSkipsUntrackedSells(t *testing.T) {
	stats := ComputeTradeStats([]domain.Trade{
		trade("AAPL", domain.SideSell, 100, 100),
	})
	assert.Zero(t, stats.ClosedTrades)

	// A sell larger than the tracked basis realizes only the tracked part.
	stats = ComputeTradeStats([]domain.Trade{
		trade("AAPL", domain.SideBuy, 50, 100),
		trade("AAPL", domain.SideSell, 100, 110),
	})
	assert.Equal(t, 1, stats.ClosedTrades)
	assert.InDelta(t, 500.0, stats.RealizedPnL, 1e-9)
}

func TestAnalyzePositions(t *testing.T) {
	positions := []domain.Position{
		{Symbol: "AAPL", Qty: 100, AvgPrice: 185},
		{Symbol: "SPY", Qty: 10, AvgPrice: 500},
	}
	quotes := map[string]domain.Quote{
		"AAPL": {Symbol: "AAPL", Price: 190, Valid: true},
	}

	analysis := AnalyzePositions(positions, quotes)
	assert.Len(t, analysis.Positions, 2)

	aapl := analysis.Positions[0]
	assert.Equal(t, "quote", aapl.PriceSource)
	assert.Equal(t, 19_000.0, aapl.MarketValue)
	assert.Equal(t, 500.0, aapl.PnL)

	spy := analysis.Positions[1]
	assert.Equal(t, "cost", spy.PriceSource)
	assert.Equal(t, 5_000.0, spy.MarketValue)
	assert.Equal(t, 0.0, spy.PnL)

	assert.Equal(t, 23_500.0, analysis.TotalCost)
	assert.Equal(t, 24_000.0, analysis.TotalMarketValue)
	assert.Equal(t, 500.0, analysis.TotalPnL)
	assert.InDelta(t, 500.0/23_500.0*100, analysis.TotalPnLPct, 1e-9)
}

func TestAnalyzePositionsEmpty(t *testing.T) {
	analysis := AnalyzePositions(nil, nil)
	assert.Empty(t, analysis.Positions)
	assert.Zero(t, analysis.TotalPnLPct)
}
