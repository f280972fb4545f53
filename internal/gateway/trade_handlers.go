package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/paper-trade/internal/analytics"
	"github.com/yourorg/paper-trade/internal/domain"
	"github.com/yourorg/paper-trade/internal/execution"
	"github.com/yourorg/paper-trade/internal/quote"
)

// GetPositions lists the current account's holdings. With ?realtime=true each
// symbol is fetched live and the watchlist cache refreshed; otherwise cached
// watchlist prices are used.
func (h *Handlers) GetPositions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	positions, err := h.positions.GetByAccount(ctx, account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	realtime := r.URL.Query().Get("realtime") == "true"

	quotes := make(map[string]domain.Quote)
	if realtime {
		symbols := make([]string, 0, len(positions))
		for _, p := range positions {
			symbols = append(symbols, p.Symbol)
		}
		quotes = h.cache.GetBatch(ctx, symbols, 0)
		for sym, q := range quotes {
			if q.Valid && q.Price > 0 {
				_ = h.watchlist.UpdateQuote(ctx, sym, q.Price, q.Name, domain.WatchOK, "")
			}
		}
	} else {
		quotes = h.watchlistQuotes(r)
	}

	report := analytics.AnalyzePositions(positions, quotes)
	resp := map[string]any{"positions": report.Positions}
	if realtime {
		resp["summary"] = map[string]any{
			"total_cost":         report.TotalCost,
			"total_market_value": report.TotalMarketValue,
			"total_pnl":          report.TotalPnL,
			"total_pnl_pct":      report.TotalPnLPct,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// watchlistQuotes turns cached watchlist prices into a quote map for
// valuation fallback.
func (h *Handlers) watchlistQuotes(r *http.Request) map[string]domain.Quote {
	quotes := make(map[string]domain.Quote)
	entries, err := h.watchlist.GetAll(r.Context())
	if err != nil {
		return quotes
	}
	for _, e := range entries {
		if e.LastPrice != nil && *e.LastPrice > 0 {
			quotes[e.Symbol] = domain.Quote{Symbol: e.Symbol, Price: *e.LastPrice, Valid: true}
		}
	}
	return quotes
}

func (h *Handlers) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := quote.NormalizeSymbol(chi.URLParam(r, "symbol"))
	writeJSON(w, http.StatusOK, h.cache.Get(r.Context(), symbol))
}

func (h *Handlers) GetQuotes(w http.ResponseWriter, r *http.Request) {
	raw := strings.Split(r.URL.Query().Get("symbols"), ",")
	symbols := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, quote.NormalizeSymbol(s))
		}
	}
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols parameter is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": h.cache.GetBatch(r.Context(), symbols, 0)})
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	account, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	orders, err := h.orders.GetByAccount(r.Context(), account, 50)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

type placeOrderRequest struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Qty    int64   `json:"qty"`
	Price  float64 `json:"price"`
}

// PlaceOrder is the interactive entry point. It always targets the current
// account and hard-fails oversized sells.
func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.orderSvc.Execute(r.Context(), execution.OrderRequest{
		Symbol: quote.NormalizeSymbol(req.Symbol),
		Side:   domain.OrderSide(strings.ToLower(req.Side)),
		Qty:    req.Qty,
		Price:  req.Price,
		Source: domain.SourceWeb,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(result)
	writeJSON(w, http.StatusOK, orderResponse(result))
}

func orderResponse(result *execution.OrderResult) map[string]any {
	return map[string]any{
		"status": "ok",
		"order": map[string]any{
			"id":              result.Order.ID,
			"symbol":          result.Order.Symbol,
			"side":            result.Order.Side,
			"requested_qty":   result.RequestedQty,
			"filled_qty":      result.Order.Qty,
			"requested_price": result.RequestedPrice,
			"exec_price":      result.Order.Price,
			"value":           result.Order.Value,
			"time":            result.Order.Time,
			"status":          result.Order.Status,
			"source":          result.Order.Source,
		},
		"simulation": map[string]any{
			"execution_id": result.ExecutionID,
			"slippage":     result.Fill.Slippage,
			"commission":   result.Fill.Commission,
			"fill_rate":    result.Fill.FillRate,
			"total_cost":   result.Fill.TotalCost,
		},
		"account": result.AccountName,
		"cash":    result.Cash,
	}
}

func (h *Handlers) GetTrades(w http.ResponseWriter, r *http.Request) {
	account, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	trades, err := h.trades.GetByAccount(r.Context(), account, 100)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trades": trades})
}

func (h *Handlers) GetEquityHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	acct, err := h.accounts.Get(ctx, account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	history, err := h.equity.GetByAccount(ctx, account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"history":         history,
		"initial_capital": acct.InitialCapital,
	})
}

// UpdateEquity revalues every account with live quotes; failed symbols fall
// back to cost basis and are reported, not fatal.
func (h *Handlers) UpdateEquity(w http.ResponseWriter, r *http.Request) {
	results, err := h.valuer.RevalueAllLive(r.Context(), h.cache)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	failed := make(map[string]bool)
	for _, res := range results {
		for _, sym := range res.QuotesFailed {
			failed[sym] = true
		}
	}
	failedList := make([]string, 0, len(failed))
	for sym := range failed {
		failedList = append(failedList, sym)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        fmt.Sprintf("updated %d accounts", len(results)),
		"results":        results,
		"failed_symbols": failedList,
	})
}

func (h *Handlers) ExportTrades(w http.ResponseWriter, r *http.Request) {
	account, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	trades, err := h.trades.GetByAccount(r.Context(), account, 10000)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var b strings.Builder
	b.WriteString("time,symbol,side,qty,price,value\n")
	for _, t := range trades {
		fmt.Fprintf(&b, "%s,%s,%s,%d,%.2f,%.2f\n",
			t.Time.Format(time.RFC3339), t.Symbol, t.Side, t.Qty, t.Price, t.Value)
	}
	writeCSV(w, fmt.Sprintf("trades_%s_%s.csv", account, time.Now().Format("20060102")), b.String())
}

func (h *Handlers) ExportEquity(w http.ResponseWriter, r *http.Request) {
	account, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	history, err := h.equity.GetByAccount(r.Context(), account)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var b strings.Builder
	b.WriteString("date,equity,pnl,pnl_pct\n")
	for _, s := range history {
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f\n", s.Date, s.Equity, s.PnL, s.PnLPct)
	}
	writeCSV(w, fmt.Sprintf("equity_%s_%s.csv", account, time.Now().Format("20060102")), b.String())
}

func writeCSV(w http.ResponseWriter, filename, content string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment;filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}
