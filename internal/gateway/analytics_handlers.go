package gateway

import (
	"net/http"

	"github.com/yourorg/paper-trade/internal/domain"
)

// analyticsQuotes resolves the quote map the position analysis should be
// priced with: live fetches when ?realtime=true, cached watchlist prices
// otherwise.
func (h *Handlers) analyticsQuotes(r *http.Request, account string) map[string]domain.Quote {
	if r.URL.Query().Get("realtime") != "true" {
		return h.watchlistQuotes(r)
	}
	positions, err := h.positions.GetByAccount(r.Context(), account)
	if err != nil || len(positions) == 0 {
		return nil
	}
	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		symbols = append(symbols, p.Symbol)
	}
	return h.cache.GetBatch(r.Context(), symbols, 0)
}

func (h *Handlers) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	account, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	report, err := h.analytics.FullReport(r.Context(), account, h.analyticsQuotes(r, account))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handlers) GetSharpe(w http.ResponseWriter, r *http.Request) {
	account, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := h.analytics.Sharpe(r.Context(), account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetDrawdown(w http.ResponseWriter, r *http.Request) {
	account, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := h.analytics.Drawdown(r.Context(), account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetTradeStats(w http.ResponseWriter, r *http.Request) {
	account, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	stats, err := h.analytics.TradeStats(r.Context(), account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) GetPositionAnalysis(w http.ResponseWriter, r *http.Request) {
	account, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	analysis, err := h.analytics.PositionAnalysis(r.Context(), account, h.analyticsQuotes(r, account))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *Handlers) GetSimulationStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sim.Status())
}

func (h *Handlers) ReloadSimulation(w http.ResponseWriter, _ *http.Request) {
	if err := h.simWatch.Reload(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "config": h.sim.Status()})
}
