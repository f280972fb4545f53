package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/paper-trade/internal/domain"
	sqliteRepo "github.com/yourorg/paper-trade/internal/repository/sqlite"
)

type accountSummary struct {
	Name       string  `json:"name"`
	TotalValue float64 `json:"total_value"`
	PnL        float64 `json:"pnl"`
	PnLPct     float64 `json:"pnl_pct"`
	IsCurrent  bool    `json:"is_current"`
}

func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	accounts, err := h.accounts.GetAll(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]accountSummary, 0, len(accounts))
	for _, acct := range accounts {
		positions, err := h.positions.GetByAccount(ctx, acct.Name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		var positionValue float64
		for _, p := range positions {
			positionValue += float64(p.Qty) * p.AvgPrice
		}
		total := acct.Cash + positionValue
		pnl := total - acct.InitialCapital
		var pnlPct float64
		if acct.InitialCapital > 0 {
			pnlPct = pnl / acct.InitialCapital * 100
		}
		out = append(out, accountSummary{
			Name:       acct.Name,
			TotalValue: total,
			PnL:        pnl,
			PnLPct:     pnlPct,
			IsCurrent:  acct.Name == current,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": out, "current": current})
}

type createAccountRequest struct {
	Name    string   `json:"name"`
	Capital *float64 `json:"capital,omitempty"`
}

func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "account name is required")
		return
	}
	capital := float64(sqliteRepo.DefaultCapital)
	if req.Capital != nil {
		capital = *req.Capital
	}
	if capital <= 0 {
		writeError(w, http.StatusBadRequest, "capital must be positive")
		return
	}

	if _, err := h.accounts.Create(r.Context(), name, capital); err != nil {
		writeDomainError(w, err)
		return
	}
	// Creating an account also makes it current, matching the UI flow.
	if err := h.settings.SetCurrentAccount(r.Context(), name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "current": name})
}

type switchAccountRequest struct {
	Name string `json:"name"`
}

func (h *Handlers) SwitchAccount(w http.ResponseWriter, r *http.Request) {
	var req switchAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.accounts.Get(r.Context(), req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.settings.SetCurrentAccount(r.Context(), req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "current": req.Name})
}

func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	if _, err := h.accounts.Get(ctx, name); err != nil {
		writeDomainError(w, err)
		return
	}
	accounts, err := h.accounts.GetAll(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if len(accounts) <= 1 {
		writeDomainError(w, domain.ErrLastAccount)
		return
	}

	if err := h.accounts.Delete(ctx, name); err != nil {
		writeDomainError(w, err)
		return
	}

	// Repoint the current-account pointer when it referenced the deleted one.
	current, err := h.currentAccount(r)
	if err == nil && current == name {
		for _, acct := range accounts {
			if acct.Name != name {
				_ = h.settings.SetCurrentAccount(ctx, acct.Name)
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	acct, err := h.accounts.Get(ctx, name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	positions, err := h.positions.GetByAccount(ctx, name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var positionValue float64
	for _, p := range positions {
		positionValue += float64(p.Qty) * p.AvgPrice
	}

	// Prefer the latest equity snapshot; it may carry live-quote pricing.
	total := acct.Cash + positionValue
	pnl := total - acct.InitialCapital
	var pnlPct float64
	if acct.InitialCapital > 0 {
		pnlPct = pnl / acct.InitialCapital * 100
	}
	if history, err := h.equity.GetByAccount(ctx, name); err == nil && len(history) > 0 {
		last := history[len(history)-1]
		total, pnl, pnlPct = last.Equity, last.PnL, last.PnLPct
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":            name,
		"initial_capital": acct.InitialCapital,
		"cash":            acct.Cash,
		"position_value":  positionValue,
		"total_value":     total,
		"pnl":             pnl,
		"pnl_pct":         pnlPct,
		"created_at":      acct.CreatedAt,
	})
}

type resetAccountRequest struct {
	Capital *float64 `json:"capital,omitempty"`
}

func (h *Handlers) ResetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, err := h.currentAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	acct, err := h.accounts.Get(ctx, name)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Body is optional; an absent or malformed one means default capital.
	var req resetAccountRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	capital := acct.InitialCapital
	if req.Capital != nil && *req.Capital > 0 {
		capital = *req.Capital
	}

	if err := h.accounts.Reset(ctx, name, capital); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "account": name, "capital": capital})
}
