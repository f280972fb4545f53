package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/paper-trade/internal/domain"
	"github.com/yourorg/paper-trade/internal/quote"
	sqliteRepo "github.com/yourorg/paper-trade/internal/repository/sqlite"
)

func (h *Handlers) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.watchlist.GetAll(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"watchlist": entries})
}

type addWatchRequest struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// AddToWatchlist registers the symbol and fetches its first quote inline so
// the UI row is populated immediately.
func (h *Handlers) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var req addWatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	symbol := quote.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	if err := h.watchlist.Add(r.Context(), symbol, req.Name); err != nil {
		if errors.Is(err, sqliteRepo.ErrWatchExists) {
			writeError(w, http.StatusBadRequest, "symbol already in watchlist")
			return
		}
		writeDomainError(w, err)
		return
	}

	q := h.refreshEntry(r, symbol)
	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "symbol": symbol, "quote": q})
}

func (h *Handlers) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	symbol := quote.NormalizeSymbol(chi.URLParam(r, "symbol"))
	removed, err := h.watchlist.Remove(r.Context(), symbol)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "symbol not in watchlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// RefreshWatchlist refetches every watched symbol and persists the outcomes,
// failures included.
func (h *Handlers) RefreshWatchlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.watchlist.GetAll(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.Symbol)
	}
	quotes := h.cache.GetBatch(ctx, symbols, 0)

	var updated, failed int
	for sym, q := range quotes {
		if q.Valid && q.Price > 0 {
			updated++
			_ = h.watchlist.UpdateQuote(ctx, sym, q.Price, q.Name, domain.WatchOK, "")
		} else {
			failed++
			_ = h.watchlist.UpdateQuote(ctx, sym, 0, "", domain.WatchError, q.Error)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"updated": updated,
		"failed":  failed,
		"quotes":  quotes,
	})
}

func (h *Handlers) ClearWatchlist(w http.ResponseWriter, r *http.Request) {
	if err := h.watchlist.Clear(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// InitWatchlist restores the default symbol set without disturbing existing
// entries.
func (h *Handlers) InitWatchlist(w http.ResponseWriter, r *http.Request) {
	added, skipped, err := sqliteRepo.SeedWatchlist(r.Context(), h.watchlist)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"added":   added,
		"skipped": skipped,
		"message": strings.Join(added, ", "),
	})
}

// refreshEntry fetches one quote and records it on the watchlist row.
func (h *Handlers) refreshEntry(r *http.Request, symbol string) domain.Quote {
	q := h.cache.Get(r.Context(), symbol)
	if q.Valid && q.Price > 0 {
		_ = h.watchlist.UpdateQuote(r.Context(), symbol, q.Price, q.Name, domain.WatchOK, "")
	} else {
		_ = h.watchlist.UpdateQuote(r.Context(), symbol, 0, "", domain.WatchError, q.Error)
	}
	return q
}
