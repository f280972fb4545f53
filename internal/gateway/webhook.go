package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yourorg/paper-trade/internal/domain"
	"github.com/yourorg/paper-trade/internal/execution"
	"github.com/yourorg/paper-trade/internal/quote"
)

// webhookPayload accepts the field spellings used by common alerting tools.
// TradingView sends ticker/action/contracts, others send symbol/side/qty.
type webhookPayload struct {
	Token string `json:"token"`

	Symbol string `json:"symbol"`
	Ticker string `json:"ticker"`

	Side   string `json:"side"`
	Action string `json:"action"`

	Qty       *int64 `json:"qty"`
	Quantity  *int64 `json:"quantity"`
	Contracts *int64 `json:"contracts"`

	Price      float64 `json:"price"`
	LimitPrice float64 `json:"limit_price"`

	Account string `json:"account"`
}

const webhookDefaultQty = 100

func (p *webhookPayload) symbol() string {
	if p.Symbol != "" {
		return p.Symbol
	}
	return p.Ticker
}

func (p *webhookPayload) side() (domain.OrderSide, bool) {
	raw := p.Side
	if raw == "" {
		raw = p.Action
	}
	side, ok := domain.SideAliases[strings.ToLower(strings.TrimSpace(raw))]
	return side, ok
}

func (p *webhookPayload) qty() int64 {
	for _, v := range []*int64{p.Qty, p.Quantity, p.Contracts} {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return webhookDefaultQty
}

func (p *webhookPayload) price() float64 {
	if p.Price > 0 {
		return p.Price
	}
	return p.LimitPrice
}

// Webhook executes an order on behalf of an external alert. Sells are clamped
// to the held quantity instead of rejected, and the current-account pointer is
// never touched: an explicit account routes the order, nothing else.
func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	// Token auth is optional: enforced only when a token is configured.
	if h.webhookToken != "" {
		token := r.Header.Get("X-Webhook-Token")
		if token == "" {
			token = payload.Token
		}
		if token != h.webhookToken {
			writeError(w, http.StatusUnauthorized, "invalid webhook token")
			return
		}
	}

	symbol := quote.NormalizeSymbol(payload.symbol())
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	side, ok := payload.side()
	if !ok {
		writeError(w, http.StatusBadRequest, "unrecognized side")
		return
	}
	price := payload.price()
	if price <= 0 {
		writeError(w, http.StatusBadRequest, "price is required")
		return
	}

	result, err := h.orderSvc.Execute(r.Context(), execution.OrderRequest{
		AccountName: payload.Account,
		Symbol:      symbol,
		Side:        side,
		Qty:         payload.qty(),
		Price:       price,
		Source:      domain.SourceWebhook,
		ClampSell:   true,
	})
	if err != nil {
		h.logger.Warn("webhook order rejected", "symbol", symbol, "side", side, "err", err)
		writeDomainError(w, err)
		return
	}

	h.logger.Info("webhook order executed",
		"execution_id", result.ExecutionID,
		"account", result.AccountName,
		"symbol", symbol,
		"side", side,
		"qty", result.Order.Qty)
	h.hub.Broadcast(result)
	writeJSON(w, http.StatusOK, orderResponse(result))
}
