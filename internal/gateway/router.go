package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/yourorg/paper-trade/internal/auth"
)

// NewRouter wires the HTTP surface. The webhook and websocket endpoints stay
// outside the JWT wall: the webhook carries its own shared-secret token and
// the socket only pushes outbound events.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Webhook-Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Post("/webhook", h.Webhook)
	r.Get("/ws", h.hub.ServeWS)
	r.Post("/api/login", h.Login)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(h.jwtSvc))

		r.Get("/account", h.GetAccount)
		r.Get("/accounts", h.ListAccounts)
		r.Get("/positions", h.GetPositions)
		r.Get("/orders", h.GetOrders)
		r.Get("/trades", h.GetTrades)
		r.Get("/equity", h.GetEquityHistory)
		r.Get("/quote/{symbol}", h.GetQuote)
		r.Get("/quotes", h.GetQuotes)
		r.Get("/watchlist", h.GetWatchlist)
		r.Get("/export/trades", h.ExportTrades)
		r.Get("/export/equity", h.ExportEquity)

		r.Get("/analytics", h.GetAnalytics)
		r.Get("/analytics/sharpe", h.GetSharpe)
		r.Get("/analytics/drawdown", h.GetDrawdown)
		r.Get("/analytics/trades", h.GetTradeStats)
		r.Get("/analytics/positions", h.GetPositionAnalysis)
		r.Get("/simulation", h.GetSimulationStatus)

		// Mutations require the admin role.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Post("/accounts", h.CreateAccount)
			r.Post("/accounts/switch", h.SwitchAccount)
			r.Delete("/accounts/{name}", h.DeleteAccount)
			r.Post("/account/reset", h.ResetAccount)

			r.Post("/orders", h.PlaceOrder)
			r.Post("/equity/update", h.UpdateEquity)

			r.Post("/watchlist", h.AddToWatchlist)
			r.Delete("/watchlist/{symbol}", h.RemoveFromWatchlist)
			r.Post("/watchlist/refresh", h.RefreshWatchlist)
			r.Post("/watchlist/clear", h.ClearWatchlist)
			r.Post("/watchlist/init", h.InitWatchlist)

			r.Post("/simulation/reload", h.ReloadSimulation)
		})
	})

	return r
}
