package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/paper-trade/internal/analytics"
	"github.com/yourorg/paper-trade/internal/auth"
	"github.com/yourorg/paper-trade/internal/domain"
	"github.com/yourorg/paper-trade/internal/execution"
	"github.com/yourorg/paper-trade/internal/quote"
	sqliteRepo "github.com/yourorg/paper-trade/internal/repository/sqlite"
	"github.com/yourorg/paper-trade/internal/simulation"
	"github.com/yourorg/paper-trade/internal/valuation"
)

type Handlers struct {
	accounts  *sqliteRepo.AccountRepo
	positions *sqliteRepo.PositionRepo
	orders    *sqliteRepo.OrderRepo
	trades    *sqliteRepo.TradeRepo
	equity    *sqliteRepo.EquityRepo
	settings  *sqliteRepo.SettingsRepo
	watchlist *sqliteRepo.WatchlistRepo

	orderSvc  *execution.OrderService
	cache     *quote.Cache
	valuer    *valuation.Valuer
	analytics *analytics.Engine
	simWatch  *simulation.Watcher
	sim       *simulation.Simulator

	jwtSvc       *auth.JWTService
	users        *auth.UserStore
	hub          *Hub
	webhookToken string
	logger       *slog.Logger
}

type Config struct {
	Accounts  *sqliteRepo.AccountRepo
	Positions *sqliteRepo.PositionRepo
	Orders    *sqliteRepo.OrderRepo
	Trades    *sqliteRepo.TradeRepo
	Equity    *sqliteRepo.EquityRepo
	Settings  *sqliteRepo.SettingsRepo
	Watchlist *sqliteRepo.WatchlistRepo

	OrderSvc  *execution.OrderService
	Cache     *quote.Cache
	Valuer    *valuation.Valuer
	Analytics *analytics.Engine
	SimWatch  *simulation.Watcher
	Sim       *simulation.Simulator

	JWTSvc       *auth.JWTService
	Users        *auth.UserStore
	Hub          *Hub
	WebhookToken string
	Logger       *slog.Logger
}

func NewHandlers(cfg Config) *Handlers {
	return &Handlers{
		accounts:     cfg.Accounts,
		positions:    cfg.Positions,
		orders:       cfg.Orders,
		trades:       cfg.Trades,
		equity:       cfg.Equity,
		settings:     cfg.Settings,
		watchlist:    cfg.Watchlist,
		orderSvc:     cfg.OrderSvc,
		cache:        cfg.Cache,
		valuer:       cfg.Valuer,
		analytics:    cfg.Analytics,
		simWatch:     cfg.SimWatch,
		sim:          cfg.Sim,
		jwtSvc:       cfg.JWTSvc,
		users:        cfg.Users,
		hub:          cfg.Hub,
		webhookToken: cfg.WebhookToken,
		logger:       cfg.Logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, err := h.users.Authenticate(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.jwtSvc.Sign(req.Username, role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  map[string]any{"username": req.Username, "role": role},
	})
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "paper-trade",
		"version": "2.0.0",
	})
}

// currentAccount resolves the process-wide current account pointer.
func (h *Handlers) currentAccount(r *http.Request) (string, error) {
	return h.settings.CurrentAccount(r.Context())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses; precondition
// failures are caller errors, everything else is a storage fault.
func writeDomainError(w http.ResponseWriter, err error) {
	var insufficientFunds *domain.InsufficientFundsError
	var insufficientPos *domain.InsufficientPositionError
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrAccountExists),
		errors.Is(err, domain.ErrNoPosition),
		errors.Is(err, domain.ErrLastAccount),
		errors.As(err, &insufficientFunds),
		errors.As(err, &insufficientPos):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
