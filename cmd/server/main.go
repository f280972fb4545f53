package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/paper-trade/internal/analytics"
	"github.com/yourorg/paper-trade/internal/auth"
	"github.com/yourorg/paper-trade/internal/execution"
	"github.com/yourorg/paper-trade/internal/gateway"
	"github.com/yourorg/paper-trade/internal/quote"
	sqliteRepo "github.com/yourorg/paper-trade/internal/repository/sqlite"
	"github.com/yourorg/paper-trade/internal/scheduler"
	"github.com/yourorg/paper-trade/internal/simulation"
	"github.com/yourorg/paper-trade/internal/valuation"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPath := env("DB_PATH", "paper_trade.db")
	if err := sqliteRepo.RunMigrations(dbPath); err != nil {
		return err
	}
	db, err := sqliteRepo.Connect(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	accounts := sqliteRepo.NewAccountRepo(db)
	positions := sqliteRepo.NewPositionRepo(db)
	orders := sqliteRepo.NewOrderRepo(db)
	trades := sqliteRepo.NewTradeRepo(db)
	equity := sqliteRepo.NewEquityRepo(db)
	settings := sqliteRepo.NewSettingsRepo(db)
	watchlist := sqliteRepo.NewWatchlistRepo(db)

	if err := sqliteRepo.Bootstrap(ctx, accounts, settings, watchlist); err != nil {
		return err
	}

	// Quote cache: redis when configured, in-process otherwise.
	var store quote.Store = quote.NewMemoryStore()
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		rs, err := quote.ConnectRedis(redisURL)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory quote cache", "err", err)
		} else {
			store = rs
			logger.Info("quote cache backed by redis")
		}
	}
	cache := quote.NewCache(quote.NewYahooProvider(), store, quote.DefaultTTL)

	simCfgPath := env("SIM_CONFIG", "simulation.yaml")
	simCfg, err := simulation.LoadConfig(simCfgPath)
	if err != nil {
		logger.Warn("simulation config invalid, using defaults", "path", simCfgPath, "err", err)
		simCfg = simulation.DefaultConfig()
	}
	sim := simulation.New(simCfg)
	simWatch := simulation.NewWatcher(simCfgPath, sim, logger)
	go simWatch.Run(ctx)

	orderSvc := execution.NewOrderService(db, accounts, positions, orders, trades, equity, settings, sim, logger)
	valuer := valuation.New(accounts, positions, equity)
	engine := analytics.NewEngine(equity, trades, positions)

	schedTimes, err := scheduler.ParseSchedule(env("EQUITY_UPDATE_SCHEDULE", "off"))
	if err != nil {
		return err
	}
	sched := scheduler.New(schedTimes, valuer, cache, logger)
	go sched.Run(ctx)

	users, err := auth.NewUserStore(env("ADMIN_PASSWORD", "admin123"), env("VIEWER_PASSWORD", "viewer123"))
	if err != nil {
		return err
	}
	jwtSvc := auth.NewJWTService(env("JWT_SECRET", "change-me-in-production"))

	hub := gateway.NewHub(logger)
	go hub.Run(ctx)

	handlers := gateway.NewHandlers(gateway.Config{
		Accounts:  accounts,
		Positions: positions,
		Orders:    orders,
		Trades:    trades,
		Equity:    equity,
		Settings:  settings,
		Watchlist: watchlist,

		OrderSvc:  orderSvc,
		Cache:     cache,
		Valuer:    valuer,
		Analytics: engine,
		SimWatch:  simWatch,
		Sim:       sim,

		JWTSvc:       jwtSvc,
		Users:        users,
		Hub:          hub,
		WebhookToken: os.Getenv("WEBHOOK_TOKEN"),
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:         ":" + env("PORT", "8080"),
		Handler:      gateway.NewRouter(handlers),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
