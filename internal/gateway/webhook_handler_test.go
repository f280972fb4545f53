package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/paper-trade/internal/execution"
	sqliteRepo "github.com/yourorg/paper-trade/internal/repository/sqlite"
	"github.com/yourorg/paper-trade/internal/simulation"
)

func newWebhookHandlers(t *testing.T, webhookToken string) (*Handlers, *sqliteRepo.PositionRepo) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, sqliteRepo.RunMigrations(path))
	db, err := sqliteRepo.Connect(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	accounts := sqliteRepo.NewAccountRepo(db)
	positions := sqliteRepo.NewPositionRepo(db)
	orders := sqliteRepo.NewOrderRepo(db)
	trades := sqliteRepo.NewTradeRepo(db)
	equity := sqliteRepo.NewEquityRepo(db)
	settings := sqliteRepo.NewSettingsRepo(db)

	ctx := context.Background()
	_, err = accounts.Create(ctx, "default", sqliteRepo.DefaultCapital)
	require.NoError(t, err)
	require.NoError(t, settings.SetCurrentAccount(ctx, "default"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orderSvc := execution.NewOrderService(db, accounts, positions, orders, trades,
		equity, settings, simulation.New(simulation.Config{Enabled: false}), logger)

	h := NewHandlers(Config{
		Accounts:     accounts,
		Positions:    positions,
		Orders:       orders,
		Trades:       trades,
		Equity:       equity,
		Settings:     settings,
		OrderSvc:     orderSvc,
		Hub:          NewHub(logger),
		WebhookToken: webhookToken,
		Logger:       logger,
	})
	return h, positions
}

func postWebhook(h *Handlers, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	return rec
}

func TestWebhookNoTokenConfigured(t *testing.T) {
	h, positions := newWebhookHandlers(t, "")

	// With no token configured, unauthenticated requests execute.
	rec := postWebhook(h, `{"symbol":"AAPL","side":"buy","qty":10,"price":185}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	pos, err := positions.Get(context.Background(), "default", "AAPL")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, int64(10), pos.Qty)
}

func TestWebhookTokenEnforcedWhenConfigured(t *testing.T) {
	h, positions := newWebhookHandlers(t, "s3cret")

	// Missing token.
	rec := postWebhook(h, `{"symbol":"AAPL","side":"buy","qty":10,"price":185}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong token.
	rec = postWebhook(h, `{"symbol":"AAPL","side":"buy","qty":10,"price":185}`,
		map[string]string{"X-Webhook-Token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Nothing executed so far.
	pos, err := positions.Get(context.Background(), "default", "AAPL")
	require.NoError(t, err)
	assert.Nil(t, pos)

	// Correct token in the header.
	rec = postWebhook(h, `{"symbol":"AAPL","side":"buy","qty":10,"price":185}`,
		map[string]string{"X-Webhook-Token": "s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Correct token in the body.
	rec = postWebhook(h, `{"token":"s3cret","symbol":"AAPL","side":"buy","qty":10,"price":185}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	pos, err = positions.Get(context.Background(), "default", "AAPL")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, int64(20), pos.Qty)
}

func TestWebhookClampsOversell(t *testing.T) {
	h, positions := newWebhookHandlers(t, "")

	rec := postWebhook(h, `{"symbol":"AAPL","side":"buy","qty":50,"price":100}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postWebhook(h, `{"symbol":"AAPL","side":"sell","qty":100,"price":100}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"partial"`)

	pos, err := positions.Get(context.Background(), "default", "AAPL")
	require.NoError(t, err)
	assert.Nil(t, pos)
}
