package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/paper-trade/internal/domain"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, RunMigrations(path))
	db, err := Connect(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAccountCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	acct, err := repo.Create(ctx, "alice", 500_000)
	require.NoError(t, err)
	assert.Equal(t, "alice", acct.Name)
	assert.Equal(t, 500_000.0, acct.Cash)
	assert.Equal(t, 500_000.0, acct.InitialCapital)

	got, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, acct.Name, got.Name)
	assert.Equal(t, acct.Cash, got.Cash)

	// Creation seeds a zero-baseline equity snapshot.
	history, err := NewEquityRepo(db).GetByAccount(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 500_000.0, history[0].Equity)
	assert.Equal(t, 0.0, history[0].PnL)
}

func TestAccountCreateDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", DefaultCapital)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "alice", DefaultCapital)
	assert.ErrorIs(t, err, domain.ErrAccountExists)
}

func TestAccountGetNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := NewAccountRepo(db).Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountReset(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountRepo(db)
	positions := NewPositionRepo(db)
	equity := NewEquityRepo(db)
	ctx := context.Background()

	_, err := accounts.Create(ctx, "alice", DefaultCapital)
	require.NoError(t, err)

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, positions.SetTx(ctx, tx, "alice", "AAPL", 100, 185))
	require.NoError(t, accounts.UpdateCashTx(ctx, tx, "alice", 981_500))
	require.NoError(t, tx.Commit())

	require.NoError(t, accounts.Reset(ctx, "alice", 200_000))

	acct, err := accounts.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 200_000.0, acct.Cash)
	assert.Equal(t, 200_000.0, acct.InitialCapital)

	pos, err := positions.GetByAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, pos)

	history, err := equity.GetByAccount(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 200_000.0, history[0].Equity)
}

func TestAccountResetNotFound(t *testing.T) {
	db := newTestDB(t)
	err := NewAccountRepo(db).Reset(context.Background(), "ghost", 100)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountRepo(db)
	positions := NewPositionRepo(db)
	ctx := context.Background()

	_, err := accounts.Create(ctx, "alice", DefaultCapital)
	require.NoError(t, err)

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, positions.SetTx(ctx, tx, "alice", "AAPL", 100, 185))
	require.NoError(t, tx.Commit())

	require.NoError(t, accounts.Delete(ctx, "alice"))

	_, err = accounts.Get(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM positions WHERE account_name = 'alice'`))
	assert.Zero(t, n)
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM equity_history WHERE account_name = 'alice'`))
	assert.Zero(t, n)

	assert.ErrorIs(t, accounts.Delete(ctx, "alice"), domain.ErrAccountNotFound)
}

func TestPositionSetAndDelete(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountRepo(db)
	positions := NewPositionRepo(db)
	ctx := context.Background()

	_, err := accounts.Create(ctx, "alice", DefaultCapital)
	require.NoError(t, err)

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, positions.SetTx(ctx, tx, "alice", "AAPL", 100, 185))
	require.NoError(t, tx.Commit())

	pos, err := positions.Get(ctx, "alice", "AAPL")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, int64(100), pos.Qty)
	assert.Equal(t, 185.0, pos.AvgPrice)

	// Upsert replaces in place.
	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, positions.SetTx(ctx, tx, "alice", "AAPL", 150, 190))
	require.NoError(t, tx.Commit())

	pos, err = positions.Get(ctx, "alice", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(150), pos.Qty)

	// Zero quantity removes the row.
	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, positions.SetTx(ctx, tx, "alice", "AAPL", 0, 190))
	require.NoError(t, tx.Commit())

	pos, err = positions.Get(ctx, "alice", "AAPL")
	require.NoError(t, err)
	assert.Nil(t, pos)
}

func TestEquityUpsertIdempotent(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountRepo(db)
	equity := NewEquityRepo(db)
	ctx := context.Background()

	_, err := accounts.Create(ctx, "alice", DefaultCapital)
	require.NoError(t, err)

	snap := domain.EquitySnapshot{
		AccountName: "alice",
		Date:        "2026-08-28",
		Equity:      1_005_000,
		PnL:         5_000,
		PnLPct:      0.5,
	}
	require.NoError(t, equity.Upsert(ctx, &snap))

	snap.Equity = 1_010_000
	snap.PnL = 10_000
	snap.PnLPct = 1.0
	require.NoError(t, equity.Upsert(ctx, &snap))

	history, err := equity.GetByAccount(ctx, "alice")
	require.NoError(t, err)

	var sameDay []domain.EquitySnapshot
	for _, s := range history {
		if s.Date == "2026-08-28" {
			sameDay = append(sameDay, s)
		}
	}
	require.Len(t, sameDay, 1)
	assert.Equal(t, 1_010_000.0, sameDay[0].Equity)
}

func TestSettingsCurrentAccount(t *testing.T) {
	db := newTestDB(t)
	settings := NewSettingsRepo(db)
	ctx := context.Background()

	// Unset pointer falls back to the default account name.
	current, err := settings.CurrentAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default", current)

	require.NoError(t, settings.SetCurrentAccount(ctx, "alice"))
	current, err = settings.CurrentAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", current)

	require.NoError(t, settings.SetCurrentAccount(ctx, "bob"))
	current, err = settings.CurrentAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", current)
}
