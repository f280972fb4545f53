package execution

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yourorg/paper-trade/internal/domain"
	sqliteRepo "github.com/yourorg/paper-trade/internal/repository/sqlite"
	"github.com/yourorg/paper-trade/internal/simulation"
	"github.com/yourorg/paper-trade/internal/valuation"
)

// OrderRequest is a validated-enough order intent. AccountName empty means
// the process's current account. ClampSell is set on the signal path: a sell
// exceeding the held quantity is trimmed to it instead of rejected.
type OrderRequest struct {
	AccountName string
	Symbol      string
	Side        domain.OrderSide
	Qty         int64
	Price       float64
	Source      domain.OrderSource
	ClampSell   bool
}

// OrderResult carries the persisted order plus the simulation metadata and
// the post-fill cash balance.
type OrderResult struct {
	ExecutionID    string         `json:"execution_id"`
	AccountName    string         `json:"account"`
	Order          domain.Order   `json:"order"`
	RequestedQty   int64          `json:"requested_qty"`
	RequestedPrice float64        `json:"requested_price"`
	Fill           domain.Fill    `json:"simulation"`
	Cash           float64        `json:"cash"`
	Snapshot       domain.EquitySnapshot `json:"-"`
}

// OrderService is the single path turning an order intent into ledger
// mutations, shared by the interactive and webhook entry points. Per-account
// ordering is enforced with a named mutex: two orders against the same
// account never interleave their read-modify-write of cash and positions.
type OrderService struct {
	db        *sqlx.DB
	accounts  *sqliteRepo.AccountRepo
	positions *sqliteRepo.PositionRepo
	orders    *sqliteRepo.OrderRepo
	trades    *sqliteRepo.TradeRepo
	equity    *sqliteRepo.EquityRepo
	settings  *sqliteRepo.SettingsRepo
	sim       *simulation.Simulator
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewOrderService(
	db *sqlx.DB,
	accounts *sqliteRepo.AccountRepo,
	positions *sqliteRepo.PositionRepo,
	orders *sqliteRepo.OrderRepo,
	trades *sqliteRepo.TradeRepo,
	equity *sqliteRepo.EquityRepo,
	settings *sqliteRepo.SettingsRepo,
	sim *simulation.Simulator,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		db:        db,
		accounts:  accounts,
		positions: positions,
		orders:    orders,
		trades:    trades,
		equity:    equity,
		settings:  settings,
		sim:       sim,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *OrderService) lockFor(account string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[account]
	if !ok {
		l = &sync.Mutex{}
		s.locks[account] = l
	}
	return l
}

func validateOrder(req *OrderRequest) error {
	if strings.TrimSpace(req.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", domain.ErrInvalidOrder)
	}
	switch req.Side {
	case domain.SideBuy, domain.SideSell:
	default:
		return fmt.Errorf("%w: side must be buy or sell, got %q", domain.ErrInvalidOrder, req.Side)
	}
	if req.Qty <= 0 {
		return fmt.Errorf("%w: qty must be positive", domain.ErrInvalidOrder)
	}
	if req.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", domain.ErrInvalidOrder)
	}
	return nil
}

// Execute runs the full sequence: resolve account, validate, simulate, apply
// the fill to cash and positions, append the order and trade rows, and upsert
// today's equity snapshot. Everything from the first mutation to the snapshot
// commits in one transaction or not at all.
func (s *OrderService) Execute(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	accountName := req.AccountName
	if accountName == "" {
		var err error
		accountName, err = s.settings.CurrentAccount(ctx)
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.accounts.Get(ctx, accountName); err != nil {
		return nil, err
	}
	if err := validateOrder(&req); err != nil {
		return nil, err
	}

	lock := s.lockFor(accountName)
	lock.Lock()
	defer lock.Unlock()

	fill, err := s.sim.Simulate(req.Symbol, req.Side, req.Qty, req.Price)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	acct, err := s.accounts.GetTx(ctx, tx, accountName)
	if err != nil {
		return nil, err
	}

	var newCash float64
	switch req.Side {
	case domain.SideBuy:
		newCash, err = s.applyBuyTx(ctx, tx, acct, req.Symbol, &fill)
	case domain.SideSell:
		newCash, err = s.applySellTx(ctx, tx, acct, req.Symbol, req.Qty, &fill, req.ClampSell)
	}
	if err != nil {
		return nil, err
	}

	if err := s.accounts.UpdateCashTx(ctx, tx, accountName, newCash); err != nil {
		return nil, fmt.Errorf("update cash: %w", err)
	}

	now := time.Now()
	order := domain.Order{
		AccountName: accountName,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Qty:         fill.FilledQty,
		Price:       fill.ExecPrice,
		Value:       fill.FilledValue,
		Time:        now,
		Status:      domain.StatusFilled,
		Source:      req.Source,
	}
	if fill.PartialFill {
		order.Status = domain.StatusPartial
	}
	if err := s.orders.InsertTx(ctx, tx, &order); err != nil {
		return nil, err
	}

	trade := domain.Trade{
		AccountName: accountName,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Qty:         fill.FilledQty,
		Price:       fill.ExecPrice,
		Value:       fill.FilledValue,
		Time:        now,
	}
	if err := s.trades.InsertTx(ctx, tx, &trade); err != nil {
		return nil, err
	}

	// Snapshot today's equity off the post-fill state, cost-basis priced;
	// the scheduler refreshes it with live quotes later.
	acct.Cash = newCash
	positions, err := s.positions.GetByAccountTx(ctx, tx, accountName)
	if err != nil {
		return nil, err
	}
	snap := valuation.Compute(acct, positions, nil, valuation.Today())
	if err := s.equity.UpsertTx(ctx, tx, &snap); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	execID := uuid.NewString()
	s.logger.Info("order executed",
		"execution_id", execID,
		"account", accountName,
		"symbol", req.Symbol,
		"side", req.Side,
		"filled_qty", fill.FilledQty,
		"exec_price", fill.ExecPrice,
		"source", req.Source,
	)

	return &OrderResult{
		ExecutionID:    execID,
		AccountName:    accountName,
		Order:          order,
		RequestedQty:   req.Qty,
		RequestedPrice: req.Price,
		Fill:           fill,
		Cash:           newCash,
		Snapshot:       snap,
	}, nil
}

// applyBuyTx debits cash and folds the fill into the position at a
// volume-weighted average price.
func (s *OrderService) applyBuyTx(ctx context.Context, tx *sqlx.Tx, acct *domain.Account, symbol string, fill *domain.Fill) (float64, error) {
	if fill.TotalCost > acct.Cash {
		return 0, &domain.InsufficientFundsError{
			Required:   fill.TotalCost,
			Commission: fill.Commission,
			Available:  acct.Cash,
		}
	}

	pos, err := s.positions.GetTx(ctx, tx, acct.Name, symbol)
	if err != nil {
		return 0, err
	}

	newQty := fill.FilledQty
	newAvg := fill.ExecPrice
	if pos != nil {
		oldValue := float64(pos.Qty) * pos.AvgPrice
		newQty = pos.Qty + fill.FilledQty
		newAvg = (oldValue + fill.FilledValue) / float64(newQty)
	}
	if err := s.positions.SetTx(ctx, tx, acct.Name, symbol, newQty, newAvg); err != nil {
		return 0, fmt.Errorf("update position: %w", err)
	}

	return acct.Cash - fill.TotalCost, nil
}

// applySellTx credits the net proceeds and decrements the position. The
// average price never changes on a sell; the row disappears at zero. With
// clamp set, an oversized sell is trimmed to the held quantity and the fill
// metadata adjusted to the smaller size.
func (s *OrderService) applySellTx(ctx context.Context, tx *sqlx.Tx, acct *domain.Account, symbol string, requestedQty int64, fill *domain.Fill, clamp bool) (float64, error) {
	pos, err := s.positions.GetTx(ctx, tx, acct.Name, symbol)
	if err != nil {
		return 0, err
	}
	if pos == nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrNoPosition, symbol)
	}

	if pos.Qty < fill.FilledQty {
		if !clamp {
			return 0, &domain.InsufficientPositionError{
				Symbol:    symbol,
				Requested: fill.FilledQty,
				Held:      pos.Qty,
			}
		}
		fill.FilledQty = pos.Qty
		fill.FilledValue = float64(fill.FilledQty) * fill.ExecPrice
		fill.TotalCost = fill.FilledValue - fill.Commission
		fill.FillRate = float64(fill.FilledQty) / float64(requestedQty)
		fill.PartialFill = fill.FilledQty < requestedQty
	}

	if err := s.positions.SetTx(ctx, tx, acct.Name, symbol, pos.Qty-fill.FilledQty, pos.AvgPrice); err != nil {
		return 0, fmt.Errorf("update position: %w", err)
	}

	return acct.Cash + fill.TotalCost, nil
}
