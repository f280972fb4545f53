package simulation

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/yourorg/paper-trade/internal/domain"
)

// Simulator maps a requested order to a realized fill: adverse slippage,
// commission on filled value, and probabilistic partial fills. It performs no
// I/O; the only state is the policy config and the random source.
type Simulator struct {
	mu  sync.Mutex
	cfg Config
	rng *rand.Rand
}

func New(cfg Config) *Simulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// SetConfig swaps the policy in place; in-flight simulations finish under the
// old one. A changed seed resets the random source.
func (s *Simulator) SetConfig(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.Seed != 0 && cfg.Seed != s.cfg.Seed {
		s.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	s.cfg = cfg
}

func (s *Simulator) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Simulate produces the fill for a requested order. filledQty is always in
// (0, qty], exec price is never better than requested, and totalCost is the
// cash delta the ledger will apply.
func (s *Simulator) Simulate(symbol string, side domain.OrderSide, qty int64, price float64) (domain.Fill, error) {
	if side != domain.SideBuy && side != domain.SideSell {
		return domain.Fill{}, fmt.Errorf("%w: side must be buy or sell", domain.ErrInvalidOrder)
	}
	if qty <= 0 {
		return domain.Fill{}, fmt.Errorf("%w: qty must be positive", domain.ErrInvalidOrder)
	}
	if price <= 0 {
		return domain.Fill{}, fmt.Errorf("%w: price must be positive", domain.ErrInvalidOrder)
	}

	s.mu.Lock()
	cfg := s.cfg
	var u1, u2, u3 float64
	if cfg.Enabled {
		u1, u2, u3 = s.rng.Float64(), s.rng.Float64(), s.rng.Float64()
	}
	s.mu.Unlock()

	execPrice := price
	if cfg.Enabled && cfg.SlippagePct > 0 {
		slip := price * cfg.SlippagePct * u1
		if side == domain.SideBuy {
			execPrice = price + slip
		} else {
			execPrice = price - slip
		}
	}

	filledQty := qty
	if cfg.Enabled && cfg.PartialFillProb > 0 && u2 < cfg.PartialFillProb {
		ratio := cfg.MinFillRatio + u3*(1-cfg.MinFillRatio)
		filledQty = int64(math.Round(float64(qty) * ratio))
		if filledQty < 1 {
			filledQty = 1
		}
		if filledQty > qty {
			filledQty = qty
		}
	}

	filledValue := float64(filledQty) * execPrice

	var commission float64
	if cfg.Enabled && cfg.CommissionRate > 0 {
		commission = filledValue * cfg.CommissionRate
		if commission < cfg.MinCommission {
			commission = cfg.MinCommission
		}
	}

	totalCost := filledValue + commission
	if side == domain.SideSell {
		totalCost = filledValue - commission
	}

	return domain.Fill{
		FilledQty:   filledQty,
		ExecPrice:   execPrice,
		Commission:  commission,
		FilledValue: filledValue,
		TotalCost:   totalCost,
		Slippage:    execPrice - price,
		FillRate:    float64(filledQty) / float64(qty),
		PartialFill: filledQty < qty,
	}, nil
}

// Status reports the active policy for the config API.
func (s *Simulator) Status() map[string]any {
	cfg := s.Config()
	return map[string]any{
		"enabled":           cfg.Enabled,
		"slippage_pct":      cfg.SlippagePct,
		"commission_rate":   cfg.CommissionRate,
		"min_commission":    cfg.MinCommission,
		"partial_fill_prob": cfg.PartialFillProb,
		"min_fill_ratio":    cfg.MinFillRatio,
		"seeded":            cfg.Seed != 0,
	}
}
