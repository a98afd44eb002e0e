package swap

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/AceKusamaDev/solbotrader2/internal/models"
	"go.uber.org/zap"
)

// Simulator is the test-mode executor. No remote calls are made; trades
// complete instantly with synthetic signatures and prices.
type Simulator struct {
	logger *zap.Logger
	// FailureRate is the probability in [0,1] that a simulated trade fails.
	FailureRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

var _ TradeExecutor = (*Simulator)(nil)

// NewSimulator creates a simulated executor seeded with seed.
func NewSimulator(logger *zap.Logger, seed int64) *Simulator {
	return &Simulator{logger: logger, rng: rand.New(rand.NewSource(seed))}
}

// Execute fabricates a trade outcome. Prices wander in the 50-150 range.
func (s *Simulator) Execute(ctx context.Context, p Params) Result {
	s.mu.Lock()
	failed := s.rng.Float64() < s.FailureRate
	price := s.rng.Float64()*100 + 50
	suffix := s.rng.Int63()
	s.mu.Unlock()

	if failed {
		err := fmt.Errorf("simulated trade failure for %s", p.Pair.Symbol)
		s.logger.Warn("Simulated trade failed", zap.String("pair", p.Pair.Symbol))
		return Result{Fault: FaultSubmitFailed, Err: err}
	}

	outAmount := p.Amount * price // sell: base in, quote out
	if p.Action == models.ActionBuy {
		outAmount = p.Amount / price
	}

	s.logger.Info("Simulated trade executed",
		zap.String("pair", p.Pair.Symbol),
		zap.String("action", string(p.Action)),
		zap.Float64("amount", p.Amount),
		zap.Float64("price", price),
	)
	return Result{
		Success:   true,
		Signature: fmt.Sprintf("simulated_tx_%x", suffix),
		OutAmount: outAmount,
		Price:     price,
	}
}
