// Package bot contains the trading controller: the state machine and
// scheduler that drives trade cycles, evaluates risk exits, and owns the
// position ledger.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AceKusamaDev/solbotrader2/internal/journal"
	"github.com/AceKusamaDev/solbotrader2/internal/ledger"
	"github.com/AceKusamaDev/solbotrader2/internal/models"
	"github.com/AceKusamaDev/solbotrader2/internal/oracle"
	"github.com/AceKusamaDev/solbotrader2/internal/risk"
	"github.com/AceKusamaDev/solbotrader2/internal/swap"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotStopped is returned by commands that are only valid while the
	// bot is stopped.
	ErrNotStopped = errors.New("bot is not stopped")
	// ErrNoSigner is returned by Start when live trading is requested
	// without a usable signer identity.
	ErrNoSigner = errors.New("no signer available for live trading")
)

// PnLFunc computes the realized profit of a closed position, denominated in
// the pair's quote asset. It is pluggable because amount semantics differ
// between long and short exposures.
type PnLFunc func(entryPrice, exitPrice, amount float64, action models.Action) float64

// DefaultPnL treats a buy position's amount as base units acquired and a
// sell position's amount as quote units acquired.
func DefaultPnL(entryPrice, exitPrice, amount float64, action models.Action) float64 {
	if action == models.ActionBuy {
		return (exitPrice - entryPrice) * amount
	}
	if entryPrice == 0 {
		return 0
	}
	return amount * (entryPrice - exitPrice) / entryPrice
}

// uptrendThreshold is the 24h change (percent) beyond which the market is
// classified as trending.
const uptrendThreshold = 1.5

// Option configures a Controller.
type Option func(*Controller)

// WithJournal archives every trade record to j in addition to the in-memory
// history.
func WithJournal(j *journal.Journal) Option {
	return func(c *Controller) { c.journal = j }
}

// WithPnLFunc overrides the realized-PnL computation.
func WithPnLFunc(fn PnLFunc) Option {
	return func(c *Controller) { c.pnl = fn }
}

// WithSlippageBps sets the fixed slippage tolerance in basis points.
func WithSlippageBps(bps int) Option {
	return func(c *Controller) { c.slippageBps = bps }
}

// WithHistoryLimit caps the in-memory trade history.
func WithHistoryLimit(n int) Option {
	return func(c *Controller) { c.ledger = ledger.New(n) }
}

// WithMaxConsecutiveFailures sets how many entry trades may fail in a row
// before the controller halts with an error.
func WithMaxConsecutiveFailures(n int) Option {
	return func(c *Controller) { c.maxConsecutiveFailures = n }
}

// Controller owns all mutable bot state. External readers only ever see
// snapshots.
type Controller struct {
	logger  *zap.Logger
	live    swap.TradeExecutor // nil when no signer is available
	sim     swap.TradeExecutor
	prices  oracle.PriceSource
	journal *journal.Journal
	pnl     PnLFunc

	slippageBps            int
	maxConsecutiveFailures int

	ledger *ledger.Ledger

	mu          sync.Mutex
	status      models.Status
	settings    models.Settings
	condition   models.MarketCondition
	currentRun  int
	lastErr     string
	capital     float64 // working amount when compounding
	consecutive int     // consecutive failed entry trades

	stopCh   chan struct{}
	done     chan struct{}
	inFlight atomic.Bool
}

// New creates a controller in the stopped state. live may be nil when no
// signer identity exists; starting outside test mode then fails.
func New(logger *zap.Logger, live, sim swap.TradeExecutor, prices oracle.PriceSource, settings models.Settings, opts ...Option) *Controller {
	c := &Controller{
		logger:                 logger,
		live:                   live,
		sim:                    sim,
		prices:                 prices,
		pnl:                    DefaultPnL,
		slippageBps:            50,
		maxConsecutiveFailures: 3,
		ledger:                 ledger.New(ledger.DefaultHistoryLimit),
		status:                 models.StatusStopped,
		settings:               settings,
		condition:              models.MarketUnclear,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot is a read-only view of the controller state handed to observers.
type Snapshot struct {
	Status          models.Status          `json:"status"`
	Settings        models.Settings        `json:"settings"`
	MarketCondition models.MarketCondition `json:"market_condition"`
	CurrentRun      int                    `json:"current_run"`
	LastError       string                 `json:"last_error,omitempty"`
	Positions       []models.Position      `json:"positions"`
	TradeHistory    []models.Trade         `json:"trade_history"`
}

// Snapshot returns a copy of the current state. It never blocks on an
// in-flight cycle.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		Status:          c.status,
		Settings:        c.settings,
		MarketCondition: c.condition,
		CurrentRun:      c.currentRun,
		LastError:       c.lastErr,
	}
	c.mu.Unlock()
	snap.Positions = c.ledger.Positions()
	snap.TradeHistory = c.ledger.Trades()
	return snap
}

// UpdateSettings applies a partial settings change. It is rejected unless
// the bot is stopped.
func (c *Controller) UpdateSettings(u models.SettingsUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != models.StatusStopped {
		return fmt.Errorf("%w: settings are only mutable while stopped", ErrNotStopped)
	}
	next := u.ApplyTo(c.settings)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	c.settings = next
	return nil
}

// ClearError discards the retained error message without changing status.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()
}

// Start moves the bot from stopped to analyzing and launches the scheduler.
// ctx bounds the whole trading session (process lifetime, not a single
// request); a stop request never cancels an in-flight cycle.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.status != models.StatusStopped {
		c.mu.Unlock()
		return fmt.Errorf("cannot start from status %q: %w", c.status, ErrNotStopped)
	}
	s := c.settings
	if err := s.Validate(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("invalid settings: %w", err)
	}
	if !s.TestMode && c.live == nil {
		c.mu.Unlock()
		return ErrNoSigner
	}
	c.status = models.StatusAnalyzing
	c.currentRun = 0
	c.lastErr = ""
	c.capital = s.Amount
	c.consecutive = 0
	c.stopCh = make(chan struct{})
	c.done = make(chan struct{})
	c.mu.Unlock()

	c.logger.Info("Starting trading bot",
		zap.String("strategy", s.Strategy),
		zap.String("pair", s.Pair),
		zap.Bool("test_mode", s.TestMode),
	)
	go c.run(ctx)
	return nil
}

// Stop requests that no further cycles run and waits for the scheduler to
// wind down. An in-flight cycle completes and records its outcome; a
// submitted transaction cannot be un-sent. Stopping an already stopped bot
// is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.status == models.StatusStopped {
		c.mu.Unlock()
		return
	}
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
	done := c.done
	c.mu.Unlock()

	<-done

	// The last error message survives the stop; it is discarded on the next
	// start or via ClearError.
	c.mu.Lock()
	c.status = models.StatusStopped
	c.mu.Unlock()
	c.logger.Info("Trading bot stopped")
}

// stopRequested reports whether a stop has been asked for.
func (c *Controller) stopRequested() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

// run is the scheduler loop. The next timer is armed only after the current
// cycle has fully completed, so cycles can never overlap.
func (c *Controller) run(ctx context.Context) {
	defer close(c.done)

	cond, err := c.analyzeMarket(ctx)
	if err != nil {
		c.fail(fmt.Sprintf("market analysis failed: %v", err))
		return
	}
	if c.stopRequested() || ctx.Err() != nil {
		c.enterStopped()
		return
	}

	c.mu.Lock()
	c.status = models.StatusRunning
	c.condition = cond
	c.mu.Unlock()
	c.logger.Info("Market analysis complete, bot running", zap.String("condition", string(cond)))

	// First cycle fires immediately; subsequent ones follow the interval.
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-c.stopCh:
			c.enterStopped()
			return
		case <-ctx.Done():
			c.enterStopped()
			return
		case <-timer.C:
			if c.stopRequested() {
				c.enterStopped()
				return
			}
			c.runCycle(ctx)

			c.mu.Lock()
			fatal := c.status == models.StatusError
			s := c.settings
			finished := c.currentRun >= s.MaxRuns
			c.mu.Unlock()

			if fatal {
				return
			}
			if finished {
				c.logger.Info("Max runs reached, stopping", zap.Int("runs", s.MaxRuns))
				c.enterStopped()
				return
			}
			timer.Reset(s.RunInterval())
		}
	}
}

// analyzeMarket performs the pre-flight market-condition read.
func (c *Controller) analyzeMarket(ctx context.Context) (models.MarketCondition, error) {
	c.mu.Lock()
	pairSymbol := c.settings.Pair
	c.mu.Unlock()

	p, err := c.prices.GetPrice(ctx, pairSymbol)
	if err != nil {
		return models.MarketUnclear, err
	}
	switch {
	case p.Change24h >= uptrendThreshold:
		return models.MarketUptrend, nil
	case p.Change24h <= -uptrendThreshold:
		return models.MarketDowntrend, nil
	default:
		return models.MarketRanging, nil
	}
}

// enterStopped moves to stopped unless the controller already failed.
func (c *Controller) enterStopped() {
	c.mu.Lock()
	if c.status != models.StatusError {
		c.status = models.StatusStopped
	}
	c.mu.Unlock()
}

// fail transitions to the error state. Leaving it requires an explicit stop.
func (c *Controller) fail(msg string) {
	c.mu.Lock()
	c.status = models.StatusError
	c.lastErr = msg
	c.mu.Unlock()
	c.logger.Error("Trading halted", zap.String("reason", msg))
}

// executorFor picks the live or simulated pipeline for this cycle's
// settings snapshot.
func (c *Controller) executorFor(s models.Settings) swap.TradeExecutor {
	if s.TestMode {
		return c.sim
	}
	return c.live
}

// runCycle executes one full pass of the trading loop: entry attempt, price
// read, risk exits, run accounting. The in-flight guard makes a concurrent
// trigger a no-op rather than a second pipeline.
func (c *Controller) runCycle(ctx context.Context) {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.logger.Warn("Cycle already in flight, skipping tick")
		return
	}
	defer c.inFlight.Store(false)

	// Settings are a snapshot for the whole cycle.
	c.mu.Lock()
	s := c.settings
	amount := s.Amount
	if s.CompoundCapital {
		amount = c.capital
	}
	run := c.currentRun + 1
	c.mu.Unlock()

	l := c.logger.With(zap.Int("run", run), zap.String("pair", s.Pair))
	l.Info("Starting trade cycle")

	pair, err := models.ParsePair(s.Pair)
	if err != nil {
		c.fail(fmt.Sprintf("settings became invalid: %v", err))
		return
	}
	exec := c.executorFor(s)
	if exec == nil {
		c.fail("signer capability unavailable")
		return
	}

	// Entry trade.
	res := exec.Execute(ctx, swap.Params{
		Pair:        pair,
		Action:      s.Action,
		Amount:      amount,
		SlippageBps: c.slippageBps,
		Strategy:    s.Strategy,
	})

	// One price read serves both the entry record and the risk pass. The
	// quote-implied price is the fallback when the oracle is unavailable.
	price, priceKnown := c.cyclePrice(ctx, s.Pair, res)

	trade := models.Trade{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Pair:      s.Pair,
		Action:    s.Action,
		Amount:    amount,
		Strategy:  s.Strategy,
		Success:   res.Success,
		Signature: res.Signature,
	}
	if res.Success {
		trade.Price = price
		c.record(trade)
		pos := models.Position{
			ID:         uuid.NewString(),
			Pair:       s.Pair,
			EntryPrice: price,
			Amount:     res.OutAmount,
			OpenedAt:   trade.Timestamp,
			Action:     s.Action,
		}
		c.ledger.AddPosition(pos)
		c.mu.Lock()
		c.consecutive = 0
		c.mu.Unlock()
		l.Info("Entry trade succeeded",
			zap.String("signature", res.Signature),
			zap.Float64("entry_price", price),
		)
	} else {
		if res.Err != nil {
			trade.Error = res.Err.Error()
		}
		c.record(trade)
		c.mu.Lock()
		c.consecutive++
		failures := c.consecutive
		c.mu.Unlock()
		l.Warn("Entry trade failed",
			zap.String("fault", string(res.Fault)),
			zap.Error(res.Err),
		)
		if failures >= c.maxConsecutiveFailures {
			c.fail(fmt.Sprintf("aborting after %d consecutive failed trades: %v", failures, res.Err))
			return
		}
	}

	// Risk pass over every open position.
	if priceKnown {
		c.checkExits(ctx, s, pair, exec, price)
	} else {
		l.Warn("Price unavailable, skipping risk evaluation this cycle")
	}

	c.mu.Lock()
	c.currentRun++
	c.mu.Unlock()
	l.Info("Trade cycle complete")
}

// cyclePrice fetches the oracle price, falling back to the executor's
// quote-implied price. The second return value is false when no usable
// price exists.
func (c *Controller) cyclePrice(ctx context.Context, pairSymbol string, res swap.Result) (float64, bool) {
	p, err := c.prices.GetPrice(ctx, pairSymbol)
	if err == nil && p.Value > 0 {
		return p.Value, true
	}
	if err != nil {
		c.logger.Warn("Price oracle unavailable", zap.Error(err))
	}
	if res.Price > 0 {
		return res.Price, true
	}
	return 0, false
}

// checkExits evaluates every open position and executes exit trades for the
// triggered ones. An exit failure leaves the position open; it will be
// evaluated again next tick.
func (c *Controller) checkExits(ctx context.Context, s models.Settings, pair models.Pair, exec swap.TradeExecutor, price float64) {
	for _, pos := range c.ledger.Positions() {
		v := risk.Evaluate(pos, price, s.StopLossPercent, s.TakeProfitPercent)
		if !v.Triggered {
			continue
		}
		c.logger.Info("Risk exit triggered", zap.String("position", pos.ID), zap.String("reason", v.Message))

		exitAction := pos.Action.Opposite()
		res := exec.Execute(ctx, swap.Params{
			Pair:        pair,
			Action:      exitAction,
			Amount:      pos.Amount,
			SlippageBps: c.slippageBps,
			Strategy:    v.Trigger.Label(),
		})

		trade := models.Trade{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Pair:      pos.Pair,
			Action:    exitAction,
			Amount:    pos.Amount,
			Price:     price,
			Strategy:  v.Trigger.Label(),
			Success:   res.Success,
			Signature: res.Signature,
		}
		if !res.Success {
			if res.Err != nil {
				trade.Error = res.Err.Error()
			}
			c.record(trade)
			c.logger.Warn("Exit trade failed, position stays open",
				zap.String("position", pos.ID),
				zap.String("fault", string(res.Fault)),
				zap.Error(res.Err),
			)
			continue
		}

		pnl := c.pnl(pos.EntryPrice, price, pos.Amount, pos.Action)
		trade.PnL = pnl
		c.record(trade)
		c.ledger.RemovePosition(pos.ID)
		c.logger.Info("Position closed",
			zap.String("position", pos.ID),
			zap.Float64("pnl", pnl),
		)

		if s.CompoundCapital && pnl > 0 {
			add := pnl
			if s.Action == models.ActionSell && price > 0 {
				add = pnl / price
			}
			c.mu.Lock()
			c.capital += add
			c.mu.Unlock()
		}
	}
}

// record appends a trade to the bounded history and archives it.
func (c *Controller) record(t models.Trade) {
	c.ledger.AddTrade(t)
	if c.journal != nil {
		c.journal.Record(t)
	}
}
