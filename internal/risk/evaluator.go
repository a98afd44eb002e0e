package risk

import (
	"fmt"

	"github.com/AceKusamaDev/solbotrader2/internal/models"
)

// Trigger names the exit condition that fired.
type Trigger string

const (
	TriggerStopLoss   Trigger = "stop_loss"
	TriggerTakeProfit Trigger = "take_profit"
)

// Label returns the human-facing strategy label recorded on exit trades.
func (t Trigger) Label() string {
	switch t {
	case TriggerStopLoss:
		return "Stop Loss"
	case TriggerTakeProfit:
		return "Take Profit"
	}
	return string(t)
}

// Verdict is the outcome of evaluating a position against a current price.
type Verdict struct {
	Triggered bool
	Trigger   Trigger
	Message   string
}

// Evaluate decides whether a stop-loss or take-profit condition is met for
// the position at the current price. It is a pure function: no mutation, and
// identical inputs always yield identical verdicts. A zero percentage
// disables the corresponding trigger.
//
// For a buy position the stop-loss fires when the price has fallen by
// stopLossPercent from entry and the take-profit when it has risen by
// takeProfitPercent; for a sell position the inequalities invert.
func Evaluate(p models.Position, currentPrice, stopLossPercent, takeProfitPercent float64) Verdict {
	if p.Action == models.ActionBuy {
		if stopLossPercent > 0 {
			threshold := p.EntryPrice * (1 - stopLossPercent/100)
			if currentPrice <= threshold {
				return verdict(TriggerStopLoss, p, currentPrice, threshold, stopLossPercent)
			}
		}
		if takeProfitPercent > 0 {
			threshold := p.EntryPrice * (1 + takeProfitPercent/100)
			if currentPrice >= threshold {
				return verdict(TriggerTakeProfit, p, currentPrice, threshold, takeProfitPercent)
			}
		}
		return Verdict{}
	}

	// Sell position: losses accrue as the price rises.
	if stopLossPercent > 0 {
		threshold := p.EntryPrice * (1 + stopLossPercent/100)
		if currentPrice >= threshold {
			return verdict(TriggerStopLoss, p, currentPrice, threshold, stopLossPercent)
		}
	}
	if takeProfitPercent > 0 {
		threshold := p.EntryPrice * (1 - takeProfitPercent/100)
		if currentPrice <= threshold {
			return verdict(TriggerTakeProfit, p, currentPrice, threshold, takeProfitPercent)
		}
	}
	return Verdict{}
}

func verdict(t Trigger, p models.Position, currentPrice, threshold, percent float64) Verdict {
	return Verdict{
		Triggered: true,
		Trigger:   t,
		Message: fmt.Sprintf("%s triggered for %s %s position: price %.4f crossed %.4f (entry %.4f, %.2f%%)",
			t.Label(), p.Pair, p.Action, currentPrice, threshold, p.EntryPrice, percent),
	}
}
