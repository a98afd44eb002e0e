package models

import "time"

// Action is the direction of a trade.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Opposite returns the action that closes a position opened with a.
func (a Action) Opposite() Action {
	if a == ActionBuy {
		return ActionSell
	}
	return ActionBuy
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// Trade is a single ledger record. Every trade attempt, successful or not,
// produces exactly one Trade.
type Trade struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Pair      string    `json:"pair"`
	Action    Action    `json:"action"`
	Amount    float64   `json:"amount"`
	Price     float64   `json:"price"` // 0 when the attempt failed before a price was known
	Strategy  string    `json:"strategy"`
	Success   bool      `json:"success"`
	Signature string    `json:"signature,omitempty"`
	Error     string    `json:"error,omitempty"`
	PnL       float64   `json:"pnl,omitempty"` // realized, set on successful exits
}
