package models

import "time"

// Position is an open trade exposure awaiting a risk-triggered close.
// EntryPrice and Amount are immutable once the position is recorded;
// Amount is denominated in the asset acquired by the entry trade.
type Position struct {
	ID         string    `json:"id"`
	Pair       string    `json:"pair"`
	EntryPrice float64   `json:"entry_price"`
	Amount     float64   `json:"amount"`
	OpenedAt   time.Time `json:"opened_at"`
	Action     Action    `json:"action"`
}
