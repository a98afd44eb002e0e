// Package ledger holds the bot's open positions and its bounded trade
// history. All mutation happens under a single mutex; readers always get
// snapshot copies, never live references.
package ledger

import (
	"sync"

	"github.com/AceKusamaDev/solbotrader2/internal/models"
)

// DefaultHistoryLimit caps the trade history when no limit is configured.
const DefaultHistoryLimit = 50

// Ledger is the mutable collection of open positions plus a newest-first
// trade log of bounded length.
type Ledger struct {
	mu           sync.Mutex
	positions    []models.Position
	history      []models.Trade
	historyLimit int
}

// New creates a ledger with the given trade-history cap.
func New(historyLimit int) *Ledger {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Ledger{historyLimit: historyLimit}
}

// AddPosition appends an open position. IDs are caller-generated and assumed
// unique.
func (l *Ledger) AddPosition(p models.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions = append(l.positions, p)
}

// RemovePosition deletes at most one position by id, preserving insertion
// order, and reports whether it was present. Removing an absent id is a
// no-op since concurrent removal races are expected.
func (l *Ledger) RemovePosition(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, p := range l.positions {
		if p.ID == id {
			l.positions = append(l.positions[:i], l.positions[i+1:]...)
			return true
		}
	}
	return false
}

// Positions returns an insertion-ordered snapshot of the open positions.
func (l *Ledger) Positions() []models.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Position, len(l.positions))
	copy(out, l.positions)
	return out
}

// AddTrade prepends a trade record and evicts the oldest entries beyond the
// history cap.
func (l *Ledger) AddTrade(t models.Trade) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = append([]models.Trade{t}, l.history...)
	if len(l.history) > l.historyLimit {
		l.history = l.history[:l.historyLimit]
	}
}

// Trades returns a newest-first snapshot of the trade history.
func (l *Ledger) Trades() []models.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Trade, len(l.history))
	copy(out, l.history)
	return out
}
