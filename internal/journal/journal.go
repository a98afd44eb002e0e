// Package journal is a write-only archive of trade records backing the
// dashboard. The controller's in-memory ledger stays authoritative; nothing
// is ever read back into the bot's state.
package journal

import (
	"fmt"
	"time"

	"github.com/AceKusamaDev/solbotrader2/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TradeRecord is the persisted form of a Trade.
type TradeRecord struct {
	gorm.Model
	TradeID   string    `gorm:"uniqueIndex" json:"trade_id"`
	Timestamp time.Time `json:"timestamp"`
	Pair      string    `json:"pair"`
	Action    string    `json:"action"`
	Amount    float64   `json:"amount"`
	Price     float64   `json:"price"`
	Strategy  string    `json:"strategy"`
	Success   bool      `json:"success"`
	Signature string    `json:"signature,omitempty"`
	Error     string    `json:"error,omitempty"`
	PnL       float64   `json:"pnl"`
}

// Journal appends trade records to a sqlite database.
type Journal struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the journal database and migrates its schema.
func Open(dsn string, logger *zap.Logger) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	if err := db.AutoMigrate(&TradeRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal schema: %w", err)
	}
	return &Journal{db: db, logger: logger}, nil
}

// Record archives one trade. Archive failures are logged, never propagated;
// a journaling problem must not fail a trade cycle.
func (j *Journal) Record(t models.Trade) {
	rec := TradeRecord{
		TradeID:   t.ID,
		Timestamp: t.Timestamp,
		Pair:      t.Pair,
		Action:    string(t.Action),
		Amount:    t.Amount,
		Price:     t.Price,
		Strategy:  t.Strategy,
		Success:   t.Success,
		Signature: t.Signature,
		Error:     t.Error,
		PnL:       t.PnL,
	}
	if err := j.db.Create(&rec).Error; err != nil {
		j.logger.Error("Failed to archive trade record",
			zap.String("trade_id", t.ID),
			zap.Error(err),
		)
	}
}

// Recent returns up to limit trade records, newest first.
func (j *Journal) Recent(limit int) ([]TradeRecord, error) {
	var records []TradeRecord
	q := j.db.Order("timestamp desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load trade records: %w", err)
	}
	return records, nil
}

// Settled returns all records carrying a realized PnL.
func (j *Journal) Settled() ([]TradeRecord, error) {
	var records []TradeRecord
	if err := j.db.Where("pn_l != ?", 0).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load settled trades: %w", err)
	}
	return records, nil
}
