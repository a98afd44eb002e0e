package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/AceKusamaDev/solbotrader2/internal/journal"
	"go.uber.org/zap"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log *zap.Logger
	jnl *journal.Journal
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, jnl *journal.Journal) *APIHandler {
	return &APIHandler{log: log, jnl: jnl}
}

// TradesHandler returns the most recent archived trades.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	trades, err := h.jnl.Recent(200)
	if err != nil {
		h.log.Error("Failed to get trades from journal", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}

// StatsDetail holds calculated statistics for a given period.
type StatsDetail struct {
	TotalTrades      int64   `json:"total_trades"`
	ProfitableTrades int64   `json:"profitable_trades"`
	WinRate          float64 `json:"win_rate"`
	TotalPnL         float64 `json:"total_pnl"`
}

// StatisticsResponse is the structure for the /api/statistics endpoint.
type StatisticsResponse struct {
	Since24h StatsDetail `json:"since_24h"`
	AllTime  StatsDetail `json:"all_time"`
}

// StatisticsHandler calculates and returns trading statistics over the
// settled (PnL-carrying) trades.
func (h *APIHandler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	settled, err := h.jnl.Settled()
	if err != nil {
		h.log.Error("Failed to get trades for statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}

	since24h := time.Now().Add(-24 * time.Hour)

	stats24h := StatsDetail{}
	statsAllTime := StatsDetail{}

	for _, trade := range settled {
		// Calculate for all time
		statsAllTime.TotalTrades++
		if trade.PnL > 0 {
			statsAllTime.ProfitableTrades++
		}
		statsAllTime.TotalPnL += trade.PnL

		// Calculate for last 24 hours
		if trade.Timestamp.After(since24h) {
			stats24h.TotalTrades++
			if trade.PnL > 0 {
				stats24h.ProfitableTrades++
			}
			stats24h.TotalPnL += trade.PnL
		}
	}

	if statsAllTime.TotalTrades > 0 {
		statsAllTime.WinRate = float64(statsAllTime.ProfitableTrades) / float64(statsAllTime.TotalTrades)
	}
	if stats24h.TotalTrades > 0 {
		stats24h.WinRate = float64(stats24h.ProfitableTrades) / float64(stats24h.TotalTrades)
	}

	response := StatisticsResponse{
		Since24h: stats24h,
		AllTime:  statsAllTime,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
