// Package reporter renders an end-of-session summary of the bot's state.
package reporter

import (
	"fmt"
	"io"

	"github.com/AceKusamaDev/solbotrader2/internal/bot"
	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteSessionReport prints the open positions, the recent trade history and
// aggregate statistics for the session to w.
func WriteSessionReport(w io.Writer, snap bot.Snapshot) {
	fmt.Fprintf(w, "\n=== Trading session report (%s, %s) ===\n",
		snap.Settings.Strategy, snap.Settings.Pair)
	fmt.Fprintf(w, "Status: %s | Market: %s | Runs completed: %d\n",
		snap.Status, snap.MarketCondition, snap.CurrentRun)
	if snap.LastError != "" {
		fmt.Fprintf(w, "Last error: %s\n", snap.LastError)
	}

	if len(snap.Positions) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle("Open positions")
		t.AppendHeader(table.Row{"ID", "Pair", "Action", "Amount", "Entry price", "Opened"})
		for _, p := range snap.Positions {
			t.AppendRow(table.Row{
				p.ID, p.Pair, p.Action,
				fmt.Sprintf("%.6f", p.Amount),
				fmt.Sprintf("%.4f", p.EntryPrice),
				p.OpenedAt.Format("2006-01-02 15:04:05"),
			})
		}
		t.Render()
	}

	if len(snap.TradeHistory) == 0 {
		fmt.Fprintln(w, "No trades executed.")
		return
	}

	var wins, losses int
	var totalPnL float64
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Trade history (newest first)")
	t.AppendHeader(table.Row{"Time", "Pair", "Action", "Amount", "Price", "Strategy", "Result", "PnL"})
	for _, tr := range snap.TradeHistory {
		result := "ok"
		if !tr.Success {
			result = "failed: " + tr.Error
		}
		pnl := ""
		if tr.PnL != 0 {
			pnl = fmt.Sprintf("%+.4f", tr.PnL)
			totalPnL += tr.PnL
			if tr.PnL > 0 {
				wins++
			} else {
				losses++
			}
		}
		t.AppendRow(table.Row{
			tr.Timestamp.Format("15:04:05"), tr.Pair, tr.Action,
			fmt.Sprintf("%.6f", tr.Amount),
			fmt.Sprintf("%.4f", tr.Price),
			tr.Strategy, result, pnl,
		})
	}
	t.Render()

	fmt.Fprintf(w, "Trades: %d | Closed winners: %d | Closed losers: %d | Realized PnL: %+.4f\n",
		len(snap.TradeHistory), wins, losses, totalPnL)
}
