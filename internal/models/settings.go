package models

import (
	"fmt"
	"time"
)

// Settings holds the user-configured strategy parameters. The controller
// takes a value snapshot at the start of every cycle, so mutating settings
// never affects a cycle already in progress.
type Settings struct {
	Strategy           string  `json:"strategy"`
	Amount             float64 `json:"amount"` // denominated in the input asset of the entry trade
	Pair               string  `json:"pair"`   // e.g. "SOL/USDC"
	StopLossPercent    float64 `json:"stop_loss_percent"`
	TakeProfitPercent  float64 `json:"take_profit_percent"`
	MaxRuns            int     `json:"max_runs"`
	RunIntervalMinutes int     `json:"run_interval_minutes"`
	CompoundCapital    bool    `json:"compound_capital"`
	TestMode           bool    `json:"test_mode"`
	Action             Action  `json:"action"`
}

// Validate checks the settings invariants.
func (s Settings) Validate() error {
	if s.Amount < 0 {
		return fmt.Errorf("amount must not be negative, got %v", s.Amount)
	}
	if s.StopLossPercent < 0 {
		return fmt.Errorf("stop loss percent must not be negative, got %v", s.StopLossPercent)
	}
	if s.TakeProfitPercent < 0 {
		return fmt.Errorf("take profit percent must not be negative, got %v", s.TakeProfitPercent)
	}
	if s.MaxRuns < 1 {
		return fmt.Errorf("max runs must be at least 1, got %d", s.MaxRuns)
	}
	if s.RunIntervalMinutes < 1 {
		return fmt.Errorf("run interval must be at least 1 minute, got %d", s.RunIntervalMinutes)
	}
	if !s.Action.Valid() {
		return fmt.Errorf("action must be %q or %q, got %q", ActionBuy, ActionSell, s.Action)
	}
	if _, err := ParsePair(s.Pair); err != nil {
		return err
	}
	return nil
}

// RunInterval returns the configured interval between trade cycles.
func (s Settings) RunInterval() time.Duration {
	return time.Duration(s.RunIntervalMinutes) * time.Minute
}

// SettingsUpdate is a partial settings mutation. Nil fields are left
// untouched.
type SettingsUpdate struct {
	Strategy           *string  `json:"strategy,omitempty"`
	Amount             *float64 `json:"amount,omitempty"`
	Pair               *string  `json:"pair,omitempty"`
	StopLossPercent    *float64 `json:"stop_loss_percent,omitempty"`
	TakeProfitPercent  *float64 `json:"take_profit_percent,omitempty"`
	MaxRuns            *int     `json:"max_runs,omitempty"`
	RunIntervalMinutes *int     `json:"run_interval_minutes,omitempty"`
	CompoundCapital    *bool    `json:"compound_capital,omitempty"`
	TestMode           *bool    `json:"test_mode,omitempty"`
	Action             *Action  `json:"action,omitempty"`
}

// ApplyTo returns a copy of s with the non-nil fields of u applied.
func (u SettingsUpdate) ApplyTo(s Settings) Settings {
	if u.Strategy != nil {
		s.Strategy = *u.Strategy
	}
	if u.Amount != nil {
		s.Amount = *u.Amount
	}
	if u.Pair != nil {
		s.Pair = *u.Pair
	}
	if u.StopLossPercent != nil {
		s.StopLossPercent = *u.StopLossPercent
	}
	if u.TakeProfitPercent != nil {
		s.TakeProfitPercent = *u.TakeProfitPercent
	}
	if u.MaxRuns != nil {
		s.MaxRuns = *u.MaxRuns
	}
	if u.RunIntervalMinutes != nil {
		s.RunIntervalMinutes = *u.RunIntervalMinutes
	}
	if u.CompoundCapital != nil {
		s.CompoundCapital = *u.CompoundCapital
	}
	if u.TestMode != nil {
		s.TestMode = *u.TestMode
	}
	if u.Action != nil {
		s.Action = *u.Action
	}
	return s
}
