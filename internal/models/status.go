package models

// Status is the controller's lifecycle state. Exactly one status holds at
// any time.
type Status string

const (
	StatusStopped   Status = "stopped"
	StatusAnalyzing Status = "analyzing"
	StatusRunning   Status = "running"
	StatusError     Status = "error"
)

// MarketCondition is an informational classification of the market recorded
// when the bot enters the running state.
type MarketCondition string

const (
	MarketUptrend   MarketCondition = "Uptrend"
	MarketDowntrend MarketCondition = "Downtrend"
	MarketRanging   MarketCondition = "Ranging"
	MarketUnclear   MarketCondition = "Unclear"
)
