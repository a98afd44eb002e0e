package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePair(t *testing.T) {
	t.Run("ResolvesKnownTokens", func(t *testing.T) {
		pair, err := ParsePair("SOL/USDC")

		assert.NoError(t, err)
		assert.Equal(t, "SOL", pair.Base.Symbol)
		assert.Equal(t, 9, pair.Base.Decimals)
		assert.Equal(t, "USDC", pair.Quote.Symbol)
		assert.Equal(t, 6, pair.Quote.Decimals)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		pair, err := ParsePair("sol/usdc")
		assert.NoError(t, err)
		assert.Equal(t, "SOL", pair.Base.Symbol)
	})

	t.Run("RejectsUnknownToken", func(t *testing.T) {
		_, err := ParsePair("DOGE/USDC")
		assert.Error(t, err)
	})

	t.Run("RejectsMalformedSymbol", func(t *testing.T) {
		_, err := ParsePair("SOLUSDC")
		assert.Error(t, err)
	})
}

func TestPairLegs(t *testing.T) {
	pair, err := ParsePair("SOL/USDC")
	assert.NoError(t, err)

	input, output := pair.Legs(ActionBuy)
	assert.Equal(t, "USDC", input.Symbol) // a buy spends the quote token
	assert.Equal(t, "SOL", output.Symbol)

	input, output = pair.Legs(ActionSell)
	assert.Equal(t, "SOL", input.Symbol)
	assert.Equal(t, "USDC", output.Symbol)
}

func TestTokenUnits(t *testing.T) {
	sol := knownTokens["SOL"]
	usdc := knownTokens["USDC"]

	assert.Equal(t, uint64(1_500_000_000), sol.ToBaseUnits(1.5))
	assert.Equal(t, uint64(100_000_000), usdc.ToBaseUnits(100))
	assert.InDelta(t, 1.5, sol.FromBaseUnits(1_500_000_000), 1e-12)
}

func TestActionOpposite(t *testing.T) {
	assert.Equal(t, ActionSell, ActionBuy.Opposite())
	assert.Equal(t, ActionBuy, ActionSell.Opposite())
	assert.True(t, ActionBuy.Valid())
	assert.False(t, Action("hold").Valid())
}

func TestSettingsValidate(t *testing.T) {
	valid := Settings{
		Strategy:           "trend-following",
		Amount:             100,
		Pair:               "SOL/USDC",
		MaxRuns:            1,
		RunIntervalMinutes: 1,
		Action:             ActionBuy,
	}
	assert.NoError(t, valid.Validate())

	cases := map[string]func(s *Settings){
		"NegativeAmount":     func(s *Settings) { s.Amount = -1 },
		"NegativeStopLoss":   func(s *Settings) { s.StopLossPercent = -0.1 },
		"NegativeTakeProfit": func(s *Settings) { s.TakeProfitPercent = -0.1 },
		"ZeroMaxRuns":        func(s *Settings) { s.MaxRuns = 0 },
		"ZeroInterval":       func(s *Settings) { s.RunIntervalMinutes = 0 },
		"BadAction":          func(s *Settings) { s.Action = "hold" },
		"BadPair":            func(s *Settings) { s.Pair = "nope" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := valid
			mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestSettingsUpdateApplyTo(t *testing.T) {
	base := Settings{Amount: 100, Pair: "SOL/USDC", MaxRuns: 1}
	amount := 250.0
	test := true

	next := SettingsUpdate{Amount: &amount, TestMode: &test}.ApplyTo(base)

	assert.Equal(t, 250.0, next.Amount)
	assert.True(t, next.TestMode)
	assert.Equal(t, "SOL/USDC", next.Pair) // untouched fields survive
	assert.Equal(t, 100.0, base.Amount)    // the original is not mutated
}
