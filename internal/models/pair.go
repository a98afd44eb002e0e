package models

import (
	"fmt"
	"math"
	"strings"
)

// Token identifies an SPL token by its mint address and decimal precision.
type Token struct {
	Symbol   string
	Mint     string
	Decimals int
}

// ToBaseUnits converts a human-readable amount into the token's smallest
// indivisible unit (lamports for SOL).
func (t Token) ToBaseUnits(amount float64) uint64 {
	return uint64(math.Round(amount * math.Pow10(t.Decimals)))
}

// FromBaseUnits converts an amount in the token's smallest unit back into a
// human-readable amount.
func (t Token) FromBaseUnits(units uint64) float64 {
	return float64(units) / math.Pow10(t.Decimals)
}

var knownTokens = map[string]Token{
	"SOL":  {Symbol: "SOL", Mint: "So11111111111111111111111111111111111111112", Decimals: 9},
	"USDC": {Symbol: "USDC", Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6},
	"USDT": {Symbol: "USDT", Mint: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: 6},
}

// Pair is a trading pair resolved to its token mints. Prices are always
// quoted as quote units per base unit.
type Pair struct {
	Symbol string
	Base   Token
	Quote  Token
}

// ParsePair resolves a "BASE/QUOTE" symbol like "SOL/USDC" against the known
// token registry.
func ParsePair(symbol string) (Pair, error) {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 {
		return Pair{}, fmt.Errorf("invalid pair symbol %q, want BASE/QUOTE", symbol)
	}
	base, ok := knownTokens[strings.ToUpper(parts[0])]
	if !ok {
		return Pair{}, fmt.Errorf("unknown token %q in pair %q", parts[0], symbol)
	}
	quote, ok := knownTokens[strings.ToUpper(parts[1])]
	if !ok {
		return Pair{}, fmt.Errorf("unknown token %q in pair %q", parts[1], symbol)
	}
	return Pair{Symbol: symbol, Base: base, Quote: quote}, nil
}

// Legs returns the input and output tokens of a swap in the given direction.
// A buy spends the quote token to acquire the base token; a sell is the
// reverse.
func (p Pair) Legs(action Action) (input, output Token) {
	if action == ActionBuy {
		return p.Quote, p.Base
	}
	return p.Base, p.Quote
}
