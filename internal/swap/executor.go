// Package swap runs the quote, build, sign, submit, confirm pipeline against
// the swap router and the network. Failures never escape as panics or raw
// errors; every execution returns a single discriminated Result.
package swap

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/AceKusamaDev/solbotrader2/internal/jupiter"
	"github.com/AceKusamaDev/solbotrader2/internal/models"
	"github.com/AceKusamaDev/solbotrader2/internal/solana"
	"go.uber.org/zap"
)

// Fault classifies where in the pipeline a trade attempt failed.
type Fault string

const (
	FaultNone               Fault = ""
	FaultQuoteUnavailable   Fault = "quote_unavailable"
	FaultBuildFailed        Fault = "build_failed"
	FaultSignRejected       Fault = "sign_rejected"
	FaultSubmitFailed       Fault = "submit_failed"
	FaultConfirmationFailed Fault = "confirmation_failed"
)

// Params describes a single trade to execute. Amount is denominated in the
// input asset of the swap (the quote token for a buy, the base token for a
// sell).
type Params struct {
	Pair        models.Pair
	Action      models.Action
	Amount      float64
	SlippageBps int
	Strategy    string
}

// Result is the single discriminated outcome of a trade attempt. Signature
// may be set even on failure when the transaction reached the network but
// was not confirmed.
type Result struct {
	Success   bool
	Signature string
	OutAmount float64 // output-asset estimate from the quote
	Price     float64 // quote-implied price, quote units per base unit
	Fault     Fault
	Err       error
}

// TradeExecutor executes one trade and reports its outcome.
type TradeExecutor interface {
	Execute(ctx context.Context, p Params) Result
}

// Executor is the live pipeline: Jupiter for routing, a signer for the
// wallet identity, and the network for submission and confirmation.
type Executor struct {
	api    jupiter.API
	signer solana.Signer
	net    solana.Network
	logger *zap.Logger
}

var _ TradeExecutor = (*Executor)(nil)

// NewExecutor creates a live trade executor.
func NewExecutor(api jupiter.API, signer solana.Signer, net solana.Network, logger *zap.Logger) *Executor {
	return &Executor{api: api, signer: signer, net: net, logger: logger}
}

// Execute runs the three protocol steps strictly in order; any step's
// failure aborts the later steps.
func (e *Executor) Execute(ctx context.Context, p Params) Result {
	input, output := p.Pair.Legs(p.Action)
	l := e.logger.With(
		zap.String("pair", p.Pair.Symbol),
		zap.String("action", string(p.Action)),
		zap.Float64("amount", p.Amount),
		zap.String("strategy", p.Strategy),
	)

	// Step A: quote.
	quote, err := e.api.GetQuote(ctx, jupiter.QuoteRequest{
		InputMint:   input.Mint,
		OutputMint:  output.Mint,
		Amount:      input.ToBaseUnits(p.Amount),
		SlippageBps: p.SlippageBps,
	})
	if err != nil {
		l.Error("Quote step failed", zap.Error(err))
		return Result{Fault: FaultQuoteUnavailable, Err: err}
	}

	outUnits, err := quote.OutAmountUnits()
	if err != nil {
		l.Error("Quote step returned malformed amounts", zap.Error(err))
		return Result{Fault: FaultQuoteUnavailable, Err: fmt.Errorf("%w: %v", jupiter.ErrQuoteUnavailable, err)}
	}
	outAmount := output.FromBaseUnits(outUnits)
	price := impliedPrice(p, outAmount)

	// Step B: build.
	build, err := e.api.BuildSwap(ctx, quote, e.signer.PublicKey())
	if err != nil {
		l.Error("Build step failed", zap.Error(err))
		return Result{Fault: FaultBuildFailed, Err: err}
	}

	artifact, err := base64.StdEncoding.DecodeString(build.SwapTransaction)
	if err != nil {
		l.Error("Build step returned an undecodable artifact", zap.Error(err))
		return Result{Fault: FaultBuildFailed, Err: fmt.Errorf("%w: invalid transaction artifact: %v", jupiter.ErrBuildFailed, err)}
	}

	// Step C: sign, submit, confirm.
	signature, err := e.signer.SignAndSend(ctx, artifact)
	if err != nil {
		fault := FaultSignRejected
		if errors.Is(err, solana.ErrSubmitFailed) {
			fault = FaultSubmitFailed
		}
		l.Error("Sign/submit step failed", zap.Error(err))
		return Result{Fault: fault, Err: err, OutAmount: outAmount, Price: price}
	}
	l = l.With(zap.String("signature", signature))

	window := build.LastValidBlockHeight
	if window == 0 {
		latest, err := e.net.LatestBlockhash(ctx)
		if err != nil {
			l.Error("Could not determine confirmation window", zap.Error(err))
			return Result{Signature: signature, OutAmount: outAmount, Price: price, Fault: FaultConfirmationFailed, Err: err}
		}
		window = latest.LastValidBlockHeight
	}

	if err := e.net.ConfirmTransaction(ctx, signature, window); err != nil {
		l.Error("Confirmation failed", zap.Error(err))
		return Result{Signature: signature, OutAmount: outAmount, Price: price, Fault: FaultConfirmationFailed, Err: err}
	}

	l.Info("Swap executed and confirmed",
		zap.Float64("out_amount", outAmount),
		zap.Float64("price", price),
	)
	return Result{Success: true, Signature: signature, OutAmount: outAmount, Price: price}
}

// impliedPrice derives the base price in quote units from the quoted
// amounts. A buy spends p.Amount quote for outAmount base; a sell is the
// reverse.
func impliedPrice(p Params, outAmount float64) float64 {
	if outAmount <= 0 || p.Amount <= 0 {
		return 0
	}
	if p.Action == models.ActionBuy {
		return p.Amount / outAmount
	}
	return outAmount / p.Amount
}
