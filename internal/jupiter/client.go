package jupiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/AceKusamaDev/solbotrader2/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Typed failures of the two remote steps. Callers must not proceed to the
// build step after a quote failure.
var (
	ErrQuoteUnavailable = errors.New("quote unavailable")
	ErrBuildFailed      = errors.New("swap build failed")
)

// QuoteRequest describes an indicative exchange route request. Amount is in
// the smallest indivisible unit of the input asset.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      uint64
	SlippageBps int
}

// QuoteResponse is the subset of the quote payload the bot interprets. Raw
// keeps the full body so it can be forwarded verbatim to the build step.
type QuoteResponse struct {
	InputMint  string `json:"inputMint"`
	InAmount   string `json:"inAmount"`
	OutputMint string `json:"outputMint"`
	OutAmount  string `json:"outAmount"`

	Raw json.RawMessage `json:"-"`
}

// OutAmountUnits parses the quoted output amount estimate.
func (q *QuoteResponse) OutAmountUnits() (uint64, error) {
	n, err := strconv.ParseUint(q.OutAmount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed outAmount %q: %w", q.OutAmount, err)
	}
	return n, nil
}

// SwapResponse is the build step's signable transaction artifact.
type SwapResponse struct {
	SwapTransaction      string `json:"swapTransaction"` // base64-encoded
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// API defines the two remote steps of the swap-routing protocol.
type API interface {
	GetQuote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error)
	BuildSwap(ctx context.Context, quote *QuoteResponse, userPublicKey string) (*SwapResponse, error)
}

// Client is a client for the Jupiter v6 swap-routing API.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ API = (*Client)(nil)

// NewClient creates a new Jupiter API client.
func NewClient(cfg *config.Jupiter, logger *zap.Logger) *Client {
	return &Client{
		client:  resty.New().SetBaseURL(cfg.BaseURL),
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
	}
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetQuote requests an indicative exchange route for a swap.
func (c *Client) GetQuote(ctx context.Context, q QuoteRequest) (*QuoteResponse, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"inputMint":   q.InputMint,
			"outputMint":  q.OutputMint,
			"amount":      strconv.FormatUint(q.Amount, 10),
			"slippageBps": strconv.Itoa(q.SlippageBps),
			// Request dynamic compute unit pricing for priority fees.
			"computeUnitPriceMicroLamports": "auto",
		})

	resp, err := c.doRequest(ctx, "GET", "/quote", req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	body := resp.Body()
	var quote QuoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("%w: malformed quote body: %v", ErrQuoteUnavailable, err)
	}
	if quote.OutAmount == "" {
		return nil, fmt.Errorf("%w: quote body missing outAmount", ErrQuoteUnavailable)
	}
	quote.Raw = append(json.RawMessage(nil), body...)

	c.logger.Debug("Received quote",
		zap.String("input_mint", quote.InputMint),
		zap.String("output_mint", quote.OutputMint),
		zap.String("out_amount", quote.OutAmount),
	)
	return &quote, nil
}

// swapRequest is the build step's request body. The quote payload is passed
// through untouched.
type swapRequest struct {
	QuoteResponse json.RawMessage `json:"quoteResponse"`
	UserPublicKey string          `json:"userPublicKey"`
}

// BuildSwap requests a signable transaction artifact for a previously
// obtained quote.
func (c *Client) BuildSwap(ctx context.Context, quote *QuoteResponse, userPublicKey string) (*SwapResponse, error) {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(swapRequest{QuoteResponse: quote.Raw, UserPublicKey: userPublicKey}).
		SetResult(&SwapResponse{})

	resp, err := c.doRequest(ctx, "POST", "/swap", req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	swap := resp.Result().(*SwapResponse)
	if swap.SwapTransaction == "" {
		return nil, fmt.Errorf("%w: response missing swapTransaction", ErrBuildFailed)
	}
	return swap, nil
}
