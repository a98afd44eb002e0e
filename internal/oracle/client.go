package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/AceKusamaDev/solbotrader2/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Price is a single reference-price reading for a trading pair.
type Price struct {
	Value     float64 // quote units per base unit
	Change24h float64 // percent change over the last 24 hours
}

// PriceSource fetches a current reference price for a pair symbol like
// "SOL/USDC". Implementations make no caching guarantees beyond a single
// call; callers tolerate transient failures.
type PriceSource interface {
	GetPrice(ctx context.Context, pairSymbol string) (Price, error)
}

// coinIDs maps base token symbols to CoinGecko coin ids.
var coinIDs = map[string]string{
	"SOL":  "solana",
	"USDC": "usd-coin",
	"USDT": "tether",
}

// Client fetches reference prices from the CoinGecko simple-price endpoint.
type Client struct {
	client  *resty.Client
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ PriceSource = (*Client)(nil)

// NewClient creates a new price oracle client.
func NewClient(cfg *config.Oracle, logger *zap.Logger) *Client {
	return &Client{
		client:  resty.New().SetBaseURL(cfg.BaseURL),
		apiKey:  cfg.APIKey,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
	}
}

// GetPrice fetches the current price for the pair's base token, denominated
// in US dollars (the stablecoin quote side is treated as 1 USD).
func (c *Client) GetPrice(ctx context.Context, pairSymbol string) (Price, error) {
	base, _, ok := strings.Cut(pairSymbol, "/")
	if !ok {
		return Price{}, fmt.Errorf("invalid pair symbol %q", pairSymbol)
	}
	id, ok := coinIDs[strings.ToUpper(base)]
	if !ok {
		return Price{}, fmt.Errorf("no price feed mapping for token %q", base)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Price{}, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var result map[string]map[string]float64
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":                 id,
			"vs_currencies":       "usd",
			"include_24hr_change": "true",
		}).
		SetResult(&result)
	if c.apiKey != "" {
		req.SetQueryParam("x_cg_demo_api_key", c.apiKey)
	}

	resp, err := req.Get("/simple/price")
	if err != nil {
		return Price{}, fmt.Errorf("price feed request failed: %w", err)
	}
	if resp.IsError() {
		return Price{}, fmt.Errorf("price feed returned status %s: %s", resp.Status(), resp.String())
	}

	entry, ok := result[id]
	if !ok {
		return Price{}, fmt.Errorf("price feed response missing entry for %q", id)
	}
	value, ok := entry["usd"]
	if !ok || value <= 0 {
		return Price{}, fmt.Errorf("price feed returned no usable price for %q", id)
	}

	p := Price{Value: value, Change24h: entry["usd_24h_change"]}
	c.logger.Debug("Fetched reference price",
		zap.String("pair", pairSymbol),
		zap.Float64("price", p.Value),
		zap.Float64("change_24h", p.Change24h),
	)
	return p, nil
}
