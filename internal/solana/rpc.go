package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AceKusamaDev/solbotrader2/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrBlockhashExpired is returned when a submitted transaction was not
// confirmed before the network moved past its blockhash validity window.
var ErrBlockhashExpired = errors.New("blockhash validity window expired")

// Blockhash is a recent blockhash together with the last block height at
// which a transaction referencing it is still valid.
type Blockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// Network is the blockchain submission/confirmation surface consumed by the
// swap pipeline.
type Network interface {
	LatestBlockhash(ctx context.Context) (Blockhash, error)
	SendTransaction(ctx context.Context, txBase64 string) (string, error)
	ConfirmTransaction(ctx context.Context, signature string, lastValidBlockHeight uint64) error
}

// Client talks to a Solana JSON-RPC endpoint.
type Client struct {
	client       *resty.Client
	commitment   string
	pollInterval time.Duration
	logger       *zap.Logger
}

var _ Network = (*Client)(nil)

// NewClient creates a new Solana RPC client.
func NewClient(cfg *config.Solana, logger *zap.Logger) *Client {
	poll := time.Duration(cfg.ConfirmPollSeconds) * time.Second
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Client{
		client:       resty.New().SetBaseURL(cfg.RPCEndpoint),
		commitment:   cfg.Commitment,
		pollInterval: poll,
		logger:       logger,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call executes a single JSON-RPC method and decodes its result into out.
func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	var body rpcResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}).
		SetResult(&body).
		Post("")
	if err != nil {
		return fmt.Errorf("rpc %s failed: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("rpc %s returned status %s: %s", method, resp.Status(), resp.String())
	}
	if body.Error != nil {
		return fmt.Errorf("rpc %s error %d: %s", method, body.Error.Code, body.Error.Message)
	}
	if out != nil {
		if err := json.Unmarshal(body.Result, out); err != nil {
			return fmt.Errorf("rpc %s: malformed result: %w", method, err)
		}
	}
	return nil
}

// LatestBlockhash fetches the latest blockhash and its validity window.
func (c *Client) LatestBlockhash(ctx context.Context) (Blockhash, error) {
	var result struct {
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}
	params := []interface{}{map[string]string{"commitment": c.commitment}}
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return Blockhash{}, err
	}
	return Blockhash{
		Blockhash:            result.Value.Blockhash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}, nil
}

// SendTransaction submits a base64-encoded signed transaction and returns
// its signature.
func (c *Client) SendTransaction(ctx context.Context, txBase64 string) (string, error) {
	var signature string
	params := []interface{}{
		txBase64,
		map[string]string{"encoding": "base64", "preflightCommitment": c.commitment},
	}
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	c.logger.Info("Transaction submitted", zap.String("signature", signature))
	return signature, nil
}

// blockHeight fetches the current block height.
func (c *Client) blockHeight(ctx context.Context) (uint64, error) {
	var height uint64
	params := []interface{}{map[string]string{"commitment": c.commitment}}
	if err := c.call(ctx, "getBlockHeight", params, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// signatureStatus mirrors the getSignatureStatuses result entry.
type signatureStatus struct {
	ConfirmationStatus string          `json:"confirmationStatus"`
	Err                json.RawMessage `json:"err"`
}

// ConfirmTransaction polls for the signature's status until it is confirmed,
// the blockhash validity window passes, or ctx is done. The wait is bounded
// by the network's block height, not a fixed wall-clock timeout.
func (c *Client) ConfirmTransaction(ctx context.Context, signature string, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var result struct {
			Value []*signatureStatus `json:"value"`
		}
		params := []interface{}{[]string{signature}}
		if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
			return err
		}

		if len(result.Value) > 0 && result.Value[0] != nil {
			status := result.Value[0]
			if len(status.Err) > 0 && string(status.Err) != "null" {
				return fmt.Errorf("transaction %s failed on chain: %s", signature, status.Err)
			}
			if status.ConfirmationStatus == "confirmed" || status.ConfirmationStatus == "finalized" {
				c.logger.Info("Transaction confirmed",
					zap.String("signature", signature),
					zap.String("commitment", status.ConfirmationStatus),
				)
				return nil
			}
		}

		height, err := c.blockHeight(ctx)
		if err != nil {
			return err
		}
		if height > lastValidBlockHeight {
			return fmt.Errorf("transaction %s unconfirmed after block %d: %w",
				signature, lastValidBlockHeight, ErrBlockhashExpired)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
