package swap

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/AceKusamaDev/solbotrader2/internal/jupiter"
	"github.com/AceKusamaDev/solbotrader2/internal/models"
	"github.com/AceKusamaDev/solbotrader2/internal/solana"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) GetQuote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jupiter.QuoteResponse), args.Error(1)
}

func (m *MockAPI) BuildSwap(ctx context.Context, quote *jupiter.QuoteResponse, userPublicKey string) (*jupiter.SwapResponse, error) {
	args := m.Called(ctx, quote, userPublicKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jupiter.SwapResponse), args.Error(1)
}

type MockSigner struct {
	mock.Mock
}

func (m *MockSigner) SignAndSend(ctx context.Context, transaction []byte) (string, error) {
	args := m.Called(ctx, transaction)
	return args.String(0), args.Error(1)
}

func (m *MockSigner) PublicKey() string {
	return "WaLLet111"
}

type MockNetwork struct {
	mock.Mock
}

func (m *MockNetwork) LatestBlockhash(ctx context.Context) (solana.Blockhash, error) {
	args := m.Called(ctx)
	return args.Get(0).(solana.Blockhash), args.Error(1)
}

func (m *MockNetwork) SendTransaction(ctx context.Context, txBase64 string) (string, error) {
	args := m.Called(ctx, txBase64)
	return args.String(0), args.Error(1)
}

func (m *MockNetwork) ConfirmTransaction(ctx context.Context, signature string, lastValidBlockHeight uint64) error {
	args := m.Called(ctx, signature, lastValidBlockHeight)
	return args.Error(0)
}

func buyParams(t *testing.T) Params {
	pair, err := models.ParsePair("SOL/USDC")
	assert.NoError(t, err)
	return Params{
		Pair:        pair,
		Action:      models.ActionBuy,
		Amount:      100, // USDC spent
		SlippageBps: 50,
		Strategy:    "trend-following",
	}
}

func quoteFor(outAmount string) *jupiter.QuoteResponse {
	return &jupiter.QuoteResponse{
		OutAmount: outAmount,
		Raw:       []byte(`{"outAmount":"` + outAmount + `"}`),
	}
}

func TestExecuteSuccess(t *testing.T) {
	// Arrange
	api := new(MockAPI)
	signer := new(MockSigner)
	net := new(MockNetwork)
	executor := NewExecutor(api, signer, net, zap.NewNop())
	p := buyParams(t)

	artifact := []byte("signable transaction bytes")
	quote := quoteFor("2000000000") // 2 SOL for 100 USDC

	api.On("GetQuote", mock.Anything, mock.MatchedBy(func(req jupiter.QuoteRequest) bool {
		return req.InputMint == p.Pair.Quote.Mint &&
			req.OutputMint == p.Pair.Base.Mint &&
			req.Amount == uint64(100_000_000) && // 100 USDC in base units
			req.SlippageBps == 50
	})).Return(quote, nil)
	api.On("BuildSwap", mock.Anything, quote, "WaLLet111").Return(&jupiter.SwapResponse{
		SwapTransaction:      base64.StdEncoding.EncodeToString(artifact),
		LastValidBlockHeight: 7000,
	}, nil)
	signer.On("SignAndSend", mock.Anything, artifact).Return("5Sig", nil)
	net.On("ConfirmTransaction", mock.Anything, "5Sig", uint64(7000)).Return(nil)

	// Act
	res := executor.Execute(context.Background(), p)

	// Assert
	assert.True(t, res.Success)
	assert.Equal(t, FaultNone, res.Fault)
	assert.Equal(t, "5Sig", res.Signature)
	assert.InDelta(t, 2.0, res.OutAmount, 1e-9)
	assert.InDelta(t, 50.0, res.Price, 1e-9) // 100 USDC / 2 SOL
	api.AssertExpectations(t)
	signer.AssertExpectations(t)
	net.AssertExpectations(t)
}

func TestExecuteQuoteFailureAbortsPipeline(t *testing.T) {
	api := new(MockAPI)
	executor := NewExecutor(api, new(MockSigner), new(MockNetwork), zap.NewNop())

	api.On("GetQuote", mock.Anything, mock.Anything).Return(nil, jupiter.ErrQuoteUnavailable)

	res := executor.Execute(context.Background(), buyParams(t))

	assert.False(t, res.Success)
	assert.Equal(t, FaultQuoteUnavailable, res.Fault)
	assert.Empty(t, res.Signature)
	api.AssertNotCalled(t, "BuildSwap", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteMalformedQuoteAmount(t *testing.T) {
	api := new(MockAPI)
	executor := NewExecutor(api, new(MockSigner), new(MockNetwork), zap.NewNop())

	api.On("GetQuote", mock.Anything, mock.Anything).Return(quoteFor("not-a-number"), nil)

	res := executor.Execute(context.Background(), buyParams(t))

	assert.Equal(t, FaultQuoteUnavailable, res.Fault)
	assert.ErrorIs(t, res.Err, jupiter.ErrQuoteUnavailable)
	api.AssertNotCalled(t, "BuildSwap", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteBuildFailure(t *testing.T) {
	api := new(MockAPI)
	signer := new(MockSigner)
	executor := NewExecutor(api, signer, new(MockNetwork), zap.NewNop())

	api.On("GetQuote", mock.Anything, mock.Anything).Return(quoteFor("2000000000"), nil)
	api.On("BuildSwap", mock.Anything, mock.Anything, mock.Anything).Return(nil, jupiter.ErrBuildFailed)

	res := executor.Execute(context.Background(), buyParams(t))

	assert.Equal(t, FaultBuildFailed, res.Fault)
	signer.AssertNotCalled(t, "SignAndSend", mock.Anything, mock.Anything)
}

func TestExecuteSignAndSubmitFaults(t *testing.T) {
	setup := func(signErr error) Result {
		api := new(MockAPI)
		signer := new(MockSigner)
		executor := NewExecutor(api, signer, new(MockNetwork), zap.NewNop())

		api.On("GetQuote", mock.Anything, mock.Anything).Return(quoteFor("2000000000"), nil)
		api.On("BuildSwap", mock.Anything, mock.Anything, mock.Anything).Return(&jupiter.SwapResponse{
			SwapTransaction:      base64.StdEncoding.EncodeToString([]byte("tx")),
			LastValidBlockHeight: 7000,
		}, nil)
		signer.On("SignAndSend", mock.Anything, mock.Anything).Return("", signErr)
		return executor.Execute(context.Background(), buyParams(t))
	}

	t.Run("SignRejected", func(t *testing.T) {
		res := setup(errors.New("key refused to sign"))
		assert.Equal(t, FaultSignRejected, res.Fault)
	})

	t.Run("SubmitFailed", func(t *testing.T) {
		res := setup(errors.Join(solana.ErrSubmitFailed, errors.New("node unavailable")))
		assert.Equal(t, FaultSubmitFailed, res.Fault)
	})
}

func TestExecuteConfirmationFailureKeepsSignature(t *testing.T) {
	api := new(MockAPI)
	signer := new(MockSigner)
	net := new(MockNetwork)
	executor := NewExecutor(api, signer, net, zap.NewNop())

	api.On("GetQuote", mock.Anything, mock.Anything).Return(quoteFor("2000000000"), nil)
	api.On("BuildSwap", mock.Anything, mock.Anything, mock.Anything).Return(&jupiter.SwapResponse{
		SwapTransaction:      base64.StdEncoding.EncodeToString([]byte("tx")),
		LastValidBlockHeight: 7000,
	}, nil)
	signer.On("SignAndSend", mock.Anything, mock.Anything).Return("5Sig", nil)
	net.On("ConfirmTransaction", mock.Anything, "5Sig", uint64(7000)).Return(solana.ErrBlockhashExpired)

	res := executor.Execute(context.Background(), buyParams(t))

	assert.False(t, res.Success)
	assert.Equal(t, FaultConfirmationFailed, res.Fault)
	assert.Equal(t, "5Sig", res.Signature)
}

func TestExecuteFallsBackToLatestBlockhashWindow(t *testing.T) {
	api := new(MockAPI)
	signer := new(MockSigner)
	net := new(MockNetwork)
	executor := NewExecutor(api, signer, net, zap.NewNop())

	api.On("GetQuote", mock.Anything, mock.Anything).Return(quoteFor("2000000000"), nil)
	api.On("BuildSwap", mock.Anything, mock.Anything, mock.Anything).Return(&jupiter.SwapResponse{
		SwapTransaction: base64.StdEncoding.EncodeToString([]byte("tx")),
	}, nil)
	signer.On("SignAndSend", mock.Anything, mock.Anything).Return("5Sig", nil)
	net.On("LatestBlockhash", mock.Anything).Return(solana.Blockhash{Blockhash: "9pH1", LastValidBlockHeight: 8000}, nil)
	net.On("ConfirmTransaction", mock.Anything, "5Sig", uint64(8000)).Return(nil)

	res := executor.Execute(context.Background(), buyParams(t))

	assert.True(t, res.Success)
	net.AssertExpectations(t)
}

func TestSimulator(t *testing.T) {
	t.Run("SuccessfulTrade", func(t *testing.T) {
		sim := NewSimulator(zap.NewNop(), 1)
		p := buyParams(t)

		res := sim.Execute(context.Background(), p)

		assert.True(t, res.Success)
		assert.True(t, strings.HasPrefix(res.Signature, "simulated_tx_"))
		assert.GreaterOrEqual(t, res.Price, 50.0)
		assert.LessOrEqual(t, res.Price, 150.0)
		assert.InDelta(t, p.Amount/res.Price, res.OutAmount, 1e-9)
	})

	t.Run("FailureRateOne", func(t *testing.T) {
		sim := NewSimulator(zap.NewNop(), 1)
		sim.FailureRate = 1

		res := sim.Execute(context.Background(), buyParams(t))

		assert.False(t, res.Success)
		assert.Equal(t, FaultSubmitFailed, res.Fault)
		assert.Empty(t, res.Signature)
	})
}
