package solana

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendTransaction(ctx context.Context, txBase64 string) (string, error) {
	args := m.Called(ctx, txBase64)
	return args.String(0), args.Error(1)
}

// unsignedTx builds a minimal wire-format transaction: a compact-u16
// signature count of one, an empty signature slot, then the message.
func unsignedTx(message []byte) []byte {
	tx := make([]byte, 1+ed25519.SignatureSize+len(message))
	tx[0] = 1
	copy(tx[1+ed25519.SignatureSize:], message)
	return tx
}

func newTestSigner(t *testing.T, sender TransactionSender) (*KeypairSigner, ed25519.PublicKey) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	assert.NoError(t, err)

	signer, err := NewKeypairSigner(base64.StdEncoding.EncodeToString(priv), "WaLLet111", sender)
	assert.NoError(t, err)
	return signer, pub
}

func TestNewKeypairSigner(t *testing.T) {
	t.Run("RejectsBadEncoding", func(t *testing.T) {
		_, err := NewKeypairSigner("not base64!!", "WaLLet111", nil)
		assert.Error(t, err)
	})

	t.Run("RejectsWrongKeyLength", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString(make([]byte, 32))
		_, err := NewKeypairSigner(short, "WaLLet111", nil)
		assert.Error(t, err)
	})

	t.Run("ExposesPublicKey", func(t *testing.T) {
		signer, _ := newTestSigner(t, nil)
		assert.Equal(t, "WaLLet111", signer.PublicKey())
	})
}

func TestSignAndSend(t *testing.T) {
	t.Run("SignsFeePayerSlotAndSubmits", func(t *testing.T) {
		// Arrange
		message := []byte("swap message bytes")
		sender := new(MockSender)
		signer, pub := newTestSigner(t, sender)

		var submitted string
		sender.On("SendTransaction", mock.Anything, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { submitted = args.String(1) }).
			Return("5Sig", nil)

		// Act
		sig, err := signer.SignAndSend(context.Background(), unsignedTx(message))

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "5Sig", sig)

		signed, err := base64.StdEncoding.DecodeString(submitted)
		assert.NoError(t, err)
		assert.Equal(t, message, signed[1+ed25519.SignatureSize:])
		assert.True(t, ed25519.Verify(pub, message, signed[1:1+ed25519.SignatureSize]))
		sender.AssertExpectations(t)
	})

	t.Run("SubmitErrorIsSubmitFailed", func(t *testing.T) {
		sender := new(MockSender)
		signer, _ := newTestSigner(t, sender)
		sender.On("SendTransaction", mock.Anything, mock.Anything).
			Return("", errors.New("node unavailable"))

		_, err := signer.SignAndSend(context.Background(), unsignedTx([]byte("msg")))

		assert.ErrorIs(t, err, ErrSubmitFailed)
	})

	t.Run("RejectsTruncatedArtifact", func(t *testing.T) {
		signer, _ := newTestSigner(t, nil)

		_, err := signer.SignAndSend(context.Background(), []byte{1, 2, 3})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "malformed transaction artifact")
	})

	t.Run("RejectsZeroSignatureSlots", func(t *testing.T) {
		signer, _ := newTestSigner(t, nil)
		tx := append([]byte{0}, []byte("message only")...)

		_, err := signer.SignAndSend(context.Background(), tx)

		assert.Error(t, err)
	})
}
