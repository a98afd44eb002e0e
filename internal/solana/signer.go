package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrSubmitFailed marks errors raised while submitting an already signed
// transaction, as opposed to failures of signing itself.
var ErrSubmitFailed = errors.New("transaction submission failed")

// Signer signs a serialized transaction artifact and submits it to the
// network, returning the transaction signature. It must be supplied by the
// caller; the trading core never embeds a signing identity.
type Signer interface {
	SignAndSend(ctx context.Context, transaction []byte) (string, error)
	PublicKey() string
}

// TransactionSender is the subset of the RPC surface the keypair signer
// needs to submit a signed transaction.
type TransactionSender interface {
	SendTransaction(ctx context.Context, txBase64 string) (string, error)
}

// KeypairSigner signs transactions with a local ed25519 keypair.
type KeypairSigner struct {
	key    ed25519.PrivateKey
	pubKey string
	sender TransactionSender
}

var _ Signer = (*KeypairSigner)(nil)

// NewKeypairSigner builds a signer from a base64-encoded 64-byte ed25519
// keypair (the standard Solana secret key export format).
func NewKeypairSigner(base64Key string, pubKeyBase58 string, sender TransactionSender) (*KeypairSigner, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("invalid signing key encoding: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("signing key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return &KeypairSigner{
		key:    ed25519.PrivateKey(raw),
		pubKey: pubKeyBase58,
		sender: sender,
	}, nil
}

// PublicKey returns the signer's base58 wallet address.
func (s *KeypairSigner) PublicKey() string {
	return s.pubKey
}

// SignAndSend fills the transaction's fee-payer signature slot, reassembles
// the wire form, and submits it. The transaction layout is a compact-u16
// signature count, that many 64-byte signatures, then the message bytes that
// get signed.
func (s *KeypairSigner) SignAndSend(ctx context.Context, transaction []byte) (string, error) {
	numSigs, offset, err := decodeCompactU16(transaction)
	if err != nil {
		return "", fmt.Errorf("malformed transaction artifact: %w", err)
	}
	sigBytes := numSigs * ed25519.SignatureSize
	if numSigs < 1 || len(transaction) < offset+sigBytes {
		return "", fmt.Errorf("malformed transaction artifact: %d signature slots in %d bytes", numSigs, len(transaction))
	}

	message := transaction[offset+sigBytes:]
	signature := ed25519.Sign(s.key, message)

	signed := make([]byte, len(transaction))
	copy(signed, transaction)
	copy(signed[offset:], signature) // fee payer occupies the first slot

	sig, err := s.sender.SendTransaction(ctx, base64.StdEncoding.EncodeToString(signed))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	return sig, nil
}

// decodeCompactU16 decodes the compact-u16 length prefix used by the Solana
// wire format, returning the value and the number of bytes consumed.
func decodeCompactU16(b []byte) (int, int, error) {
	var value, shift uint
	for i := 0; i < 3; i++ {
		if i >= len(b) {
			return 0, 0, errors.New("truncated compact-u16")
		}
		value |= uint(b[i]&0x7f) << shift
		if b[i]&0x80 == 0 {
			return int(value), i + 1, nil
		}
		shift += 7
	}
	return 0, 0, errors.New("compact-u16 too long")
}
