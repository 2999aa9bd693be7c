// Package signer gives every part of dhub one way to sign a message,
// whether the key lives in the client or behind an extension.
package signer

import (
	"context"
	"errors"

	"github.com/chinmay1088/dhub/chains/substrate"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrNoSigner          = errors.New("No signing method available. Please connect SubWallet or sign in with Local Key first.")
	ErrNoLocalKey        = errors.New("Local key not found. Please sign in with Local Key.")
	ErrExtensionNotFound = errors.New("SubWallet not found. Please install it.")
	ErrSignerUnavailable = errors.New("SubWallet signing not available")
)

// Signature is what a signer hands back: the signing address and the
// 0x-prefixed hex signature.
type Signature struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
}

// Bytes decodes the hex signature.
func (s Signature) Bytes() ([]byte, error) {
	return hexutil.Decode(s.Signature)
}

// Signer produces signatures for a single address.
type Signer interface {
	Address() string
	Sign(ctx context.Context, message []byte) (*Signature, error)
}

// PayloadSigner signs chain transaction payloads. The payload is passed
// unhashed; implementations apply the long-payload hashing rule.
type PayloadSigner interface {
	Address() string
	CryptoType() string
	SignPayload(ctx context.Context, payload []byte) ([]byte, error)
}

// Local signs with an in-memory client key.
type Local struct {
	key *wallet.Key
}

// NewLocal wraps key. A nil key yields ErrNoLocalKey on use.
func NewLocal(key *wallet.Key) *Local {
	return &Local{key: key}
}

func (l *Local) Address() string {
	if l.key == nil {
		return ""
	}
	return l.key.Address()
}

// Key returns the wrapped key.
func (l *Local) Key() *wallet.Key { return l.key }

// CryptoType returns the key type name.
func (l *Local) CryptoType() string {
	if l.key == nil {
		return ""
	}
	return string(l.key.Type())
}

// SignPayload signs a transaction payload, hashing it first when long.
func (l *Local) SignPayload(_ context.Context, payload []byte) ([]byte, error) {
	if l.key == nil {
		return nil, ErrNoLocalKey
	}
	return l.key.Sign(substrate.HashIfLong(payload))
}

func (l *Local) Sign(_ context.Context, message []byte) (*Signature, error) {
	if l.key == nil {
		return nil, ErrNoLocalKey
	}
	sig, err := l.key.Sign(message)
	if err != nil {
		return nil, err
	}
	return &Signature{Address: l.key.Address(), Signature: hexutil.Encode(sig)}, nil
}

// Resolve picks the signer for the current wallet state: the extension when
// an extension account is connected, the local key in local mode, and
// ErrNoSigner otherwise.
func Resolve(st wallet.State, local *wallet.Key, ext Extension, appName string) (Signer, error) {
	switch {
	case st.IsSubwallet():
		if ext == nil {
			return nil, ErrExtensionNotFound
		}
		s := NewExtensionSigner(ext, appName, st.WalletAddress)
		s.SetCryptoType(st.WalletType)
		return s, nil
	case st.IsLocal():
		if local == nil {
			return nil, ErrNoLocalKey
		}
		return NewLocal(local), nil
	default:
		return nil, ErrNoSigner
	}
}
