package signer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DefaultAppName is the name dhub enables extensions with.
const DefaultAppName = "MOD"

// Raw payload types understood by SignRaw.
const (
	PayloadTypeBytes   = "bytes"
	PayloadTypePayload = "payload"
)

// InjectedExtension describes an extension that accepted Enable.
type InjectedExtension struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Account is an account exposed by an extension.
type Account struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Type    string `json:"type,omitempty"`
}

// SignerPayloadRaw is the request for a raw signature. Data is 0x-hex.
type SignerPayloadRaw struct {
	Address string `json:"address"`
	Data    string `json:"data"`
	Type    string `json:"type"`
}

// SignerResult carries the extension signature.
type SignerResult struct {
	ID        int    `json:"id"`
	Signature string `json:"signature"`
}

// RawSigner is the signing half of an injector.
type RawSigner interface {
	SignRaw(ctx context.Context, payload SignerPayloadRaw) (*SignerResult, error)
}

// Injector is what an extension hands out for one account.
type Injector struct {
	Name   string
	Signer RawSigner
}

// Extension is the contract dhub relies on from a wallet extension.
type Extension interface {
	Enable(ctx context.Context, appName string) ([]InjectedExtension, error)
	Accounts(ctx context.Context) ([]Account, error)
	FromAddress(ctx context.Context, address string) (*Injector, error)
}

// ExtensionSigner signs through an extension. Each call performs the full
// enable, resolve, sign sequence; any failing step aborts the call.
type ExtensionSigner struct {
	ext        Extension
	appName    string
	address    string
	cryptoType string
}

// NewExtensionSigner returns a signer for address behind ext.
func NewExtensionSigner(ext Extension, appName, address string) *ExtensionSigner {
	if appName == "" {
		appName = DefaultAppName
	}
	return &ExtensionSigner{ext: ext, appName: appName, address: address}
}

func (s *ExtensionSigner) Address() string { return s.address }

// SetCryptoType records the key type the extension reported for the account.
func (s *ExtensionSigner) SetCryptoType(t string) { s.cryptoType = t }

// CryptoType returns the account key type, sr25519 unless told otherwise.
func (s *ExtensionSigner) CryptoType() string {
	if s.cryptoType == "" {
		return "sr25519"
	}
	return s.cryptoType
}

// SignPayload requests a signature over a transaction signing payload.
func (s *ExtensionSigner) SignPayload(ctx context.Context, payload []byte) ([]byte, error) {
	sig, err := s.SignRaw(ctx, payload, PayloadTypePayload)
	if err != nil {
		return nil, err
	}
	return sig.Bytes()
}

// Sign requests a raw-bytes signature over message.
func (s *ExtensionSigner) Sign(ctx context.Context, message []byte) (*Signature, error) {
	return s.SignRaw(ctx, message, PayloadTypeBytes)
}

// SignRaw requests a signature over data with the given payload type.
func (s *ExtensionSigner) SignRaw(ctx context.Context, data []byte, payloadType string) (*Signature, error) {
	injector, err := s.Injector(ctx)
	if err != nil {
		return nil, err
	}

	res, err := injector.Signer.SignRaw(ctx, SignerPayloadRaw{
		Address: s.address,
		Data:    hexutil.Encode(data),
		Type:    payloadType,
	})
	if err != nil {
		return nil, fmt.Errorf("extension signing failed: %w", err)
	}
	if res == nil || res.Signature == "" {
		return nil, fmt.Errorf("extension returned an empty signature")
	}
	return &Signature{Address: s.address, Signature: res.Signature}, nil
}

// Injector enables the extension and resolves the injector for the signer
// address.
func (s *ExtensionSigner) Injector(ctx context.Context) (*Injector, error) {
	if s.ext == nil {
		return nil, ErrExtensionNotFound
	}

	extensions, err := s.ext.Enable(ctx, s.appName)
	if err != nil {
		return nil, fmt.Errorf("failed to enable extension: %w", err)
	}
	if len(extensions) == 0 {
		return nil, ErrExtensionNotFound
	}

	injector, err := s.ext.FromAddress(ctx, s.address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve signer for %s: %w", s.address, err)
	}
	if injector == nil || injector.Signer == nil {
		return nil, ErrSignerUnavailable
	}
	return injector, nil
}
