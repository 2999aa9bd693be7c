package signer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chinmay1088/dhub/chains/substrate"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrNotEnabled     = errors.New("extension has not been enabled")
	ErrUnknownAccount = errors.New("account is not managed by this extension")
	ErrRejected       = errors.New("Cancelled by user")
)

var (
	bytesPrefix = []byte("<Bytes>")
	bytesSuffix = []byte("</Bytes>")
)

// WrapBytes returns msg wrapped the way extensions wrap raw-bytes requests
// before signing, so a signed message can never be a valid transaction.
func WrapBytes(msg []byte) []byte {
	out := make([]byte, 0, len(bytesPrefix)+len(msg)+len(bytesSuffix))
	out = append(out, bytesPrefix...)
	out = append(out, msg...)
	return append(out, bytesSuffix...)
}

// SigningMessage returns the exact bytes a keyring signs for a raw request.
func SigningMessage(payload SignerPayloadRaw) ([]byte, error) {
	data, err := hexutil.Decode(payload.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	switch payload.Type {
	case PayloadTypeBytes, "":
		return WrapBytes(data), nil
	case PayloadTypePayload:
		return substrate.HashIfLong(data), nil
	default:
		return nil, fmt.Errorf("unsupported payload type: %s", payload.Type)
	}
}

// Approver decides whether a signing request may proceed.
type Approver func(ctx context.Context, account Account, payload SignerPayloadRaw) bool

// Keyring is an Extension backed by keys held in memory. The signing agent
// serves one over HTTP; tests use it directly.
type Keyring struct {
	name    string
	version string
	approve Approver

	mu       sync.RWMutex
	enabled  map[string]bool
	accounts []Account
	keys     map[string]*wallet.Key
	nextID   int
}

// NewKeyring returns an empty keyring reporting the given extension name.
func NewKeyring(name, version string) *Keyring {
	return &Keyring{
		name:    name,
		version: version,
		enabled: make(map[string]bool),
		keys:    make(map[string]*wallet.Key),
	}
}

// SetApprover installs a hook consulted before each signature.
func (k *Keyring) SetApprover(a Approver) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.approve = a
}

// Add registers key under a display name and returns its account.
func (k *Keyring) Add(name string, key *wallet.Key) Account {
	k.mu.Lock()
	defer k.mu.Unlock()

	acc := Account{Address: key.Address(), Name: name, Type: string(key.Type())}
	if _, ok := k.keys[acc.Address]; !ok {
		k.accounts = append(k.accounts, acc)
	}
	k.keys[acc.Address] = key
	return acc
}

// Enable authorizes appName and returns this extension.
func (k *Keyring) Enable(_ context.Context, appName string) ([]InjectedExtension, error) {
	if appName == "" {
		return nil, fmt.Errorf("app name is required")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.enabled[appName] = true
	return []InjectedExtension{{Name: k.name, Version: k.version}}, nil
}

// IsEnabled reports whether appName has been enabled.
func (k *Keyring) IsEnabled(appName string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.enabled[appName]
}

func (k *Keyring) anyEnabled() bool {
	for _, ok := range k.enabled {
		if ok {
			return true
		}
	}
	return false
}

// Accounts lists the managed accounts. The keyring must be enabled first.
func (k *Keyring) Accounts(_ context.Context) ([]Account, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.anyEnabled() {
		return nil, ErrNotEnabled
	}
	out := make([]Account, len(k.accounts))
	copy(out, k.accounts)
	return out, nil
}

// FromAddress returns an injector for a managed account.
func (k *Keyring) FromAddress(_ context.Context, address string) (*Injector, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.anyEnabled() {
		return nil, ErrNotEnabled
	}
	if _, ok := k.keys[address]; !ok {
		return nil, fmt.Errorf("Unable to find injected %s: %w", address, ErrUnknownAccount)
	}
	return &Injector{Name: k.name, Signer: k}, nil
}

// SignRaw signs a raw payload for one of the managed accounts.
func (k *Keyring) SignRaw(ctx context.Context, payload SignerPayloadRaw) (*SignerResult, error) {
	k.mu.RLock()
	key, ok := k.keys[payload.Address]
	approve := k.approve
	var account Account
	for _, a := range k.accounts {
		if a.Address == payload.Address {
			account = a
		}
	}
	k.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownAccount
	}

	msg, err := SigningMessage(payload)
	if err != nil {
		return nil, err
	}
	if approve != nil && !approve(ctx, account, payload) {
		return nil, ErrRejected
	}

	sig, err := key.Sign(msg)
	if err != nil {
		return nil, err
	}

	k.mu.Lock()
	k.nextID++
	id := k.nextID
	k.mu.Unlock()

	return &SignerResult{ID: id, Signature: hexutil.Encode(sig)}, nil
}
