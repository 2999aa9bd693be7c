package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/chinmay1088/dhub/signer"
	"github.com/chinmay1088/dhub/wallet"
)

// SignIn connects a wallet: a local key or an extension account.
type SignIn struct {
	guard
	manager *wallet.Manager
	ext     signer.Extension
	appName string
}

// NewSignIn returns a sign-in flow. ext may be nil when no extension is
// available.
func NewSignIn(manager *wallet.Manager, ext signer.Extension, appName string) *SignIn {
	if appName == "" {
		appName = signer.DefaultAppName
	}
	return &SignIn{manager: manager, ext: ext, appName: appName}
}

// Local signs in with a password.
func (s *SignIn) Local(password string) (*wallet.Key, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()
	return s.manager.SignInLocal(password)
}

// Accounts enables the extension and lists its accounts.
func (s *SignIn) Accounts(ctx context.Context) ([]signer.Account, error) {
	if s.ext == nil {
		return nil, signer.ErrExtensionNotFound
	}
	extensions, err := s.ext.Enable(ctx, s.appName)
	if err != nil {
		return nil, fmt.Errorf("failed to enable extension: %w", err)
	}
	if len(extensions) == 0 {
		return nil, signer.ErrExtensionNotFound
	}
	accounts, err := s.ext.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts found in extension")
	}
	return accounts, nil
}

// Extension signs in with an extension account and derives its client key.
func (s *SignIn) Extension(ctx context.Context, address string) (*wallet.Key, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	address = strings.TrimSpace(address)
	if address == "" {
		return nil, wallet.ErrAccountRequired
	}
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, acc := range accounts {
		if acc.Address == address {
			return s.manager.SignInExtension(acc.Address, acc.Type)
		}
	}
	return nil, fmt.Errorf("account %s is not available in the extension", wallet.ShortAddress(address))
}

// SignOut disconnects the wallet.
func (s *SignIn) SignOut() error {
	return s.manager.SignOut()
}
