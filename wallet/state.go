package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Wallet modes persisted in the state file.
const (
	ModeLocal     = "local"
	ModeSubwallet = "subwallet"
)

// State is the small set of client settings that survive between
// invocations: which wallet is connected and which backend to talk to.
type State struct {
	WalletMode      string `json:"wallet_mode,omitempty"`
	WalletAddress   string `json:"wallet_address,omitempty"`
	WalletType      string `json:"wallet_type,omitempty"`
	BackendEndpoint string `json:"backend_endpoint,omitempty"`
}

// IsSubwallet reports whether an extension account is connected.
func (s State) IsSubwallet() bool {
	return s.WalletMode == ModeSubwallet && s.WalletAddress != ""
}

// IsLocal reports whether the local key mode is active.
func (s State) IsLocal() bool {
	return s.WalletMode == ModeLocal
}

// StateStore reads and writes State as JSON under the dhub home directory.
type StateStore struct {
	path string
}

// NewStateStore returns a store rooted at home.
func NewStateStore(home string) *StateStore {
	return &StateStore{path: filepath.Join(home, "state.json")}
}

// Path returns the location of the state file.
func (s *StateStore) Path() string { return s.path }

// Load returns the stored state; a missing file yields the zero State.
func (s *StateStore) Load() (State, error) {
	var st State
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("failed to read state file: %w", err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to parse state file: %w", err)
	}
	return st, nil
}

// Save writes st atomically with owner-only permissions.
func (s *StateStore) Save(st State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Update loads the state, applies fn and saves the result.
func (s *StateStore) Update(fn func(*State)) (State, error) {
	st, err := s.Load()
	if err != nil {
		return st, err
	}
	fn(&st)
	return st, s.Save(st)
}

// SetWallet records the connected wallet.
func (s *StateStore) SetWallet(mode, address, keyType string) error {
	_, err := s.Update(func(st *State) {
		st.WalletMode = mode
		st.WalletAddress = address
		st.WalletType = keyType
	})
	return err
}

// ClearWallet forgets the connected wallet but keeps the backend override.
func (s *StateStore) ClearWallet() error {
	_, err := s.Update(func(st *State) {
		st.WalletMode = ""
		st.WalletAddress = ""
		st.WalletType = ""
	})
	return err
}

// SetBackend stores a backend endpoint override. An endpoint without a
// scheme is assumed to be plain http. Blank input is rejected.
func (s *StateStore) SetBackend(endpoint string) (string, error) {
	formatted, err := FormatEndpoint(endpoint)
	if err != nil {
		return "", err
	}
	_, err = s.Update(func(st *State) { st.BackendEndpoint = formatted })
	return formatted, err
}

// ResetBackend removes the backend endpoint override.
func (s *StateStore) ResetBackend() error {
	_, err := s.Update(func(st *State) { st.BackendEndpoint = "" })
	return err
}

// FormatEndpoint trims the endpoint and prefixes http:// when no scheme is given.
func FormatEndpoint(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", fmt.Errorf("endpoint is empty")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	return strings.TrimRight(endpoint, "/"), nil
}
