package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chinmay1088/dhub/crypto"
	"github.com/tyler-smith/go-bip39"
)

const (
	// Session duration in minutes
	SessionDuration = 30

	homeEnv = "DHUB_HOME"
)

var (
	ErrWalletLocked     = errors.New("wallet is locked")
	ErrPasswordRequired = errors.New("Password is required")
	ErrAccountRequired  = errors.New("Please select an account")
	ErrVaultExists      = errors.New("wallet already exists")
)

// SessionData holds the signed-in client key between invocations.
type SessionData struct {
	Token      string    `json:"token"`
	Seed       string    `json:"seed"`
	KeyType    KeyType   `json:"key_type"`
	Mode       string    `json:"mode"`
	Expiration time.Time `json:"expiration"`
}

// Manager handles sign-in, the encrypted vault and the client key session.
type Manager struct {
	home        string
	vaultPath   string
	sessionPath string
	state       *StateStore

	mu  sync.RWMutex
	key *Key
	now func() time.Time
}

// DefaultHome returns $DHUB_HOME or ~/.dhub.
func DefaultHome() (string, error) {
	if h := os.Getenv(homeEnv); h != "" {
		return h, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".dhub"), nil
}

// NewManager creates a wallet manager storing its files under home.
func NewManager(home string) *Manager {
	return &Manager{
		home:        home,
		vaultPath:   filepath.Join(home, "wallet.vault"),
		sessionPath: filepath.Join(home, "session.json"),
		state:       NewStateStore(home),
		now:         time.Now,
	}
}

// State returns the persisted client state store.
func (m *Manager) State() *StateStore { return m.state }

// Home returns the directory holding the wallet files.
func (m *Manager) Home() string { return m.home }

// VaultExists checks if a vault file exists
func (m *Manager) VaultExists() bool {
	_, err := os.Stat(m.vaultPath)
	return err == nil
}

// Initialize creates the encrypted vault with a fresh 24-word mnemonic and
// returns the mnemonic so it can be shown once.
func (m *Manager) Initialize(password string, typ KeyType) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.VaultExists() {
		return "", ErrVaultExists
	}
	if password == "" {
		return "", ErrPasswordRequired
	}

	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}

	if err := m.writeVault(mnemonic, password, typ); err != nil {
		return "", err
	}
	return mnemonic, nil
}

// Import creates the vault from an existing recovery phrase.
func (m *Manager) Import(mnemonic, password string, typ KeyType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.VaultExists() {
		return ErrVaultExists
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return fmt.Errorf("invalid recovery phrase")
	}
	return m.writeVault(mnemonic, password, typ)
}

func (m *Manager) writeVault(mnemonic, password string, typ KeyType) error {
	vault, err := crypto.NewVault(crypto.Secret{Mnemonic: mnemonic, KeyType: string(typ)}, password)
	if err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}
	if err := os.MkdirAll(m.home, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.Marshal(vault)
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}
	if err := os.WriteFile(m.vaultPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write vault file: %w", err)
	}
	return nil
}

func (m *Manager) loadVault() (*crypto.Vault, error) {
	data, err := os.ReadFile(m.vaultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault file: %w", err)
	}
	var vault crypto.Vault
	if err := json.Unmarshal(data, &vault); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault: %w", err)
	}
	return &vault, nil
}

// SignInLocal signs in with a password. When a vault exists the password
// unlocks it and the key derives from the recovery phrase; otherwise the key
// derives from the password itself.
func (m *Manager) SignInLocal(password string) (*Key, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		key *Key
		err error
	)
	if m.VaultExists() {
		key, err = m.unlockVault(password)
		if err != nil {
			return nil, err
		}
	} else {
		key, err = NewKeyFromString(password, DefaultKeyType)
		if err != nil {
			return nil, fmt.Errorf("failed to derive local key: %w", err)
		}
	}

	if err := m.createSession(key, ModeLocal); err != nil {
		return nil, err
	}
	if err := m.state.SetWallet(ModeLocal, key.Address(), string(key.Type())); err != nil {
		return nil, err
	}
	m.key = key
	return key, nil
}

// UnlockVault returns the vault key without starting a session.
func (m *Manager) UnlockVault(password string) (*Key, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unlockVault(password)
}

// RecoveryPhrase decrypts the vault and returns its mnemonic.
func (m *Manager) RecoveryPhrase(password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	vault, err := m.loadVault()
	if err != nil {
		return "", err
	}
	secret, err := vault.Open(password)
	if err != nil {
		return "", fmt.Errorf("failed to unlock wallet: %w", err)
	}
	return secret.Mnemonic, nil
}

func (m *Manager) unlockVault(password string) (*Key, error) {
	vault, err := m.loadVault()
	if err != nil {
		return nil, err
	}
	secret, err := vault.Open(password)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock wallet: %w", err)
	}
	typ, err := ParseKeyType(secret.KeyType)
	if err != nil {
		return nil, err
	}
	key, err := NewKeyFromMnemonic(secret.Mnemonic, typ)
	if err != nil {
		return nil, fmt.Errorf("failed to derive local key: %w", err)
	}
	return key, nil
}

// SignInExtension connects an extension account and derives the client key
// bound to it, so backend calls do not need an extension prompt each time.
func (m *Manager) SignInExtension(address, accountType string) (*Key, error) {
	if address == "" {
		return nil, ErrAccountRequired
	}
	if accountType == "" {
		accountType = "sr25519"
	}
	typ, err := ParseKeyType(accountType)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := DeriveClientKey(address, typ)
	if err != nil {
		return nil, fmt.Errorf("failed to derive client key: %w", err)
	}
	if err := m.createSession(key, ModeSubwallet); err != nil {
		return nil, err
	}
	if err := m.state.SetWallet(ModeSubwallet, address, accountType); err != nil {
		return nil, err
	}
	m.key = key
	return key, nil
}

// SignOut drops the session and forgets the connected wallet.
func (m *Manager) SignOut() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.key = nil
	if err := os.Remove(m.sessionPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return m.state.ClearWallet()
}

// LocalKey returns the signed-in client key. An expired session for an
// extension account is re-derived from the stored address.
func (m *Manager) LocalKey() (*Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key != nil {
		return m.key, nil
	}
	if key, ok := m.loadSession(); ok {
		m.key = key
		return key, nil
	}

	st, err := m.state.Load()
	if err != nil {
		return nil, err
	}
	if st.IsSubwallet() {
		typ, err := ParseKeyType(st.WalletType)
		if err != nil {
			return nil, err
		}
		key, err := DeriveClientKey(st.WalletAddress, typ)
		if err != nil {
			return nil, err
		}
		m.key = key
		return key, nil
	}
	return nil, ErrWalletLocked
}

// IsSignedIn reports whether a client key is available.
func (m *Manager) IsSignedIn() bool {
	_, err := m.LocalKey()
	return err == nil
}

func generateSessionToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}

func (m *Manager) createSession(key *Key, mode string) error {
	token, err := generateSessionToken()
	if err != nil {
		return fmt.Errorf("failed to generate session token: %w", err)
	}

	session := SessionData{
		Token:      token,
		Seed:       hex.EncodeToString(key.Seed()),
		KeyType:    key.Type(),
		Mode:       mode,
		Expiration: m.now().Add(SessionDuration * time.Minute),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.MkdirAll(m.home, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(m.sessionPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (m *Manager) loadSession() (*Key, bool) {
	data, err := os.ReadFile(m.sessionPath)
	if err != nil {
		return nil, false
	}

	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		os.Remove(m.sessionPath)
		return nil, false
	}
	if m.now().After(session.Expiration) {
		os.Remove(m.sessionPath)
		return nil, false
	}

	seed, err := hex.DecodeString(session.Seed)
	if err != nil {
		os.Remove(m.sessionPath)
		return nil, false
	}
	key, err := NewKeyFromSeed(seed, session.KeyType)
	if err != nil {
		return nil, false
	}
	return key, true
}
