package wallet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInLocalWithoutVault(t *testing.T) {
	m := NewManager(t.TempDir())

	_, err := m.SignInLocal("")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	key, err := m.SignInLocal("secret")
	require.NoError(t, err)

	expected, err := NewKeyFromString("secret", DefaultKeyType)
	require.NoError(t, err)
	assert.Equal(t, expected.Address(), key.Address())

	st, err := m.State().Load()
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, st.WalletMode)
	assert.Equal(t, key.Address(), st.WalletAddress)

	// a fresh manager picks the key up from the session file
	again := NewManager(m.Home())
	loaded, err := again.LocalKey()
	require.NoError(t, err)
	assert.Equal(t, key.Address(), loaded.Address())
}

func TestSignInLocalWithVault(t *testing.T) {
	m := NewManager(t.TempDir())

	mnemonic, err := m.Initialize("vault-pw", KeyTypeEd25519)
	require.NoError(t, err)
	assert.True(t, m.VaultExists())

	_, err = m.Initialize("vault-pw", KeyTypeEd25519)
	assert.ErrorIs(t, err, ErrVaultExists)

	_, err = m.SignInLocal("wrong")
	require.Error(t, err)

	key, err := m.SignInLocal("vault-pw")
	require.NoError(t, err)

	expected, err := NewKeyFromMnemonic(mnemonic, KeyTypeEd25519)
	require.NoError(t, err)
	assert.Equal(t, expected.Address(), key.Address())
}

func TestUnlockVaultHasNoSession(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Initialize("vault-pw", KeyTypeEcdsa)
	require.NoError(t, err)

	_, err = m.UnlockVault("")
	assert.ErrorIs(t, err, ErrPasswordRequired)
	_, err = m.UnlockVault("wrong")
	assert.Error(t, err)

	phrase, err := m.RecoveryPhrase("vault-pw")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(phrase), 24)

	key, err := m.UnlockVault("vault-pw")
	require.NoError(t, err)
	assert.Equal(t, KeyTypeEcdsa, key.Type())
	assert.False(t, m.IsSignedIn())

	st, err := m.State().Load()
	require.NoError(t, err)
	assert.Empty(t, st.WalletAddress)
}

func TestSignInExtensionPersistsWalletKeys(t *testing.T) {
	m := NewManager(t.TempDir())

	_, err := m.SignInExtension("", "sr25519")
	assert.ErrorIs(t, err, ErrAccountRequired)

	const account = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	key, err := m.SignInExtension(account, "")
	require.NoError(t, err)

	st, err := m.State().Load()
	require.NoError(t, err)
	assert.Equal(t, State{WalletMode: ModeSubwallet, WalletAddress: account, WalletType: "sr25519"}, st)

	// the derived key survives a lost session because it is recomputable
	require.NoError(t, os.Remove(filepath.Join(m.Home(), "session.json")))
	again := NewManager(m.Home())
	loaded, err := again.LocalKey()
	require.NoError(t, err)
	assert.Equal(t, key.Address(), loaded.Address())
}

func TestSessionExpires(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.SignInLocal("pw")
	require.NoError(t, err)

	later := NewManager(m.Home())
	later.now = func() time.Time { return time.Now().Add(SessionDuration*time.Minute + time.Second) }
	_, err = later.LocalKey()
	assert.ErrorIs(t, err, ErrWalletLocked)
}

func TestSignOutClearsWalletButKeepsBackend(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.State().SetBackend("localhost:8000")
	require.NoError(t, err)
	_, err = m.SignInLocal("pw")
	require.NoError(t, err)

	require.NoError(t, m.SignOut())
	assert.False(t, m.IsSignedIn())

	st, err := m.State().Load()
	require.NoError(t, err)
	assert.Equal(t, State{BackendEndpoint: "http://localhost:8000"}, st)
}

func TestFormatEndpoint(t *testing.T) {
	got, err := FormatEndpoint(" localhost:8000 ")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", got)

	got, err = FormatEndpoint("https://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", got)

	_, err = FormatEndpoint("   ")
	assert.Error(t, err)
}

func TestStateStoreMissingFile(t *testing.T) {
	s := NewStateStore(t.TempDir())
	st, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, State{}, st)

	require.NoError(t, s.ResetBackend())
	_, err = os.Stat(s.Path())
	assert.NoError(t, err)
}
