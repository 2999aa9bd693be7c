package crypto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultSealOpen(t *testing.T) {
	secret := Secret{Mnemonic: "abandon ability able", KeyType: "ed25519"}

	v, err := NewVault(secret, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, vaultVersion, v.Version)
	assert.NotContains(t, string(v.Data), "abandon")

	got, err := v.Open("correct horse")
	require.NoError(t, err)
	assert.Equal(t, secret, *got)

	_, err = v.Open("wrong horse")
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.False(t, v.ValidatePassword("wrong horse"))
}

func TestVaultSurvivesJSON(t *testing.T) {
	v, err := NewVault(Secret{Mnemonic: "m", KeyType: "ecdsa"}, "pw")
	require.NoError(t, err)

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var loaded Vault
	require.NoError(t, json.Unmarshal(raw, &loaded))

	got, err := loaded.Open("pw")
	require.NoError(t, err)
	assert.Equal(t, "ecdsa", got.KeyType)
}

func TestVaultRequiresPassword(t *testing.T) {
	_, err := NewVault(Secret{Mnemonic: "m"}, "")
	require.Error(t, err)
}
