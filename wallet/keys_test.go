package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeySignDeterministic(t *testing.T) {
	for _, typ := range []KeyType{KeyTypeEd25519, KeyTypeEcdsa} {
		t.Run(string(typ), func(t *testing.T) {
			key, err := NewKeyFromString("hunter22", typ)
			require.NoError(t, err)

			msg := []byte("https://github.com/user/repo:1700000000000")
			first, err := key.Sign(msg)
			require.NoError(t, err)
			second, err := key.Sign(msg)
			require.NoError(t, err)

			assert.Equal(t, first, second)
			assert.True(t, key.Verify(msg, first))
			assert.False(t, key.Verify([]byte("other"), first))
		})
	}
}

func TestKeyFromSameSecretIsStable(t *testing.T) {
	a, err := NewKeyFromString("pw", KeyTypeEd25519)
	require.NoError(t, err)
	b, err := NewKeyFromString("pw", KeyTypeEd25519)
	require.NoError(t, err)
	c, err := NewKeyFromString("pw2", KeyTypeEd25519)
	require.NoError(t, err)

	assert.Equal(t, a.Address(), b.Address())
	assert.NotEqual(t, a.Address(), c.Address())
}

func TestDeriveClientKey(t *testing.T) {
	account, err := NewKeyFromString("extension account", KeyTypeEd25519)
	require.NoError(t, err)

	derived, err := DeriveClientKey(account.Address(), KeyTypeEd25519)
	require.NoError(t, err)
	direct, err := NewKeyFromString(account.Address()+"//mod//client", KeyTypeEd25519)
	require.NoError(t, err)

	assert.Equal(t, direct.Address(), derived.Address())
	assert.NotEqual(t, account.Address(), derived.Address())
}

func TestNewKeyFromMnemonic(t *testing.T) {
	const phrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	a, err := NewKeyFromMnemonic(phrase, KeyTypeEd25519)
	require.NoError(t, err)
	b, err := NewKeyFromMnemonic(phrase, KeyTypeEd25519)
	require.NoError(t, err)
	assert.Equal(t, a.Address(), b.Address())

	_, err = NewKeyFromMnemonic("not a real phrase", KeyTypeEd25519)
	assert.Error(t, err)
}

func TestEcdsaAccountIDIsHashed(t *testing.T) {
	key, err := NewKeyFromString("pw", KeyTypeEcdsa)
	require.NoError(t, err)

	assert.Len(t, key.PublicKey(), 33)
	id := key.AccountID()
	assert.NotEqual(t, key.PublicKey()[:32], id[:])
}

func TestParseKeyType(t *testing.T) {
	typ, err := ParseKeyType("sr25519")
	require.NoError(t, err)
	assert.Equal(t, KeyTypeEd25519, typ)

	typ, err = ParseKeyType("ECDSA")
	require.NoError(t, err)
	assert.Equal(t, KeyTypeEcdsa, typ)

	_, err = ParseKeyType("rsa")
	assert.Error(t, err)
}

func TestSS58RoundTrip(t *testing.T) {
	key, err := NewKeyFromString("roundtrip", KeyTypeEd25519)
	require.NoError(t, err)
	id := key.AccountID()

	for _, prefix := range []uint16{0, 2, 42, 63, 64, 1284, 16383} {
		addr := SS58Encode(id[:], prefix)
		gotPrefix, gotID, err := SS58Decode(addr)
		require.NoError(t, err, "prefix %d", prefix)
		assert.Equal(t, prefix, gotPrefix)
		assert.Equal(t, id[:], gotID)
	}
}

func TestSS58KnownAddress(t *testing.T) {
	// Alice's well-known development account.
	const alice = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	prefix, id, err := SS58Decode(alice)
	require.NoError(t, err)
	assert.Equal(t, DefaultSS58Prefix, prefix)
	assert.Equal(t, alice, SS58Encode(id, prefix))
}

func TestSS58RejectsBadChecksum(t *testing.T) {
	const alice = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	bad := alice[:len(alice)-1] + "Z"
	assert.False(t, IsValidAddress(bad))
	assert.False(t, IsValidAddress("not-an-address"))
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "5GrwvaEF...GKutQY", ShortAddress("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"))
	assert.Equal(t, "short", ShortAddress("short"))
}
