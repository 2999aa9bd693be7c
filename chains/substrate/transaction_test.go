package substrate

import (
	"math/big"
	"testing"

	"github.com/chinmay1088/dhub/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(t *testing.T, key *wallet.Key) *Transaction {
	t.Helper()
	var dest [32]byte
	dest[0] = 0xaa
	call, err := EncodeTransferCall(DefaultBalancesPallet, DefaultTransferKeepAlive, dest, big.NewInt(1_000_000_000_000))
	require.NoError(t, err)
	return &Transaction{
		Call:        call,
		Signer:      key.AccountID(),
		Nonce:       3,
		SpecVersion: 100,
		TxVersion:   1,
		GenesisHash: common.HexToHash("0x01"),
	}
}

func TestTransferCallLayout(t *testing.T) {
	var dest [32]byte
	dest[31] = 1
	call, err := EncodeTransferCall(6, 3, dest, big.NewInt(64))
	require.NoError(t, err)
	assert.Equal(t, []byte{6, 3, 0}, call[:3])
	assert.Equal(t, dest[:], call[3:35])
	assert.Equal(t, []byte{0x01, 0x01}, call[35:])

	p, i, d, amount, err := DecodeTransferCall(call)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), p)
	assert.Equal(t, uint8(3), i)
	assert.Equal(t, dest, d)
	assert.Equal(t, int64(64), amount.Int64())
}

func TestSigningPayload(t *testing.T) {
	key, err := wallet.NewKeyFromString("alice", wallet.KeyTypeEd25519)
	require.NoError(t, err)
	tx := newTestTransaction(t, key)

	payload := tx.Payload()
	// call(41) + era(1) + nonce(1) + tip(1) + spec(4) + tx(4) + genesis(32) + block(32)
	assert.Len(t, payload, 41+3+8+64)
	assert.Equal(t, payload, tx.SigningPayload())

	long := make([]byte, 300)
	assert.Len(t, HashIfLong(long), 32)

	tx.MetadataHashCheck = true
	assert.Len(t, tx.Payload(), 41+4+8+64+1)
}

func TestBuildSignedRoundTrip(t *testing.T) {
	for _, typ := range []wallet.KeyType{wallet.KeyTypeEd25519, wallet.KeyTypeEcdsa} {
		key, err := wallet.NewKeyFromString("bob", typ)
		require.NoError(t, err)
		tx := newTestTransaction(t, key)

		sig, err := key.Sign(tx.SigningPayload())
		require.NoError(t, err)
		ext, err := tx.BuildSigned(string(typ), sig)
		require.NoError(t, err)

		dec, err := DecodeSignedExtrinsic(ext, false)
		require.NoError(t, err)
		assert.Equal(t, key.AccountID(), dec.Signer)
		assert.Equal(t, uint64(3), dec.Nonce)
		assert.Equal(t, tx.Call, dec.Call)
		assert.True(t, key.Verify(tx.SigningPayload(), dec.Signature), typ)

		assert.Equal(t, TxHash(ext), TxHash(append([]byte(nil), ext...)))
	}
}

func TestBuildSignedRejectsBadSignature(t *testing.T) {
	key, err := wallet.NewKeyFromString("carol", wallet.KeyTypeEd25519)
	require.NoError(t, err)
	tx := newTestTransaction(t, key)

	_, err = tx.BuildSigned("ed25519", make([]byte, 10))
	assert.Error(t, err)
	_, err = tx.BuildSigned("rsa", make([]byte, 64))
	assert.Error(t, err)

	tag, err := MultiSignatureTag("")
	require.NoError(t, err)
	assert.Equal(t, SigSr25519, tag)
}
