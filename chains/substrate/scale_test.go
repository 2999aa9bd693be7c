package substrate

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactEncoding(t *testing.T) {
	planck, _ := new(big.Int).SetString("1000000000000", 10)
	cases := []struct {
		v   *big.Int
		hex string
	}{
		{big.NewInt(0), "00"},
		{big.NewInt(1), "04"},
		{big.NewInt(42), "a8"},
		{big.NewInt(63), "fc"},
		{big.NewInt(64), "0101"},
		{big.NewInt(16383), "fdff"},
		{big.NewInt(16384), "02000100"},
		{big.NewInt(1<<30 - 1), "feffffff"},
		{big.NewInt(1 << 30), "0300000040"},
		{planck, "070010a5d4e8"},
	}
	for _, tc := range cases {
		enc, err := EncodeCompact(tc.v)
		require.NoError(t, err)
		assert.Equal(t, tc.hex, hex.EncodeToString(enc), tc.v.String())

		dec, n, err := DecodeCompact(append(enc, 0xff))
		require.NoError(t, err)
		assert.Equal(t, len(enc), n)
		assert.Equal(t, 0, tc.v.Cmp(dec), tc.v.String())
	}

	_, err := EncodeCompact(big.NewInt(-1))
	assert.Error(t, err)
	_, _, err = DecodeCompact(nil)
	assert.Error(t, err)
	_, _, err = DecodeCompact([]byte{0x01})
	assert.Error(t, err)
}

func TestLengthPrefix(t *testing.T) {
	body := make([]byte, 70)
	enc, err := EncodeLengthPrefixed(body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x19, 0x01}, enc[:2])

	dec, err := DecodeLengthPrefixed(enc)
	require.NoError(t, err)
	assert.Equal(t, body, dec)
}

func TestAccountInfoRoundTrip(t *testing.T) {
	info := &AccountInfo{
		Nonce:     7,
		Providers: 1,
		Free:      big.NewInt(5_000_000_000_000),
		Reserved:  big.NewInt(10),
		Frozen:    big.NewInt(1_000_000_000_000),
		Flags:     new(big.Int),
	}
	enc := info.Encode()
	require.Len(t, enc, 80)

	dec, err := DecodeAccountInfo(enc)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), dec.Nonce)
	assert.Equal(t, "5000000000000", dec.Free.String())
	assert.Equal(t, "4000000000000", dec.Transferable().String())

	_, err = DecodeAccountInfo(enc[:40])
	assert.Error(t, err)
}
