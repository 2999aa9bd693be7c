package substrate

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/spacemeshos/go-scale"
)

// maxExtrinsicSize caps the length prefix of an encoded extrinsic.
const maxExtrinsicSize = 5 * 1024 * 1024

var (
	compactOneByte  = big.NewInt(1 << 6)
	compactTwoByte  = big.NewInt(1 << 14)
	compactFourByte = big.NewInt(1 << 30)
)

// EncodeCompact returns the SCALE compact encoding of a non-negative integer.
func EncodeCompact(v *big.Int) ([]byte, error) {
	if v == nil || v.Sign() < 0 {
		return nil, fmt.Errorf("compact value must be non-negative")
	}
	switch {
	case v.Cmp(compactOneByte) < 0:
		return []byte{byte(v.Uint64() << 2)}, nil
	case v.Cmp(compactTwoByte) < 0:
		out := make([]byte, 2)
		binary.LittleEndian.PutUint16(out, uint16(v.Uint64()<<2)|0b01)
		return out, nil
	case v.Cmp(compactFourByte) < 0:
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, uint32(v.Uint64()<<2)|0b10)
		return out, nil
	}

	le := reverse(v.Bytes())
	for len(le) < 4 {
		le = append(le, 0)
	}
	if len(le) > 67 {
		return nil, fmt.Errorf("compact value too large")
	}
	return append([]byte{byte((len(le)-4)<<2) | 0b11}, le...), nil
}

// EncodeCompactUint64 is EncodeCompact for machine integers.
func EncodeCompactUint64(v uint64) []byte {
	out, _ := EncodeCompact(new(big.Int).SetUint64(v))
	return out
}

// DecodeCompact reads a compact integer from the front of data and returns it
// together with the number of bytes consumed.
func DecodeCompact(data []byte) (*big.Int, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("compact: empty input")
	}
	switch data[0] & 0b11 {
	case 0b00:
		return big.NewInt(int64(data[0] >> 2)), 1, nil
	case 0b01:
		if len(data) < 2 {
			return nil, 0, fmt.Errorf("compact: short two-byte value")
		}
		return big.NewInt(int64(binary.LittleEndian.Uint16(data) >> 2)), 2, nil
	case 0b10:
		if len(data) < 4 {
			return nil, 0, fmt.Errorf("compact: short four-byte value")
		}
		return big.NewInt(int64(binary.LittleEndian.Uint32(data) >> 2)), 4, nil
	default:
		n := int(data[0]>>2) + 4
		if len(data) < 1+n {
			return nil, 0, fmt.Errorf("compact: short big-integer value")
		}
		return new(big.Int).SetBytes(reverse(data[1 : 1+n])), 1 + n, nil
	}
}

// EncodeU32 returns v as 4 little-endian bytes.
func EncodeU32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

// DecodeU128 reads a 16-byte little-endian unsigned integer.
func DecodeU128(data []byte) (*big.Int, error) {
	if len(data) < 16 {
		return nil, fmt.Errorf("u128: need 16 bytes, got %d", len(data))
	}
	return new(big.Int).SetBytes(reverse(data[:16])), nil
}

// EncodeLengthPrefixed prefixes data with its compact length.
func EncodeLengthPrefixed(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := scale.EncodeByteSliceWithLimit(scale.NewEncoder(&buf), data, maxExtrinsicSize); err != nil {
		return nil, fmt.Errorf("failed to encode length prefix: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeLengthPrefixed strips a compact length prefix and returns the body.
func DecodeLengthPrefixed(data []byte) ([]byte, error) {
	body, _, err := scale.DecodeByteSliceWithLimit(scale.NewDecoder(bytes.NewReader(data)), maxExtrinsicSize)
	if err != nil {
		return nil, fmt.Errorf("failed to decode length prefix: %w", err)
	}
	return body, nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}
