package wallet

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// DefaultSS58Prefix is the generic substrate address prefix used by the
// registry chain.
const DefaultSS58Prefix uint16 = 42

var ss58Pre = []byte("SS58PRE")

// SS58Encode encodes a 32-byte account id with the given network prefix.
func SS58Encode(accountID []byte, prefix uint16) string {
	payload := append(encodePrefix(prefix), accountID...)
	sum := ss58Checksum(payload)
	return base58.Encode(append(payload, sum[:2]...))
}

// SS58Decode parses an SS58 address and returns its prefix and account id.
func SS58Decode(address string) (uint16, []byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid base58 address: %w", err)
	}
	if len(raw) < 3 {
		return 0, nil, fmt.Errorf("address too short")
	}

	prefix, prefixLen, err := decodePrefix(raw)
	if err != nil {
		return 0, nil, err
	}

	body := raw[:len(raw)-2]
	id := body[prefixLen:]
	if len(id) != 32 {
		return 0, nil, fmt.Errorf("invalid account id length: got %d bytes, expected 32", len(id))
	}

	sum := ss58Checksum(body)
	if !bytes.Equal(sum[:2], raw[len(raw)-2:]) {
		return 0, nil, fmt.Errorf("invalid address checksum")
	}
	return prefix, id, nil
}

// AccountIDFromAddress decodes an SS58 address into a fixed account id.
func AccountIDFromAddress(address string) ([32]byte, error) {
	var id [32]byte
	_, raw, err := SS58Decode(address)
	if err != nil {
		return id, err
	}
	copy(id[:], raw)
	return id, nil
}

// IsValidAddress reports whether address is a well-formed SS58 address.
func IsValidAddress(address string) bool {
	_, _, err := SS58Decode(address)
	return err == nil
}

func encodePrefix(prefix uint16) []byte {
	if prefix < 64 {
		return []byte{byte(prefix)}
	}
	first := byte((prefix&0x00fc)>>2) | 0x40
	second := byte(prefix>>8) | byte((prefix&0x0003)<<6)
	return []byte{first, second}
}

func decodePrefix(raw []byte) (uint16, int, error) {
	switch {
	case raw[0] < 64:
		return uint16(raw[0]), 1, nil
	case raw[0] < 128:
		lower := (raw[0] << 2) | (raw[1] >> 6)
		upper := raw[1] & 0x3f
		return uint16(lower) | uint16(upper)<<8, 2, nil
	default:
		return 0, 0, fmt.Errorf("invalid address prefix byte 0x%02x", raw[0])
	}
}

func ss58Checksum(payload []byte) [64]byte {
	return blake2b.Sum512(append(append([]byte{}, ss58Pre...), payload...))
}

// ShortAddress renders an address as "first8...last6" for display.
func ShortAddress(address string) string {
	if len(address) <= 14 {
		return address
	}
	return address[:8] + "..." + address[len(address)-6:]
}
