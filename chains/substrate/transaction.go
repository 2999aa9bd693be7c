package substrate

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/blake2b"
)

// maxSigningPayload is the size above which the payload is signed by hash.
const maxSigningPayload = 256

// MultiSignature variant tags.
const (
	SigEd25519 byte = 0
	SigSr25519 byte = 1
	SigEcdsa   byte = 2
)

// multiAddressID is the MultiAddress::Id variant.
const multiAddressID byte = 0

// immortalEra is the encoding of an immortal mortality.
const immortalEra byte = 0

// MultiSignatureTag maps a key type name to its MultiSignature variant.
func MultiSignatureTag(cryptoType string) (byte, error) {
	switch cryptoType {
	case "ed25519":
		return SigEd25519, nil
	case "sr25519", "":
		return SigSr25519, nil
	case "ecdsa", "secp256k1", "ethereum":
		return SigEcdsa, nil
	default:
		return 0, fmt.Errorf("unsupported crypto type: %s", cryptoType)
	}
}

func signatureLen(tag byte) int {
	if tag == SigEcdsa {
		return 65
	}
	return 64
}

// Transaction represents an unsigned balance transfer awaiting a signature
type Transaction struct {
	Call        []byte
	Signer      [32]byte
	Nonce       uint64
	Tip         *big.Int
	SpecVersion uint32
	TxVersion   uint32
	GenesisHash common.Hash

	// MetadataHashCheck adds the CheckMetadataHash extension in disabled mode.
	MetadataHashCheck bool
}

// EncodeTransferCall encodes Balances.transfer_keep_alive(dest, value).
func EncodeTransferCall(pallet, call uint8, dest [32]byte, amount *big.Int) ([]byte, error) {
	value, err := EncodeCompact(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteByte(pallet)
	buf.WriteByte(call)
	buf.WriteByte(multiAddressID)
	buf.Write(dest[:])
	buf.Write(value)
	return buf.Bytes(), nil
}

func (tx *Transaction) extra() []byte {
	var buf bytes.Buffer
	buf.WriteByte(immortalEra)
	buf.Write(EncodeCompactUint64(tx.Nonce))
	tip := tx.Tip
	if tip == nil {
		tip = new(big.Int)
	}
	enc, _ := EncodeCompact(tip)
	buf.Write(enc)
	if tx.MetadataHashCheck {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func (tx *Transaction) additional() []byte {
	var buf bytes.Buffer
	buf.Write(EncodeU32(tx.SpecVersion))
	buf.Write(EncodeU32(tx.TxVersion))
	buf.Write(tx.GenesisHash[:])
	// immortal era checkpoints at genesis
	buf.Write(tx.GenesisHash[:])
	if tx.MetadataHashCheck {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// Payload returns the unhashed signing payload: call, extra, additional.
// Extensions receive this and apply the hashing rule themselves.
func (tx *Transaction) Payload() []byte {
	var buf bytes.Buffer
	buf.Write(tx.Call)
	buf.Write(tx.extra())
	buf.Write(tx.additional())
	return buf.Bytes()
}

// SigningPayload returns the bytes a key actually signs: the payload, or
// its blake2b-256 hash when longer than 256 bytes.
func (tx *Transaction) SigningPayload() []byte {
	return HashIfLong(tx.Payload())
}

// HashIfLong applies the signing payload hashing rule.
func HashIfLong(payload []byte) []byte {
	if len(payload) > maxSigningPayload {
		sum := blake2b.Sum256(payload)
		return sum[:]
	}
	return payload
}

// BuildSigned assembles the length-prefixed signed extrinsic.
func (tx *Transaction) BuildSigned(cryptoType string, sig []byte) ([]byte, error) {
	tag, err := MultiSignatureTag(cryptoType)
	if err != nil {
		return nil, err
	}
	if len(sig) != signatureLen(tag) {
		return nil, fmt.Errorf("invalid %s signature length: %d", cryptoType, len(sig))
	}

	var body bytes.Buffer
	body.WriteByte(ExtrinsicVersion)
	body.WriteByte(multiAddressID)
	body.Write(tx.Signer[:])
	body.WriteByte(tag)
	body.Write(sig)
	body.Write(tx.extra())
	body.Write(tx.Call)

	return EncodeLengthPrefixed(body.Bytes())
}

// TxHash returns the blake2b-256 hash identifying an encoded extrinsic.
func TxHash(extrinsic []byte) common.Hash {
	return common.Hash(blake2b.Sum256(extrinsic))
}

// SignedExtrinsic is a decoded signed extrinsic.
type SignedExtrinsic struct {
	Signer    [32]byte
	SigTag    byte
	Signature []byte
	Nonce     uint64
	Tip       *big.Int
	Call      []byte
}

// DecodeSignedExtrinsic parses an extrinsic produced by BuildSigned.
func DecodeSignedExtrinsic(extrinsic []byte, metadataHashCheck bool) (*SignedExtrinsic, error) {
	body, err := DecodeLengthPrefixed(extrinsic)
	if err != nil {
		return nil, err
	}
	if len(body) < 2+32+1 || body[0] != ExtrinsicVersion || body[1] != multiAddressID {
		return nil, fmt.Errorf("not a signed v4 extrinsic")
	}
	out := &SignedExtrinsic{}
	copy(out.Signer[:], body[2:34])
	out.SigTag = body[34]
	rest := body[35:]

	n := signatureLen(out.SigTag)
	if len(rest) < n+1 {
		return nil, fmt.Errorf("short signature")
	}
	out.Signature = rest[:n]
	rest = rest[n:]

	if rest[0] != immortalEra {
		return nil, fmt.Errorf("mortal eras are not supported")
	}
	rest = rest[1:]

	nonce, used, err := DecodeCompact(rest)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	out.Nonce = nonce.Uint64()
	rest = rest[used:]

	tip, used, err := DecodeCompact(rest)
	if err != nil {
		return nil, fmt.Errorf("tip: %w", err)
	}
	out.Tip = tip
	rest = rest[used:]

	if metadataHashCheck {
		if len(rest) == 0 {
			return nil, fmt.Errorf("missing metadata hash mode")
		}
		rest = rest[1:]
	}
	out.Call = rest
	return out, nil
}

// DecodeTransferCall parses a call produced by EncodeTransferCall.
func DecodeTransferCall(call []byte) (pallet, index uint8, dest [32]byte, amount *big.Int, err error) {
	if len(call) < 3+32+1 || call[2] != multiAddressID {
		return 0, 0, dest, nil, fmt.Errorf("not a transfer call")
	}
	copy(dest[:], call[3:35])
	amount, _, err = DecodeCompact(call[35:])
	return call[0], call[1], dest, amount, err
}
