package wallet

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"
)

// KeyType names the signature scheme of a key.
type KeyType string

const (
	KeyTypeEd25519 KeyType = "ed25519"
	KeyTypeEcdsa   KeyType = "ecdsa"

	// DefaultKeyType is used when a caller does not pick one.
	DefaultKeyType = KeyTypeEd25519

	// ClientDerivationPath is appended to an extension account address to
	// derive the client key used for backend calls.
	ClientDerivationPath = "//mod//client"
)

// ParseKeyType accepts the key type names used by extensions and the CLI.
// Extensions report sr25519 for most accounts; the local client key is
// always ed25519 in that case since sr25519 has no local implementation.
func ParseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ed25519", "sr25519":
		return KeyTypeEd25519, nil
	case "ecdsa", "secp256k1":
		return KeyTypeEcdsa, nil
	default:
		return "", fmt.Errorf("unsupported key type: %s. Supported types: ed25519, ecdsa", s)
	}
}

// Key is an in-memory signing key held by the client.
type Key struct {
	typ  KeyType
	seed [32]byte
	ed   ed25519.PrivateKey
	ec   *ecdsa.PrivateKey
}

// NewKeyFromSeed builds a key from a 32-byte seed.
func NewKeyFromSeed(seed []byte, typ KeyType) (*Key, error) {
	if len(seed) != 32 {
		return nil, fmt.Errorf("invalid seed length: got %d bytes, expected 32", len(seed))
	}

	k := &Key{typ: typ}
	copy(k.seed[:], seed)

	switch typ {
	case KeyTypeEd25519:
		k.ed = ed25519.NewKeyFromSeed(k.seed[:])
	case KeyTypeEcdsa:
		priv, err := ethcrypto.ToECDSA(k.seed[:])
		if err != nil {
			return nil, fmt.Errorf("failed to convert seed to ECDSA key: %w", err)
		}
		k.ec = priv
	default:
		return nil, fmt.Errorf("unsupported key type: %s", typ)
	}
	return k, nil
}

// NewKeyFromString derives a key from an arbitrary secret string such as a
// password or an extension-derived seed string.
func NewKeyFromString(secret string, typ KeyType) (*Key, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret is empty")
	}
	seed := blake2b.Sum256([]byte(secret))
	return NewKeyFromSeed(seed[:], typ)
}

// NewKeyFromMnemonic derives a key from a BIP-39 recovery phrase.
func NewKeyFromMnemonic(mnemonic string, typ KeyType) (*Key, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid recovery phrase")
	}
	seed := bip39.NewSeed(mnemonic, "")
	mini := blake2b.Sum256(seed)
	return NewKeyFromSeed(mini[:], typ)
}

// DeriveClientKey returns the client key bound to an extension account.
func DeriveClientKey(address string, typ KeyType) (*Key, error) {
	return NewKeyFromString(address+ClientDerivationPath, typ)
}

// Type returns the signature scheme of the key.
func (k *Key) Type() KeyType { return k.typ }

// Seed returns a copy of the 32-byte seed.
func (k *Key) Seed() []byte {
	out := make([]byte, len(k.seed))
	copy(out, k.seed[:])
	return out
}

// PublicKey returns the raw public key: 32 bytes for ed25519, 33 bytes
// (compressed) for ecdsa.
func (k *Key) PublicKey() []byte {
	if k.typ == KeyTypeEcdsa {
		return ethcrypto.CompressPubkey(&k.ec.PublicKey)
	}
	return []byte(k.ed.Public().(ed25519.PublicKey))
}

// AccountID returns the 32-byte account identifier used on chain.
func (k *Key) AccountID() [32]byte {
	if k.typ == KeyTypeEcdsa {
		return blake2b.Sum256(k.PublicKey())
	}
	var id [32]byte
	copy(id[:], k.PublicKey())
	return id
}

// Address returns the SS58 address of the key.
func (k *Key) Address() string {
	id := k.AccountID()
	return SS58Encode(id[:], DefaultSS58Prefix)
}

// Sign signs msg. Both schemes are deterministic: signing the same message
// twice yields the same signature.
func (k *Key) Sign(msg []byte) ([]byte, error) {
	switch k.typ {
	case KeyTypeEd25519:
		return ed25519.Sign(k.ed, msg), nil
	case KeyTypeEcdsa:
		digest := blake2b.Sum256(msg)
		sig, err := ethcrypto.Sign(digest[:], k.ec)
		if err != nil {
			return nil, fmt.Errorf("failed to sign message: %w", err)
		}
		return sig, nil
	default:
		return nil, fmt.Errorf("unsupported key type: %s", k.typ)
	}
}

// Verify checks a signature produced by Sign.
func (k *Key) Verify(msg, sig []byte) bool {
	return Verify(k.typ, k.PublicKey(), msg, sig)
}

// Verify checks sig over msg against a raw public key of the given type.
func Verify(typ KeyType, pub, msg, sig []byte) bool {
	switch typ {
	case KeyTypeEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
	case KeyTypeEcdsa:
		if len(sig) != 65 {
			return false
		}
		digest := blake2b.Sum256(msg)
		return ethcrypto.VerifySignature(pub, digest[:], sig[:64])
	default:
		return false
	}
}
