package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	ScryptN = 32768 // 2^15
	ScryptR = 8
	ScryptP = 1
	KeyLen  = 32 // AES-256 key length

	vaultVersion = 2
)

// ErrWrongPassword is returned when the vault cannot be opened with the given password.
var ErrWrongPassword = errors.New("wrong password or corrupted vault")

// KDFParams records the scrypt parameters a vault was sealed with so that
// older vaults keep opening if the defaults change.
type KDFParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

// Vault is the on-disk form of the wallet secret: a BIP-39 mnemonic plus the
// key type the local signer derives from it.
type Vault struct {
	Version int       `json:"version"`
	KDF     KDFParams `json:"kdf"`
	Salt    []byte    `json:"salt"`
	Nonce   []byte    `json:"nonce"`
	Data    []byte    `json:"data"`
}

// Secret is the plaintext sealed inside a Vault.
type Secret struct {
	Mnemonic string `json:"mnemonic"`
	KeyType  string `json:"key_type"`
}

// NewVault seals secret under password.
func NewVault(secret Secret, password string) (*Vault, error) {
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	params := KDFParams{N: ScryptN, R: ScryptR, P: ScryptP}
	key, err := deriveKey(password, salt, params)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clearBytes(key)

	plaintext, err := json.Marshal(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vault secret: %w", err)
	}
	defer clearBytes(plaintext)

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return &Vault{
		Version: vaultVersion,
		KDF:     params,
		Salt:    salt,
		Nonce:   nonce,
		Data:    aead.Seal(nil, nonce, plaintext, additionalData(vaultVersion)),
	}, nil
}

// Open decrypts the vault. A wrong password yields ErrWrongPassword.
func (v *Vault) Open(password string) (*Secret, error) {
	params := v.KDF
	if params.N == 0 {
		params = KDFParams{N: ScryptN, R: ScryptR, P: ScryptP}
	}

	key, err := deriveKey(password, v.Salt, params)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clearBytes(key)

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, v.Nonce, v.Data, additionalData(v.Version))
	if err != nil {
		return nil, ErrWrongPassword
	}
	defer clearBytes(plaintext)

	var secret Secret
	if err := json.Unmarshal(plaintext, &secret); err != nil {
		return nil, fmt.Errorf("failed to deserialize vault secret: %w", err)
	}
	return &secret, nil
}

// ValidatePassword reports whether password opens the vault.
func (v *Vault) ValidatePassword(password string) bool {
	_, err := v.Open(password)
	return err == nil
}

func deriveKey(password string, salt []byte, p KDFParams) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, p.N, p.R, p.P, KeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt key derivation failed: %w", err)
	}
	return key, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

func additionalData(version int) []byte {
	return []byte(fmt.Sprintf("dhub-vault-v%d", version))
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
