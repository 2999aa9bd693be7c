package substrate

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Twox128 is the twox_128 storage hasher.
func Twox128(data []byte) []byte {
	out := make([]byte, 16)
	for i := 0; i < 2; i++ {
		d := xxhash.NewWithSeed(uint64(i))
		_, _ = d.Write(data)
		binary.LittleEndian.PutUint64(out[i*8:], d.Sum64())
	}
	return out
}

// Blake2_128Concat is the blake2_128_concat storage hasher.
func Blake2_128Concat(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	_, _ = h.Write(data)
	return append(h.Sum(nil), data...)
}

// StoragePrefix returns the key prefix of a pallet storage item.
func StoragePrefix(pallet, item string) []byte {
	return append(Twox128([]byte(pallet)), Twox128([]byte(item))...)
}

// AccountStorageKey returns the System.Account key for an account id.
func AccountStorageKey(accountID [32]byte) []byte {
	return append(StoragePrefix("System", "Account"), Blake2_128Concat(accountID[:])...)
}
