package substrate

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token defaults used when the node reports no system properties.
const (
	DefaultTokenDecimals = 12
	DefaultTokenSymbol   = "MOD"
)

// RuntimeVersion is the result of state_getRuntimeVersion.
type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	ImplName           string `json:"implName"`
	SpecVersion        uint32 `json:"specVersion"`
	ImplVersion        uint32 `json:"implVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

// Properties is the result of system_properties.
type Properties struct {
	SS58Format    *uint16 `json:"ss58Format"`
	TokenDecimals *uint8  `json:"tokenDecimals"`
	TokenSymbol   string  `json:"tokenSymbol"`
}

// ChainMetadata is what the client learns about a node when it connects.
type ChainMetadata struct {
	Chain       string
	Runtime     RuntimeVersion
	GenesisHash common.Hash
	Decimals    uint8
	Symbol      string
	SS58Prefix  uint16
}

func (m *ChainMetadata) String() string {
	return fmt.Sprintf("%s (%s v%d, tx v%d)", m.Chain, m.Runtime.SpecName, m.Runtime.SpecVersion, m.Runtime.TransactionVersion)
}

// AccountInfo is the decoded System.Account entry.
type AccountInfo struct {
	Nonce       uint32
	Consumers   uint32
	Providers   uint32
	Sufficients uint32
	Free        *big.Int
	Reserved    *big.Int
	Frozen      *big.Int
	Flags       *big.Int
}

// Transferable returns free minus frozen, floored at zero.
func (a *AccountInfo) Transferable() *big.Int {
	out := new(big.Int).Sub(a.Free, a.Frozen)
	if out.Sign() < 0 {
		return new(big.Int)
	}
	return out
}

// EmptyAccount is the state of an account that has never been funded.
func EmptyAccount() *AccountInfo {
	return &AccountInfo{Free: new(big.Int), Reserved: new(big.Int), Frozen: new(big.Int), Flags: new(big.Int)}
}

// DecodeAccountInfo decodes a SCALE-encoded System.Account value.
func DecodeAccountInfo(data []byte) (*AccountInfo, error) {
	const size = 4*4 + 16*4
	if len(data) < size {
		return nil, fmt.Errorf("account info: need %d bytes, got %d", size, len(data))
	}
	u32 := func(off int) uint32 {
		return uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
	}
	info := &AccountInfo{
		Nonce:       u32(0),
		Consumers:   u32(4),
		Providers:   u32(8),
		Sufficients: u32(12),
	}
	fields := []**big.Int{&info.Free, &info.Reserved, &info.Frozen, &info.Flags}
	for i, f := range fields {
		v, err := DecodeU128(data[16+16*i:])
		if err != nil {
			return nil, err
		}
		*f = v
	}
	return info, nil
}

// Encode returns the SCALE encoding of the account entry.
func (a *AccountInfo) Encode() []byte {
	out := make([]byte, 0, 80)
	for _, v := range []uint32{a.Nonce, a.Consumers, a.Providers, a.Sufficients} {
		out = append(out, EncodeU32(v)...)
	}
	for _, v := range []*big.Int{a.Free, a.Reserved, a.Frozen, a.Flags} {
		out = append(out, encodeU128(v)...)
	}
	return out
}

func encodeU128(v *big.Int) []byte {
	out := make([]byte, 16)
	if v == nil {
		return out
	}
	le := reverse(v.Bytes())
	copy(out, le)
	return out
}
