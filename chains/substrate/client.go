// Package substrate is a minimal client for Substrate-based chains: it reads
// runtime metadata and account balances and submits signed balance transfers
// while watching their status.
package substrate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/chinmay1088/dhub/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client talks JSON-RPC to a chain node
type Client struct {
	rpc *rpc.Client
	log *slog.Logger

	transferPallet    uint8
	transferCall      uint8
	metadataHashCheck bool
	errors            ErrorTable
	ss58Prefix        uint16

	mu   sync.Mutex
	meta *ChainMetadata
}

// Dial connects to the node at url (ws, wss, http or https).
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return NewClient(rc, opts...), nil
}

// NewClient wraps an existing RPC client.
func NewClient(rc *rpc.Client, opts ...Option) *Client {
	c := defaultClient()
	c.rpc = rc
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close drops the node connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// Errors returns the table used to decode dispatch errors.
func (c *Client) Errors() ErrorTable { return c.errors }

// Connect reads the chain metadata and caches it.
func (c *Client) Connect(ctx context.Context) (*ChainMetadata, error) {
	meta := &ChainMetadata{
		Decimals:   DefaultTokenDecimals,
		Symbol:     DefaultTokenSymbol,
		SS58Prefix: c.ss58Prefix,
	}

	if err := c.rpc.CallContext(ctx, &meta.Chain, "system_chain"); err != nil {
		return nil, fmt.Errorf("failed to read chain name: %w", err)
	}
	if err := c.rpc.CallContext(ctx, &meta.Runtime, "state_getRuntimeVersion"); err != nil {
		return nil, fmt.Errorf("failed to read runtime version: %w", err)
	}
	var genesis common.Hash
	if err := c.rpc.CallContext(ctx, &genesis, "chain_getBlockHash", 0); err != nil {
		return nil, fmt.Errorf("failed to read genesis hash: %w", err)
	}
	meta.GenesisHash = genesis

	var props Properties
	if err := c.rpc.CallContext(ctx, &props, "system_properties"); err != nil {
		c.log.Debug("system_properties unavailable, using defaults", "err", err)
	} else {
		if props.TokenDecimals != nil {
			meta.Decimals = *props.TokenDecimals
		}
		if props.TokenSymbol != "" {
			meta.Symbol = props.TokenSymbol
		}
		if props.SS58Format != nil {
			meta.SS58Prefix = *props.SS58Format
		}
	}

	c.log.Debug("connected to chain",
		slog.String("chain", meta.Chain),
		slog.Uint64("specVersion", uint64(meta.Runtime.SpecVersion)),
		slog.String("genesis", meta.GenesisHash.Hex()),
	)

	c.mu.Lock()
	c.meta = meta
	c.mu.Unlock()
	return meta, nil
}

// Metadata returns the cached metadata, connecting first if needed.
func (c *Client) Metadata(ctx context.Context) (*ChainMetadata, error) {
	c.mu.Lock()
	meta := c.meta
	c.mu.Unlock()
	if meta != nil {
		return meta, nil
	}
	return c.Connect(ctx)
}

// AccountInfo reads the System.Account entry of address.
func (c *Client) AccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	id, err := wallet.AccountIDFromAddress(address)
	if err != nil {
		return nil, err
	}

	var raw *hexutil.Bytes
	key := hexutil.Bytes(AccountStorageKey(id))
	if err := c.rpc.CallContext(ctx, &raw, "state_getStorage", key); err != nil {
		return nil, fmt.Errorf("failed to read account: %w", err)
	}
	if raw == nil || len(*raw) == 0 {
		return EmptyAccount(), nil
	}
	return DecodeAccountInfo(*raw)
}

// Balance returns the free balance of address in planck.
func (c *Client) Balance(ctx context.Context, address string) (*big.Int, error) {
	info, err := c.AccountInfo(ctx, address)
	if err != nil {
		return nil, err
	}
	return info.Free, nil
}

// NextIndex returns the next usable nonce of address, pending pool included.
func (c *Client) NextIndex(ctx context.Context, address string) (uint64, error) {
	var nonce uint64
	if err := c.rpc.CallContext(ctx, &nonce, "system_accountNextIndex", address); err != nil {
		return 0, fmt.Errorf("failed to fetch nonce: %w", err)
	}
	return nonce, nil
}

// NewTransfer builds an unsigned transfer_keep_alive from one address to
// another.
func (c *Client) NewTransfer(ctx context.Context, from, to string, amount *big.Int) (*Transaction, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	signerID, err := wallet.AccountIDFromAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	dest, err := wallet.AccountIDFromAddress(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	meta, err := c.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	nonce, err := c.NextIndex(ctx, from)
	if err != nil {
		return nil, err
	}

	call, err := EncodeTransferCall(c.transferPallet, c.transferCall, dest, amount)
	if err != nil {
		return nil, err
	}
	return &Transaction{
		Call:              call,
		Signer:            signerID,
		Nonce:             nonce,
		SpecVersion:       meta.Runtime.SpecVersion,
		TxVersion:         meta.Runtime.TransactionVersion,
		GenesisHash:       meta.GenesisHash,
		MetadataHashCheck: c.metadataHashCheck,
	}, nil
}

// SubmitAndWatch submits a signed extrinsic and subscribes to its status.
func (c *Client) SubmitAndWatch(ctx context.Context, extrinsic []byte) (*Watch, error) {
	raw := make(chan json.RawMessage, 8)
	sub, err := c.rpc.Subscribe(ctx, "author", raw, "submitAndWatchExtrinsic", hexutil.Bytes(extrinsic))
	if err != nil {
		return nil, fmt.Errorf("failed to submit extrinsic: %w", err)
	}
	c.log.Debug("extrinsic submitted", "hash", TxHash(extrinsic).Hex())
	return newWatch(sub, raw, c.errors), nil
}
