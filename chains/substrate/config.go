package substrate

import (
	"io"
	"log/slog"

	"github.com/chinmay1088/dhub/wallet"
)

// Call indices of Balances.transfer_keep_alive on the default runtime.
const (
	DefaultBalancesPallet    uint8 = 6
	DefaultTransferKeepAlive uint8 = 3
)

// ExtrinsicVersion is the signed extrinsic format version byte.
const ExtrinsicVersion = 0x84

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithTransferCall overrides the pallet and call index of the transfer call.
func WithTransferCall(pallet, call uint8) Option {
	return func(c *Client) {
		c.transferPallet = pallet
		c.transferCall = call
	}
}

// WithErrorTable replaces the table used to decode dispatch errors.
func WithErrorTable(t ErrorTable) Option {
	return func(c *Client) {
		c.errors = t
	}
}

// WithMetadataHashCheck adds the CheckMetadataHash signed extension (in its
// disabled mode) to built extrinsics, for runtimes that require it.
func WithMetadataHashCheck(enabled bool) Option {
	return func(c *Client) {
		c.metadataHashCheck = enabled
	}
}

func defaultClient() *Client {
	return &Client{
		log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		transferPallet: DefaultBalancesPallet,
		transferCall:   DefaultTransferKeepAlive,
		errors:         DefaultErrorTable(),
		ss58Prefix:     wallet.DefaultSS58Prefix,
	}
}
