package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/chinmay1088/dhub/wallet"
)

// DefaultEndpoint is the backend used when nothing else is configured.
const DefaultEndpoint = "http://localhost:8000"

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 30 * time.Second

// Auth header names.
const (
	HeaderKey        = "X-Key"
	HeaderCryptoType = "X-Crypto-Type"
	HeaderTime       = "X-Time"
	HeaderSignature  = "X-Signature"
)

// Option configures a Client.
type Option func(*Client)

// WithKey signs every request with key.
func WithKey(key *wallet.Key) Option {
	return func(c *Client) {
		c.key = key
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for call tracing.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock overrides the time source used for auth timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}
