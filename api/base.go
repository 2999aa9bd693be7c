package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chinmay1088/dhub/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Client handles calls to the registry backend
type Client struct {
	endpoint   string
	httpClient *http.Client
	key        *wallet.Key
	log        *slog.Logger
	now        func() time.Time
}

// NewClient creates a new backend client for endpoint
func NewClient(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the backend base URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Key returns the key requests are signed with, if any
func (c *Client) Key() *wallet.Key {
	return c.key
}

// AuthMessage returns the bytes signed for the auth headers of a call.
func AuthMessage(method string, params []byte, ts string) []byte {
	var buf bytes.Buffer
	buf.WriteString(method)
	buf.WriteByte(':')
	buf.Write(params)
	buf.WriteByte(':')
	buf.WriteString(ts)
	return buf.Bytes()
}

// Call posts params to <endpoint>/<method> and decodes the reply into out.
// A nil out discards the reply body.
func (c *Client) Call(ctx context.Context, method string, params, out interface{}) error {
	if params == nil {
		params = struct{}{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req, method, body); err != nil {
		return err
	}

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("backend call",
		slog.String("method", method),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", c.now().Sub(start)),
	)

	if resp.StatusCode != http.StatusOK {
		msg := errorMessage(respBody)
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return &Error{Method: method, Status: resp.StatusCode, Message: msg}
	}
	if msg := errorMessage(respBody); msg != "" {
		return &Error{Method: method, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request, method string, body []byte) error {
	if c.key == nil {
		return nil
	}
	ts := strconv.FormatInt(c.now().Unix(), 10)
	sig, err := c.key.Sign(AuthMessage(method, body, ts))
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}
	req.Header.Set(HeaderKey, c.key.Address())
	req.Header.Set(HeaderCryptoType, string(c.key.Type()))
	req.Header.Set(HeaderTime, ts)
	req.Header.Set(HeaderSignature, hexutil.Encode(sig))
	return nil
}

// errorMessage extracts the error text of an {"error": ...} or
// {"detail": ...} reply. It returns "" for anything else.
func errorMessage(body []byte) string {
	var env struct {
		Error  json.RawMessage `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{env.Error, env.Detail} {
		if len(raw) == 0 || string(raw) == "null" || string(raw) == "false" {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if s != "" {
				return s
			}
			continue
		}
		return string(raw)
	}
	return ""
}
