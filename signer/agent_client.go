package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultAgentURL is where dhub looks for the signing agent.
	DefaultAgentURL = "http://127.0.0.1:8137"

	// AppHeader carries the enabled app name on agent requests.
	AppHeader = "X-Dhub-App"
)

// EnableRequest is the body of POST /enable.
type EnableRequest struct {
	App string `json:"app"`
}

// EnableResponse is returned by POST /enable.
type EnableResponse struct {
	Extensions []InjectedExtension `json:"extensions"`
}

// AccountsResponse is returned by GET /accounts.
type AccountsResponse struct {
	Accounts []Account `json:"accounts"`
}

// ErrorResponse is the body of every non-2xx agent reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AgentClient talks to a dhub signing agent over HTTP. It implements
// Extension so the rest of dhub cannot tell it from an in-process keyring.
type AgentClient struct {
	baseURL    string
	httpClient *http.Client

	app string
}

// NewAgentClient returns a client for the agent at baseURL.
func NewAgentClient(baseURL string) *AgentClient {
	if baseURL == "" {
		baseURL = DefaultAgentURL
	}
	return &AgentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// signing may wait for a human to approve it
			Timeout: 2 * time.Minute,
		},
	}
}

// Enable asks the agent to authorize appName.
func (c *AgentClient) Enable(ctx context.Context, appName string) ([]InjectedExtension, error) {
	var resp EnableResponse
	if err := c.do(ctx, http.MethodPost, "/enable", EnableRequest{App: appName}, &resp); err != nil {
		// an unreachable agent is the CLI equivalent of a missing extension
		if isConnectionError(err) {
			return nil, nil
		}
		return nil, err
	}
	c.app = appName
	return resp.Extensions, nil
}

// Accounts lists the agent's accounts.
func (c *AgentClient) Accounts(ctx context.Context) ([]Account, error) {
	var resp AccountsResponse
	if err := c.do(ctx, http.MethodGet, "/accounts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// FromAddress returns an injector for address if the agent manages it.
func (c *AgentClient) FromAddress(ctx context.Context, address string) (*Injector, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, acc := range accounts {
		if acc.Address == address {
			return &Injector{Name: "dhub-agent", Signer: agentSigner{c}}, nil
		}
	}
	return nil, fmt.Errorf("Unable to find injected %s: %w", address, ErrUnknownAccount)
}

type agentSigner struct {
	c *AgentClient
}

func (s agentSigner) SignRaw(ctx context.Context, payload SignerPayloadRaw) (*SignerResult, error) {
	var res SignerResult
	if err := s.c.do(ctx, http.MethodPost, "/sign_raw", payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *AgentClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.app != "" {
		req.Header.Set(AppHeader, c.app)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &connectionError{err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return fmt.Errorf("agent error: %w", ErrRejected)
	case http.StatusUnauthorized:
		return fmt.Errorf("agent error: %w", ErrNotEnabled)
	case http.StatusNotFound:
		return fmt.Errorf("agent error: %w", ErrUnknownAccount)
	default:
		var e ErrorResponse
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			return fmt.Errorf("agent error (%d): %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("agent request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

type connectionError struct{ err error }

func (e *connectionError) Error() string { return fmt.Sprintf("failed to reach signing agent: %v", e.err) }
func (e *connectionError) Unwrap() error { return e.err }

func isConnectionError(err error) bool {
	_, ok := err.(*connectionError)
	return ok
}
