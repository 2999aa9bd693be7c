package agent

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chinmay1088/dhub/signer"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAgent(t *testing.T) (*signer.Keyring, *wallet.Key, *httptest.Server) {
	t.Helper()
	key, err := wallet.NewKeyFromString("ivy", wallet.KeyTypeEd25519)
	require.NoError(t, err)

	ring := signer.NewKeyring("dhub-agent", "test")
	ring.Add("ivy", key)

	cfg := DefaultConfig()
	cfg.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(New(cfg, ring).Handler())
	t.Cleanup(srv.Close)
	return ring, key, srv
}

func TestAgentSignsThroughClient(t *testing.T) {
	ring, key, srv := newTestAgent(t)
	client := signer.NewAgentClient(srv.URL)
	ctx := context.Background()

	exts, err := client.Enable(ctx, signer.DefaultAppName)
	require.NoError(t, err)
	require.Len(t, exts, 1)
	assert.Equal(t, "dhub-agent", exts[0].Name)
	assert.True(t, ring.IsEnabled(signer.DefaultAppName))

	accounts, err := client.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, key.Address(), accounts[0].Address)
	assert.Equal(t, "ed25519", accounts[0].Type)

	s := signer.NewExtensionSigner(client, "", key.Address())
	sig, err := s.Sign(ctx, []byte("hello"))
	require.NoError(t, err)
	raw, err := sig.Bytes()
	require.NoError(t, err)
	assert.True(t, key.Verify(signer.WrapBytes([]byte("hello")), raw))

	s.SetCryptoType(accounts[0].Type)
	payloadSig, err := s.SignPayload(ctx, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, key.Verify([]byte{1, 2, 3}, payloadSig))
}

func TestAgentRejectsUnknownApps(t *testing.T) {
	_, _, srv := newTestAgent(t)

	resp, err := http.Get(srv.URL + "/accounts")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/sign_raw", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set(signer.AppHeader, "stranger")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)

	_, err = signer.NewAgentClient(srv.URL).Accounts(context.Background())
	assert.ErrorIs(t, err, signer.ErrNotEnabled)
}

func TestAgentRejection(t *testing.T) {
	ring, key, srv := newTestAgent(t)
	ring.SetApprover(PromptApprover(strings.NewReader("n\n"), io.Discard))

	client := signer.NewAgentClient(srv.URL)
	_, err := signer.NewExtensionSigner(client, "", key.Address()).Sign(context.Background(), []byte("m"))
	assert.ErrorIs(t, err, signer.ErrRejected)
}

func TestAgentUnknownAccount(t *testing.T) {
	_, _, srv := newTestAgent(t)
	client := signer.NewAgentClient(srv.URL)

	_, err := signer.NewExtensionSigner(client, "", "5Nobody").Sign(context.Background(), []byte("m"))
	assert.ErrorIs(t, err, signer.ErrUnknownAccount)
}

func TestAgentUnreachableIsNotFound(t *testing.T) {
	client := signer.NewAgentClient("http://127.0.0.1:1")
	exts, err := client.Enable(context.Background(), signer.DefaultAppName)
	require.NoError(t, err)
	assert.Empty(t, exts)

	_, err = signer.NewExtensionSigner(client, "", "5Any").Sign(context.Background(), []byte("m"))
	assert.ErrorIs(t, err, signer.ErrExtensionNotFound)
}

func TestHealthChecks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(cfg, signer.NewKeyring("dhub-agent", "test"))
	h := s.Handler()

	for path, want := range map[string]int{"/livez": http.StatusOK, "/readyz": http.StatusOK} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}

	s.isReady.Store(false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPromptApprover(t *testing.T) {
	var out bytes.Buffer
	approve := PromptApprover(strings.NewReader("y\nno\n"), &out)
	acc := signer.Account{Name: "ivy", Address: "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"}
	payload := signer.SignerPayloadRaw{Data: "0x68656c6c6f", Type: signer.PayloadTypeBytes}

	assert.True(t, approve(context.Background(), acc, payload))
	assert.False(t, approve(context.Background(), acc, payload))
	assert.False(t, approve(context.Background(), acc, payload), "EOF rejects")
	assert.Contains(t, out.String(), "data: hello")
}
