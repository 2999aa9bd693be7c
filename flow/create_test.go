package flow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chinmay1088/dhub/api"
	"github.com/chinmay1088/dhub/signer"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModBackend struct {
	mu         sync.Mutex
	preview    string
	previewErr error
	regReply   string
	regErr     error

	previews []api.PreviewRequest
	regs     []api.RegInfo
	block    chan struct{}
}

func (f *fakeModBackend) ModPreview(ctx context.Context, url, key string, collateral float64) (api.ModPreview, error) {
	f.mu.Lock()
	f.previews = append(f.previews, api.PreviewRequest{URL: url, Key: key, Collateral: collateral})
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	return api.ModPreview(f.preview), nil
}

func (f *fakeModBackend) Register(_ context.Context, info api.RegInfo) (*api.Module, json.RawMessage, error) {
	f.mu.Lock()
	f.regs = append(f.regs, info)
	f.mu.Unlock()
	if f.regErr != nil {
		return nil, nil, f.regErr
	}
	mod := &api.Module{}
	_ = json.Unmarshal([]byte(f.regReply), mod)
	return mod, json.RawMessage(f.regReply), nil
}

func (f *fakeModBackend) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.previews), len(f.regs)
}

func newLocalSigner(t *testing.T, secret string) (*signer.Local, *wallet.Key) {
	t.Helper()
	key, err := wallet.NewKeyFromString(secret, wallet.KeyTypeEd25519)
	require.NoError(t, err)
	return signer.NewLocal(key), key
}

func TestCreateRejectsEmptyURLWithoutCalling(t *testing.T) {
	backend := &fakeModBackend{}
	s, _ := newLocalSigner(t, "alice")
	c := NewCreate(backend, s, nil)

	c.SetURL("   ")
	_, err := c.Preview(context.Background())
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.True(t, IsEmptyInput(err))
	assert.Equal(t, CreateError, c.State())

	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyInput)

	previews, regs := backend.calls()
	assert.Zero(t, previews)
	assert.Zero(t, regs)
}

func TestCreateInfersName(t *testing.T) {
	c := NewCreate(&fakeModBackend{}, nil, nil)
	c.SetURL("https://github.com/acme/weather-mod.git")
	assert.Equal(t, "weather-mod", c.Form().Name)

	c.SetName("Weather")
	assert.Equal(t, "Weather", c.Form().Name)
}

func TestPreviewSignsCompactPreview(t *testing.T) {
	backend := &fakeModBackend{preview: `{"url": "ipfs://Qm", "name": "m", "key": "5X", "collateral": 1}`}
	s, key := newLocalSigner(t, "alice")
	c := NewCreate(backend, s, nil)
	c.SetURL("ipfs://Qm")
	c.SetCollateral(1)

	info, err := c.Preview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CreatePreviewed, c.State())

	compact := `{"url":"ipfs://Qm","name":"m","key":"5X","collateral":1}`
	assert.JSONEq(t, compact, string(info.Preview))
	assert.Equal(t, compact, string(info.Preview), "key order is kept")

	sig := signer.Signature{Signature: info.Signature}
	raw, err := sig.Bytes()
	require.NoError(t, err)
	assert.True(t, key.Verify([]byte(compact), raw))

	require.Len(t, backend.previews, 1)
	assert.Equal(t, key.Address(), backend.previews[0].Key)
	assert.Equal(t, 1.0, backend.previews[0].Collateral)
}

func TestPreviewSignsBrowserSerialization(t *testing.T) {
	backend := &fakeModBackend{preview: `{"collateral": 0.0, "name": "caf\u00e9", "take": 1e2, "name": "café"}`}
	s, key := newLocalSigner(t, "alice")
	c := NewCreate(backend, s, nil)
	c.SetURL("https://github.com/acme/cafe")

	info, err := c.Preview(context.Background())
	require.NoError(t, err)

	want := `{"collateral":0,"name":"café","take":100}`
	assert.Equal(t, want, string(info.Preview))

	sig := signer.Signature{Signature: info.Signature}
	raw, err := sig.Bytes()
	require.NoError(t, err)
	assert.True(t, key.Verify([]byte(want), raw))

	submitted, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Equal(t, `{"collateral":0,"name":"café","take":100,"signature":"`+info.Signature+`"}`, string(submitted))
}

func TestPreviewFailureIsRetryable(t *testing.T) {
	backend := &fakeModBackend{previewErr: errors.New("boom")}
	s, _ := newLocalSigner(t, "alice")
	c := NewCreate(backend, s, nil)
	c.SetURL("https://github.com/acme/mod")

	_, err := c.Preview(context.Background())
	assert.ErrorContains(t, err, "failed to generate preview")
	assert.Equal(t, CreateError, c.State())
	assert.Nil(t, c.RegInfo())
	assert.False(t, c.Busy())

	backend.previewErr = nil
	backend.preview = `{"url":"https://github.com/acme/mod"}`
	_, err = c.Preview(context.Background())
	require.NoError(t, err)
	assert.Nil(t, c.Err())
}

func TestPreviewKeepsBackendErrorMessage(t *testing.T) {
	backend := &fakeModBackend{previewErr: &api.Error{Method: api.MethodModPreview, Status: 400, Message: "repo has no metadata file"}}
	s, _ := newLocalSigner(t, "alice")
	c := NewCreate(backend, s, nil)
	c.SetURL("https://github.com/acme/mod")

	_, err := c.Preview(context.Background())
	assert.EqualError(t, err, "failed to generate preview: mod_preview failed with status 400: repo has no metadata file")
	var apiErr *api.Error
	assert.ErrorAs(t, err, &apiErr)
}

func TestSubmitRegistersPreviewAndResetsForm(t *testing.T) {
	backend := &fakeModBackend{
		preview:  `{"url":"https://github.com/acme/mod","name":"mod"}`,
		regReply: `{"name":"ignored","desc":"a module","cid":"QmCid"}`,
	}
	s, key := newLocalSigner(t, "alice")
	c := NewCreate(backend, s, nil)
	now := time.UnixMilli(1_700_000_000_123)
	c.now = func() time.Time { return now }

	c.SetURL("https://github.com/acme/mod")
	c.SetCollateral(2.5)
	info, err := c.Preview(context.Background())
	require.NoError(t, err)

	res, err := c.Submit(context.Background())
	require.NoError(t, err)

	require.Len(t, backend.regs, 1)
	assert.Equal(t, *info, backend.regs[0])

	assert.Equal(t, "mod", res.Module.Name)
	assert.Equal(t, key.Address(), res.Module.Key)
	assert.Equal(t, "a module", res.Module.Desc)
	assert.Equal(t, "QmCid", res.Module.Cid)
	assert.Equal(t, "2.5", res.Module.Collateral.String())
	assert.Equal(t, now.UnixMilli(), res.Module.Created)

	raw, err := signer.Signature{Signature: res.Signature.Signature}.Bytes()
	require.NoError(t, err)
	assert.True(t, key.Verify([]byte("https://github.com/acme/mod:1700000000123"), raw))

	assert.Equal(t, CreateForm{}, c.Form())
	assert.Nil(t, c.RegInfo())
	assert.Equal(t, CreateDone, c.State())
}

func TestSubmitWithoutPreview(t *testing.T) {
	backend := &fakeModBackend{regReply: `"0xabc"`}
	s, key := newLocalSigner(t, "alice")
	c := NewCreate(backend, s, nil)
	c.now = func() time.Time { return time.UnixMilli(42) }
	c.SetURL("ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
	c.SetName("")

	res, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultModuleName, res.Module.Name)
	assert.Equal(t, `"0xabc"`, string(res.Response))

	require.Len(t, backend.regs, 1)
	var params map[string]interface{}
	require.NoError(t, json.Unmarshal(backend.regs[0].Preview, &params))
	assert.Equal(t, key.Address(), params["key"])
	assert.Equal(t, float64(42), params["timestamp"])
	assert.Equal(t, res.Signature.Signature, backend.regs[0].Signature)
}

func TestSubmitFailureKeepsForm(t *testing.T) {
	backend := &fakeModBackend{regErr: &api.Error{Method: "reg", Status: 500, Message: "db down"}}
	s, _ := newLocalSigner(t, "alice")
	c := NewCreate(backend, s, nil)
	c.SetURL("https://github.com/acme/mod")

	_, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to create module")
	assert.Equal(t, "https://github.com/acme/mod", c.Form().URL)
	assert.Equal(t, CreateError, c.State())
}

func TestCreateRejectsConcurrentRequests(t *testing.T) {
	backend := &fakeModBackend{preview: `{}`, block: make(chan struct{})}
	s, _ := newLocalSigner(t, "alice")
	c := NewCreate(backend, s, nil)
	c.SetURL("https://github.com/acme/mod")

	done := make(chan error, 1)
	go func() {
		_, err := c.Preview(context.Background())
		done <- err
	}()
	require.Eventually(t, c.Busy, time.Second, 5*time.Millisecond)

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(backend.block)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())
}

func TestCreateWithoutSigner(t *testing.T) {
	backend := &fakeModBackend{}
	c := NewCreate(backend, nil, nil)
	c.SetURL("https://github.com/acme/mod")

	_, err := c.Preview(context.Background())
	assert.ErrorIs(t, err, signer.ErrNoSigner)
	previews, _ := backend.calls()
	assert.Zero(t, previews)
}
