package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chinmay1088/dhub/api"
	"github.com/chinmay1088/dhub/content"
	"github.com/chinmay1088/dhub/signer"
	"github.com/shopspring/decimal"
)

// ErrEmptyURL is returned when preview or submit is attempted without a URL.
var ErrEmptyURL = fmt.Errorf("Please enter a valid URL or IPFS hash: %w", ErrEmptyInput)

// DefaultModuleName names a created module when nothing better is known.
const DefaultModuleName = "New Module"

// CreateState is the state of the module creation flow.
type CreateState string

const (
	CreateIdle       CreateState = "idle"
	CreatePreviewing CreateState = "previewing"
	CreatePreviewed  CreateState = "previewed"
	CreateSubmitting CreateState = "submitting"
	CreateDone       CreateState = "done"
	CreateError      CreateState = "error"
)

// ModBackend is the part of the backend the creation flow calls.
type ModBackend interface {
	ModPreview(ctx context.Context, url, key string, collateral float64) (api.ModPreview, error)
	Register(ctx context.Context, info api.RegInfo) (*api.Module, json.RawMessage, error)
}

// CreateForm holds the user input of the creation flow.
type CreateForm struct {
	URL        string
	Name       string
	Collateral float64
}

// SignatureEnvelope records a signature made during submission.
type SignatureEnvelope struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
}

// CreateResult is the outcome of a successful submission.
type CreateResult struct {
	Module    *api.Module
	Signature SignatureEnvelope
	Response  json.RawMessage
}

// submitParams is registered when no preview was generated.
type submitParams struct {
	URL        string  `json:"url"`
	Name       string  `json:"name,omitempty"`
	Collateral float64 `json:"collateral"`
	Timestamp  int64   `json:"timestamp"`
	Key        string  `json:"key"`
}

// Create drives module creation: preview, confirm, submit.
type Create struct {
	guard

	backend ModBackend
	signer  signer.Signer
	log     *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	state   CreateState
	form    CreateForm
	regInfo *api.RegInfo
	err     error
}

// NewCreate returns a creation flow that signs with s.
func NewCreate(backend ModBackend, s signer.Signer, log *slog.Logger) *Create {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Create{
		backend: backend,
		signer:  s,
		log:     log,
		now:     time.Now,
		state:   CreateIdle,
	}
}

// SetURL updates the URL and fills the name from its last path segment.
func (c *Create) SetURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.URL = url
	c.form.Name = content.InferName(url)
}

// SetName overrides the inferred name.
func (c *Create) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Name = name
}

// SetCollateral sets the collateral amount.
func (c *Create) SetCollateral(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Collateral = v
}

// Form returns the current input.
func (c *Create) Form() CreateForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// State returns the current state.
func (c *Create) State() CreateState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that moved the flow to CreateError.
func (c *Create) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// RegInfo returns the signed preview awaiting submission, if any.
func (c *Create) RegInfo() *api.RegInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regInfo
}

func (c *Create) setState(s CreateState, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	c.err = err
}

func (c *Create) fail(err error) error {
	c.setState(CreateError, err)
	return err
}

// Preview fetches the server preview for the form, signs it in the
// JSON.stringify form a browser client would produce and keeps the result
// for submission.
func (c *Create) Preview(ctx context.Context) (*api.RegInfo, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	form := c.Form()
	url := strings.TrimSpace(form.URL)
	if url == "" {
		return nil, c.fail(ErrEmptyURL)
	}
	if c.signer == nil {
		return nil, c.fail(signer.ErrNoSigner)
	}
	c.setState(CreatePreviewing, nil)

	preview, err := c.backend.ModPreview(ctx, url, c.signer.Address(), form.Collateral)
	if err != nil {
		return nil, c.fail(fmt.Errorf("failed to generate preview: %w", err))
	}

	canonical, err := api.Canonicalize(preview)
	if err != nil {
		return nil, c.fail(fmt.Errorf("invalid preview: %w", err))
	}
	sig, err := c.signer.Sign(ctx, canonical)
	if err != nil {
		return nil, c.fail(err)
	}

	info := &api.RegInfo{Preview: api.ModPreview(canonical), Signature: sig.Signature}
	c.mu.Lock()
	c.regInfo = info
	c.state = CreatePreviewed
	c.err = nil
	c.mu.Unlock()

	c.log.Debug("module preview signed", "url", url, "signer", sig.Address)
	return info, nil
}

// Submit signs "<url>:<timestamp>" and registers the module. The signed
// preview is submitted when one exists; otherwise the submission itself is.
// On success the form and preview are cleared.
func (c *Create) Submit(ctx context.Context) (*CreateResult, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	form := c.Form()
	url := strings.TrimSpace(form.URL)
	if url == "" {
		return nil, c.fail(ErrEmptyURL)
	}
	if c.signer == nil {
		return nil, c.fail(signer.ErrNoSigner)
	}
	c.setState(CreateSubmitting, nil)

	ts := c.now().UnixMilli()
	sig, err := c.signer.Sign(ctx, []byte(fmt.Sprintf("%s:%d", url, ts)))
	if err != nil {
		return nil, c.fail(err)
	}
	name := strings.TrimSpace(form.Name)

	info := c.RegInfo()
	if info == nil {
		raw, err := json.Marshal(submitParams{
			URL:        url,
			Name:       name,
			Collateral: form.Collateral,
			Timestamp:  ts,
			Key:        sig.Address,
		})
		if err != nil {
			return nil, c.fail(err)
		}
		info = &api.RegInfo{Preview: raw, Signature: sig.Signature}
	}

	resp, raw, err := c.backend.Register(ctx, *info)
	if err != nil {
		return nil, c.fail(fmt.Errorf("failed to create module: %w", err))
	}

	mod := &api.Module{
		Name:       name,
		Key:        sig.Address,
		URL:        url,
		Collateral: decimal.NewFromFloat(form.Collateral),
		Created:    ts,
		Updated:    ts,
	}
	if resp != nil {
		if mod.Name == "" {
			mod.Name = resp.Name
		}
		mod.Desc = resp.Desc
		mod.Cid = resp.Cid
	}
	if mod.Name == "" {
		mod.Name = DefaultModuleName
	}

	c.mu.Lock()
	c.form = CreateForm{}
	c.regInfo = nil
	c.state = CreateDone
	c.err = nil
	c.mu.Unlock()

	c.log.Info("module created", "name", mod.Name, "key", mod.Key)
	return &CreateResult{
		Module:    mod,
		Signature: SignatureEnvelope{Address: sig.Address, Signature: sig.Signature, Timestamp: ts},
		Response:  raw,
	}, nil
}

// IsEmptyInput reports whether err stems from missing required input.
func IsEmptyInput(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}
