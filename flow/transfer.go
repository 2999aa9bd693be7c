package flow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/chinmay1088/dhub/chains/substrate"
	"github.com/chinmay1088/dhub/signer"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/shopspring/decimal"
)

// Transfer defaults.
const (
	DefaultTransferTimeout = 120 * time.Second
	DefaultFeeBuffer       = 100_000_000
)

// TransferState is the state of the transfer flow.
type TransferState string

const (
	TransferDisconnected TransferState = "disconnected"
	TransferConnecting   TransferState = "connecting"
	TransferReady        TransferState = "ready"
	TransferChecking     TransferState = "checking"
	TransferSigning      TransferState = "signing"
	TransferSubmitting   TransferState = "submitting"
	TransferInBlock      TransferState = "in-block"
	TransferFinalized    TransferState = "finalized"
	TransferError        TransferState = "error"
)

// Chain is the part of the chain client the transfer flow uses.
type Chain interface {
	Connect(ctx context.Context) (*substrate.ChainMetadata, error)
	Balance(ctx context.Context, address string) (*big.Int, error)
	NewTransfer(ctx context.Context, from, to string, amount *big.Int) (*substrate.Transaction, error)
	SubmitAndWatch(ctx context.Context, extrinsic []byte) (*substrate.Watch, error)
}

// TransferResult describes a finalized transfer.
type TransferResult struct {
	Success   bool      `json:"success"`
	BlockHash string    `json:"blockHash"`
	TxHash    string    `json:"txHash"`
	Amount    string    `json:"amount"`
	To        string    `json:"to"`
	From      string    `json:"from"`
	Timestamp time.Time `json:"timestamp"`
}

// TransferOption configures a Transfer.
type TransferOption func(*Transfer)

// WithTimeout bounds the wait for finalization.
func WithTimeout(d time.Duration) TransferOption {
	return func(t *Transfer) { t.timeout = d }
}

// WithFeeBuffer sets the planck kept aside for fees in the balance check.
func WithFeeBuffer(planck *big.Int) TransferOption {
	return func(t *Transfer) { t.feeBuffer = planck }
}

// WithLogger sets the flow logger.
func WithLogger(log *slog.Logger) TransferOption {
	return func(t *Transfer) {
		if log != nil {
			t.log = log
		}
	}
}

// WithProgress registers a callback invoked on every state change.
func WithProgress(fn func(TransferState, string)) TransferOption {
	return func(t *Transfer) { t.progress = fn }
}

// Transfer sends tokens from the connected wallet and waits for finality.
type Transfer struct {
	guard

	chain     Chain
	signer    signer.PayloadSigner
	log       *slog.Logger
	timeout   time.Duration
	feeBuffer *big.Int
	progress  func(TransferState, string)
	now       func() time.Time

	mu      sync.Mutex
	state   TransferState
	meta    *substrate.ChainMetadata
	balance *big.Int
	to      string
	amount  string
}

// NewTransfer returns a transfer flow signing with s.
func NewTransfer(chain Chain, s signer.PayloadSigner, opts ...TransferOption) *Transfer {
	t := &Transfer{
		chain:     chain,
		signer:    s,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:   DefaultTransferTimeout,
		feeBuffer: big.NewInt(DefaultFeeBuffer),
		now:       time.Now,
		state:     TransferDisconnected,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transfer) setState(s TransferState, detail string) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
	if t.progress != nil {
		t.progress(s, detail)
	}
}

// State returns the current state.
func (t *Transfer) State() TransferState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Metadata returns the chain metadata read by Connect.
func (t *Transfer) Metadata() *substrate.ChainMetadata {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.meta
}

// Balance returns the last known free balance in planck.
func (t *Transfer) Balance() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance
}

// Form returns the pending recipient and amount.
func (t *Transfer) Form() (to, amount string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.to, t.amount
}

// SetForm stores the recipient and amount.
func (t *Transfer) SetForm(to, amount string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.to, t.amount = to, amount
}

func (t *Transfer) address() string {
	if t.signer == nil {
		return ""
	}
	return t.signer.Address()
}

// Connect reads the chain metadata and, when a wallet is connected, its
// balance.
func (t *Transfer) Connect(ctx context.Context) (*substrate.ChainMetadata, error) {
	t.setState(TransferConnecting, "")
	meta, err := t.chain.Connect(ctx)
	if err != nil {
		t.setState(TransferError, err.Error())
		return nil, fmt.Errorf("Connection error: %w", err)
	}
	t.mu.Lock()
	t.meta = meta
	t.mu.Unlock()

	if addr := t.address(); addr != "" {
		if _, err := t.RefreshBalance(ctx); err != nil {
			t.log.Warn("failed to read balance", "address", addr, "err", err)
		}
	}
	t.setState(TransferReady, meta.String())
	return meta, nil
}

// RefreshBalance re-reads the wallet balance.
func (t *Transfer) RefreshBalance(ctx context.Context) (*big.Int, error) {
	addr := t.address()
	if addr == "" {
		return nil, ErrNoWallet
	}
	bal, err := t.chain.Balance(ctx, addr)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.balance = bal
	t.mu.Unlock()
	return bal, nil
}

// ToPlanck converts a decimal token amount to planck.
func ToPlanck(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !d.IsPositive() {
		return nil, ErrInvalidAmount
	}
	planck := d.Shift(int32(decimals))
	if !planck.IsInteger() {
		return nil, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, decimals)
	}
	return planck.BigInt(), nil
}

// FromPlanck formats planck as a decimal token amount.
func FromPlanck(planck *big.Int, decimals uint8) decimal.Decimal {
	if planck == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(planck, -int32(decimals))
}

// Execute transfers amount tokens to the recipient. Missing input is
// rejected before anything touches the network. Returned errors read as
// Humanize describes them and still unwrap to their cause.
func (t *Transfer) Execute(ctx context.Context, to, amount string) (*TransferResult, error) {
	if err := t.acquire(); err != nil {
		return nil, err
	}
	defer t.release()

	t.SetForm(to, amount)
	res, err := t.execute(ctx, strings.TrimSpace(to), strings.TrimSpace(amount))
	if err != nil {
		err = humanize(err)
		t.setState(TransferError, err.Error())
		return nil, err
	}
	t.SetForm("", "")
	t.setState(TransferFinalized, res.BlockHash)
	return res, nil
}

func (t *Transfer) execute(ctx context.Context, to, amount string) (*TransferResult, error) {
	if to == "" || amount == "" {
		return nil, ErrEmptyInput
	}
	meta := t.Metadata()
	if meta == nil {
		return nil, ErrNotConnected
	}
	from := t.address()
	if from == "" {
		return nil, ErrNoWallet
	}
	planck, err := ToPlanck(amount, meta.Decimals)
	if err != nil {
		return nil, err
	}
	if !wallet.IsValidAddress(to) {
		return nil, fmt.Errorf("Invalid recipient address: %s", to)
	}

	t.setState(TransferChecking, "")
	balance, err := t.RefreshBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	need := new(big.Int).Add(planck, t.feeBuffer)
	if balance.Cmp(need) < 0 {
		return nil, fmt.Errorf("%w: have %s, need %s %s", ErrInsufficientBalance,
			FromPlanck(balance, meta.Decimals), FromPlanck(need, meta.Decimals), meta.Symbol)
	}

	tx, err := t.chain.NewTransfer(ctx, from, to, planck)
	if err != nil {
		return nil, err
	}

	t.setState(TransferSigning, "")
	sig, err := t.signer.SignPayload(ctx, tx.Payload())
	if err != nil {
		return nil, err
	}
	ext, err := tx.BuildSigned(t.signer.CryptoType(), sig)
	if err != nil {
		return nil, err
	}

	t.setState(TransferSubmitting, "")
	watch, err := t.chain.SubmitAndWatch(ctx, ext)
	if err != nil {
		return nil, err
	}
	txHash := substrate.TxHash(ext).Hex()

	blockHash, err := t.await(ctx, watch)
	if err != nil {
		return nil, err
	}

	if _, err := t.RefreshBalance(ctx); err != nil {
		t.log.Warn("failed to refresh balance", "err", err)
	}
	return &TransferResult{
		Success:   true,
		BlockHash: blockHash,
		TxHash:    txHash,
		Amount:    FromPlanck(planck, meta.Decimals).String(),
		To:        to,
		From:      from,
		Timestamp: t.now().UTC(),
	}, nil
}

// await waits for finalization. The status listener is removed exactly
// once, whichever way the wait ends.
func (t *Transfer) await(ctx context.Context, watch *substrate.Watch) (string, error) {
	var once sync.Once
	removeListener := func() {
		once.Do(func() {
			watch.Unsubscribe()
			t.log.Debug("status listener removed")
		})
	}
	defer removeListener()

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
			removeListener()
			return "", ErrTransactionTimeout
		case err := <-watch.Err():
			return "", fmt.Errorf("transaction status error: %w", err)
		case st := <-watch.Updates():
			t.log.Debug("transaction status", "status", st.String())
			if st.DispatchError != nil {
				return "", fmt.Errorf("transaction failed: %w", st.DispatchError)
			}
			switch {
			case st.IsInBlock():
				t.setState(TransferInBlock, st.BlockHash)
			case st.IsFinalized():
				return st.BlockHash, nil
			case st.IsTerminal():
				return "", fmt.Errorf("transaction %s", st.Kind)
			}
		}
	}
}

// IsTimeout reports whether err is a finalization timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTransactionTimeout)
}
