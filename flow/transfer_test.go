package flow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/chinmay1088/dhub/chains/substrate"
	"github.com/chinmay1088/dhub/chains/substrate/substratetest"
	"github.com/chinmay1088/dhub/signer"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oneMOD is one token in planck at 12 decimals.
var oneMOD = new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil)

func mod(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), oneMOD) }

type transferEnv struct {
	node   *substratetest.Node
	client *substrate.Client
	from   *wallet.Key
	to     *wallet.Key

	mu     sync.Mutex
	states []TransferState
}

func newTransferEnv(t *testing.T) *transferEnv {
	t.Helper()
	node := substratetest.NewNode()
	t.Cleanup(node.Close)
	client := substrate.NewClient(node.Dial())
	t.Cleanup(client.Close)

	from, err := wallet.NewKeyFromString("alice", wallet.KeyTypeEd25519)
	require.NoError(t, err)
	to, err := wallet.NewKeyFromString("bob", wallet.KeyTypeEd25519)
	require.NoError(t, err)
	return &transferEnv{node: node, client: client, from: from, to: to}
}

func (e *transferEnv) flow(t *testing.T, opts ...TransferOption) *Transfer {
	t.Helper()
	opts = append(opts, WithProgress(func(s TransferState, _ string) {
		e.mu.Lock()
		e.states = append(e.states, s)
		e.mu.Unlock()
	}))
	tr := NewTransfer(e.client, signer.NewLocal(e.from), opts...)
	_, err := tr.Connect(context.Background())
	require.NoError(t, err)
	return tr
}

func (e *transferEnv) seen() []TransferState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]TransferState(nil), e.states...)
}

func TestTransferFinalizes(t *testing.T) {
	env := newTransferEnv(t)
	env.node.SetBalance(env.from.Address(), mod(10))
	env.node.SetNonce(env.from.Address(), 3)
	env.node.Script(`"ready"`, `{"inBlock":"0x0a"}`, `{"finalized":"0x0a"}`)

	tr := env.flow(t)
	assert.Equal(t, 0, tr.Balance().Cmp(mod(10)))

	res, err := tr.Execute(context.Background(), env.to.Address(), "1.5")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "0x0a", res.BlockHash)
	assert.Equal(t, "1.5", res.Amount)
	assert.Equal(t, env.from.Address(), res.From)
	assert.Equal(t, env.to.Address(), res.To)
	assert.Equal(t, TransferFinalized, tr.State())

	to, amount := tr.Form()
	assert.Empty(t, to)
	assert.Empty(t, amount)

	submitted := env.node.Submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, substrate.TxHash(submitted[0]).Hex(), res.TxHash)

	ext, err := substrate.DecodeSignedExtrinsic(submitted[0], false)
	require.NoError(t, err)
	assert.Equal(t, env.from.AccountID(), ext.Signer)
	assert.Equal(t, substrate.SigEd25519, ext.SigTag)
	assert.Equal(t, uint64(3), ext.Nonce)

	pallet, call, dest, value, err := substrate.DecodeTransferCall(ext.Call)
	require.NoError(t, err)
	assert.Equal(t, substrate.DefaultBalancesPallet, pallet)
	assert.Equal(t, substrate.DefaultTransferKeepAlive, call)
	assert.Equal(t, env.to.AccountID(), dest)
	assert.Equal(t, "1500000000000", value.String())

	require.Eventually(t, func() bool { return env.node.Unsubscribes() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Subset(t, env.seen(), []TransferState{TransferSigning, TransferSubmitting, TransferInBlock, TransferFinalized})
}

func TestTransferTimesOut(t *testing.T) {
	env := newTransferEnv(t)
	env.node.SetBalance(env.from.Address(), mod(10))
	env.node.Script(`"ready"`, `{"broadcast":["peer"]}`)

	tr := env.flow(t, WithTimeout(100*time.Millisecond))
	_, err := tr.Execute(context.Background(), env.to.Address(), "1")
	require.ErrorIs(t, err, ErrTransactionTimeout)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, "Transaction timeout", Humanize(err))
	assert.Equal(t, TransferError, tr.State())
	assert.False(t, tr.Busy())

	require.Eventually(t, func() bool { return env.node.Unsubscribes() == 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, env.node.Unsubscribes(), "listener removed exactly once")

	to, amount := tr.Form()
	assert.Equal(t, env.to.Address(), to, "form kept for retry")
	assert.Equal(t, "1", amount)
}

func TestTransferDispatchError(t *testing.T) {
	env := newTransferEnv(t)
	env.node.SetBalance(env.from.Address(), mod(10))
	env.node.Script(`"ready"`,
		`{"status":{"inBlock":"0x0b"},"dispatchError":{"module":{"index":6,"error":"0x02000000"}}}`)

	tr := env.flow(t)
	_, err := tr.Execute(context.Background(), env.to.Address(), "2")
	require.Error(t, err)

	var dispatch *substrate.DispatchError
	require.True(t, errors.As(err, &dispatch))
	assert.True(t, dispatch.Decoded())
	assert.Equal(t, "transaction failed: balances.InsufficientBalance: Balance too low to send value.", err.Error())

	require.Eventually(t, func() bool { return env.node.Unsubscribes() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestTransferTerminalStatus(t *testing.T) {
	env := newTransferEnv(t)
	env.node.SetBalance(env.from.Address(), mod(10))
	env.node.Script(`"ready"`, `"dropped"`)

	tr := env.flow(t)
	_, err := tr.Execute(context.Background(), env.to.Address(), "2")
	assert.EqualError(t, err, "transaction dropped")
	require.Eventually(t, func() bool { return env.node.Unsubscribes() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestTransferChecksBalanceWithFeeBuffer(t *testing.T) {
	env := newTransferEnv(t)
	// exactly the amount, nothing left for fees
	env.node.SetBalance(env.from.Address(), mod(1))

	tr := env.flow(t)
	_, err := tr.Execute(context.Background(), env.to.Address(), "1")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, env.node.Submitted())

	env.node.SetBalance(env.from.Address(), new(big.Int).Add(mod(1), big.NewInt(DefaultFeeBuffer)))
	env.node.Script(`{"finalized":"0x0c"}`)
	_, err = tr.Execute(context.Background(), env.to.Address(), "1")
	require.NoError(t, err)
}

func TestTransferRejectsBadInputBeforeSubmitting(t *testing.T) {
	env := newTransferEnv(t)
	env.node.SetBalance(env.from.Address(), mod(10))
	tr := env.flow(t)
	ctx := context.Background()

	_, err := tr.Execute(ctx, "", "1")
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = tr.Execute(ctx, env.to.Address(), " ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = tr.Execute(ctx, env.to.Address(), "-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = tr.Execute(ctx, env.to.Address(), "0.0000000000001")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = tr.Execute(ctx, "not-an-address", "1")
	assert.ErrorContains(t, err, "Invalid recipient address")

	assert.Empty(t, env.node.Submitted())
}

func TestTransferRequiresConnectionAndWallet(t *testing.T) {
	env := newTransferEnv(t)

	tr := NewTransfer(env.client, signer.NewLocal(env.from))
	_, err := tr.Execute(context.Background(), env.to.Address(), "1")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, "API not ready", Humanize(err))

	tr = NewTransfer(env.client, signer.NewLocal(nil))
	_, err = tr.Connect(context.Background())
	require.NoError(t, err)
	_, err = tr.Execute(context.Background(), env.to.Address(), "1")
	assert.ErrorIs(t, err, ErrNoWallet)
	assert.Empty(t, env.node.Submitted())
}

func TestPlanckConversion(t *testing.T) {
	p, err := ToPlanck("0.000000000001", 12)
	require.NoError(t, err)
	assert.Equal(t, "1", p.String())

	p, err = ToPlanck("12.5", 12)
	require.NoError(t, err)
	assert.Equal(t, "12500000000000", p.String())

	_, err = ToPlanck("abc", 12)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ToPlanck("0", 12)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Equal(t, "12.5", FromPlanck(big.NewInt(12_500_000_000_000), 12).String())
	assert.Equal(t, "0", FromPlanck(nil, 12).String())
}

// rejectingSigner declines every payload the way an extension does when the
// user dismisses the request.
type rejectingSigner struct{ *signer.Local }

func (rejectingSigner) SignPayload(context.Context, []byte) ([]byte, error) {
	return nil, fmt.Errorf("agent error: %w", signer.ErrRejected)
}

func TestTransferHumanizesFailures(t *testing.T) {
	env := newTransferEnv(t)
	env.node.SetBalance(env.from.Address(), mod(10))

	tr := NewTransfer(env.client, rejectingSigner{signer.NewLocal(env.from)})
	_, err := tr.Connect(context.Background())
	require.NoError(t, err)

	_, err = tr.Execute(context.Background(), env.to.Address(), "1")
	require.Error(t, err)
	assert.Equal(t, CancelledHint, err.Error())
	assert.ErrorIs(t, err, signer.ErrRejected)
	assert.Equal(t, TransferError, tr.State())
	assert.Empty(t, env.node.Submitted())
}

func TestHumanize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"wasm trap: unreachable", MetadataMismatchHint},
		{"failed to decode metadata", MetadataMismatchHint},
		{"1010: Invalid Transaction: Inability to pay some fees", FeeBalanceHint},
		{"Cancelled by user", CancelledHint},
		{"something else", "something else"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Humanize(errors.New(tc.in)), tc.in)
	}
	assert.Empty(t, Humanize(nil))
}
