package substrate_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/chinmay1088/dhub/chains/substrate"
	"github.com/chinmay1088/dhub/chains/substrate/substratetest"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*substratetest.Node, *substrate.Client) {
	t.Helper()
	node := substratetest.NewNode()
	t.Cleanup(node.Close)
	c := substrate.NewClient(node.Dial())
	t.Cleanup(c.Close)
	return node, c
}

func TestConnectReadsMetadata(t *testing.T) {
	node, c := newClient(t)

	meta, err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Modchain Devnet", meta.Chain)
	assert.Equal(t, uint32(100), meta.Runtime.SpecVersion)
	assert.Equal(t, node.Genesis(), meta.GenesisHash)
	assert.Equal(t, uint8(12), meta.Decimals)
	assert.Equal(t, "MOD", meta.Symbol)
}

func TestBalanceAndNonce(t *testing.T) {
	node, c := newClient(t)
	key, err := wallet.NewKeyFromString("alice", wallet.KeyTypeEd25519)
	require.NoError(t, err)

	bal, err := c.Balance(context.Background(), key.Address())
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal.Int64(), "unfunded account")

	node.SetBalance(key.Address(), big.NewInt(42_000))
	node.SetNonce(key.Address(), 5)

	bal, err = c.Balance(context.Background(), key.Address())
	require.NoError(t, err)
	assert.Equal(t, int64(42_000), bal.Int64())

	nonce, err := c.NextIndex(context.Background(), key.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), nonce)

	_, err = c.Balance(context.Background(), "not-an-address")
	assert.Error(t, err)
}

func TestSubmitAndWatch(t *testing.T) {
	node, c := newClient(t)
	alice, err := wallet.NewKeyFromString("alice", wallet.KeyTypeEd25519)
	require.NoError(t, err)
	bob, err := wallet.NewKeyFromString("bob", wallet.KeyTypeEd25519)
	require.NoError(t, err)
	node.SetNonce(alice.Address(), 2)
	node.Script(`"ready"`, `{"inBlock":"0x01"}`, `{"finalized":"0x01"}`)

	ctx := context.Background()
	tx, err := c.NewTransfer(ctx, alice.Address(), bob.Address(), big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tx.Nonce)
	assert.Equal(t, node.Genesis(), tx.GenesisHash)

	sig, err := alice.Sign(tx.SigningPayload())
	require.NoError(t, err)
	ext, err := tx.BuildSigned("ed25519", sig)
	require.NoError(t, err)

	w, err := c.SubmitAndWatch(ctx, ext)
	require.NoError(t, err)

	var kinds []string
	timeout := time.After(5 * time.Second)
	for len(kinds) < 3 {
		select {
		case st := <-w.Updates():
			kinds = append(kinds, st.Kind)
		case err := <-w.Err():
			t.Fatalf("watch failed: %v", err)
		case <-timeout:
			t.Fatal("timed out waiting for status")
		}
	}
	assert.Equal(t, []string{"ready", "inBlock", "finalized"}, kinds)

	w.Unsubscribe()
	w.Unsubscribe()
	require.Eventually(t, func() bool { return node.Unsubscribes() == 1 }, 5*time.Second, 10*time.Millisecond)

	submitted := node.Submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, ext, submitted[0])
}

func TestWatchReportsClosedSubscription(t *testing.T) {
	node, c := newClient(t)
	alice, err := wallet.NewKeyFromString("alice", wallet.KeyTypeEd25519)
	require.NoError(t, err)
	bob, err := wallet.NewKeyFromString("bob", wallet.KeyTypeEd25519)
	require.NoError(t, err)
	node.Script(`"ready"`)

	ctx := context.Background()
	tx, err := c.NewTransfer(ctx, alice.Address(), bob.Address(), big.NewInt(7))
	require.NoError(t, err)
	sig, err := alice.Sign(tx.SigningPayload())
	require.NoError(t, err)
	ext, err := tx.BuildSigned("ed25519", sig)
	require.NoError(t, err)

	w, err := c.SubmitAndWatch(ctx, ext)
	require.NoError(t, err)
	select {
	case st := <-w.Updates():
		assert.Equal(t, "ready", st.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for status")
	}

	c.Close()
	select {
	case err := <-w.Err():
		assert.ErrorIs(t, err, substrate.ErrSubscriptionClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("closed subscription was not reported")
	}
}

func TestNewTransferRejectsBadInput(t *testing.T) {
	_, c := newClient(t)
	alice, err := wallet.NewKeyFromString("alice", wallet.KeyTypeEd25519)
	require.NoError(t, err)

	_, err = c.NewTransfer(context.Background(), alice.Address(), alice.Address(), big.NewInt(0))
	assert.Error(t, err)
	_, err = c.NewTransfer(context.Background(), alice.Address(), "bogus", big.NewInt(1))
	assert.Error(t, err)
}
