// Package substratetest provides an in-process chain node for tests.
package substratetest

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/chinmay1088/dhub/chains/substrate"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Node is a scripted chain node served over an in-process RPC server.
type Node struct {
	srv *rpc.Server

	mu           sync.Mutex
	chain        string
	runtime      substrate.RuntimeVersion
	genesis      common.Hash
	accounts     map[string][]byte
	nonces       map[string]uint64
	script       []json.RawMessage
	submitted    [][]byte
	unsubscribes int
}

// NewNode returns a node named "Modchain Devnet" with an empty state.
func NewNode() *Node {
	n := &Node{
		srv:   rpc.NewServer(),
		chain: "Modchain Devnet",
		runtime: substrate.RuntimeVersion{
			SpecName:           "modchain",
			ImplName:           "modchain-node",
			SpecVersion:        100,
			ImplVersion:        1,
			TransactionVersion: 1,
		},
		genesis:  common.HexToHash("0x91b171bb158e2d3848fa23a9f1c25182fb8e20313b2c1eb49219da7a70ce90c3"),
		accounts: make(map[string][]byte),
		nonces:   make(map[string]uint64),
	}
	for name, svc := range map[string]interface{}{
		"system": &systemAPI{n},
		"state":  &stateAPI{n},
		"chain":  &chainAPI{n},
		"author": &authorAPI{n},
	} {
		if err := n.srv.RegisterName(name, svc); err != nil {
			panic(err)
		}
	}
	return n
}

// Dial returns an RPC client connected to the node.
func (n *Node) Dial() *rpc.Client {
	return rpc.DialInProc(n.srv)
}

// Close stops the server.
func (n *Node) Close() {
	n.srv.Stop()
}

// Genesis returns the genesis hash the node reports.
func (n *Node) Genesis() common.Hash { return n.genesis }

// Runtime returns the runtime version the node reports.
func (n *Node) Runtime() substrate.RuntimeVersion { return n.runtime }

// SetBalance funds address with free planck.
func (n *Node) SetBalance(address string, free *big.Int) {
	id, err := wallet.AccountIDFromAddress(address)
	if err != nil {
		panic(err)
	}
	info := substrate.EmptyAccount()
	info.Free = free
	info.Providers = 1

	n.mu.Lock()
	defer n.mu.Unlock()
	n.accounts[string(substrate.AccountStorageKey(id))] = info.Encode()
}

// SetNonce sets the next index of address.
func (n *Node) SetNonce(address string, nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nonces[address] = nonce
}

// Script sets the status notifications sent for every submission. Each
// entry is raw JSON, e.g. `"ready"` or `{"finalized":"0x.."}`.
func (n *Node) Script(statuses ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.script = n.script[:0]
	for _, s := range statuses {
		n.script = append(n.script, json.RawMessage(s))
	}
}

// Submitted returns the extrinsics received so far.
func (n *Node) Submitted() [][]byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]byte(nil), n.submitted...)
}

// Unsubscribes counts the watch subscriptions the client has dropped.
func (n *Node) Unsubscribes() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.unsubscribes
}

type systemAPI struct{ n *Node }

func (s *systemAPI) Chain() string {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	return s.n.chain
}

func (s *systemAPI) Properties() map[string]interface{} {
	return map[string]interface{}{
		"ss58Format":    wallet.DefaultSS58Prefix,
		"tokenDecimals": substrate.DefaultTokenDecimals,
		"tokenSymbol":   substrate.DefaultTokenSymbol,
	}
}

func (s *systemAPI) AccountNextIndex(address string) uint64 {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	return s.n.nonces[address]
}

type stateAPI struct{ n *Node }

func (s *stateAPI) GetRuntimeVersion() substrate.RuntimeVersion {
	return s.n.runtime
}

func (s *stateAPI) GetStorage(key hexutil.Bytes) *hexutil.Bytes {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	v, ok := s.n.accounts[string(key)]
	if !ok {
		return nil
	}
	out := hexutil.Bytes(v)
	return &out
}

type chainAPI struct{ n *Node }

func (c *chainAPI) GetBlockHash(number uint64) common.Hash {
	if number == 0 {
		return c.n.genesis
	}
	return common.Hash{}
}

type authorAPI struct{ n *Node }

func (a *authorAPI) SubmitAndWatchExtrinsic(ctx context.Context, extrinsic hexutil.Bytes) (*rpc.Subscription, error) {
	notifier, ok := rpc.NotifierFromContext(ctx)
	if !ok {
		return nil, rpc.ErrNotificationsUnsupported
	}
	sub := notifier.CreateSubscription()

	a.n.mu.Lock()
	a.n.submitted = append(a.n.submitted, append([]byte(nil), extrinsic...))
	script := append([]json.RawMessage(nil), a.n.script...)
	a.n.mu.Unlock()

	go func() {
		for _, st := range script {
			if err := notifier.Notify(sub.ID, st); err != nil {
				return
			}
		}
		<-sub.Err()
		a.n.mu.Lock()
		a.n.unsubscribes++
		a.n.mu.Unlock()
	}()
	return sub, nil
}
