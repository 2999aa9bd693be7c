package substrate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Transaction status kinds reported by author_submitAndWatchExtrinsic.
const (
	StatusFuture          = "future"
	StatusReady           = "ready"
	StatusBroadcast       = "broadcast"
	StatusInBlock         = "inBlock"
	StatusRetracted       = "retracted"
	StatusFinalityTimeout = "finalityTimeout"
	StatusFinalized       = "finalized"
	StatusUsurped         = "usurped"
	StatusDropped         = "dropped"
	StatusInvalid         = "invalid"
)

// Status is one status notification of a watched extrinsic.
type Status struct {
	Kind          string
	BlockHash     string
	DispatchError *DispatchError
}

// IsFinalized reports whether the extrinsic reached a finalized block.
func (s *Status) IsFinalized() bool { return s.Kind == StatusFinalized }

// IsInBlock reports whether the extrinsic was included in a block.
func (s *Status) IsInBlock() bool { return s.Kind == StatusInBlock }

// IsTerminal reports whether no further notifications will follow.
func (s *Status) IsTerminal() bool {
	switch s.Kind {
	case StatusFinalized, StatusFinalityTimeout, StatusUsurped, StatusDropped, StatusInvalid:
		return true
	}
	return false
}

func (s *Status) String() string {
	if s.BlockHash != "" {
		return fmt.Sprintf("%s (%s)", s.Kind, s.BlockHash)
	}
	return s.Kind
}

// ParseStatus decodes a status notification. It accepts a bare transaction
// status ("ready" or {"inBlock": "0x.."}) as well as an envelope carrying a
// dispatch error: {"status": ..., "dispatchError": ...}.
func (t ErrorTable) ParseStatus(raw json.RawMessage) (*Status, error) {
	var env struct {
		Status        json.RawMessage `json:"status"`
		DispatchError json.RawMessage `json:"dispatchError"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Status) > 0 {
		st, err := parseTransactionStatus(env.Status)
		if err != nil {
			return nil, err
		}
		if len(env.DispatchError) > 0 && string(env.DispatchError) != "null" {
			st.DispatchError = t.Decode(env.DispatchError)
		}
		return st, nil
	}
	return parseTransactionStatus(raw)
}

func parseTransactionStatus(raw json.RawMessage) (*Status, error) {
	var kind string
	if err := json.Unmarshal(raw, &kind); err == nil {
		return &Status{Kind: normalizeKind(kind)}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj) != 1 {
		return nil, fmt.Errorf("unrecognized transaction status: %s", string(raw))
	}
	for k, v := range obj {
		st := &Status{Kind: normalizeKind(k)}
		var hash string
		if json.Unmarshal(v, &hash) == nil {
			st.BlockHash = hash
		}
		return st, nil
	}
	return nil, fmt.Errorf("unrecognized transaction status: %s", string(raw))
}

func normalizeKind(k string) string {
	if k == "" {
		return k
	}
	return strings.ToLower(k[:1]) + k[1:]
}
