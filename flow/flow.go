// Package flow holds the state machines behind dhub's user-facing actions:
// signing in, creating and registering modules, looking up users and
// transferring tokens. Each flow allows one outstanding operation at a time
// and always returns to a state from which the action can be retried.
package flow

import (
	"errors"
	"strings"

	"go.uber.org/atomic"
)

var (
	ErrBusy                = errors.New("another request is already in progress")
	ErrEmptyInput          = errors.New("Please fill in all fields")
	ErrInsufficientBalance = errors.New("Insufficient balance")
	ErrTransactionTimeout  = errors.New("Transaction timeout")
	ErrNotConnected        = errors.New("API not ready")
	ErrNoWallet            = errors.New("No wallet connected")
	ErrInvalidAmount       = errors.New("Invalid amount")
)

// Human-readable replacements for well-known chain and extension failures.
const (
	MetadataMismatchHint = "Metadata/Runtime mismatch detected.\n" +
		"Please open SubWallet -> Manage Networks -> Update Metadata, then retry."
	FeeBalanceHint = "Insufficient balance for fees."
	CancelledHint  = "Transaction cancelled by user."
)

// Humanize maps a transfer error to the message shown to the user.
func Humanize(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unreachable") || strings.Contains(msg, "metadata"):
		return MetadataMismatchHint
	case strings.Contains(msg, "1010"):
		return FeeBalanceHint
	case strings.Contains(strings.ToLower(msg), "cancel"):
		return CancelledHint
	}
	return msg
}

// humanError carries the user-facing message of a transfer failure while
// keeping the underlying error for errors.Is and errors.As.
type humanError struct {
	msg string
	err error
}

func (e *humanError) Error() string { return e.msg }
func (e *humanError) Unwrap() error { return e.err }

func humanize(err error) error {
	msg := Humanize(err)
	if msg == err.Error() {
		return err
	}
	return &humanError{msg: msg, err: err}
}

// guard admits one operation at a time.
type guard struct {
	busy atomic.Bool
}

func (g *guard) acquire() error {
	if g.busy.Swap(true) {
		return ErrBusy
	}
	return nil
}

func (g *guard) release() { g.busy.Store(false) }

// Busy reports whether an operation is outstanding.
func (g *guard) Busy() bool { return g.busy.Load() }
