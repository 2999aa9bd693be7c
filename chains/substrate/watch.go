package substrate

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"
)

// ErrSubscriptionClosed is reported when the node or the connection ends a
// status subscription before the extrinsic reached a terminal state.
var ErrSubscriptionClosed = errors.New("subscription closed")

// Watch delivers the status notifications of one submitted extrinsic.
type Watch struct {
	sub     *rpc.ClientSubscription
	raw     <-chan json.RawMessage
	table   ErrorTable
	updates chan *Status
	errs    chan error

	once sync.Once
	done chan struct{}
}

func newWatch(sub *rpc.ClientSubscription, raw <-chan json.RawMessage, table ErrorTable) *Watch {
	w := &Watch{
		sub:     sub,
		raw:     raw,
		table:   table,
		updates: make(chan *Status),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Watch) loop() {
	for {
		select {
		case <-w.done:
			return
		case err := <-w.sub.Err():
			select {
			case <-w.done:
				return
			default:
			}
			if err == nil {
				err = ErrSubscriptionClosed
			}
			w.fail(err)
			return
		case msg := <-w.raw:
			st, err := w.table.ParseStatus(msg)
			if err != nil {
				w.fail(err)
				return
			}
			select {
			case w.updates <- st:
			case <-w.done:
				return
			}
		}
	}
}

func (w *Watch) fail(err error) {
	select {
	case w.errs <- err:
	default:
	}
}

// Updates yields parsed status notifications.
func (w *Watch) Updates() <-chan *Status { return w.updates }

// Err yields at most one subscription or decoding error.
func (w *Watch) Err() <-chan error { return w.errs }

// Unsubscribe stops the watch. Only the first call reaches the node.
func (w *Watch) Unsubscribe() {
	w.once.Do(func() {
		close(w.done)
		w.sub.Unsubscribe()
	})
}
