// Package notifier holds the latest analysis of a watched file and pings
// live subscribers whenever it changes.
package notifier

import (
	"sync"

	"github.com/leapstack-labs/sqlgraph/internal/engine"
)

// Update is one published analysis outcome. Result holds the most recent
// successful analysis, so a failed recompute keeps the last good graph
// while Err reports why it is stale.
type Update struct {
	Version uint64
	Result  *engine.Result
	Err     error
}

// Notifier fans out update pings. Listeners receive an empty struct and
// should read Latest.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]struct{}
	latest    Update
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives pings when updates are available.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Publish stores an outcome and pings every listener.
func (n *Notifier) Publish(res *engine.Result, err error) {
	n.mu.Lock()
	n.latest.Version++
	if res != nil {
		n.latest.Result = res
	}
	n.latest.Err = err
	n.mu.Unlock()

	n.broadcast()
}

// Latest returns the most recent update. A zero Version means nothing has
// been published yet.
func (n *Notifier) Latest() Update {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.latest
}

// broadcast is non-blocking: a listener with a pending ping is skipped.
func (n *Notifier) broadcast() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
