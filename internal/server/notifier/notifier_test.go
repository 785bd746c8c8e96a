package notifier

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlgraph/internal/engine"
)

func TestNotifier_SubscribeUnsubscribe(t *testing.T) {
	n := New()

	ch := n.Subscribe()
	require.NotNil(t, ch)

	n.mu.RLock()
	assert.Len(t, n.listeners, 1)
	n.mu.RUnlock()

	n.Unsubscribe(ch)

	n.mu.RLock()
	assert.Empty(t, n.listeners)
	n.mu.RUnlock()

	_, open := <-ch
	assert.False(t, open)
}

func TestNotifier_Publish(t *testing.T) {
	n := New()
	assert.Zero(t, n.Latest().Version)

	ch1 := n.Subscribe()
	ch2 := n.Subscribe()
	defer n.Unsubscribe(ch1)
	defer n.Unsubscribe(ch2)

	first := &engine.Result{Name: "q.sql"}
	n.Publish(first, nil)

	for _, ch := range []chan struct{}{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(100 * time.Millisecond):
			t.Fatal("listener did not receive ping")
		}
	}

	latest := n.Latest()
	assert.Equal(t, uint64(1), latest.Version)
	assert.Same(t, first, latest.Result)
	assert.NoError(t, latest.Err)

	boom := errors.New("parse failed")
	n.Publish(nil, boom)

	latest = n.Latest()
	assert.Equal(t, uint64(2), latest.Version)
	assert.Same(t, first, latest.Result, "failed recompute keeps the last good result")
	assert.ErrorIs(t, latest.Err, boom)
}

func TestNotifier_PublishNonBlocking(t *testing.T) {
	n := New()

	ch := n.Subscribe()
	defer n.Unsubscribe(ch)
	ch <- struct{}{}

	done := make(chan struct{})
	go func() {
		n.Publish(&engine.Result{}, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("Publish blocked on full channel")
	}
}

func TestNotifier_Concurrent(t *testing.T) {
	n := New()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := n.Subscribe()
			n.Publish(&engine.Result{}, nil)
			_ = n.Latest()
			n.Unsubscribe(ch)
		}()
	}
	wg.Wait()

	n.mu.RLock()
	assert.Empty(t, n.listeners)
	n.mu.RUnlock()
	assert.Equal(t, uint64(10), n.Latest().Version)
}
