package poller

import (
	"context"
	"sync"

	"github.com/mark3labs/fetcch-go"
)

// SettledFunc is called once when a tracked request settles.
type SettledFunc func(status *fetcch.RequestStatus)

// FailedFunc is called once when a tracked request stops without settling
// for a reason other than cancellation, e.g. fetcch.ErrSettlementTimedOut.
type FailedFunc func(id fetcch.RequestID, err error)

// Tracker runs at most one watch at a time. Tracking a new request id
// cancels the previous watch, and callbacks of a cancelled or superseded
// watch are never invoked.
type Tracker struct {
	poller *Poller

	mu         sync.Mutex
	generation uint64
	active     fetcch.RequestID
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewTracker creates a Tracker that watches requests with p.
func NewTracker(p *Poller) *Tracker {
	return &Tracker{poller: p}
}

// Track starts watching id, superseding any active watch. The watch stops
// when parent is cancelled, when Stop is called, or when another id is tracked.
// Either callback may be nil.
func (t *Tracker) Track(parent context.Context, id fetcch.RequestID, onSettled SettledFunc, onFailed FailedFunc) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.generation++
	gen := t.generation
	t.active = id
	t.running = true
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		status, err := t.poller.Watch(ctx, id)

		t.mu.Lock()
		current := t.generation == gen && ctx.Err() == nil
		if t.generation == gen {
			t.running = false
			t.cancel = nil
		}
		t.mu.Unlock()

		if !current {
			return
		}

		if err != nil {
			if onFailed != nil {
				onFailed(id, err)
			}
			return
		}
		if onSettled != nil {
			onSettled(status)
		}
	}()
}

// Stop cancels the active watch, if any. It does not wait for the watch
// goroutine to exit; use Wait for that.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.generation++
	t.running = false
}

// Active returns the request id being watched and whether a watch is running.
func (t *Tracker) Active() (fetcch.RequestID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active, t.running
}

// Wait blocks until the most recently started watch has exited.
func (t *Tracker) Wait() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done != nil {
		<-done
	}
}
