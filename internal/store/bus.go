package store

import (
	"sync"
	"sync/atomic"
)

// ChangeReason says which aspect of a session changed.
type ChangeReason string

const (
	ReasonRuns      ChangeReason = "runs"
	ReasonStreaming ChangeReason = "streaming"
	ReasonSessions  ChangeReason = "sessions"
)

// Change is one store change notice. SessionID is empty for process-wide
// notices such as a store reset.
type Change struct {
	SessionID string
	Reason    ChangeReason
}

// changeBus fans change notices out to subscribers. Slow readers get
// ring-buffer behavior: the oldest buffered notice is dropped rather than
// blocking the dispatch cycle.
type changeBus struct {
	mu           sync.RWMutex
	subscribers  []chan Change
	bufferSize   int
	droppedCount int64
	closed       bool
}

func newChangeBus(bufferSize int) *changeBus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &changeBus{bufferSize: bufferSize}
}

func (b *changeBus) subscribe() <-chan Change {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Change, b.bufferSize)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

func (b *changeBus) unsubscribe(ch <-chan Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := make([]chan Change, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		if sub != ch {
			kept = append(kept, sub)
		} else {
			close(sub)
		}
	}
	b.subscribers = kept
}

func (b *changeBus) publish(c Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subscribers {
		select {
		case sub <- c:
		default:
			select {
			case <-sub: // drop oldest
				atomic.AddInt64(&b.droppedCount, 1)
			default:
			}
			select {
			case sub <- c:
			default:
				atomic.AddInt64(&b.droppedCount, 1)
			}
		}
	}
}

func (b *changeBus) dropped() int64 {
	return atomic.LoadInt64(&b.droppedCount)
}

func (b *changeBus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subscribers {
		close(sub)
	}
	b.subscribers = nil
}
