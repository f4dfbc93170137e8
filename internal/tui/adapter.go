package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theanh9911/agno-console/internal/store"
)

// StoreAdapter bridges store change notifications to Bubbletea messages.
// It also implements the socket and engine notifier interfaces so auth
// failures and workflow errors surface as notices in the UI.
type StoreAdapter struct {
	st      *store.Store
	changes <-chan store.Change
	msgCh   chan tea.Msg
	closeCh chan struct{}
	mu      sync.Mutex
	closed  bool
}

// NewStoreAdapter subscribes to the store and starts forwarding.
func NewStoreAdapter(st *store.Store) *StoreAdapter {
	a := &StoreAdapter{
		st:      st,
		changes: st.Subscribe(),
		msgCh:   make(chan tea.Msg, 100),
		closeCh: make(chan struct{}),
	}
	go a.run()
	return a
}

// MsgChannel returns the channel for Bubbletea to read from.
func (a *StoreAdapter) MsgChannel() <-chan tea.Msg {
	return a.msgCh
}

// Close shuts down the adapter.
func (a *StoreAdapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	close(a.closeCh)
	a.st.Unsubscribe(a.changes)
}

func (a *StoreAdapter) run() {
	for {
		select {
		case <-a.closeCh:
			close(a.msgCh)
			return
		case c, ok := <-a.changes:
			if !ok {
				close(a.msgCh)
				return
			}
			a.send(StoreChangeMsg{Change: c})
		}
	}
}

func (a *StoreAdapter) send(msg tea.Msg) {
	select {
	case a.msgCh <- msg:
	default:
		// Drop if the UI is not keeping up; the next store change
		// triggers a full re-read anyway.
	}
}

// ConnectionError implements socket.Notifier.
func (a *StoreAdapter) ConnectionError(msg string) {
	a.send(NoticeMsg{Level: "error", Message: msg})
}

// AuthError implements socket.Notifier.
func (a *StoreAdapter) AuthError(msg string) {
	a.send(NoticeMsg{Level: "error", Message: msg})
}

// WorkflowError implements engine.Notifier.
func (a *StoreAdapter) WorkflowError(sessionID, msg string) {
	a.send(NoticeMsg{Level: "error", Message: "workflow failed: " + msg})
}
