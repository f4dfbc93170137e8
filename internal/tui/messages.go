package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theanh9911/agno-console/internal/socket"
	"github.com/theanh9911/agno-console/internal/store"
)

// StoreChangeMsg signals that session data changed in the run store.
type StoreChangeMsg struct {
	Change store.Change
}

// ConnectionMsg signals a connection status transition.
type ConnectionMsg struct {
	Status socket.Status
	Detail string
}

// NoticeMsg adds a transient line to the notice area (auth failures,
// workflow errors).
type NoticeMsg struct {
	Level   string
	Message string
}

// NoticeExpiredMsg clears a notice after its display window.
type NoticeExpiredMsg struct {
	ID int
}

// SpinnerTickMsg updates spinner animation.
type SpinnerTickMsg time.Time

// ErrorMsg signals a fatal error.
type ErrorMsg struct {
	Error error
}

// waitForUpdate blocks on the adapter's message channel.
func waitForUpdate(a *StoreAdapter) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-a.MsgChannel()
		if !ok {
			return nil
		}
		return msg
	}
}

func expireNotice(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return NoticeExpiredMsg{ID: id}
	})
}
