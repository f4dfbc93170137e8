package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// SpinnerModel animates while any session is streaming.
type SpinnerModel struct {
	frames []string
	index  int
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a new spinner.
func NewSpinner() SpinnerModel {
	return SpinnerModel{frames: spinnerFrames}
}

// Tick returns a command that ticks the spinner.
func (s SpinnerModel) Tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return SpinnerTickMsg(t)
	})
}

// Update advances the animation.
func (s SpinnerModel) Update(msg tea.Msg) (SpinnerModel, tea.Cmd) {
	if _, ok := msg.(SpinnerTickMsg); ok {
		s.index = (s.index + 1) % len(s.frames)
		return s, s.Tick()
	}
	return s, nil
}

// View renders the current frame.
func (s SpinnerModel) View() string {
	return RunningStyle.Render(s.frames[s.index])
}
