package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle is the style for the top status bar.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorBackground).
			Padding(0, 1)

	// FooterStyle is the style for the key hints line.
	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			MarginTop(1)

	// PaneStyle frames the session list and run detail panes.
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// FocusedPaneStyle marks the pane that receives navigation keys.
	FocusedPaneStyle = PaneStyle.
				BorderForeground(ColorSecondary)

	// SessionStyle is the style for session list entries.
	SessionStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	// SelectedSessionStyle is the style for the highlighted session.
	SelectedSessionStyle = lipgloss.NewStyle().
				Foreground(ColorText).
				Background(ColorHighlight).
				Bold(true)

	// Run and step status styles
	PendingStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	RunningStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	CompletedStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	FailedStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	CancelledStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	// ToolStyle renders tool call lines in the run tree.
	ToolStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// EventStyle renders event log lines.
	EventStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	// ErrorStyle is for connection and workflow error banners.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// StreamingBadge marks sessions with a live run.
	StreamingBadge = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)
)

// statusStyle picks the style matching a run or step status.
func statusStyle(s string) lipgloss.Style {
	switch s {
	case "RUNNING":
		return RunningStyle
	case "COMPLETED":
		return CompletedStyle
	case "ERROR":
		return FailedStyle
	case "CANCELLED":
		return CancelledStyle
	default:
		return PendingStyle
	}
}
