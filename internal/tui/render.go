package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theanh9911/agno-console/internal/run"
	"github.com/theanh9911/agno-console/internal/socket"
)

const (
	sessionPaneWidth = 32
	noticeTTL        = 6 * time.Second
	maxContentLines  = 12
)

// View renders the console.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("fatal: %v", m.err))
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	for _, n := range m.notices {
		b.WriteString(ErrorStyle.Render("! "+n.message) + "\n")
	}

	left := m.renderSessionPane()
	right := m.renderDetailPane()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	status := string(socket.StatusDisconnected)
	endpoint := ""
	if m.mgr != nil {
		status = string(m.mgr.Status())
		endpoint = m.mgr.Endpoint()
	}

	head := fmt.Sprintf("agno console  %s  [%s]", endpoint, status)
	if m.st.IsStreaming(m.active) {
		head += "  " + m.spinner.View() + " streaming"
	}
	return HeaderStyle.Render(head)
}

func (m Model) renderSessionPane() string {
	var lines []string
	if m.filtering || m.filter.Value() != "" {
		lines = append(lines, m.filter.View())
	}
	if len(m.filtered) == 0 {
		lines = append(lines, PendingStyle.Render("no sessions"))
	}
	for i, s := range m.filtered {
		label := s.SessionID
		if s.Name != "" {
			label = s.Name
		}
		if len(label) > sessionPaneWidth-4 {
			label = label[:sessionPaneWidth-5] + "…"
		}
		if m.st.IsStreaming(s.SessionID) {
			label = StreamingBadge.Render("●") + " " + label
		} else {
			label = "  " + label
		}
		if i == m.selected && !m.focusDetail {
			lines = append(lines, SelectedSessionStyle.Render(label))
		} else {
			lines = append(lines, SessionStyle.Render(label))
		}
	}

	style := PaneStyle
	if !m.focusDetail {
		style = FocusedPaneStyle
	}
	return style.
		Width(sessionPaneWidth).
		Height(m.contentHeight()).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderDetailPane() string {
	style := PaneStyle
	if m.focusDetail {
		style = FocusedPaneStyle
	}
	return style.
		Width(m.detailWidth()).
		Height(m.contentHeight()).
		Render(m.detail.View())
}

func (m Model) renderFooter() string {
	keys := "↑/↓ navigate · enter select · tab focus · / filter · e events · r reconnect · q quit"
	return FooterStyle.Render(keys)
}

// renderRuns renders the merged run list for the active session, oldest
// first, matching the order the store returns.
func (m Model) renderRuns() string {
	if len(m.runs) == 0 {
		return PendingStyle.Render("no runs in this session yet")
	}

	parts := make([]string, 0, len(m.runs))
	for _, r := range m.runs {
		parts = append(parts, m.renderRun(r))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderRun(r *run.WorkflowRun) string {
	var b strings.Builder

	status := statusStyle(string(r.Status)).Render(string(r.Status))
	when := ""
	if r.CreatedAt > 0 {
		when = time.Unix(r.CreatedAt, 0).Format("15:04:05")
	}
	b.WriteString(fmt.Sprintf("%s %s  %s", status, shortID(r.RunID), when))
	if r.RunInput != "" {
		b.WriteString("\n  " + SessionStyle.Render("» "+truncate(r.RunInput, m.detailWidth()-6)))
	}

	for _, step := range r.StepResults {
		b.WriteString("\n" + m.renderStep(step, 1))
	}
	for _, ex := range r.Executors {
		b.WriteString("\n" + m.renderExecutor(ex, 1))
	}

	if r.Content != "" {
		b.WriteString("\n  " + clampLines(r.Content, maxContentLines))
	}
	if r.Metrics != nil && r.Metrics.TotalTokens > 0 {
		b.WriteString("\n  " + PendingStyle.Render(
			fmt.Sprintf("tokens in=%d out=%d total=%d  %.2fs",
				r.Metrics.InputTokens, r.Metrics.OutputTokens,
				r.Metrics.TotalTokens, r.Metrics.Duration)))
	}

	if m.showEvents && len(r.Events) > 0 {
		b.WriteString("\n  " + PendingStyle.Render("events:"))
		for _, e := range r.Events {
			b.WriteString("\n" + m.renderEvent(e))
		}
	}
	return b.String()
}

func (m Model) renderStep(s *run.StepResult, depth int) string {
	indent := strings.Repeat("  ", depth)
	name := s.StepName
	if name == "" {
		name = s.StepID
	}
	kind := ""
	if s.StepType != "" && s.StepType != run.StepTypeStep {
		kind = " (" + string(s.StepType) + ")"
	}

	line := fmt.Sprintf("%s%s %s%s", indent, stepGlyph(s.Status), name, kind)
	if s.Error != "" {
		line += " " + FailedStyle.Render(truncate(s.Error, 60))
	}

	var b strings.Builder
	b.WriteString(line)
	for _, tc := range s.Tools {
		b.WriteString("\n" + indent + "  " + m.renderTool(tc))
	}
	for _, child := range s.Steps {
		b.WriteString("\n" + m.renderStep(child, depth+1))
	}
	return b.String()
}

func (m Model) renderExecutor(ex *run.ExecutorRun, depth int) string {
	indent := strings.Repeat("  ", depth)
	name := ex.AgentName
	if name == "" {
		name = ex.TeamName
	}
	if name == "" {
		name = shortID(ex.RunID)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s%s @%s", indent, stepGlyph(ex.Status), name))
	for _, tc := range ex.Tools {
		b.WriteString("\n" + indent + "  " + m.renderTool(tc))
	}
	if ex.Content != "" {
		b.WriteString("\n" + indent + "  " + clampLines(ex.Content, maxContentLines))
	}
	return b.String()
}

func (m Model) renderTool(tc run.ToolCall) string {
	glyph := "…"
	if tc.Completed {
		glyph = "✓"
	}
	if tc.Error != "" {
		glyph = "✗"
	}
	line := ToolStyle.Render(fmt.Sprintf("%s %s", glyph, tc.ToolName))
	if tc.Error != "" {
		line += " " + FailedStyle.Render(truncate(tc.Error, 60))
	}
	return line
}

func (m Model) renderEvent(e run.LogEntry) string {
	when := ""
	if e.CreatedAt > 0 {
		when = time.Unix(e.CreatedAt, 0).Format("15:04:05") + " "
	}
	return "    " + EventStyle.Render(when+e.Type)
}

func stepGlyph(s run.Status) string {
	switch s {
	case run.StatusRunning:
		return RunningStyle.Render("▶")
	case run.StatusCompleted:
		return CompletedStyle.Render("✓")
	case run.StatusError:
		return FailedStyle.Render("✗")
	case run.StatusCancelled:
		return CancelledStyle.Render("⊘")
	default:
		return PendingStyle.Render("○")
	}
}

func shortID(id string) string {
	if run.IsPlaceholderID(id) {
		return "(pending)"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if n <= 1 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// clampLines keeps the tail of long streaming content so the newest
// output stays visible.
func clampLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n  ")
	}
	clipped := lines[len(lines)-n:]
	return PendingStyle.Render(fmt.Sprintf("… %d lines hidden", len(lines)-n)) +
		"\n  " + strings.Join(clipped, "\n  ")
}
