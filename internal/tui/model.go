package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/theanh9911/agno-console/internal/run"
	"github.com/theanh9911/agno-console/internal/socket"
	"github.com/theanh9911/agno-console/internal/store"
)

type notice struct {
	id      int
	level   string
	message string
}

// Model is the main console model.
type Model struct {
	st      *store.Store
	mgr     *socket.Manager
	adapter *StoreAdapter

	sessions []store.SessionMeta
	filtered []store.SessionMeta
	selected int
	active   string // selected session id
	runs     []*run.WorkflowRun

	filter    textinput.Model
	filtering bool

	detail      viewport.Model
	showEvents  bool
	focusDetail bool

	spinner   SpinnerModel
	notices   []notice
	noticeSeq int

	width  int
	height int
	ready  bool
	err    error
}

// New creates the console model. The adapter is owned by the model and
// closed on quit.
func New(st *store.Store, mgr *socket.Manager) Model {
	filter := textinput.New()
	filter.Placeholder = "filter sessions"
	filter.Prompt = "/ "
	filter.CharLimit = 64

	return Model{
		st:      st,
		mgr:     mgr,
		adapter: NewStoreAdapter(st),
		filter:  filter,
		spinner: NewSpinner(),
	}
}

// Adapter exposes the store adapter so it can double as the socket and
// engine notifier.
func (m Model) Adapter() *StoreAdapter {
	return m.adapter
}

// WithManager attaches the connection manager after construction. The
// manager's notifier is the model's adapter, so the manager can only be
// built once the model exists.
func (m Model) WithManager(mgr *socket.Manager) Model {
	m.mgr = mgr
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick(),
		waitForUpdate(m.adapter),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.detail = viewport.New(m.detailWidth(), m.contentHeight())
		m.refreshDetail()
		return m, nil

	case StoreChangeMsg:
		m.refreshSessions()
		if m.active == "" && len(m.filtered) > 0 {
			m.active = m.filtered[0].SessionID
		}
		if msg.Change.SessionID == m.active || msg.Change.SessionID == "" {
			m.refreshDetail()
		}
		return m, waitForUpdate(m.adapter)

	case NoticeMsg:
		m.noticeSeq++
		m.notices = append(m.notices, notice{id: m.noticeSeq, level: msg.Level, message: msg.Message})
		return m, tea.Batch(
			expireNotice(m.noticeSeq, noticeTTL),
			waitForUpdate(m.adapter),
		)

	case NoticeExpiredMsg:
		for i, n := range m.notices {
			if n.id == msg.ID {
				m.notices = append(m.notices[:i], m.notices[i+1:]...)
				break
			}
		}
		return m, nil

	case SpinnerTickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ErrorMsg:
		m.err = msg.Error
		return m, nil
	}

	if m.filtering {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch msg.String() {
		case "esc":
			m.filtering = false
			m.filter.Blur()
			m.filter.SetValue("")
			m.applyFilter()
			return m, nil
		case "enter":
			m.filtering = false
			m.filter.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.adapter.Close()
		return m, tea.Quit

	case "/":
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink

	case "tab":
		m.focusDetail = !m.focusDetail
		return m, nil

	case "up", "k":
		if m.focusDetail {
			m.detail.ScrollUp(1)
		} else if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "j":
		if m.focusDetail {
			m.detail.ScrollDown(1)
		} else if m.selected < len(m.filtered)-1 {
			m.selected++
		}
		return m, nil

	case "pgup":
		m.detail.ScrollUp(m.detail.Height / 2)
		return m, nil

	case "pgdown":
		m.detail.ScrollDown(m.detail.Height / 2)
		return m, nil

	case "enter":
		if !m.focusDetail && m.selected < len(m.filtered) {
			m.active = m.filtered[m.selected].SessionID
			m.refreshDetail()
		}
		return m, nil

	case "e":
		m.showEvents = !m.showEvents
		m.refreshDetail()
		return m, nil

	case "r":
		if m.mgr != nil {
			_ = m.mgr.Reconnect()
		}
		return m, nil
	}

	return m, nil
}

// refreshSessions re-reads the session list and reapplies the filter.
func (m *Model) refreshSessions() {
	m.sessions = m.st.Sessions()

	// Sessions with runs but no rename event still need to be listed.
	known := make(map[string]bool, len(m.sessions))
	for _, s := range m.sessions {
		known[s.SessionID] = true
	}
	for _, id := range m.st.StreamingSessionIDs() {
		if !known[id] {
			m.sessions = append(m.sessions, store.SessionMeta{SessionID: id})
			known[id] = true
		}
	}
	for _, id := range m.st.HistorySessionIDs() {
		if !known[id] {
			m.sessions = append(m.sessions, store.SessionMeta{SessionID: id})
			known[id] = true
		}
	}

	m.applyFilter()
}

func (m *Model) applyFilter() {
	query := m.filter.Value()
	if query == "" {
		m.filtered = m.sessions
	} else {
		labels := make([]string, len(m.sessions))
		for i, s := range m.sessions {
			labels[i] = sessionLabel(s)
		}
		matches := fuzzy.Find(query, labels)
		m.filtered = make([]store.SessionMeta, len(matches))
		for i, match := range matches {
			m.filtered[i] = m.sessions[match.Index]
		}
	}
	if m.selected >= len(m.filtered) {
		m.selected = max(0, len(m.filtered)-1)
	}
}

// refreshDetail re-reads the active session's merged runs into the
// detail viewport, preserving scroll position when possible.
func (m *Model) refreshDetail() {
	if m.active == "" {
		m.detail.SetContent("No session selected")
		return
	}
	m.runs = m.st.Merged(m.active)
	atBottom := m.detail.AtBottom()
	m.detail.SetContent(m.renderRuns())
	if atBottom {
		m.detail.GotoBottom()
	}
}

func (m Model) detailWidth() int {
	return max(20, m.width-sessionPaneWidth-6)
}

func (m Model) contentHeight() int {
	// Header, notices, footer.
	return max(4, m.height-4-len(m.notices))
}

func sessionLabel(s store.SessionMeta) string {
	if s.Name != "" {
		return fmt.Sprintf("%s %s", s.Name, s.SessionID)
	}
	return s.SessionID
}
