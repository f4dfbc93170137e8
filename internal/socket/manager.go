// Package socket maintains the WebSocket connection to a workflow event
// endpoint: one live connection per endpoint, an authenticate handshake,
// bounded reconnect with exponential backoff, and a FIFO inbound queue
// drained atomically by the reconciliation engine. Session and run mute
// sets filter frames before they ever reach the engine.
package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/theanh9911/agno-console/internal/logging"
)

// Status is the connection lifecycle state.
type Status string

const (
	StatusDisconnected  Status = "disconnected"
	StatusConnecting    Status = "connecting"
	StatusConnected     Status = "connected"
	StatusAuthenticated Status = "authenticated"
	StatusFailed        Status = "failed"
)

// Notifier receives the user-facing notifications the manager emits:
// terminal auth failures and reconnect exhaustion. The TUI and the relay
// server plug in here; tests use NopNotifier.
type Notifier interface {
	ConnectionError(msg string)
	AuthError(msg string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) ConnectionError(string) {}
func (NopNotifier) AuthError(string)       {}

// Config configures a connection manager.
type Config struct {
	Endpoint             string
	SecurityKey          string
	MaxReconnectAttempts int
	MaxAuthAttempts      int
	HandshakeTimeout     time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.MaxReconnectAttempts <= 0 {
		out.MaxReconnectAttempts = 3
	}
	if out.MaxAuthAttempts <= 0 {
		out.MaxAuthAttempts = 2
	}
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = 10 * time.Second
	}
	return out
}

// Option configures optional manager collaborators.
type Option func(*Manager)

// WithNotifier sets the notification sink.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithTeardownHook sets the callback invoked when a connection goes away
// (any close, intentional or not). The engine uses it to clear per-session
// streaming flags, since in-flight state is meaningless without a socket.
func WithTeardownHook(fn func()) Option {
	return func(m *Manager) { m.onTeardown = fn }
}

// Manager owns one WebSocket connection to a workflow event endpoint.
type Manager struct {
	cfg      Config
	logger   *logging.Logger
	notifier Notifier

	onTeardown func()

	mu                sync.Mutex
	conn              *websocket.Conn
	status            Status
	lastError         string
	authAttempts      int
	reconnectAttempts int
	autoReconnect     bool
	reconnectTimer    *time.Timer
	gen               int

	// backoff maps a 1-based reconnect attempt to its delay. Tests
	// shorten it; everything else uses BackoffDelay.
	backoff func(attempt int) time.Duration

	writeMu sync.Mutex

	queueMu sync.Mutex
	queue   [][]byte
	wake    chan struct{}

	muteMu        sync.RWMutex
	mutedSessions map[string]struct{}
	mutedRuns     map[string]struct{}
}

// NewManager creates a manager for one endpoint. It does not dial.
func NewManager(cfg Config, logger *logging.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:           cfg.withDefaults(),
		logger:        logger.WithEndpoint(cfg.Endpoint),
		notifier:      NopNotifier{},
		status:        StatusDisconnected,
		backoff:       BackoffDelay,
		wake:          make(chan struct{}, 1),
		mutedSessions: make(map[string]struct{}),
		mutedRuns:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Endpoint returns the endpoint this manager connects to.
func (m *Manager) Endpoint() string { return m.cfg.Endpoint }

// Status returns the current connection status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// LastError returns the most recent connection or auth error message.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// ReconnectAttempts returns the current reconnect attempt counter.
func (m *Manager) ReconnectAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconnectAttempts
}

// Connect opens the connection. Idempotent: when the connection is
// already open or in progress the call is a no-op.
func (m *Manager) Connect() error {
	m.mu.Lock()
	switch m.status {
	case StatusConnecting, StatusConnected, StatusAuthenticated:
		m.mu.Unlock()
		return nil
	}
	m.status = StatusConnecting
	m.autoReconnect = true
	m.mu.Unlock()

	return m.dial()
}

// dial opens the socket and starts the read loop. Called from Connect and
// from the reconnect timer.
func (m *Manager) dial() error {
	dialer := websocket.Dialer{HandshakeTimeout: m.cfg.HandshakeTimeout}
	conn, _, err := dialer.Dial(m.cfg.Endpoint, nil)
	if err != nil {
		m.logger.Warn("dial failed", "error", err)
		m.handleFailure(fmt.Errorf("dial %s: %w", m.cfg.Endpoint, err))
		return err
	}

	m.mu.Lock()
	m.conn = conn
	m.gen++
	gen := m.gen
	m.status = StatusConnected
	m.authAttempts = 0
	m.mu.Unlock()

	m.logger.Info("connected")
	go m.readLoop(gen, conn)

	if m.cfg.SecurityKey == "" {
		// No-auth mode: authenticated immediately.
		m.mu.Lock()
		m.status = StatusAuthenticated
		m.reconnectAttempts = 0
		m.mu.Unlock()
		return nil
	}
	return m.sendAuthenticate(1)
}

// sendAuthenticate sends the auth handshake frame, recording the attempt.
func (m *Manager) sendAuthenticate(attempt int) error {
	m.mu.Lock()
	m.authAttempts = attempt
	m.mu.Unlock()
	return m.SendJSON(map[string]any{
		"action": "authenticate",
		"token":  m.cfg.SecurityKey,
	})
}

// Disconnect closes the connection intentionally (close code 1000),
// cancels any pending reconnect and disables auto-reconnect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.autoReconnect = false
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	conn := m.conn
	m.conn = nil
	m.gen++ // invalidate the running read loop
	m.status = StatusDisconnected
	m.reconnectAttempts = 0
	m.mu.Unlock()

	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}
	if m.onTeardown != nil {
		m.onTeardown()
	}
	m.logger.Info("disconnected")
}

// Reconnect forces a fresh connection attempt with reset counters. A
// no-op while a connection is open or in progress.
func (m *Manager) Reconnect() error {
	m.mu.Lock()
	switch m.status {
	case StatusConnecting, StatusConnected, StatusAuthenticated:
		m.mu.Unlock()
		return nil
	}
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.reconnectAttempts = 0
	m.authAttempts = 0
	m.lastError = ""
	m.autoReconnect = true
	m.status = StatusConnecting
	m.mu.Unlock()

	return m.dial()
}

// SendJSON writes a JSON frame. Writes are serialized by a dedicated
// mutex so concurrent senders never interleave frames.
func (m *Manager) SendJSON(v any) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return errors.New("socket: not connected")
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return conn.WriteJSON(v)
}

// readLoop consumes frames until the connection dies. gen guards against
// a stale loop mutating state after the manager has moved on.
func (m *Manager) readLoop(gen int, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(gen, err)
			return
		}
		if m.handleAuthFrame(gen, data) {
			continue
		}
		if m.isMuted(data) {
			continue
		}
		m.enqueue(data)
	}
}

// handleAuthFrame intercepts authentication responses. Returns true when
// the frame was an auth frame and must not reach the queue.
func (m *Manager) handleAuthFrame(gen int, data []byte) bool {
	var frame struct {
		Event   string `json:"event"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		return false
	}

	switch frame.Event {
	case "authenticated":
		m.mu.Lock()
		if gen == m.gen {
			m.status = StatusAuthenticated
			m.authAttempts = 0
			m.reconnectAttempts = 0
			m.lastError = ""
		}
		m.mu.Unlock()
		m.logger.Info("authenticated")
		return true

	case "auth_required":
		m.mu.Lock()
		if gen != m.gen {
			m.mu.Unlock()
			return true
		}
		attempt := m.authAttempts
		max := m.cfg.MaxAuthAttempts
		reconnecting := m.reconnectAttempts > 0
		m.mu.Unlock()

		if attempt < max {
			m.logger.Warn("auth required, retrying", "attempt", attempt+1)
			_ = m.sendAuthenticate(attempt + 1)
			return true
		}
		m.failAuth("authentication rejected after retries", reconnecting)
		return true

	case "auth_error":
		m.mu.Lock()
		reconnecting := m.reconnectAttempts > 0
		m.mu.Unlock()
		msg := frame.Message
		if msg == "" {
			msg = "authentication failed"
		}
		m.failAuth(msg, reconnecting)
		return true
	}
	return false
}

// failAuth records a terminal authentication failure. Notifications are
// suppressed mid-reconnect to avoid duplicate noise.
func (m *Manager) failAuth(msg string, reconnecting bool) {
	m.mu.Lock()
	m.status = StatusFailed
	m.lastError = msg
	m.autoReconnect = false
	m.mu.Unlock()

	m.logger.Error("authentication failed", "error", msg)
	if !reconnecting {
		m.notifier.AuthError(msg)
	}
}

// handleClose reacts to a read error. Normal closes (code 1000) and
// intentional disconnects never reconnect; abnormal closes reconnect with
// exponential backoff up to the configured attempt limit.
func (m *Manager) handleClose(gen int, err error) {
	m.mu.Lock()
	if gen != m.gen {
		// Stale loop; Disconnect or a newer dial already took over.
		m.mu.Unlock()
		return
	}
	m.conn = nil

	normal := websocket.IsCloseError(err, websocket.CloseNormalClosure)
	if normal || !m.autoReconnect {
		m.status = StatusDisconnected
		m.mu.Unlock()
		if m.onTeardown != nil {
			m.onTeardown()
		}
		m.logger.Info("connection closed", "normal", normal)
		return
	}

	if m.reconnectAttempts >= m.cfg.MaxReconnectAttempts {
		m.status = StatusFailed
		m.autoReconnect = false
		m.lastError = "connection lost, reconnect attempts exhausted"
		m.mu.Unlock()
		if m.onTeardown != nil {
			m.onTeardown()
		}
		m.logger.Error("reconnect attempts exhausted")
		m.notifier.ConnectionError("connection lost, reconnect attempts exhausted")
		return
	}

	m.reconnectAttempts++
	attempt := m.reconnectAttempts
	delay := m.backoff(attempt)
	m.status = StatusConnecting
	m.reconnectTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		ok := m.autoReconnect
		m.reconnectTimer = nil
		m.mu.Unlock()
		if ok {
			_ = m.dial()
		}
	})
	m.mu.Unlock()

	if m.onTeardown != nil {
		m.onTeardown()
	}
	m.logger.Warn("connection lost, reconnecting",
		"attempt", attempt, "delay", delay, "error", err)
}

// handleFailure handles a dial error with the same backoff policy as an
// abnormal close.
func (m *Manager) handleFailure(err error) {
	m.mu.Lock()
	m.lastError = err.Error()
	gen := m.gen
	m.mu.Unlock()
	m.handleClose(gen, err)
}

// BackoffDelay returns the reconnect delay for the given attempt number
// (1-based): min(1000 * 2^attempt, 10000) milliseconds.
func BackoffDelay(attempt int) time.Duration {
	ms := 1000 * (1 << attempt)
	if ms > 10000 {
		ms = 10000
	}
	return time.Duration(ms) * time.Millisecond
}
