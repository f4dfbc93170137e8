// Package store holds the per-session run state shared between the
// reconciliation engine (sole writer) and the UI/relay layers (readers).
// Each session keys two parallel run collections: history, populated from
// REST snapshots, and streaming, mutated only in response to socket
// events. Readers observe changes through a subscription bus; writes made
// inside an engine dispatch cycle are coalesced into one notice per
// touched session.
package store

import (
	"sort"
	"sync"

	"github.com/theanh9911/agno-console/internal/run"
)

// StreamState is the per-session streaming flag block. Entries are
// overwritten, never implicitly deleted; a stale entry is harmless.
type StreamState struct {
	IsStreaming      bool
	StreamingMessage string
	WasStreamed      bool
}

// SessionMeta is the optimistic session directory entry, seeded from
// run-started events so the UI does not show a stale name while a REST
// snapshot is in flight.
type SessionMeta struct {
	SessionID string
	Name      string
	UpdatedAt int64
}

// Store is the process-wide per-session run state.
type Store struct {
	mu        sync.RWMutex
	history   map[string][]*run.WorkflowRun
	streaming map[string][]*run.WorkflowRun
	states    map[string]StreamState
	sessions  map[string]SessionMeta

	bus      *changeBus
	batching bool
	dirty    map[Change]struct{}
}

// New creates an empty store. bufferSize bounds each subscriber channel.
func New(bufferSize int) *Store {
	return &Store{
		history:   make(map[string][]*run.WorkflowRun),
		streaming: make(map[string][]*run.WorkflowRun),
		states:    make(map[string]StreamState),
		sessions:  make(map[string]SessionMeta),
		bus:       newChangeBus(bufferSize),
		dirty:     make(map[Change]struct{}),
	}
}

// Subscribe returns a channel of change notices. Slow consumers lose the
// oldest buffered notice rather than stalling writers.
func (s *Store) Subscribe() <-chan Change { return s.bus.subscribe() }

// Unsubscribe removes and closes a subscription channel.
func (s *Store) Unsubscribe(ch <-chan Change) { s.bus.unsubscribe(ch) }

// Close shuts down the notification bus.
func (s *Store) Close() { s.bus.close() }

// Begin opens a coalescing window: changes accumulate until Flush. The
// engine brackets each queue drain with Begin/Flush so one dispatch cycle
// produces at most one notice per (session, reason) pair.
func (s *Store) Begin() {
	s.mu.Lock()
	s.batching = true
	s.mu.Unlock()
}

// Flush publishes all coalesced changes and closes the window.
func (s *Store) Flush() {
	s.mu.Lock()
	changes := make([]Change, 0, len(s.dirty))
	for c := range s.dirty {
		changes = append(changes, c)
	}
	s.dirty = make(map[Change]struct{})
	s.batching = false
	s.mu.Unlock()

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].SessionID != changes[j].SessionID {
			return changes[i].SessionID < changes[j].SessionID
		}
		return changes[i].Reason < changes[j].Reason
	})
	for _, c := range changes {
		s.bus.publish(c)
	}
}

// touch must be called with s.mu held.
func (s *Store) touch(sessionID string, reason ChangeReason) {
	if s.batching {
		s.dirty[Change{SessionID: sessionID, Reason: reason}] = struct{}{}
		return
	}
	// Sends never block (ring-drop), so publishing under s.mu is safe.
	s.bus.publish(Change{SessionID: sessionID, Reason: reason})
}

// HistoryRuns returns a copy of the session's history collection.
func (s *Store) HistoryRuns(sessionID string) []*run.WorkflowRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRuns(s.history[sessionID])
}

// StreamingRuns returns a copy of the session's streaming collection.
func (s *Store) StreamingRuns(sessionID string) []*run.WorkflowRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRuns(s.streaming[sessionID])
}

// Merged returns the deduplicated, time-ordered view of the session's
// runs, streaming entries winning over history on id collision.
func (s *Store) Merged(sessionID string) []*run.WorkflowRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return run.Merge(s.history[sessionID], s.streaming[sessionID])
}

// LatestRunning returns the session's most recent RUNNING run, or nil.
func (s *Store) LatestRunning(sessionID string) *run.WorkflowRun {
	return run.LatestRunning(s.Merged(sessionID))
}

// IsStreaming reports the session's streaming flag.
func (s *Store) IsStreaming(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[sessionID].IsStreaming
}

// StreamState returns the session's streaming state block.
func (s *Store) StreamState(sessionID string) StreamState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[sessionID]
}

// SetStreamState applies mutate to the session's streaming state.
func (s *Store) SetStreamState(sessionID string, mutate func(*StreamState)) {
	if sessionID == "" || mutate == nil {
		return
	}
	s.mu.Lock()
	st := s.states[sessionID]
	mutate(&st)
	s.states[sessionID] = st
	s.touch(sessionID, ReasonStreaming)
	s.mu.Unlock()
}

// ClearStreamingFlags sets IsStreaming false for every session. Used on
// socket teardown and endpoint switches, when in-flight state is
// meaningless.
func (s *Store) ClearStreamingFlags() {
	s.mu.Lock()
	for id, st := range s.states {
		if st.IsStreaming {
			st.IsStreaming = false
			s.states[id] = st
			s.touch(id, ReasonStreaming)
		}
	}
	s.mu.Unlock()
}

// SetHistory replaces the session's history collection. The streaming
// gate lives in the engine; the store applies what it is given.
func (s *Store) SetHistory(sessionID string, runs []*run.WorkflowRun) {
	if sessionID == "" {
		return
	}
	s.mu.Lock()
	s.history[sessionID] = runs
	s.touch(sessionID, ReasonRuns)
	s.mu.Unlock()
}

// ClearSession empties both run collections for the session, the explicit
// empty-state signal for a REST snapshot with zero runs.
func (s *Store) ClearSession(sessionID string) {
	if sessionID == "" {
		return
	}
	s.mu.Lock()
	s.history[sessionID] = nil
	s.streaming[sessionID] = nil
	s.touch(sessionID, ReasonRuns)
	s.mu.Unlock()
}

// MutateStreaming applies fn to the session's streaming collection under
// the write lock. fn receives the live slice and returns its replacement;
// the engine is the only caller.
func (s *Store) MutateStreaming(sessionID string, fn func([]*run.WorkflowRun) []*run.WorkflowRun) {
	if sessionID == "" || fn == nil {
		return
	}
	s.mu.Lock()
	s.streaming[sessionID] = fn(s.streaming[sessionID])
	s.touch(sessionID, ReasonRuns)
	s.mu.Unlock()
}

// SetSessionName upserts the session directory entry.
func (s *Store) SetSessionName(sessionID, name string, at int64) {
	if sessionID == "" {
		return
	}
	s.mu.Lock()
	meta := s.sessions[sessionID]
	meta.SessionID = sessionID
	if name != "" {
		meta.Name = name
	}
	if at != 0 {
		meta.UpdatedAt = at
	}
	s.sessions[sessionID] = meta
	s.touch(sessionID, ReasonSessions)
	s.mu.Unlock()
}

// Session returns the directory entry for a session id.
func (s *Store) Session(sessionID string) (SessionMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.sessions[sessionID]
	return meta, ok
}

// Sessions lists directory entries sorted by most recent activity.
func (s *Store) Sessions() []SessionMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionMeta, 0, len(s.sessions))
	for _, meta := range s.sessions {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}

// StreamingSessionIDs lists sessions with a streaming collection, sorted
// for deterministic resolver iteration.
func (s *Store) StreamingSessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.streaming)
}

// HistorySessionIDs lists sessions with a history collection, sorted.
func (s *Store) HistorySessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.history)
}

func sortedKeys(m map[string][]*run.WorkflowRun) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyRuns(runs []*run.WorkflowRun) []*run.WorkflowRun {
	if runs == nil {
		return nil
	}
	out := make([]*run.WorkflowRun, len(runs))
	copy(out, runs)
	return out
}
