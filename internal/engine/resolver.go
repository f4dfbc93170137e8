package engine

import (
	"github.com/theanh9911/agno-console/internal/realtime"
	"github.com/theanh9911/agno-console/internal/run"
	"github.com/theanh9911/agno-console/internal/store"
)

// Resolver maps an incoming event back to the session that owns it.
// Nested executor runs (an agent or team inside a workflow step) emit
// events stamped with their own run and session ids, so attribution goes
// through the parent workflow run id when one is present.
type Resolver struct {
	store *store.Store
}

// NewResolver creates a resolver reading from the given store.
func NewResolver(s *store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the owning session for an event. The search order is:
// the event's own session (streaming then history), then every session's
// streaming runs, then every session's history runs. Events with no
// parent id fall back to their own session id. ok is false when no
// attribution is possible; such events are dropped.
//
// When two concurrent sessions reuse a run id the first match wins, which
// can misattribute; the order is kept as observed behavior, not a
// correctness guarantee.
func (r *Resolver) Resolve(ev realtime.Event) (string, bool) {
	target := ev.Payload.TargetParentID()
	own := ev.Payload.SessionID

	if target == "" {
		return own, own != ""
	}

	if own != "" {
		if run.FindRun(r.store.StreamingRuns(own), target) != nil ||
			run.FindRun(r.store.HistoryRuns(own), target) != nil {
			return own, true
		}
	}
	for _, sid := range r.store.StreamingSessionIDs() {
		if run.FindRun(r.store.StreamingRuns(sid), target) != nil {
			return sid, true
		}
	}
	for _, sid := range r.store.HistorySessionIDs() {
		if run.FindRun(r.store.HistoryRuns(sid), target) != nil {
			return sid, true
		}
	}

	// Parent unknown everywhere: tolerate by attributing to the event's
	// own session when it has one.
	return own, own != ""
}
