package socket

import "encoding/json"

// MuteSession drops all further frames carrying the session id.
func (m *Manager) MuteSession(sessionID string) {
	if sessionID == "" {
		return
	}
	m.muteMu.Lock()
	m.mutedSessions[sessionID] = struct{}{}
	m.muteMu.Unlock()
}

// UnmuteSession lifts a session mute.
func (m *Manager) UnmuteSession(sessionID string) {
	m.muteMu.Lock()
	delete(m.mutedSessions, sessionID)
	m.muteMu.Unlock()
}

// MuteRun drops all further frames carrying the run id.
func (m *Manager) MuteRun(runID string) {
	if runID == "" {
		return
	}
	m.muteMu.Lock()
	m.mutedRuns[runID] = struct{}{}
	m.muteMu.Unlock()
}

// UnmuteRun lifts a run mute.
func (m *Manager) UnmuteRun(runID string) {
	m.muteMu.Lock()
	delete(m.mutedRuns, runID)
	m.muteMu.Unlock()
}

// isMuted inspects a frame's top-level session and run ids. Frames that
// do not decode as JSON objects pass through; the normalizer deals with
// them later.
func (m *Manager) isMuted(frame []byte) bool {
	m.muteMu.RLock()
	sessions, runs := len(m.mutedSessions), len(m.mutedRuns)
	m.muteMu.RUnlock()
	if sessions == 0 && runs == 0 {
		return false
	}

	var envelope struct {
		SessionID string `json:"session_id"`
		RunID     string `json:"run_id"`
	}
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return false
	}

	m.muteMu.RLock()
	defer m.muteMu.RUnlock()
	if envelope.SessionID != "" {
		if _, ok := m.mutedSessions[envelope.SessionID]; ok {
			return true
		}
	}
	if envelope.RunID != "" {
		if _, ok := m.mutedRuns[envelope.RunID]; ok {
			return true
		}
	}
	return false
}
