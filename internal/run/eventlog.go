package run

// LogClass controls how an entry is recorded into a run's event log.
type LogClass int

const (
	// LogClassLifecycle entries (run started/completed) are recorded at
	// most once per (type, run id) pair; re-delivery is ignored.
	LogClassLifecycle LogClass = iota
	// LogClassTool entries coalesce by tool call id: a completed event
	// flips ToolCompleted on the existing entry instead of appending.
	LogClassTool
	// LogClassPlain entries append unconditionally.
	LogClassPlain
	// LogClassSkip entries are never logged (streaming content deltas).
	LogClassSkip
)

// LogEntry is one recorded event on a run, retained for the step-level
// "behind the scenes" rendering in the UI layer.
type LogEntry struct {
	Type          string         `json:"event"`
	RunID         string         `json:"run_id,omitempty"`
	ToolCallID    string         `json:"tool_call_id,omitempty"`
	ToolCompleted bool           `json:"tool_completed,omitempty"`
	CreatedAt     int64          `json:"created_at,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

// RecordEvent appends an entry to the run's event log according to its
// class. Lifecycle duplicates and content deltas are dropped; tool
// completions merge into the started entry.
func (r *WorkflowRun) RecordEvent(entry LogEntry, class LogClass) {
	if r == nil {
		return
	}
	switch class {
	case LogClassSkip:
		return
	case LogClassLifecycle:
		for _, e := range r.Events {
			if e.Type == entry.Type && e.RunID == entry.RunID {
				return
			}
		}
		r.Events = append(r.Events, entry)
	case LogClassTool:
		if entry.ToolCallID == "" {
			r.Events = append(r.Events, entry)
			return
		}
		for i := range r.Events {
			if r.Events[i].ToolCallID != entry.ToolCallID {
				continue
			}
			if entry.ToolCompleted {
				r.Events[i].ToolCompleted = true
			}
			if entry.Data != nil {
				r.Events[i].Data = entry.Data
			}
			return
		}
		r.Events = append(r.Events, entry)
	default:
		r.Events = append(r.Events, entry)
	}
}
