package run

import "sort"

// Merge combines a session's history runs (REST snapshot) with its
// streaming runs into one display sequence. Runs are keyed by id with
// streaming entries winning on collision, streaming-only runs included,
// and the result sorted ascending by CreatedAt with ties keeping their
// original relative order.
func Merge(history, streaming []*WorkflowRun) []*WorkflowRun {
	index := make(map[string]int, len(history)+len(streaming))
	merged := make([]*WorkflowRun, 0, len(history)+len(streaming))

	for _, r := range history {
		if r == nil || r.RunID == "" {
			continue
		}
		if i, ok := index[r.RunID]; ok {
			merged[i] = r
			continue
		}
		index[r.RunID] = len(merged)
		merged = append(merged, r)
	}
	for _, r := range streaming {
		if r == nil || r.RunID == "" {
			continue
		}
		if i, ok := index[r.RunID]; ok {
			merged[i] = r
			continue
		}
		index[r.RunID] = len(merged)
		merged = append(merged, r)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt < merged[j].CreatedAt
	})
	return merged
}

// UpsertRun inserts incoming into runs by id. A run that already exists
// under the incoming id keeps its accumulated state — steps, executors,
// content, event log, status — and only absorbs identity fields it does
// not have yet: a run-started frame re-delivered after a reconnect must
// not reset the run it announces. When no run with that id exists and
// the collection holds a client-side placeholder, the placeholder is
// replaced in place and its locally-known input text is preserved;
// otherwise incoming is appended. Returns the updated slice and the run
// actually stored.
func UpsertRun(runs []*WorkflowRun, incoming *WorkflowRun) ([]*WorkflowRun, *WorkflowRun) {
	if incoming == nil || incoming.RunID == "" {
		return runs, nil
	}
	for _, r := range runs {
		if r != nil && r.RunID == incoming.RunID {
			if r.SessionID == "" {
				r.SessionID = incoming.SessionID
			}
			if r.UserID == "" {
				r.UserID = incoming.UserID
			}
			if r.WorkflowID == "" {
				r.WorkflowID = incoming.WorkflowID
			}
			if r.RunInput == "" {
				r.RunInput = incoming.RunInput
			}
			if r.ContentType == "" {
				r.ContentType = incoming.ContentType
			}
			if r.CreatedAt == 0 {
				r.CreatedAt = incoming.CreatedAt
			}
			if r.Metrics == nil {
				r.Metrics = incoming.Metrics
			}
			return runs, r
		}
	}
	if !IsPlaceholderID(incoming.RunID) {
		for i, r := range runs {
			if r != nil && IsPlaceholderID(r.RunID) {
				if incoming.RunInput == "" {
					incoming.RunInput = r.RunInput
				}
				if incoming.CreatedAt == 0 {
					incoming.CreatedAt = r.CreatedAt
				}
				runs[i] = incoming
				return runs, incoming
			}
		}
	}
	return append(runs, incoming), incoming
}

// FindRun returns the run with the given id, or nil.
func FindRun(runs []*WorkflowRun, runID string) *WorkflowRun {
	if runID == "" {
		return nil
	}
	for _, r := range runs {
		if r != nil && r.RunID == runID {
			return r
		}
	}
	return nil
}

// LatestRunning returns the most recent run still in RUNNING state, used
// by the UI layer to anchor the live view. Nil when nothing is running.
func LatestRunning(runs []*WorkflowRun) *WorkflowRun {
	var latest *WorkflowRun
	for _, r := range runs {
		if r == nil || r.Status != StatusRunning {
			continue
		}
		if latest == nil || r.CreatedAt >= latest.CreatedAt {
			latest = r
		}
	}
	return latest
}
