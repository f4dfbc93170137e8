package run

import "testing"

func TestMerge_StreamingWinsOnCollision(t *testing.T) {
	history := []*WorkflowRun{
		{RunID: "r1", CreatedAt: 100, Content: "stale"},
		{RunID: "r2", CreatedAt: 200},
	}
	streaming := []*WorkflowRun{
		{RunID: "r1", CreatedAt: 100, Content: "live"},
	}

	merged := Merge(history, streaming)
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged runs, got %d", len(merged))
	}
	if got := FindRun(merged, "r1"); got == nil || got.Content != "live" {
		t.Fatalf("expected streaming copy of r1 to win, got %+v", got)
	}
}

func TestMerge_SortsByCreatedAt(t *testing.T) {
	history := []*WorkflowRun{
		{RunID: "r3", CreatedAt: 300},
		{RunID: "r1", CreatedAt: 100},
	}
	streaming := []*WorkflowRun{
		{RunID: "r2", CreatedAt: 200},
	}

	merged := Merge(history, streaming)
	want := []string{"r1", "r2", "r3"}
	for i, id := range want {
		if merged[i].RunID != id {
			t.Fatalf("position %d: want %s, got %s", i, id, merged[i].RunID)
		}
	}
}

func TestMerge_TiesKeepRelativeOrder(t *testing.T) {
	history := []*WorkflowRun{
		{RunID: "a", CreatedAt: 100},
		{RunID: "b", CreatedAt: 100},
	}
	merged := Merge(history, nil)
	if merged[0].RunID != "a" || merged[1].RunID != "b" {
		t.Fatalf("equal timestamps reordered: %s, %s", merged[0].RunID, merged[1].RunID)
	}
}

func TestMerge_SkipsNilAndEmptyIDs(t *testing.T) {
	merged := Merge(
		[]*WorkflowRun{nil, {RunID: ""}},
		[]*WorkflowRun{{RunID: "r1", CreatedAt: 1}},
	)
	if len(merged) != 1 || merged[0].RunID != "r1" {
		t.Fatalf("expected only r1, got %d runs", len(merged))
	}
}

func TestUpsertRun_ReplacesPlaceholder(t *testing.T) {
	placeholder := &WorkflowRun{
		RunID:     PlaceholderPrefix + "abc",
		RunInput:  "what is the weather",
		CreatedAt: 50,
		Status:    StatusPending,
	}
	runs := []*WorkflowRun{placeholder}

	incoming := &WorkflowRun{RunID: "server-1", Status: StatusRunning}
	runs, stored := UpsertRun(runs, incoming)

	if len(runs) != 1 {
		t.Fatalf("expected in-place replacement, got %d runs", len(runs))
	}
	if stored.RunID != "server-1" {
		t.Fatalf("expected server id, got %s", stored.RunID)
	}
	if stored.RunInput != "what is the weather" {
		t.Fatalf("placeholder input lost: %q", stored.RunInput)
	}
	if stored.CreatedAt != 50 {
		t.Fatalf("placeholder timestamp lost: %d", stored.CreatedAt)
	}
}

func TestUpsertRun_PlaceholderNeverReplacesPlaceholder(t *testing.T) {
	runs := []*WorkflowRun{{RunID: PlaceholderPrefix + "one"}}
	runs, _ = UpsertRun(runs, &WorkflowRun{RunID: PlaceholderPrefix + "two"})
	if len(runs) != 2 {
		t.Fatalf("expected second placeholder appended, got %d runs", len(runs))
	}
}

func TestUpsertRun_MergesIntoExistingByID(t *testing.T) {
	existing := &WorkflowRun{
		RunID:    "r1",
		RunInput: "prompt",
		Status:   StatusCompleted,
		Content:  "accumulated",
		StepResults: []*StepResult{
			{StepID: "s1", Status: StatusCompleted},
		},
		Executors: []*ExecutorRun{{RunID: "exec-1"}},
		Events:    []LogEntry{{Type: "RunStarted", RunID: "r1"}},
	}
	runs := []*WorkflowRun{existing}

	runs, stored := UpsertRun(runs, &WorkflowRun{
		RunID:      "r1",
		Status:     StatusRunning,
		WorkflowID: "wf-1",
		CreatedAt:  100,
	})

	if len(runs) != 1 || stored != existing {
		t.Fatalf("expected merge into the existing run, got %d runs", len(runs))
	}
	if stored.Status != StatusCompleted {
		t.Fatalf("re-delivered start reverted status: %s", stored.Status)
	}
	if len(stored.StepResults) != 1 || len(stored.Executors) != 1 || len(stored.Events) != 1 {
		t.Fatalf("accumulated state lost on merge: %+v", stored)
	}
	if stored.Content != "accumulated" || stored.RunInput != "prompt" {
		t.Fatalf("content or input lost on merge: %+v", stored)
	}
	// Missing identity fields are absorbed.
	if stored.WorkflowID != "wf-1" || stored.CreatedAt != 100 {
		t.Fatalf("empty identity fields not filled: %+v", stored)
	}
}

func TestUpsertRun_AppendsWhenNoMatch(t *testing.T) {
	runs := []*WorkflowRun{{RunID: "r1"}}
	runs, _ = UpsertRun(runs, &WorkflowRun{RunID: "r2"})
	if len(runs) != 2 {
		t.Fatalf("expected append, got %d runs", len(runs))
	}
}

func TestLatestRunning(t *testing.T) {
	runs := []*WorkflowRun{
		{RunID: "r1", Status: StatusRunning, CreatedAt: 100},
		{RunID: "r2", Status: StatusCompleted, CreatedAt: 300},
		{RunID: "r3", Status: StatusRunning, CreatedAt: 200},
	}
	if got := LatestRunning(runs); got == nil || got.RunID != "r3" {
		t.Fatalf("expected r3, got %+v", got)
	}
	if got := LatestRunning(nil); got != nil {
		t.Fatalf("expected nil for empty input")
	}
}
