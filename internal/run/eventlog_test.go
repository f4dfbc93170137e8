package run

import "testing"

func TestRecordEvent_LifecycleDedupedPerRun(t *testing.T) {
	r := &WorkflowRun{RunID: "r1"}
	r.RecordEvent(LogEntry{Type: "RunStarted", RunID: "r1"}, LogClassLifecycle)
	r.RecordEvent(LogEntry{Type: "RunStarted", RunID: "r1"}, LogClassLifecycle)
	if len(r.Events) != 1 {
		t.Fatalf("duplicate lifecycle event logged: %d entries", len(r.Events))
	}

	// Same type on a different run id is a distinct entry.
	r.RecordEvent(LogEntry{Type: "RunStarted", RunID: "exec-1"}, LogClassLifecycle)
	if len(r.Events) != 2 {
		t.Fatalf("expected entry for second run id, got %d", len(r.Events))
	}
}

func TestRecordEvent_ToolCoalescesByCallID(t *testing.T) {
	r := &WorkflowRun{RunID: "r1"}
	r.RecordEvent(LogEntry{Type: "ToolCallStarted", ToolCallID: "tc1"}, LogClassTool)
	r.RecordEvent(LogEntry{
		Type:          "ToolCallCompleted",
		ToolCallID:    "tc1",
		ToolCompleted: true,
		Data:          map[string]any{"result": "ok"},
	}, LogClassTool)

	if len(r.Events) != 1 {
		t.Fatalf("tool completion appended instead of coalescing: %d entries", len(r.Events))
	}
	e := r.Events[0]
	if !e.ToolCompleted {
		t.Fatalf("completion flag not flipped")
	}
	if e.Data["result"] != "ok" {
		t.Fatalf("completion data not merged")
	}
}

func TestRecordEvent_ToolWithoutCallIDAppends(t *testing.T) {
	r := &WorkflowRun{RunID: "r1"}
	r.RecordEvent(LogEntry{Type: "ToolCallStarted"}, LogClassTool)
	r.RecordEvent(LogEntry{Type: "ToolCallStarted"}, LogClassTool)
	if len(r.Events) != 2 {
		t.Fatalf("id-less tool events should append, got %d", len(r.Events))
	}
}

func TestRecordEvent_SkipClassNeverLogged(t *testing.T) {
	r := &WorkflowRun{RunID: "r1"}
	r.RecordEvent(LogEntry{Type: "RunContent"}, LogClassSkip)
	if len(r.Events) != 0 {
		t.Fatalf("content delta ended up in the log")
	}
}

func TestRecordEvent_NilReceiver(t *testing.T) {
	var r *WorkflowRun
	r.RecordEvent(LogEntry{Type: "RunStarted"}, LogClassLifecycle) // must not panic
}

func TestUpsertExecutor_MergesIntoExistingByRunID(t *testing.T) {
	wr := &WorkflowRun{RunID: "r1"}
	wr.UpsertExecutor(&ExecutorRun{RunID: "e1", Status: StatusRunning})

	existing := wr.Executor("e1")
	existing.Status = StatusCompleted
	existing.Content = "final answer"

	got := wr.UpsertExecutor(&ExecutorRun{
		RunID: "e1", AgentName: "researcher", Status: StatusRunning,
	})

	if len(wr.Executors) != 1 {
		t.Fatalf("re-delivered start appended a duplicate: %d entries", len(wr.Executors))
	}
	if got != existing {
		t.Fatalf("upsert did not return the stored executor")
	}
	if got.Status != StatusCompleted || got.Content != "final answer" {
		t.Fatalf("accumulated state lost: %+v", got)
	}
	if got.AgentName != "researcher" {
		t.Fatalf("identity field not absorbed: %+v", got)
	}
}

func TestUpsertExecutor_NewRunAppends(t *testing.T) {
	wr := &WorkflowRun{RunID: "r1"}
	wr.UpsertExecutor(&ExecutorRun{RunID: "e1"})
	wr.UpsertExecutor(&ExecutorRun{RunID: "e2"})
	if len(wr.Executors) != 2 {
		t.Fatalf("expected two executors, got %d", len(wr.Executors))
	}
}

func TestUpsertTool_MergesNonEmptyFields(t *testing.T) {
	ex := &ExecutorRun{RunID: "e1"}
	ex.UpsertTool(ToolCall{ToolCallID: "tc1", ToolName: "search", ToolArgs: map[string]any{"q": "go"}})
	ex.UpsertTool(ToolCall{ToolCallID: "tc1", Result: "found it", Completed: true})

	if len(ex.Tools) != 1 {
		t.Fatalf("expected single upserted tool, got %d", len(ex.Tools))
	}
	tc := ex.Tools[0]
	if tc.ToolName != "search" {
		t.Fatalf("started fields lost on completion merge: %+v", tc)
	}
	if tc.Result != "found it" || !tc.Completed {
		t.Fatalf("completion fields not merged: %+v", tc)
	}
}

func TestUpsertTool_NewCallAppends(t *testing.T) {
	ex := &ExecutorRun{RunID: "e1"}
	ex.UpsertTool(ToolCall{ToolCallID: "tc1"})
	ex.UpsertTool(ToolCall{ToolCallID: "tc2"})
	if len(ex.Tools) != 2 {
		t.Fatalf("expected two tool calls, got %d", len(ex.Tools))
	}
}
