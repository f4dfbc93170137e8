package realtime

import "testing"

func TestNormalize_JSONObject(t *testing.T) {
	frame := `{"event":"RunStarted","run_id":"r1","session_id":"s1","created_at":123}`
	ev, ok := Normalize([]byte(frame))
	if !ok {
		t.Fatalf("frame dropped")
	}
	if ev.Kind != KindRunStarted {
		t.Fatalf("want KindRunStarted, got %v", ev.Kind)
	}
	if ev.Payload.RunID != "r1" || ev.Payload.SessionID != "s1" {
		t.Fatalf("payload not decoded: %+v", ev.Payload)
	}
}

func TestNormalize_TypeKeyFallback(t *testing.T) {
	ev, ok := Normalize([]byte(`{"type":"RunCompleted","run_id":"r1"}`))
	if !ok || ev.Kind != KindRunCompleted {
		t.Fatalf("type key not honored: ok=%v kind=%v", ok, ev.Kind)
	}
}

func TestNormalize_JSONEncodedString(t *testing.T) {
	// A JSON string whose value is itself a JSON object.
	frame := `"{\"event\":\"StepStarted\",\"step_id\":\"st1\"}"`
	ev, ok := Normalize([]byte(frame))
	if !ok {
		t.Fatalf("frame dropped")
	}
	if ev.Kind != KindStepStarted || ev.Payload.StepID != "st1" {
		t.Fatalf("nested JSON string not unwrapped: %+v", ev)
	}
}

func TestNormalize_SSEBlock(t *testing.T) {
	frame := "event: ToolCallStarted\ndata: {\"run_id\":\"r1\",\"tool\":{\"tool_call_id\":\"tc1\",\"tool_name\":\"search\"}}"
	ev, ok := Normalize([]byte(frame))
	if !ok {
		t.Fatalf("frame dropped")
	}
	if ev.Kind != KindToolCallStarted {
		t.Fatalf("want KindToolCallStarted, got %v", ev.Kind)
	}
	if ev.Payload.Tool == nil || ev.Payload.Tool.ToolName != "search" {
		t.Fatalf("tool payload missing: %+v", ev.Payload.Tool)
	}
}

func TestNormalize_SSEWithoutDataIsNotSSE(t *testing.T) {
	// An event line with no data line falls through to a plain message.
	ev, ok := Normalize([]byte("event: RunStarted"))
	if !ok {
		t.Fatalf("frame dropped")
	}
	if ev.Kind != KindMessage {
		t.Fatalf("incomplete SSE block should degrade to message, got %v", ev.Kind)
	}
}

func TestNormalize_PlainText(t *testing.T) {
	ev, ok := Normalize([]byte("connection established"))
	if !ok {
		t.Fatalf("frame dropped")
	}
	if ev.Kind != KindMessage {
		t.Fatalf("want message, got %v", ev.Kind)
	}
	if ev.Payload.Content != "connection established" {
		t.Fatalf("text not carried: %v", ev.Payload.Content)
	}
}

func TestNormalize_MalformedJSONDropped(t *testing.T) {
	if _, ok := Normalize([]byte(`{"event":`)); ok {
		t.Fatalf("malformed JSON should be dropped")
	}
	if _, ok := Normalize([]byte("   ")); ok {
		t.Fatalf("blank frame should be dropped")
	}
}

func TestKindOf_StepShapedVariants(t *testing.T) {
	for _, name := range []string{
		"ParallelExecutionStarted", "ConditionExecutionStarted",
		"LoopExecutionStarted", "RouterExecutionStarted", "StepsExecutionStarted",
	} {
		if KindOf(name) != KindStepStarted {
			t.Fatalf("%s should classify as step started", name)
		}
	}
	if KindOf("LoopExecutionCompleted") != KindStepCompleted {
		t.Fatalf("loop completion should classify as step completed")
	}
	if KindOf("SomethingNew") != KindMessage {
		t.Fatalf("unknown names should classify as message")
	}
}

func TestPayload_TargetParentID(t *testing.T) {
	p := Payload{WorkflowRunID: "w1", ParentRunID: "p1"}
	if p.TargetParentID() != "w1" {
		t.Fatalf("workflow_run_id should win")
	}
	p.WorkflowRunID = ""
	if p.TargetParentID() != "p1" {
		t.Fatalf("parent_run_id fallback broken")
	}
}
