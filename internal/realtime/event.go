// Package realtime turns raw socket frames into typed events. Frames
// arrive as JSON objects, JSON-encoded strings, or SSE-style text blocks;
// the normalizer classifies each into a closed Kind so the reconciliation
// engine can dispatch with one handler per variant.
package realtime

import "github.com/theanh9911/agno-console/internal/run"

// Kind is the closed classification of a realtime event.
type Kind int

const (
	KindMessage Kind = iota
	KindWorkflowStarted
	KindWorkflowCompleted
	KindWorkflowError
	KindRunStarted
	KindRunContent
	KindRunCompleted
	KindRunError
	KindStepStarted
	KindStepCompleted
	KindToolCallStarted
	KindToolCallCompleted
)

// Wire event names, one set per kind. Step-shaped execution nodes
// (parallel, condition, loop, router, steps) start and complete with the
// same tree semantics as a plain step.
var kindByType = map[string]Kind{
	"WorkflowStarted":             KindWorkflowStarted,
	"WorkflowCompleted":           KindWorkflowCompleted,
	"WorkflowFailed":              KindWorkflowError,
	"WorkflowError":               KindWorkflowError,
	"RunStarted":                  KindRunStarted,
	"RunContent":                  KindRunContent,
	"RunResponseContent":          KindRunContent,
	"RunCompleted":                KindRunCompleted,
	"RunError":                    KindRunError,
	"RunCancelled":                KindRunError,
	"StepStarted":                 KindStepStarted,
	"ParallelExecutionStarted":    KindStepStarted,
	"ConditionExecutionStarted":   KindStepStarted,
	"LoopExecutionStarted":        KindStepStarted,
	"RouterExecutionStarted":      KindStepStarted,
	"StepsExecutionStarted":       KindStepStarted,
	"StepCompleted":               KindStepCompleted,
	"ParallelExecutionCompleted":  KindStepCompleted,
	"ConditionExecutionCompleted": KindStepCompleted,
	"LoopExecutionCompleted":      KindStepCompleted,
	"RouterExecutionCompleted":    KindStepCompleted,
	"StepsExecutionCompleted":     KindStepCompleted,
	"ToolCallStarted":             KindToolCallStarted,
	"ToolCallCompleted":           KindToolCallCompleted,
}

// KindOf maps a wire event name to its Kind. Unrecognized names classify
// as KindMessage.
func KindOf(eventType string) Kind {
	if k, ok := kindByType[eventType]; ok {
		return k
	}
	return KindMessage
}

// ToolPayload is the tool descriptor carried by tool call events.
type ToolPayload struct {
	ToolCallID string         `json:"tool_call_id"`
	ToolName   string         `json:"tool_name"`
	ToolArgs   map[string]any `json:"tool_args"`
	Result     string         `json:"result"`
	Error      string         `json:"tool_call_error"`
}

// ToolCall converts the payload into the domain representation.
func (t *ToolPayload) ToolCall(completed bool) run.ToolCall {
	if t == nil {
		return run.ToolCall{}
	}
	return run.ToolCall{
		ToolCallID: t.ToolCallID,
		ToolName:   t.ToolName,
		ToolArgs:   t.ToolArgs,
		Result:     t.Result,
		Error:      t.Error,
		Completed:  completed,
	}
}

// Payload is the union of fields a workflow event may carry. Absent
// fields stay zero; handlers treat zero values as "not provided".
type Payload struct {
	RunID         string `json:"run_id"`
	SessionID     string `json:"session_id"`
	SessionName   string `json:"session_name"`
	UserID        string `json:"user_id"`
	WorkflowRunID string `json:"workflow_run_id"`
	ParentRunID   string `json:"parent_run_id"`
	WorkflowID    string `json:"workflow_id"`
	WorkflowName  string `json:"workflow_name"`

	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	TeamID    string `json:"team_id"`
	TeamName  string `json:"team_name"`

	StepID       string `json:"step_id"`
	ParentStepID string `json:"parent_step_id"`
	StepName     string `json:"step_name"`
	StepType     string `json:"step_type"`

	Content     any    `json:"content"`
	ContentType string `json:"content_type"`
	RunInput    string `json:"run_input"`
	Status      string `json:"status"`
	Error       string `json:"error"`
	Success     *bool  `json:"success"`

	Tool  *ToolPayload      `json:"tool"`
	Steps []*run.StepResult `json:"steps"`

	CreatedAt int64        `json:"created_at"`
	Metrics   *run.Metrics `json:"metrics"`

	Images        []any `json:"images"`
	Videos        []any `json:"videos"`
	Audio         []any `json:"audio"`
	ResponseAudio any   `json:"response_audio"`
}

// TargetParentID returns the id linking a nested-executor event back to
// its owning workflow run, or empty when the event carries none.
func (p Payload) TargetParentID() string {
	if p.WorkflowRunID != "" {
		return p.WorkflowRunID
	}
	return p.ParentRunID
}

// Event is one normalized realtime event.
type Event struct {
	Type    string
	Kind    Kind
	Payload Payload
	// Data keeps the raw decoded payload for the run event log.
	Data map[string]any
}
