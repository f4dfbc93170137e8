// Package run defines the workflow run domain model: top-level workflow
// runs, their recursively nested step results, the agent/team executor
// runs backing individual steps, and tool calls. All mutation helpers are
// total: nil or partially filled inputs degrade to empty-value semantics
// instead of panicking, because they sit on the receiving end of an
// untrusted event stream.
package run

import (
	"strings"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a run or step.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusError     Status = "ERROR"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusCancelled:
		return true
	}
	return false
}

// StepType identifies the kind of workflow step node.
type StepType string

const (
	StepTypeStep      StepType = "Step"
	StepTypeParallel  StepType = "Parallel"
	StepTypeCondition StepType = "Condition"
	StepTypeLoop      StepType = "Loop"
	StepTypeRouter    StepType = "Router"
	StepTypeSteps     StepType = "Steps"
)

// PlaceholderPrefix marks client-generated run ids that have not yet been
// replaced by a server-assigned id. A session holds at most one
// placeholder run at a time.
const PlaceholderPrefix = "temp-"

// NewPlaceholderID returns a fresh client-side run id.
func NewPlaceholderID() string {
	return PlaceholderPrefix + uuid.NewString()
}

// IsPlaceholderID reports whether id is a client-generated placeholder.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}

// ToolCall is a single tool invocation made by an executor run. It is
// identified by ToolCallID: a started event creates the entry and a
// completed event merges result fields into it.
type ToolCall struct {
	ToolCallID string         `json:"tool_call_id"`
	ToolName   string         `json:"tool_name,omitempty"`
	ToolArgs   map[string]any `json:"tool_args,omitempty"`
	Result     string         `json:"result,omitempty"`
	Error      string         `json:"tool_call_error,omitempty"`
	Completed  bool           `json:"completed"`
}

// StepResult is one node in a workflow's step tree. Loop, condition,
// parallel and router steps nest child steps to arbitrary depth.
type StepResult struct {
	StepID   string        `json:"step_id"`
	StepName string        `json:"step_name,omitempty"`
	StepType StepType      `json:"step_type,omitempty"`
	Status   Status        `json:"status,omitempty"`
	Content  string        `json:"content,omitempty"`
	Error    string        `json:"error,omitempty"`
	Tools    []ToolCall    `json:"tools,omitempty"`
	Steps    []*StepResult `json:"steps,omitempty"`
}

// ExecutorRun is a nested agent or team run triggered by a workflow step.
// It carries its own run and session identifiers, independent of the
// owning workflow run.
type ExecutorRun struct {
	RunID          string     `json:"run_id"`
	AgentID        string     `json:"agent_id,omitempty"`
	AgentName      string     `json:"agent_name,omitempty"`
	TeamID         string     `json:"team_id,omitempty"`
	TeamName       string     `json:"team_name,omitempty"`
	WorkflowStepID string     `json:"workflow_step_id,omitempty"`
	ParentRunID    string     `json:"parent_run_id,omitempty"`
	SessionID      string     `json:"session_id,omitempty"`
	Status         Status     `json:"status,omitempty"`
	Content        string     `json:"content,omitempty"`
	Tools          []ToolCall `json:"tools,omitempty"`
}

// Metrics aggregates token and timing counters reported by the server.
type Metrics struct {
	InputTokens  int64   `json:"input_tokens,omitempty"`
	OutputTokens int64   `json:"output_tokens,omitempty"`
	TotalTokens  int64   `json:"total_tokens,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
}

// WorkflowRun is one top-level execution of a workflow within a session.
type WorkflowRun struct {
	RunID       string         `json:"run_id"`
	SessionID   string         `json:"session_id,omitempty"`
	UserID      string         `json:"user_id,omitempty"`
	WorkflowID  string         `json:"workflow_id,omitempty"`
	CreatedAt   int64          `json:"created_at"`
	RunInput    string         `json:"run_input,omitempty"`
	Content     string         `json:"content,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	Status      Status         `json:"status,omitempty"`
	StepResults []*StepResult  `json:"step_results,omitempty"`
	Executors   []*ExecutorRun `json:"step_executor_runs,omitempty"`
	Metrics     *Metrics       `json:"metrics,omitempty"`
	Events      []LogEntry     `json:"events,omitempty"`
}

// Executor returns the executor run with the given run id, or nil.
func (r *WorkflowRun) Executor(runID string) *ExecutorRun {
	if r == nil || runID == "" {
		return nil
	}
	for _, e := range r.Executors {
		if e != nil && e.RunID == runID {
			return e
		}
	}
	return nil
}

// UpsertExecutor inserts an executor run or, when one with the same
// RunID already exists, fills its empty identity fields from exec. A
// start frame re-delivered after a reconnect must not append a second
// entry or roll a finished executor back to running.
func (r *WorkflowRun) UpsertExecutor(exec *ExecutorRun) *ExecutorRun {
	if r == nil || exec == nil || exec.RunID == "" {
		return nil
	}
	for _, e := range r.Executors {
		if e == nil || e.RunID != exec.RunID {
			continue
		}
		if e.AgentID == "" {
			e.AgentID = exec.AgentID
		}
		if e.AgentName == "" {
			e.AgentName = exec.AgentName
		}
		if e.TeamID == "" {
			e.TeamID = exec.TeamID
		}
		if e.TeamName == "" {
			e.TeamName = exec.TeamName
		}
		if e.WorkflowStepID == "" {
			e.WorkflowStepID = exec.WorkflowStepID
		}
		if e.ParentRunID == "" {
			e.ParentRunID = exec.ParentRunID
		}
		if e.SessionID == "" {
			e.SessionID = exec.SessionID
		}
		return e
	}
	r.Executors = append(r.Executors, exec)
	return exec
}

// UpsertTool inserts a tool call or, when an entry with the same
// ToolCallID already exists, merges the non-empty fields of tc into it.
// Completion never appends a duplicate.
func (e *ExecutorRun) UpsertTool(tc ToolCall) {
	if e == nil || tc.ToolCallID == "" {
		return
	}
	for i := range e.Tools {
		if e.Tools[i].ToolCallID != tc.ToolCallID {
			continue
		}
		if tc.ToolName != "" {
			e.Tools[i].ToolName = tc.ToolName
		}
		if tc.ToolArgs != nil {
			e.Tools[i].ToolArgs = tc.ToolArgs
		}
		if tc.Result != "" {
			e.Tools[i].Result = tc.Result
		}
		if tc.Error != "" {
			e.Tools[i].Error = tc.Error
		}
		if tc.Completed {
			e.Tools[i].Completed = true
		}
		return
	}
	e.Tools = append(e.Tools, tc)
}
