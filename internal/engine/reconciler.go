// Package engine applies normalized realtime events to the per-session
// run store and reconciles streaming state with REST snapshots. It is the
// store's only writer: one drained frame is handled to completion before
// the next, so readers never observe partial state.
package engine

import (
	"context"
	"time"

	"github.com/theanh9911/agno-console/internal/logging"
	"github.com/theanh9911/agno-console/internal/realtime"
	"github.com/theanh9911/agno-console/internal/run"
	"github.com/theanh9911/agno-console/internal/socket"
	"github.com/theanh9911/agno-console/internal/store"
)

// Notifier surfaces workflow-level runtime errors to the user. Distinct
// from transport errors, which the socket manager reports itself.
type Notifier interface {
	WorkflowError(sessionID, msg string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) WorkflowError(string, string) {}

// SnapshotFetcher is the REST collaborator: it lists the persisted runs
// of a session. The engine pulls a snapshot when streaming ends to fold
// in server-authoritative final fields.
type SnapshotFetcher interface {
	ListRuns(ctx context.Context, sessionID string) ([]*run.WorkflowRun, error)
}

// Archiver receives runs that reached a terminal status.
type Archiver interface {
	ArchiveRun(ctx context.Context, r *run.WorkflowRun) error
}

// Reconciler is the event-dispatch state machine.
type Reconciler struct {
	store    *store.Store
	resolver *Resolver
	logger   *logging.Logger
	notifier Notifier
	fetcher  SnapshotFetcher
	archiver Archiver
}

// ReconcilerOption configures optional collaborators.
type ReconcilerOption func(*Reconciler)

// WithNotifier sets the workflow error notification sink.
func WithNotifier(n Notifier) ReconcilerOption {
	return func(r *Reconciler) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithSnapshotFetcher enables the pull-on-completion REST merge.
func WithSnapshotFetcher(f SnapshotFetcher) ReconcilerOption {
	return func(r *Reconciler) { r.fetcher = f }
}

// WithArchiver enables archiving of terminal runs.
func WithArchiver(a Archiver) ReconcilerOption {
	return func(r *Reconciler) { r.archiver = a }
}

// New creates a reconciler writing to s.
func New(s *store.Store, logger *logging.Logger, opts ...ReconcilerOption) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Reconciler{
		store:    s,
		resolver: NewResolver(s),
		logger:   logger,
		notifier: NopNotifier{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pump drains the manager's frame queue whenever it signals, until ctx is
// done. Each drain is bracketed so store notifications coalesce per
// dispatch cycle.
func (r *Reconciler) Pump(ctx context.Context, mgr *socket.Manager) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-mgr.Wake():
			r.Drain(mgr)
		}
	}
}

// Drain consumes the queue snapshot and applies every frame in arrival
// order. Malformed frames are dropped without stopping the batch.
func (r *Reconciler) Drain(mgr *socket.Manager) {
	frames := mgr.ConsumeMessages()
	if len(frames) == 0 {
		return
	}
	r.store.Begin()
	for _, frame := range frames {
		ev, ok := realtime.Normalize(frame)
		if !ok {
			r.logger.Debug("dropping unparseable frame", "bytes", len(frame))
			continue
		}
		r.Apply(ev)
	}
	r.store.Flush()
}

// Apply dispatches one normalized event. Handlers never raise: events for
// unknown sessions or runs are expected noise and no-op.
func (r *Reconciler) Apply(ev realtime.Event) {
	switch ev.Kind {
	case realtime.KindWorkflowStarted:
		r.applyRunStarted(ev)
	case realtime.KindRunStarted:
		if ev.Payload.TargetParentID() != "" {
			r.applyExecutorStarted(ev)
		} else {
			r.applyRunStarted(ev)
		}
	case realtime.KindStepStarted:
		r.applyStepStarted(ev)
	case realtime.KindStepCompleted:
		r.applyStepCompleted(ev)
	case realtime.KindRunContent:
		r.applyRunContent(ev)
	case realtime.KindRunCompleted:
		r.applyRunTerminal(ev, run.StatusCompleted)
	case realtime.KindRunError:
		status := run.StatusError
		if ev.Type == "RunCancelled" {
			status = run.StatusCancelled
		}
		r.applyRunTerminal(ev, status)
	case realtime.KindToolCallStarted:
		r.applyToolCall(ev, false)
	case realtime.KindToolCallCompleted:
		r.applyToolCall(ev, true)
	case realtime.KindWorkflowCompleted:
		r.applyWorkflowTerminal(ev, run.StatusCompleted)
	case realtime.KindWorkflowError:
		r.applyWorkflowTerminal(ev, run.StatusError)
	default:
		// Plain messages carry no state transition.
	}
}

// ApplySnapshot folds a REST snapshot into the session. Skipped while the
// session is streaming, so a stale fetch can never stomp on live state.
// Zero runs while idle is the explicit empty-state signal and clears both
// collections.
func (r *Reconciler) ApplySnapshot(sessionID string, runs []*run.WorkflowRun) {
	if sessionID == "" {
		return
	}
	if r.store.IsStreaming(sessionID) {
		r.logger.Debug("snapshot skipped, session streaming", "session_id", sessionID)
		return
	}
	if len(runs) == 0 {
		r.store.ClearSession(sessionID)
		return
	}
	r.store.SetHistory(sessionID, runs)
}

// applyRunStarted upserts a workflow run: replace a pending placeholder
// when one exists (preserving its locally-known input), else append. The
// session flips to streaming and its display name is seeded optimistically.
func (r *Reconciler) applyRunStarted(ev realtime.Event) {
	p := ev.Payload
	sessionID := p.SessionID
	if sessionID == "" || p.RunID == "" {
		return
	}

	incoming := &run.WorkflowRun{
		RunID:       p.RunID,
		SessionID:   sessionID,
		UserID:      p.UserID,
		WorkflowID:  p.WorkflowID,
		CreatedAt:   p.CreatedAt,
		RunInput:    p.RunInput,
		ContentType: p.ContentType,
		Status:      run.StatusRunning,
		Metrics:     p.Metrics,
	}

	var stored *run.WorkflowRun
	replayed := false
	r.store.MutateStreaming(sessionID, func(runs []*run.WorkflowRun) []*run.WorkflowRun {
		replayed = run.FindRun(runs, incoming.RunID) != nil
		runs, stored = run.UpsertRun(runs, incoming)
		if stored != nil {
			if stored.CreatedAt == 0 {
				stored.CreatedAt = time.Now().Unix()
			}
			stored.RecordEvent(r.logEntry(ev), run.LogClassLifecycle)
		}
		return runs
	})
	if stored == nil {
		return
	}

	// A start re-delivered after a reconnect merges into the existing run;
	// it must not restart a finished session or clobber in-flight content.
	if !replayed || stored.Status == run.StatusRunning {
		r.store.SetStreamState(sessionID, func(st *store.StreamState) {
			st.IsStreaming = true
			st.WasStreamed = true
			if !replayed {
				st.StreamingMessage = ""
			}
		})
	}

	name := p.SessionName
	if name == "" {
		name = p.WorkflowName
	}
	r.store.SetSessionName(sessionID, name, p.CreatedAt)
}

// applyStepStarted inserts a RUNNING step node, nested under its parent
// step when the event names one.
func (r *Reconciler) applyStepStarted(ev realtime.Event) {
	p := ev.Payload
	sessionID, ok := r.resolver.Resolve(ev)
	if !ok || p.StepID == "" {
		return
	}
	runID := p.TargetParentID()
	if runID == "" {
		runID = p.RunID
	}

	step := &run.StepResult{
		StepID:   p.StepID,
		StepName: p.StepName,
		StepType: run.StepType(p.StepType),
		Status:   run.StatusRunning,
	}

	r.mutateRun(sessionID, runID, func(wr *run.WorkflowRun) {
		wr.StepResults = run.UpsertStep(wr.StepResults, step, p.ParentStepID)
		wr.RecordEvent(r.logEntry(ev), run.LogClassPlain)
	})
}

// applyStepCompleted merges terminal fields into the step located by id
// at any depth; siblings and ancestors stay untouched.
func (r *Reconciler) applyStepCompleted(ev realtime.Event) {
	p := ev.Payload
	sessionID, ok := r.resolver.Resolve(ev)
	if !ok || p.StepID == "" {
		return
	}
	runID := p.TargetParentID()
	if runID == "" {
		runID = p.RunID
	}

	status := run.StatusCompleted
	if p.Success != nil && !*p.Success {
		status = run.StatusError
	}
	if p.Status != "" {
		status = run.Status(p.Status)
	}

	r.mutateRun(sessionID, runID, func(wr *run.WorkflowRun) {
		run.CompleteStep(wr.StepResults, run.StepPatch{
			StepID:  p.StepID,
			Status:  status,
			Content: run.ContentString(p.Content),
			Error:   p.Error,
			Steps:   p.Steps,
		})
		wr.RecordEvent(r.logEntry(ev), run.LogClassPlain)
	})
}

// applyExecutorStarted records a nested agent/team run under its owning
// workflow run, keyed by the executor's run id so a re-delivered start
// never duplicates it. When the parent run is unknown in the resolved
// session, the executor is applied to every run of that session.
func (r *Reconciler) applyExecutorStarted(ev realtime.Event) {
	p := ev.Payload
	sessionID, ok := r.resolver.Resolve(ev)
	if !ok || p.RunID == "" {
		return
	}
	target := p.TargetParentID()

	exec := &run.ExecutorRun{
		RunID:          p.RunID,
		AgentID:        p.AgentID,
		AgentName:      p.AgentName,
		TeamID:         p.TeamID,
		TeamName:       p.TeamName,
		WorkflowStepID: p.StepID,
		ParentRunID:    target,
		SessionID:      p.SessionID,
		Status:         run.StatusRunning,
	}

	r.store.MutateStreaming(sessionID, func(runs []*run.WorkflowRun) []*run.WorkflowRun {
		if wr := run.FindRun(runs, target); wr != nil {
			wr.UpsertExecutor(exec)
			wr.RecordEvent(r.logEntry(ev), run.LogClassLifecycle)
			return runs
		}
		for _, wr := range runs {
			if wr == nil {
				continue
			}
			clone := *exec
			clone.ParentRunID = wr.RunID
			wr.UpsertExecutor(&clone)
			wr.RecordEvent(r.logEntry(ev), run.LogClassLifecycle)
		}
		return runs
	})
}

// applyRunContent accumulates an incremental content delta: into the
// matching executor run when the event belongs to one, else into the
// workflow run's own content. Deltas never enter the event log.
func (r *Reconciler) applyRunContent(ev realtime.Event) {
	p := ev.Payload
	sessionID, ok := r.resolver.Resolve(ev)
	if !ok {
		return
	}
	target := p.TargetParentID()

	if target != "" {
		// Executor content, keyed by the executor's own run id.
		r.store.MutateStreaming(sessionID, func(runs []*run.WorkflowRun) []*run.WorkflowRun {
			for _, wr := range runs {
				if exec := wr.Executor(p.RunID); exec != nil {
					exec.Content = run.AppendContent(exec.Content, p.Content)
				}
			}
			return runs
		})
		return
	}

	var accumulated string
	r.store.MutateStreaming(sessionID, func(runs []*run.WorkflowRun) []*run.WorkflowRun {
		if wr := run.FindRun(runs, p.RunID); wr != nil {
			wr.Content = run.AppendContent(wr.Content, p.Content)
			if p.ContentType != "" {
				wr.ContentType = p.ContentType
			}
			accumulated = wr.Content
		}
		return runs
	})
	if accumulated != "" {
		r.store.SetStreamState(sessionID, func(st *store.StreamState) {
			st.StreamingMessage = accumulated
		})
	}
}

// applyRunTerminal finishes either a nested executor run (overwriting
// accumulated content with the final fields) or, for events with no
// parent id, a workflow-level chat run.
func (r *Reconciler) applyRunTerminal(ev realtime.Event, status run.Status) {
	p := ev.Payload
	sessionID, ok := r.resolver.Resolve(ev)
	if !ok {
		return
	}
	target := p.TargetParentID()

	if target != "" {
		r.store.MutateStreaming(sessionID, func(runs []*run.WorkflowRun) []*run.WorkflowRun {
			for _, wr := range runs {
				exec := wr.Executor(p.RunID)
				if exec == nil {
					continue
				}
				exec.Status = status
				if final := run.ContentString(p.Content); final != "" {
					exec.Content = final
				}
				wr.RecordEvent(r.logEntry(ev), run.LogClassLifecycle)
			}
			return runs
		})
		return
	}

	r.finishRun(ev, sessionID, p.RunID, status)
}

// applyWorkflowTerminal finishes a top-level workflow run.
func (r *Reconciler) applyWorkflowTerminal(ev realtime.Event, status run.Status) {
	sessionID, ok := r.resolver.Resolve(ev)
	if !ok {
		return
	}
	r.finishRun(ev, sessionID, ev.Payload.RunID, status)

	if status == run.StatusError {
		msg := ev.Payload.Error
		if msg == "" {
			msg = run.ContentString(ev.Payload.Content)
		}
		if msg == "" {
			msg = "workflow failed"
		}
		r.notifier.WorkflowError(sessionID, msg)
	}
}

// finishRun applies a terminal status to a workflow run, clears the
// session's streaming flag, archives the run and schedules a REST
// snapshot merge for server-authoritative final fields.
func (r *Reconciler) finishRun(ev realtime.Event, sessionID, runID string, status run.Status) {
	p := ev.Payload
	var finished *run.WorkflowRun

	r.store.MutateStreaming(sessionID, func(runs []*run.WorkflowRun) []*run.WorkflowRun {
		wr := run.FindRun(runs, runID)
		if wr == nil {
			return runs
		}
		wr.Status = status
		if final := run.ContentString(p.Content); final != "" {
			wr.Content = final
		}
		if status == run.StatusError && wr.Content == "" {
			wr.Content = p.Error
		}
		if p.Metrics != nil {
			wr.Metrics = p.Metrics
		}
		wr.RecordEvent(r.logEntry(ev), run.LogClassLifecycle)
		finished = wr
		return runs
	})

	r.store.SetStreamState(sessionID, func(st *store.StreamState) {
		st.IsStreaming = false
		st.StreamingMessage = ""
	})

	if finished != nil && r.archiver != nil {
		archived := *finished
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.archiver.ArchiveRun(ctx, &archived); err != nil {
				r.logger.Warn("archive failed", "run_id", archived.RunID, "error", err)
			}
		}()
	}
	if finished != nil {
		r.RefreshSession(sessionID)
	}
}

// RefreshSession fetches the session's REST snapshot asynchronously and
// folds it in through ApplySnapshot. No-op without a fetcher.
func (r *Reconciler) RefreshSession(sessionID string) {
	if r.fetcher == nil || sessionID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		runs, err := r.fetcher.ListRuns(ctx, sessionID)
		if err != nil {
			r.logger.Warn("snapshot fetch failed", "session_id", sessionID, "error", err)
			return
		}
		r.ApplySnapshot(sessionID, runs)
	}()
}

// applyToolCall upserts a tool call on the executor run that owns it,
// keyed by the executor's run id and the tool call id.
func (r *Reconciler) applyToolCall(ev realtime.Event, completed bool) {
	p := ev.Payload
	if p.Tool == nil || p.Tool.ToolCallID == "" {
		return
	}
	sessionID, ok := r.resolver.Resolve(ev)
	if !ok {
		return
	}

	tc := p.Tool.ToolCall(completed)
	r.store.MutateStreaming(sessionID, func(runs []*run.WorkflowRun) []*run.WorkflowRun {
		for _, wr := range runs {
			exec := wr.Executor(p.RunID)
			if exec == nil {
				continue
			}
			exec.UpsertTool(tc)
			entry := r.logEntry(ev)
			entry.ToolCallID = tc.ToolCallID
			entry.ToolCompleted = completed
			wr.RecordEvent(entry, run.LogClassTool)
		}
		return runs
	})
}

// mutateRun locates a workflow run in the session's streaming collection
// and applies fn to it. Missing runs no-op.
func (r *Reconciler) mutateRun(sessionID, runID string, fn func(*run.WorkflowRun)) {
	r.store.MutateStreaming(sessionID, func(runs []*run.WorkflowRun) []*run.WorkflowRun {
		if wr := run.FindRun(runs, runID); wr != nil {
			fn(wr)
		}
		return runs
	})
}

func (r *Reconciler) logEntry(ev realtime.Event) run.LogEntry {
	return run.LogEntry{
		Type:      ev.Type,
		RunID:     ev.Payload.RunID,
		CreatedAt: ev.Payload.CreatedAt,
		Data:      ev.Data,
	}
}
