package run

// FindStep locates a step by id at any depth of the tree. Returns nil
// when the id is empty or absent.
func FindStep(steps []*StepResult, stepID string) *StepResult {
	if stepID == "" {
		return nil
	}
	for _, s := range steps {
		if s == nil {
			continue
		}
		if s.StepID == stepID {
			return s
		}
		if found := FindStep(s.Steps, stepID); found != nil {
			return found
		}
	}
	return nil
}

// UpsertStep inserts a step into the tree. When parentStepID names an
// existing node at any depth, the step is appended (or updated in place)
// under that parent; otherwise it is upserted at the top level. Siblings
// and ancestors are never touched.
func UpsertStep(steps []*StepResult, step *StepResult, parentStepID string) []*StepResult {
	if step == nil {
		return steps
	}
	if parentStepID != "" {
		if parent := FindStep(steps, parentStepID); parent != nil {
			parent.Steps = upsertSibling(parent.Steps, step)
			return steps
		}
	}
	return upsertSibling(steps, step)
}

func upsertSibling(steps []*StepResult, step *StepResult) []*StepResult {
	for i, s := range steps {
		if s != nil && s.StepID == step.StepID {
			steps[i] = step
			return steps
		}
	}
	return append(steps, step)
}

// StepPatch carries the terminal fields of a step-completed event.
type StepPatch struct {
	StepID  string
	Status  Status
	Content string
	Error   string
	Tools   []ToolCall
	Steps   []*StepResult
}

// CompleteStep locates the step by id at any depth and merges the patch
// into it, replacing only that node's fields. Returns false when the
// step is not present, which the caller treats as a no-op.
func CompleteStep(steps []*StepResult, patch StepPatch) bool {
	s := FindStep(steps, patch.StepID)
	if s == nil {
		return false
	}
	if patch.Status != "" {
		s.Status = patch.Status
	} else {
		s.Status = StatusCompleted
	}
	if patch.Content != "" {
		s.Content = patch.Content
	}
	if patch.Error != "" {
		s.Error = patch.Error
	}
	if patch.Tools != nil {
		s.Tools = patch.Tools
	}
	if patch.Steps != nil {
		s.Steps = patch.Steps
	}
	return true
}
