package run

import "testing"

func nestedTree() []*StepResult {
	return []*StepResult{
		{StepID: "s1", StepName: "research", Status: StatusCompleted},
		{
			StepID:   "loop",
			StepType: StepTypeLoop,
			Status:   StatusRunning,
			Steps: []*StepResult{
				{StepID: "loop.a", Status: StatusCompleted},
				{
					StepID:   "loop.cond",
					StepType: StepTypeCondition,
					Steps: []*StepResult{
						{StepID: "deep", Status: StatusRunning},
					},
				},
			},
		},
	}
}

func TestFindStep_AnyDepth(t *testing.T) {
	steps := nestedTree()
	if s := FindStep(steps, "deep"); s == nil {
		t.Fatalf("expected to find deeply nested step")
	}
	if s := FindStep(steps, "missing"); s != nil {
		t.Fatalf("expected nil for unknown id")
	}
	if s := FindStep(steps, ""); s != nil {
		t.Fatalf("expected nil for empty id")
	}
}

func TestUpsertStep_UnderNestedParent(t *testing.T) {
	steps := nestedTree()
	steps = UpsertStep(steps, &StepResult{StepID: "deep2", Status: StatusRunning}, "loop.cond")

	parent := FindStep(steps, "loop.cond")
	if len(parent.Steps) != 2 {
		t.Fatalf("expected child appended under nested parent, got %d", len(parent.Steps))
	}
	// Siblings and ancestors untouched.
	if len(steps) != 2 {
		t.Fatalf("top level grew: %d", len(steps))
	}
	if FindStep(steps, "loop").Status != StatusRunning {
		t.Fatalf("ancestor status changed")
	}
}

func TestUpsertStep_UnknownParentFallsBackToTopLevel(t *testing.T) {
	steps := nestedTree()
	steps = UpsertStep(steps, &StepResult{StepID: "orphan"}, "no-such-parent")
	if len(steps) != 3 {
		t.Fatalf("expected top-level append, got %d", len(steps))
	}
}

func TestUpsertStep_UpdatesInPlaceByID(t *testing.T) {
	steps := nestedTree()
	steps = UpsertStep(steps, &StepResult{StepID: "loop.a", Status: StatusError}, "loop")
	parent := FindStep(steps, "loop")
	if len(parent.Steps) != 2 {
		t.Fatalf("duplicate sibling appended")
	}
	if FindStep(steps, "loop.a").Status != StatusError {
		t.Fatalf("sibling not updated in place")
	}
}

func TestCompleteStep_MergesPatch(t *testing.T) {
	steps := nestedTree()
	ok := CompleteStep(steps, StepPatch{
		StepID:  "deep",
		Status:  StatusCompleted,
		Content: "done",
	})
	if !ok {
		t.Fatalf("expected patch to land")
	}
	s := FindStep(steps, "deep")
	if s.Status != StatusCompleted || s.Content != "done" {
		t.Fatalf("patch not applied: %+v", s)
	}
}

func TestCompleteStep_DefaultsToCompleted(t *testing.T) {
	steps := nestedTree()
	if !CompleteStep(steps, StepPatch{StepID: "s1"}) {
		t.Fatalf("expected patch to land")
	}
	if FindStep(steps, "s1").Status != StatusCompleted {
		t.Fatalf("empty status should default to COMPLETED")
	}
}

func TestCompleteStep_MissingStepIsNoop(t *testing.T) {
	steps := nestedTree()
	if CompleteStep(steps, StepPatch{StepID: "missing"}) {
		t.Fatalf("expected false for unknown step")
	}
}
