package workflow

import "testing"

func TestFill_EndpointsAndMonotonic(t *testing.T) {
	steps := DefaultSteps()
	prev := -1.0
	for _, st := range Stages() {
		s := NewStepper(steps, st)
		f := s.Fill()
		if f < prev {
			t.Fatalf("fill decreased at %q: %v < %v", st, f, prev)
		}
		prev = f
	}
	if got := NewStepper(steps, StageUpload).Fill(); got != 0 {
		t.Fatalf("expected 0 at first step, got %v", got)
	}
	if got := NewStepper(steps, StageSocial).Fill(); got != 100 {
		t.Fatalf("expected 100 at last step, got %v", got)
	}
	if got := NewStepper(steps, StageDrafting).Fill(); got != 50 {
		t.Fatalf("expected 50 at drafting, got %v", got)
	}
}

func TestFill_SingleStep(t *testing.T) {
	s := Stepper{Steps: []Step{{Stage: StageUpload}}, Current: 0}
	if got := s.Fill(); got != 0 {
		t.Fatalf("expected 0 for single step, got %v", got)
	}
	if got := (Stepper{}).Fill(); got != 0 {
		t.Fatalf("expected 0 for empty stepper, got %v", got)
	}
}

func TestClampIndex_CompleteClampsToLastVisible(t *testing.T) {
	steps := DefaultSteps()
	if len(steps) != 5 {
		t.Fatalf("expected 5 visible steps, got %d", len(steps))
	}
	if got := ClampIndex(steps, StageComplete); got != 4 {
		t.Fatalf("expected complete to clamp to 4, got %d", got)
	}
	if got := ClampIndex(steps, Stage("unknown")); got != 0 {
		t.Fatalf("expected unknown stage at 0, got %d", got)
	}
}

func TestStates_Partition(t *testing.T) {
	for _, st := range Stages() {
		s := NewStepper(DefaultSteps(), st)
		currents := 0
		for i, state := range s.States() {
			switch state {
			case StepCompleted:
				if i >= s.Current {
					t.Fatalf("%q: step %d completed but current is %d", st, i, s.Current)
				}
			case StepCurrent:
				currents++
				if i != s.Current {
					t.Fatalf("%q: step %d current but current is %d", st, i, s.Current)
				}
			case StepFuture:
				if i <= s.Current {
					t.Fatalf("%q: step %d future but current is %d", st, i, s.Current)
				}
			default:
				t.Fatalf("unexpected state %q", state)
			}
		}
		if currents != 1 {
			t.Fatalf("%q: expected exactly one current step, got %d", st, currents)
		}
	}
}

func TestClick_OnlyCompletedNavigates(t *testing.T) {
	s := NewStepper(DefaultSteps(), StageRefining) // current index 3
	for i := 0; i < 3; i++ {
		got, ok := s.Click(i)
		if !ok {
			t.Fatalf("expected click on completed step %d to navigate", i)
		}
		if got != s.Steps[i].Stage {
			t.Fatalf("click %d navigated to %q, want %q", i, got, s.Steps[i].Stage)
		}
	}
	for _, i := range []int{3, 4, 5, -1} {
		if got, ok := s.Click(i); ok {
			t.Fatalf("expected click on step %d to be a no-op, navigated to %q", i, got)
		}
	}
}

func TestCanEnter(t *testing.T) {
	if !CanEnter(StageRefining, StageOutline) {
		t.Fatalf("expected backward navigation to be allowed")
	}
	if !CanEnter(StageRefining, StageRefining) {
		t.Fatalf("expected staying put to be allowed")
	}
	if CanEnter(StageOutline, StageSocial) {
		t.Fatalf("expected skipping ahead to be rejected")
	}
	if CanEnter(Stage("x"), StageUpload) {
		t.Fatalf("expected unknown current stage to be rejected")
	}
}
