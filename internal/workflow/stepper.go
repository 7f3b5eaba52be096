package workflow

// StepState classifies a step relative to the current one.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepFuture    StepState = "future"
)

type Step struct {
	Stage Stage  `json:"stage"`
	Label string `json:"label"`
}

// DefaultSteps is the visible five-step progress bar. Complete has no marker of
// its own and clamps onto Social.
func DefaultSteps() []Step {
	out := make([]Step, 0, 5)
	for _, st := range stageOrder[:5] {
		out = append(out, Step{Stage: st, Label: st.Label()})
	}
	return out
}

// Stepper is the progress-indicator model: an ordered list of visible steps and
// the index of the current one.
type Stepper struct {
	Steps   []Step
	Current int
}

// NewStepper positions the stepper at stage, clamping to the visible steps.
func NewStepper(steps []Step, stage Stage) Stepper {
	return Stepper{Steps: steps, Current: ClampIndex(steps, stage)}
}

// ClampIndex returns the step index for stage. Stages at or beyond the visible
// step count clamp to the last step; unknown stages map to the first.
func ClampIndex(steps []Step, stage Stage) int {
	if len(steps) == 0 {
		return 0
	}
	for i, s := range steps {
		if s.Stage == stage {
			return i
		}
	}
	r := Rank(stage)
	if r < 0 {
		return 0
	}
	if r >= len(steps) {
		return len(steps) - 1
	}
	// Stage is hidden from a custom step list; place it on the last visible
	// step that precedes it.
	idx := 0
	for i, s := range steps {
		if Rank(s.Stage) <= r {
			idx = i
		}
	}
	return idx
}

// Fill returns the progress-bar fill in percent.
func (s Stepper) Fill() float64 {
	n := len(s.Steps)
	if n <= 1 {
		return 0
	}
	cur := s.Current
	if cur < 0 {
		cur = 0
	}
	if cur > n-1 {
		cur = n - 1
	}
	return float64(cur) / float64(n-1) * 100
}

func (s Stepper) State(i int) StepState {
	switch {
	case i < s.Current:
		return StepCompleted
	case i == s.Current:
		return StepCurrent
	default:
		return StepFuture
	}
}

func (s Stepper) States() []StepState {
	out := make([]StepState, len(s.Steps))
	for i := range s.Steps {
		out[i] = s.State(i)
	}
	return out
}

// Click resolves a click on step i. Only completed steps navigate; clicks on the
// current step, future steps, or out-of-range indexes are no-ops.
func (s Stepper) Click(i int) (Stage, bool) {
	if i < 0 || i >= len(s.Steps) {
		return "", false
	}
	if s.State(i) != StepCompleted {
		return "", false
	}
	return s.Steps[i].Stage, true
}

// CanEnter reports whether a user sitting at current may open target. Users may
// revisit earlier stages and stay where they are, but never skip ahead.
func CanEnter(current, target Stage) bool {
	rc, rt := Rank(current), Rank(target)
	if rc < 0 || rt < 0 {
		return false
	}
	return rt <= rc
}
