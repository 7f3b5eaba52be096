package cli

import (
	"quibo-cli/internal/flow"
	"quibo-cli/internal/workflow"
)

type stepView struct {
	Index int                `json:"index"`
	Stage workflow.Stage     `json:"stage"`
	Label string             `json:"label"`
	State workflow.StepState `json:"state"`
}

type stepperView struct {
	Current int        `json:"current"`
	Fill    float64    `json:"fill"`
	Steps   []stepView `json:"steps"`
}

func newStepperView(s workflow.Stepper) stepperView {
	out := stepperView{Current: s.Current, Fill: s.Fill()}
	for i, st := range s.Steps {
		out.Steps = append(out.Steps, stepView{Index: i, Stage: st.Stage, Label: st.Label, State: s.State(i)})
	}
	return out
}

// projectSummary is the compact project shape printed by most commands. Long
// artifacts are reported by presence only; `draft show` and friends print them.
type projectSummary struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Stage           workflow.Stage `json:"stage"`
	Reached         workflow.Stage `json:"reached"`
	Files           []string       `json:"files,omitempty"`
	OutlineTitle    string         `json:"outlineTitle,omitempty"`
	OutlineVersion  int            `json:"outlineVersion,omitempty"`
	Sections        int            `json:"sections"`
	SectionsDrafted int            `json:"sectionsDrafted"`
	MissingSections []int          `json:"missingSections,omitempty"`
	HasDraft        bool           `json:"hasDraft"`
	HasRefined      bool           `json:"hasRefined"`
	HasSocial       bool           `json:"hasSocial"`
	DraftRestored   bool           `json:"draftRestored,omitempty"`
	Stepper         stepperView    `json:"stepper"`
}

func projectView(p flow.Project) projectSummary {
	facts := p.Facts()
	out := projectSummary{
		ID:              p.ID,
		Name:            p.Name,
		Stage:           p.Stage,
		Reached:         p.Reached,
		Files:           p.Files,
		OutlineVersion:  p.OutlineVersion,
		SectionsDrafted: len(p.Sections),
		MissingSections: p.MissingSections(),
		HasDraft:        facts.HasFinalDraft,
		HasRefined:      facts.HasRefinedDraft,
		HasSocial:       facts.HasSocial,
		DraftRestored:   p.DraftRestored,
		Stepper:         newStepperView(p.Stepper()),
	}
	if p.Outline != nil {
		out.OutlineTitle = p.Outline.Title
		out.Sections = len(p.Outline.Sections)
	}
	return out
}
