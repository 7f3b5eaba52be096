package workflow

import (
	"fmt"
	"strings"
)

// Stage is a project's position in the authoring pipeline.
type Stage string

const (
	StageUpload   Stage = "upload"
	StageOutline  Stage = "outline"
	StageDrafting Stage = "drafting"
	StageRefining Stage = "refining"
	StageSocial   Stage = "social"
	StageComplete Stage = "complete"
)

var stageOrder = []Stage{
	StageUpload,
	StageOutline,
	StageDrafting,
	StageRefining,
	StageSocial,
	StageComplete,
}

// Stages returns the fixed stage order. The slice is a copy.
func Stages() []Stage {
	return append([]Stage(nil), stageOrder...)
}

// Rank returns the 0-based position of s in the pipeline, or -1 for unknown values.
func Rank(s Stage) int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// StageAt is the inverse of Rank.
func StageAt(rank int) (Stage, bool) {
	if rank < 0 || rank >= len(stageOrder) {
		return "", false
	}
	return stageOrder[rank], true
}

func (s Stage) Valid() bool { return Rank(s) >= 0 }

func (s Stage) String() string { return string(s) }

// Label is the human-facing step name.
func (s Stage) Label() string {
	switch s {
	case StageUpload:
		return "Upload"
	case StageOutline:
		return "Outline"
	case StageDrafting:
		return "Draft"
	case StageRefining:
		return "Refine"
	case StageSocial:
		return "Social"
	case StageComplete:
		return "Complete"
	default:
		return string(s)
	}
}

// Next returns the stage after s. Complete (and unknown stages) have no successor.
func Next(s Stage) (Stage, bool) {
	r := Rank(s)
	if r < 0 {
		return "", false
	}
	return StageAt(r + 1)
}

// Before reports whether a comes strictly before b in the pipeline.
func Before(a, b Stage) bool {
	ra, rb := Rank(a), Rank(b)
	return ra >= 0 && rb >= 0 && ra < rb
}

// ParseStage normalizes user/backend input. It accepts the short verbs the
// backend and older clients use ("draft", "refine", "completed").
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upload", "uploaded", "files":
		return StageUpload, nil
	case "outline", "outlining":
		return StageOutline, nil
	case "draft", "drafting", "sections":
		return StageDrafting, nil
	case "refine", "refining", "refined":
		return StageRefining, nil
	case "social", "social_media":
		return StageSocial, nil
	case "complete", "completed", "done":
		return StageComplete, nil
	case "":
		return "", fmt.Errorf("invalid stage: empty")
	default:
		return "", fmt.Errorf("invalid stage: %q", s)
	}
}

// StageFromProgress maps a 0..100 progress percentage onto a stage using the
// fixed 20/40/60/80 thresholds. It is a degraded fallback for projects that
// carry no explicit stage.
func StageFromProgress(pct float64) Stage {
	switch {
	case pct < 20:
		return StageUpload
	case pct < 40:
		return StageOutline
	case pct < 60:
		return StageDrafting
	case pct < 80:
		return StageRefining
	case pct < 100:
		return StageSocial
	default:
		return StageComplete
	}
}

// ResolveStage prefers the explicit stage and only falls back to the progress
// percentage when the explicit value is missing or unrecognized.
func ResolveStage(explicit string, pct float64) Stage {
	if st, err := ParseStage(explicit); err == nil {
		return st
	}
	return StageFromProgress(pct)
}

// Facts are the backend-reported artifacts a project has accumulated.
type Facts struct {
	HasFiles        bool
	HasOutline      bool
	HasFinalDraft   bool
	HasRefinedDraft bool
	HasSocial       bool
}

// DeriveStage returns the stage a project is in given what it has produced so far.
// The stage is the first step whose output is still missing.
func DeriveStage(f Facts) Stage {
	switch {
	case f.HasRefinedDraft && f.HasSocial:
		return StageComplete
	case f.HasRefinedDraft:
		return StageSocial
	case f.HasFinalDraft:
		return StageRefining
	case f.HasOutline:
		return StageDrafting
	case f.HasFiles:
		return StageOutline
	default:
		return StageUpload
	}
}
