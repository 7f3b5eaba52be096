package outline

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFromWire_BackendShape(t *testing.T) {
	var raw map[string]any
	src := `{
		"title": "Fine-tuning LLMs",
		"difficultyLevel": "Intermediate",
		"prerequisites": {"requiredKnowledge": ["Python"], "recommendedTools": ["PyTorch"]},
		"introduction": "Why fine-tune?",
		"sections": [
			{"title": "Data", "subsections": ["Collect", "Clean"], "learningGoals": ["prep"], "includeCode": true},
			{"title": "Training", "subsections": ["Loop"]}
		],
		"conclusion": "Done."
	}`
	if err := json.Unmarshal([]byte(src), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	d := FromWire(raw)
	if d.Title != "Fine-tuning LLMs" || d.DifficultyLevel != "Intermediate" {
		t.Fatalf("unexpected header fields: %+v", d)
	}
	if strings.Join(d.Prerequisites, ",") != "Python,PyTorch" {
		t.Fatalf("unexpected prerequisites %v", d.Prerequisites)
	}
	if len(d.Sections) != 2 || d.Sections[0].Title != "Data" || !d.Sections[0].IncludeCode {
		t.Fatalf("unexpected sections %+v", d.Sections)
	}
	if got := d.Sections[0].Subsections[1].Title; got != "Clean" {
		t.Fatalf("expected subsection title Clean, got %q", got)
	}
	if err := Validate(d); err != nil {
		t.Fatalf("expected normalized document to validate: %v", err)
	}
}

func TestFromWire_OrderHintAppliedOnce(t *testing.T) {
	raw := map[string]any{
		"title": "T",
		"sections": []any{
			map[string]any{"id": "s2", "title": "Second", "order": float64(2)},
			map[string]any{"id": "s1", "title": "First", "order": float64(1)},
		},
	}
	d := FromWire(raw)
	if strings.Join(d.SectionIDs(), ",") != "s1,s2" {
		t.Fatalf("expected order hint applied, got %v", d.SectionIDs())
	}
	for _, s := range d.Sections {
		if s.Order != nil {
			t.Fatalf("expected order hint dropped after load")
		}
	}
}

func TestNormalize_FixesDuplicateIDs(t *testing.T) {
	d := Document{Title: "T", Sections: []Section{
		{ID: "dup", Title: "A", Subsections: []Subsection{{ID: "s", Title: "1"}, {ID: "s", Title: "2"}}},
		{ID: "dup", Title: "B"},
		{Title: "C"},
	}}
	if err := Validate(d); err == nil {
		t.Fatalf("expected duplicate ids to fail validation")
	}
	n := Normalize(d)
	if err := Validate(n); err != nil {
		t.Fatalf("expected normalized document to validate: %v", err)
	}
	if n.Sections[0].ID != "dup" {
		t.Fatalf("expected first occurrence to keep its id, got %q", n.Sections[0].ID)
	}
}

func TestToWire_SubsectionsAsTitles(t *testing.T) {
	w := ToWire(sampleDoc())
	secs := w["sections"].([]any)
	first := secs[0].(map[string]any)
	subs := first["subsections"].([]any)
	if len(subs) != 3 || subs[0] != "X" {
		t.Fatalf("unexpected subsections %v", subs)
	}
	back := FromWire(w)
	if len(back.Sections) != 3 || back.Sections[2].Title != "C" {
		t.Fatalf("unexpected round trip %+v", back.Sections)
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleDoc())
	for _, want := range []string{"# Intro to Transformers", "## 1. A", "- X", "## 3. C"} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected markdown to contain %q:\n%s", want, md)
		}
	}
}
