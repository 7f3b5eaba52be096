package casing

import (
	"reflect"
	"testing"
)

func TestToCamel_Nested(t *testing.T) {
	in := map[string]any{
		"project_id": "p1",
		"outline": map[string]any{
			"title": "T",
			"sections": []any{
				map[string]any{"learning_goals": []any{"a"}, "include_code": true},
			},
		},
		"generated_sections": map[string]any{
			"0": map[string]any{"section_title": "Intro"},
		},
		"total_sections": float64(3),
		"file_hashes":    map[string]any{"uploads/my_post/notes_1.md": "abc"},
	}
	want := map[string]any{
		"projectId": "p1",
		"outline": map[string]any{
			"title": "T",
			"sections": []any{
				map[string]any{"learningGoals": []any{"a"}, "includeCode": true},
			},
		},
		"generatedSections": map[string]any{
			"0": map[string]any{"sectionTitle": "Intro"},
		},
		"totalSections": float64(3),
		"fileHashes":    map[string]any{"uploads/my_post/notes_1.md": "abc"},
	}
	if got := ToCamel(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected conversion:\n got %#v\nwant %#v", got, want)
	}
	// Input untouched.
	if _, ok := in["project_id"]; !ok {
		t.Fatalf("input map was mutated")
	}
}

func TestToSnake(t *testing.T) {
	in := map[string]any{
		"sectionIndex":     float64(2),
		"maxIterations":    float64(3),
		"qualityThreshold": 0.8,
		"title":            "keep",
		"files":            []any{map[string]any{"contentHash": "h"}},
	}
	want := map[string]any{
		"section_index":     float64(2),
		"max_iterations":    float64(3),
		"quality_threshold": 0.8,
		"title":             "keep",
		"files":             []any{map[string]any{"content_hash": "h"}},
	}
	if got := ToSnake(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected conversion:\n got %#v\nwant %#v", got, want)
	}
}

func TestScalarsPassThrough(t *testing.T) {
	for _, v := range []any{nil, "x_y", float64(1), true} {
		if got := ToCamel(v); !reflect.DeepEqual(got, v) {
			t.Fatalf("ToCamel(%#v) = %#v", v, got)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	in := map[string]any{"has_final_draft": true, "outline_title": "x", "custom_length": float64(1200)}
	if got := ToSnake(ToCamel(in)); !reflect.DeepEqual(got, in) {
		t.Fatalf("round trip mismatch: %#v", got)
	}
}
