package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID       string   `json:"id"`
	Stage    string   `json:"stage"`
	Progress float64  `json:"progress"`
	Tags     []string `json:"tags,omitempty"`
	Draft    *string  `json:"draft"`
}

func TestWrite_JSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": sample{ID: "p1", Stage: "outline"}}, "", false); err != nil {
		t.Fatal(err)
	}
	want := `{"data":{"id":"p1","stage":"outline","progress":0,"draft":null}}` + "\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestWrite_EDN(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{"data": sample{ID: "p1", Stage: "drafting", Progress: 42.5, Tags: []string{"a", "b"}}, "file_hashes": map[string]any{}}
	if err := Write(&buf, v, "edn", false); err != nil {
		t.Fatal(err)
	}
	want := `{:data {:draft nil :id "p1" :progress 42.5 :stage "drafting" :tags ["a" "b"]} :file-hashes {}}` + "\n"
	if buf.String() != want {
		t.Fatalf("got %q\nwant %q", buf.String(), want)
	}
}

func TestWrite_EDNPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEDN(&buf, map[string]any{"xs": []any{1, true}}, true); err != nil {
		t.Fatal(err)
	}
	want := "{\n  :xs [\n    1\n    true\n  ]\n}\n"
	if buf.String() != want {
		t.Fatalf("got %q\nwant %q", buf.String(), want)
	}
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{
		"data":   map[string]any{"id": "p1", "sections": []any{"Intro", "Body"}, "status": map[string]any{"hasOutline": true}},
		"_hints": []string{"quibo outline show"},
	}
	if err := Write(&buf, v, "text", false); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"id: p1",
		"sections:",
		"  - Intro",
		"  - Body",
		"status:",
		"  hasOutline: true",
		"hint: quibo outline show",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWrite_TextStringIsVerbatim(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": "# Title\n\nbody\n"}, "text", false); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "# Title\n\nbody\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, 1, "yaml", false); err == nil {
		t.Fatal("expected error")
	}
	if Valid("yaml") || !Valid("EDN") {
		t.Fatal("Valid mismatch")
	}
}
