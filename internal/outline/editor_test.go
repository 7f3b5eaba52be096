package outline

import (
	"reflect"
	"strings"
	"testing"
)

type changeRecorder struct {
	docs []Document
}

func (r *changeRecorder) fn(d Document) { r.docs = append(r.docs, d) }

func TestEditor_CommitTrimsAndWrites(t *testing.T) {
	rec := &changeRecorder{}
	e := NewEditor(sampleDoc(), rec.fn)

	if !e.BeginEdit(SectionRef("b"), FieldTitle) {
		t.Fatalf("expected BeginEdit to succeed")
	}
	st, ok := e.Editing()
	if !ok || st.Buffer != "B" {
		t.Fatalf("expected buffer to capture current value, got %+v", st)
	}
	e.SetBuffer("  Background  ")
	if !e.Commit() {
		t.Fatalf("expected commit to write")
	}
	if got := e.Document().Sections[1].Title; got != "Background" {
		t.Fatalf("expected trimmed title, got %q", got)
	}
	if len(rec.docs) != 1 {
		t.Fatalf("expected one change notification, got %d", len(rec.docs))
	}
	if _, ok := e.Editing(); ok {
		t.Fatalf("expected edit to end after commit")
	}
}

func TestEditor_BlankCommitCancels(t *testing.T) {
	for _, blank := range []string{"", "   ", "\t\n"} {
		rec := &changeRecorder{}
		e := NewEditor(sampleDoc(), rec.fn)
		e.BeginEdit(SubRef("a", "x"), FieldTitle)
		e.SetBuffer(blank)
		if e.Commit() {
			t.Fatalf("blank %q: expected commit to cancel", blank)
		}
		if !reflect.DeepEqual(e.Document(), sampleDoc()) {
			t.Fatalf("blank %q: document changed", blank)
		}
		if len(rec.docs) != 0 {
			t.Fatalf("blank %q: unexpected notification", blank)
		}
	}
}

func TestEditor_BlurCommitsAndCancelDiscards(t *testing.T) {
	e := NewEditor(sampleDoc(), nil)
	e.BeginEdit(SectionRef("a"), FieldDescription)
	e.SetBuffer("first section")
	e.Blur()
	if got := e.Document().Sections[0].Description; got != "first section" {
		t.Fatalf("expected blur to commit, got %q", got)
	}

	e.BeginEdit(SectionRef("a"), FieldDescription)
	e.SetBuffer("discard me")
	e.Cancel()
	if got := e.Document().Sections[0].Description; got != "first section" {
		t.Fatalf("expected cancel to discard, got %q", got)
	}
}

func TestEditor_OnlyOneActiveEdit(t *testing.T) {
	e := NewEditor(sampleDoc(), nil)
	e.BeginEdit(SectionRef("a"), FieldTitle)
	e.SetBuffer("Alpha")
	// Starting another edit commits the first.
	e.BeginEdit(SectionRef("c"), FieldTitle)
	st, _ := e.Editing()
	if st.Ref != SectionRef("c") {
		t.Fatalf("expected active edit on c, got %+v", st.Ref)
	}
	if got := e.Document().Sections[0].Title; got != "Alpha" {
		t.Fatalf("expected previous edit committed, got %q", got)
	}
}

func TestEditor_DeleteEndsEditOnDeletedEntity(t *testing.T) {
	e := NewEditor(sampleDoc(), nil)
	e.BeginEdit(SubRef("a", "y"), FieldTitle)
	e.Delete(SectionRef("a"))
	if _, ok := e.Editing(); ok {
		t.Fatalf("expected edit to be dropped with its entity")
	}
	if e.Delete(SectionRef("a")) {
		t.Fatalf("expected second delete to be a no-op")
	}
}

func TestEditor_DragAndDrop(t *testing.T) {
	rec := &changeRecorder{}
	e := NewEditor(sampleDoc(), rec.fn)

	e.DragStart(SectionRef("a"))
	if !e.DragOver(SectionRef("c")) {
		t.Fatalf("expected section target to be droppable")
	}
	if !e.Drop() {
		t.Fatalf("expected drop to apply")
	}
	if got := strings.Join(e.Document().SectionIDs(), ","); got != "b,c,a" {
		t.Fatalf("unexpected order %s", got)
	}

	e.DragStart(SubRef("a", "x"))
	if e.DragOver(SubRef("b", "x")) {
		t.Fatalf("expected cross-parent target to be rejected")
	}
	before := e.Document()
	if e.Drop() {
		t.Fatalf("expected cross-parent drop to be rejected")
	}
	if !reflect.DeepEqual(e.Document(), before) {
		t.Fatalf("document changed on rejected drop")
	}
	if len(rec.docs) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(rec.docs))
	}
	if _, _, ok := e.Dragging(); ok {
		t.Fatalf("expected drag state cleared after drop")
	}
}

func TestEditor_NotificationsCarryCopies(t *testing.T) {
	var got Document
	e := NewEditor(sampleDoc(), func(d Document) { got = d })
	e.AddSection()
	got.Sections[0].Title = "mutated by listener"
	if e.Document().Sections[0].Title != "A" {
		t.Fatalf("listener mutation leaked into editor state")
	}
}

func TestEditor_DeletedIDsAreNotReused(t *testing.T) {
	orig := randRead
	defer func() { randRead = orig }()

	draw := 0
	randRead = func(b []byte) (int, error) {
		draw++
		for i := range b {
			b[i] = byte(draw)
		}
		return len(b), nil
	}

	e := NewEditor(sampleDoc(), nil)
	sec := e.AddSection()
	if !e.Delete(SectionRef(sec)) {
		t.Fatalf("delete %q failed", sec)
	}
	draw = 0
	if again := e.AddSection(); again == sec {
		t.Fatalf("new section reused deleted id %q", sec)
	}

	draw = 0
	sub, ok := e.AddSubsection("a")
	if !ok || !e.Delete(SubRef("a", sub)) {
		t.Fatalf("add/delete subsection failed")
	}
	draw = 0
	if again, _ := e.AddSubsection("a"); again == sub {
		t.Fatalf("new subsection reused deleted id %q", sub)
	}

	// The package-level helpers only see the document.
	draw = 0
	if _, id := AddSection(e.Document()); id != sec {
		t.Fatalf("AddSection = %q, want the first draw %q", id, sec)
	}
}
