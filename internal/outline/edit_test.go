package outline

import (
	"reflect"
	"sort"
	"strings"
	"testing"
)

func sampleDoc() Document {
	return Document{
		Title: "Intro to Transformers",
		Sections: []Section{
			{ID: "a", Title: "A", Description: "first", Subsections: []Subsection{
				{ID: "x", Title: "X"},
				{ID: "y", Title: "Y"},
				{ID: "z", Title: "Z"},
			}},
			{ID: "b", Title: "B", Subsections: []Subsection{
				{ID: "x", Title: "BX"},
			}},
			{ID: "c", Title: "C"},
		},
	}
}

func subIDs(s Section) []string {
	out := make([]string, 0, len(s.Subsections))
	for _, sub := range s.Subsections {
		out = append(out, sub.ID)
	}
	return out
}

func TestReorderSections_DragFirstOntoLast(t *testing.T) {
	d := sampleDoc()
	got, ok := ReorderSections(d, "a", "c")
	if !ok {
		t.Fatalf("expected reorder to apply")
	}
	if want := "b,c,a"; strings.Join(got.SectionIDs(), ",") != want {
		t.Fatalf("expected %s, got %v", want, got.SectionIDs())
	}
	// Input untouched.
	if strings.Join(d.SectionIDs(), ",") != "a,b,c" {
		t.Fatalf("input mutated: %v", d.SectionIDs())
	}
}

func TestReorderSections_IsPermutation(t *testing.T) {
	d := sampleDoc()
	ids := d.SectionIDs()
	for _, src := range ids {
		for _, dst := range ids {
			got, _ := ReorderSections(d, src, dst)
			after := got.SectionIDs()
			if len(after) != len(ids) {
				t.Fatalf("%s->%s: count changed %v", src, dst, after)
			}
			a := append([]string(nil), after...)
			b := append([]string(nil), ids...)
			sort.Strings(a)
			sort.Strings(b)
			if !reflect.DeepEqual(a, b) {
				t.Fatalf("%s->%s: not a permutation %v", src, dst, after)
			}
			dstIdx := d.sectionIndex(dst)
			if after[dstIdx] != src {
				t.Fatalf("%s->%s: expected %s at %d, got %v", src, dst, src, dstIdx, after)
			}
		}
	}
}

func TestReorderSubsections_WithinSection(t *testing.T) {
	got, ok := ReorderSubsections(sampleDoc(), "a", "z", "x")
	if !ok {
		t.Fatalf("expected reorder to apply")
	}
	if ids := subIDs(got.Sections[0]); strings.Join(ids, ",") != "z,x,y" {
		t.Fatalf("unexpected order %v", ids)
	}
}

func TestMove_CrossParentAndCrossKindRejected(t *testing.T) {
	d := sampleDoc()
	cases := []struct {
		name     string
		src, dst Ref
	}{
		{"cross-parent", SubRef("a", "y"), SubRef("b", "x")},
		{"section onto subsection", SectionRef("a"), SubRef("b", "x")},
		{"subsection onto section", SubRef("a", "x"), SectionRef("c")},
		{"missing target", SectionRef("a"), SectionRef("nope")},
	}
	for _, tc := range cases {
		got, ok := Move(d, tc.src, tc.dst)
		if ok {
			t.Fatalf("%s: expected rejection", tc.name)
		}
		if !reflect.DeepEqual(got, sampleDoc()) {
			t.Fatalf("%s: document changed", tc.name)
		}
	}
}

func TestMove_SameParentSubsection(t *testing.T) {
	got, ok := Move(sampleDoc(), SubRef("a", "x"), SubRef("a", "z"))
	if !ok {
		t.Fatalf("expected move to apply")
	}
	if ids := subIDs(got.Sections[0]); strings.Join(ids, ",") != "y,z,x" {
		t.Fatalf("unexpected order %v", ids)
	}
}

func TestAddSection_AppendsPlaceholderWithFreshID(t *testing.T) {
	d := sampleDoc()
	got, id := AddSection(d)
	if len(got.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(got.Sections))
	}
	last := got.Sections[3]
	if last.ID != id || !strings.HasPrefix(id, "sec-") {
		t.Fatalf("unexpected id %q (last=%q)", id, last.ID)
	}
	if last.Title != placeholderSectionTitle || last.Description == "" {
		t.Fatalf("expected placeholder text, got %+v", last)
	}
	if last.Subsections == nil || len(last.Subsections) != 0 {
		t.Fatalf("expected empty subsection list, got %#v", last.Subsections)
	}
	for _, s := range d.Sections {
		if s.ID == id {
			t.Fatalf("reused id %q", id)
		}
	}
}

func TestUniqueID_RetriesOnCollision(t *testing.T) {
	orig := randRead
	defer func() { randRead = orig }()

	calls := 0
	randRead = func(b []byte) (int, error) {
		calls++
		for i := range b {
			b[i] = byte(calls)
		}
		return len(b), nil
	}
	first := newRandomID("sec")
	calls = 0
	got := uniqueID("sec", func(id string) bool { return id == first })
	if got == first {
		t.Fatalf("expected a different id than %q", first)
	}
	if calls != 2 {
		t.Fatalf("expected 2 draws, got %d", calls)
	}
}

func TestDelete_NonexistentIsNoop(t *testing.T) {
	d := sampleDoc()
	if got := DeleteSection(d, "nope"); !reflect.DeepEqual(got, sampleDoc()) {
		t.Fatalf("expected unchanged document")
	}
	if got := DeleteSubsection(d, "a", "nope"); !reflect.DeepEqual(got, sampleDoc()) {
		t.Fatalf("expected unchanged document")
	}
	if got := DeleteSubsection(d, "nope", "x"); !reflect.DeepEqual(got, sampleDoc()) {
		t.Fatalf("expected unchanged document")
	}
	if _, _, ok := AddSubsection(d, "nope"); ok {
		t.Fatalf("expected AddSubsection on missing section to fail")
	}
}

func TestDelete_LeavesSiblingIDs(t *testing.T) {
	got := DeleteSection(sampleDoc(), "b")
	if strings.Join(got.SectionIDs(), ",") != "a,c" {
		t.Fatalf("unexpected ids %v", got.SectionIDs())
	}
	got = DeleteSubsection(sampleDoc(), "a", "y")
	if ids := subIDs(got.Sections[0]); strings.Join(ids, ",") != "x,z" {
		t.Fatalf("unexpected subsection ids %v", ids)
	}
}

func TestSetField_OnlyTargetChanges(t *testing.T) {
	d := sampleDoc()
	got, ok := SetField(d, SubRef("a", "y"), FieldDescription, "why")
	if !ok {
		t.Fatalf("expected SetField to apply")
	}
	want := sampleDoc()
	want.Sections[0].Subsections[1].Description = "why"
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected document:\n got %+v\nwant %+v", got, want)
	}
}

func TestShift(t *testing.T) {
	got, ok := Shift(sampleDoc(), SectionRef("c"), -1)
	if !ok || strings.Join(got.SectionIDs(), ",") != "a,c,b" {
		t.Fatalf("unexpected shift result %v (ok=%v)", got.SectionIDs(), ok)
	}
	if _, ok := Shift(sampleDoc(), SectionRef("a"), -1); ok {
		t.Fatalf("expected shift past the top to fail")
	}
	got, ok = Shift(sampleDoc(), SubRef("a", "x"), 1)
	if !ok || strings.Join(subIDs(got.Sections[0]), ",") != "y,x,z" {
		t.Fatalf("unexpected subsection shift %v", subIDs(got.Sections[0]))
	}
}
