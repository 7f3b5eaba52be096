package tui

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"quibo-cli/internal/api"
	"quibo-cli/internal/flow"
	"quibo-cli/internal/logger"
	"quibo-cli/internal/outline"
	"quibo-cli/internal/store"
	"quibo-cli/internal/workflow"

	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
)

func sampleProject(stage workflow.Stage) flow.Project {
	doc := outline.Document{
		Title: "Intro to Go",
		Sections: []outline.Section{
			{ID: "sec-a", Title: "Basics", Description: "Syntax", Subsections: []outline.Subsection{{ID: "sub-a1", Title: "Types"}}},
			{ID: "sec-b", Title: "Concurrency"},
		},
	}
	return flow.Project{
		ID:         "p1",
		Name:       "demo",
		Stage:      stage,
		Files:      []string{"notes.md"},
		FileHashes: map[string]string{"notes.md": "h1"},
		Outline:    &doc,
		Sections: map[int]api.GeneratedSection{
			0: {Title: "Basics", Content: "basics body"},
			1: {Title: "Concurrency", Content: "concurrency body"},
		},
		Draft: "# Intro to Go\n\nbody",
	}
}

func newTestFlow(t *testing.T) (*flow.Flow, *store.Store) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), store.FileName))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return flow.New(flow.Options{Store: st, Logger: logger.Discard()}), st
}

func cacheProject(t *testing.T, st *store.Store, p flow.Project) {
	t.Helper()
	payload, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := st.UpsertProject(context.Background(), store.Project{ID: p.ID, Name: p.Name, Payload: payload}); err != nil {
		t.Fatalf("cache project: %v", err)
	}
}

func newTestModel(t *testing.T, p flow.Project) (appModel, *flow.Flow, *store.Store) {
	t.Helper()
	setGlyphs(glyphSetASCII)
	t.Cleanup(func() { setGlyphs(glyphSetUnicode) })

	f, st := newTestFlow(t)
	cacheProject(t, st, p)
	ok, err := f.Restore(context.Background(), p.ID)
	if err != nil || !ok {
		t.Fatalf("restore: ok=%v err=%v", ok, err)
	}
	m := newAppModel(context.Background(), Options{Flow: f, Store: st})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, f, st
}

func update(t *testing.T, m appModel, msg tea.Msg) appModel {
	t.Helper()
	next, _ := m.Update(msg)
	am, ok := next.(appModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return am
}

func press(t *testing.T, m appModel, keys ...string) appModel {
	t.Helper()
	for _, k := range keys {
		m = update(t, m, keyMsg(k))
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func sectionIDs(p flow.Project) []string {
	if p.Outline == nil {
		return nil
	}
	return p.Outline.SectionIDs()
}

func TestStepper_NumberKeysOnlyRevisitCompletedSteps(t *testing.T) {
	m, f, _ := newTestModel(t, sampleProject(workflow.StageRefining))
	if m.screen != screenProject {
		t.Fatalf("expected project screen, got %v", m.screen)
	}

	m = press(t, m, "2")
	if got := f.Project().Stage; got != workflow.StageOutline {
		t.Fatalf("after 2: stage=%s, want outline", got)
	}

	// Refine is ahead of the shown stage: clicking it does nothing.
	m = press(t, m, "4")
	if got := f.Project().Stage; got != workflow.StageOutline {
		t.Fatalf("after 4: stage=%s, want outline", got)
	}

	// Tab advances while the project has what the next stage needs.
	m = press(t, m, "tab")
	if got := f.Project().Stage; got != workflow.StageDrafting {
		t.Fatalf("after tab: stage=%s, want drafting", got)
	}
	if !strings.Contains(xansi.Strip(m.View()), "* 3 Draft") {
		t.Fatalf("stepper should mark Draft current:\n%s", xansi.Strip(m.View()))
	}
}

func TestAdvance_BlockedWithoutArtifacts(t *testing.T) {
	p := sampleProject(workflow.StageUpload)
	p.FileHashes = nil
	p.Outline = nil
	p.Sections = nil
	p.Draft = ""
	m, f, _ := newTestModel(t, p)

	m = press(t, m, "tab")
	if got := f.Project().Stage; got != workflow.StageUpload {
		t.Fatalf("stage=%s, want upload", got)
	}
	if m.flash == "" {
		t.Fatalf("expected a flash explaining why tab did nothing")
	}
}

func TestOutlineEditor_AddSectionEditsTitleAndAutosaves(t *testing.T) {
	m, f, st := newTestModel(t, sampleProject(workflow.StageOutline))

	m = press(t, m, "a")
	if !m.editing() {
		t.Fatalf("new section should open its title for editing")
	}
	m = press(t, m, "Wrap-up", "enter")
	if m.editing() {
		t.Fatalf("enter should commit the edit")
	}

	doc := f.Project().Outline
	if len(doc.Sections) != 3 {
		t.Fatalf("sections=%d, want 3", len(doc.Sections))
	}
	if got := doc.Sections[2].Title; got != "Wrap-up" {
		t.Fatalf("new title=%q", got)
	}

	d, err := st.LoadDraft(context.Background(), "p1")
	if err != nil {
		t.Fatalf("load autosave: %v", err)
	}
	if len(d.Outline.Sections) != 3 || d.Outline.Sections[2].Title != "Wrap-up" {
		t.Fatalf("autosave not current: %+v", d.Outline.Sections)
	}
}

func TestOutlineEditor_EscDiscardsEdit(t *testing.T) {
	m, f, _ := newTestModel(t, sampleProject(workflow.StageOutline))

	m = press(t, m, "e", "zzz", "esc")
	if m.editing() {
		t.Fatalf("esc should end the edit")
	}
	if got := f.Project().Outline.Sections[0].Title; got != "Basics" {
		t.Fatalf("title=%q, want unchanged", got)
	}
	if m.screen != screenProject {
		t.Fatalf("esc during an edit must not leave the project")
	}
}

func TestOutlineEditor_ShiftThenDelete(t *testing.T) {
	m, f, _ := newTestModel(t, sampleProject(workflow.StageOutline))

	m = press(t, m, "J")
	if got := strings.Join(sectionIDs(f.Project()), ","); got != "sec-b,sec-a" {
		t.Fatalf("after J: %s", got)
	}
	if ref, _ := m.selectedRef(); ref != outline.SectionRef("sec-a") {
		t.Fatalf("cursor should follow the moved section, at %+v", ref)
	}

	m = press(t, m, "x")
	if got := strings.Join(sectionIDs(f.Project()), ","); got != "sec-b" {
		t.Fatalf("after x: %s", got)
	}
	_ = m
}

func TestOutlineEditor_DragOntoSibling(t *testing.T) {
	m, f, _ := newTestModel(t, sampleProject(workflow.StageOutline))

	// Rows: sec-a, sec-a/sub-a1, sec-b.
	m = press(t, m, "v", "j", "j")
	if _, over, ok := m.editor.Dragging(); !ok || over != outline.SectionRef("sec-b") {
		t.Fatalf("dragging=%v over=%+v", ok, over)
	}
	m = press(t, m, "enter")
	if got := strings.Join(sectionIDs(f.Project()), ","); got != "sec-b,sec-a" {
		t.Fatalf("after drop: %s", got)
	}
	if m.editing() {
		t.Fatalf("drop must not start an edit")
	}
}

func TestOutlineEditor_DropOnOtherKindIsRejected(t *testing.T) {
	m, f, _ := newTestModel(t, sampleProject(workflow.StageOutline))

	m = press(t, m, "v", "j", "enter")
	if got := strings.Join(sectionIDs(f.Project()), ","); got != "sec-a,sec-b" {
		t.Fatalf("order changed: %s", got)
	}
	if _, _, ok := m.editor.Dragging(); ok {
		t.Fatalf("drag should be over")
	}
}

func TestStatusPanel_DismissFailure(t *testing.T) {
	m, f, _ := newTestModel(t, sampleProject(workflow.StageDrafting))
	ops := f.Ops()

	tok := ops.Start(flow.KeyCompile, "Compiling draft...")
	ops.Fail(tok, &api.Error{Method: "POST", Path: "/compile_draft/demo", Status: 502, Category: api.CategoryServer, Details: "bad gateway"})
	m = update(t, m, opsChangedMsg{key: flow.KeyCompile})

	view := xansi.Strip(m.View())
	if !strings.Contains(view, "Server error, please try again.") || !strings.Contains(view, "ctrl+r: retry") {
		t.Fatalf("status panel:\n%s", view)
	}
	if strings.Contains(view, "bad gateway") {
		t.Fatalf("details should be hidden until requested")
	}
	m = press(t, m, "?")
	if !strings.Contains(xansi.Strip(m.View()), "bad gateway") {
		t.Fatalf("? should reveal details")
	}

	m = press(t, m, "ctrl+d")
	if _, ok := ops.Get(flow.KeyCompile); ok {
		t.Fatalf("ctrl+d should clear the failure")
	}
	if strings.Contains(xansi.Strip(m.View()), "Server error") {
		t.Fatalf("dismissed error still shown")
	}
}

func TestStatusPanel_NonRetryableHasNoRetryHint(t *testing.T) {
	m, f, _ := newTestModel(t, sampleProject(workflow.StageDrafting))
	tok := f.Ops().Start(flow.KeyRefine, "Refining draft...")
	f.Ops().Fail(tok, errors.New("boom"))

	view := xansi.Strip(m.View())
	if !strings.Contains(view, "boom") || strings.Contains(view, "ctrl+r") {
		t.Fatalf("status panel:\n%s", view)
	}
}

func TestCtrlR_IgnoresNonRetryableFailure(t *testing.T) {
	m, f, _ := newTestModel(t, sampleProject(workflow.StageDrafting))
	tok := f.Ops().Start(flow.KeyCompile, "Compiling draft...")
	f.Ops().Fail(tok, &api.Error{Method: "POST", Path: "/compile_draft/demo", Status: 404, Category: api.CategoryNotFound})
	m = update(t, m, opsChangedMsg{key: flow.KeyCompile})

	if _, cmd := m.Update(keyMsg("ctrl+r")); cmd != nil {
		t.Fatalf("ctrl+r on a non-retryable failure should do nothing")
	}
	rec, ok := f.Ops().Get(flow.KeyCompile)
	if !ok || rec.Error == nil || rec.RetryCount != 0 {
		t.Fatalf("record = %+v", rec)
	}
}

func TestCtrlR_RetriesRetryableFailure(t *testing.T) {
	m, f, _ := newTestModel(t, sampleProject(workflow.StageDrafting))
	tok := f.Ops().Start(flow.KeyCompile, "Compiling draft...")
	f.Ops().Fail(tok, &api.Error{Method: "POST", Path: "/compile_draft/demo", Status: 502, Category: api.CategoryServer})
	m = update(t, m, opsChangedMsg{key: flow.KeyCompile})

	if _, cmd := m.Update(keyMsg("ctrl+r")); cmd == nil {
		t.Fatalf("ctrl+r on a retryable failure should schedule a retry")
	}
}

func TestCtrlXCancelsInFlight(t *testing.T) {
	m, f, _ := newTestModel(t, sampleProject(workflow.StageDrafting))
	tok := f.Ops().Start(flow.KeySocial, "Generating social content...")
	if !strings.Contains(xansi.Strip(m.View()), "Generating social content...") {
		t.Fatalf("loading message not shown")
	}

	press(t, m, "ctrl+x")
	if !tok.Cancelled() {
		t.Fatalf("token should be cancelled")
	}
	if _, ok := f.Ops().Get(flow.KeySocial); ok {
		t.Fatalf("cancelled operation should leave no record")
	}
}

func TestProjects_EnterOpensCachedProject(t *testing.T) {
	f, st := newTestFlow(t)
	cacheProject(t, st, sampleProject(workflow.StageDrafting))

	var opened flow.Project
	m := newAppModel(context.Background(), Options{Flow: f, Store: st, OnOpen: func(p flow.Project) { opened = p }})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	if m.screen != screenProjects {
		t.Fatalf("no project selected: expected the projects screen")
	}
	m = update(t, m, projectsLoadedMsg{rows: []flow.Summary{{Project: api.Project{ID: "p1", Name: "demo"}, Stage: workflow.StageDrafting}}})

	next, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatalf("enter should open the project")
	}
	m = update(t, next.(appModel), cmd())
	if m.screen != screenProject || opened.ID != "p1" {
		t.Fatalf("screen=%v opened=%q", m.screen, opened.ID)
	}
	if m.page() != workflow.StageDrafting {
		t.Fatalf("page=%s", m.page())
	}
}

func TestRenderStepper_States(t *testing.T) {
	setGlyphs(glyphSetASCII)
	defer setGlyphs(glyphSetUnicode)

	out := xansi.Strip(renderStepper(workflow.NewStepper(workflow.DefaultSteps(), workflow.StageDrafting), 40))
	for _, want := range []string{"x 1 Upload", "x 2 Outline", "* 3 Draft", "o 4 Refine", "o 5 Social"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}

	// Complete has no step of its own.
	out = xansi.Strip(renderStepper(workflow.NewStepper(workflow.DefaultSteps(), workflow.StageComplete), 40))
	if !strings.Contains(out, "* 5 Social") {
		t.Fatalf("complete should clamp onto Social: %q", out)
	}
}

func TestNormalizePane(t *testing.T) {
	out := normalizePane("abc\nlonger line here", 6, 3)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines=%d", len(lines))
	}
	for i, ln := range lines {
		if w := xansi.StringWidth(ln); w != 6 {
			t.Fatalf("line %d width=%d (%q)", i, w, ln)
		}
	}
	if !strings.HasSuffix(lines[1], "…") {
		t.Fatalf("long line should be truncated with an ellipsis: %q", lines[1])
	}
}
