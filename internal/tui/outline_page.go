package tui

import (
	"context"
	"reflect"
	"strings"

	"quibo-cli/internal/flow"
	"quibo-cli/internal/outline"
	"quibo-cli/internal/publish"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type outlineRow struct {
	ref         outline.Ref
	title       string
	description string
}

func outlineRows(d outline.Document) []outlineRow {
	var rows []outlineRow
	for _, s := range d.Sections {
		rows = append(rows, outlineRow{ref: outline.SectionRef(s.ID), title: s.Title, description: s.Description})
		for _, sub := range s.Subsections {
			rows = append(rows, outlineRow{ref: outline.SubRef(s.ID, sub.ID), title: sub.Title, description: sub.Description})
		}
	}
	return rows
}

func sameDocument(a, b outline.Document) bool {
	return reflect.DeepEqual(a, b)
}

func (m appModel) rows() []outlineRow {
	if m.editor == nil {
		return nil
	}
	return outlineRows(m.editor.Document())
}

func (m *appModel) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m appModel) selectedRef() (outline.Ref, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return outline.Ref{}, false
	}
	return rows[m.cursor].ref, true
}

func (m *appModel) selectRef(ref outline.Ref) {
	for i, r := range m.rows() {
		if r.ref == ref {
			m.cursor = i
			return
		}
	}
	m.clampCursor()
}

func (m appModel) editing() bool {
	if m.editor == nil {
		return false
	}
	_, ok := m.editor.Editing()
	return ok
}

func (m *appModel) beginEdit(field outline.Field) {
	ref, ok := m.selectedRef()
	if !ok || !m.editor.BeginEdit(ref, field) {
		return
	}
	ed, _ := m.editor.Editing()
	m.input.SetValue(ed.Buffer)
	m.input.CursorEnd()
	m.input.Focus()
}

// beginFreshEdit edits a just-added item's title starting from an empty
// buffer; committing it empty keeps the placeholder.
func (m *appModel) beginFreshEdit() {
	m.beginEdit(outline.FieldTitle)
	if m.editing() {
		m.input.SetValue("")
		m.editor.SetBuffer("")
	}
}

// updateFieldEdit handles keys while a title or description is being edited.
// Moving away commits, like losing focus.
func (m appModel) updateFieldEdit(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "enter", "tab":
		m.editor.SetBuffer(m.input.Value())
		m.editor.Commit()
		m.input.Blur()
		return m, nil
	case "esc":
		m.editor.Cancel()
		m.input.Blur()
		return m, nil
	case "up", "down":
		m.editor.SetBuffer(m.input.Value())
		m.editor.Blur()
		m.input.Blur()
		if k.String() == "up" {
			m.cursor--
		} else {
			m.cursor++
		}
		m.clampCursor()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(k)
	m.editor.SetBuffer(m.input.Value())
	return m, cmd
}

func (m appModel) updateOutlinePage(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.flow
	switch k.String() {
	case "g":
		return m, runOp(m.ctx, flow.KeyOutline, func(ctx context.Context) error {
			return f.GenerateOutline(ctx, flow.OutlineOptions{})
		})
	case "p":
		m.preview = !m.preview
		m.refreshContent()
		return m, nil
	}
	if m.editor == nil {
		return m, nil
	}
	if m.preview {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(k)
		return m, cmd
	}

	_, over, dragging := m.editor.Dragging()
	ref, hasRef := m.selectedRef()
	switch k.String() {
	case "up", "k", "down", "j":
		if k.String() == "up" || k.String() == "k" {
			m.cursor--
		} else {
			m.cursor++
		}
		m.clampCursor()
		if dragging {
			if r, ok := m.selectedRef(); ok {
				m.editor.DragOver(r)
			}
		}
	case "v":
		if hasRef {
			m.editor.DragStart(ref)
		}
	case "enter":
		if dragging {
			src, _, _ := m.editor.Dragging()
			if !over.IsZero() && m.editor.Drop() {
				m.selectRef(src)
			} else {
				m.editor.DragCancel()
			}
			return m, nil
		}
		m.beginEdit(outline.FieldTitle)
	case "e":
		m.beginEdit(outline.FieldTitle)
	case "E":
		m.beginEdit(outline.FieldDescription)
	case "a":
		id := m.editor.AddSection()
		m.selectRef(outline.SectionRef(id))
		m.beginFreshEdit()
	case "A":
		if hasRef {
			if id, ok := m.editor.AddSubsection(ref.Section); ok {
				m.selectRef(outline.SubRef(ref.Section, id))
				m.beginFreshEdit()
			}
		}
	case "x", "delete":
		if hasRef {
			m.editor.Delete(ref)
			m.clampCursor()
		}
	case "K", "alt+up":
		if hasRef && m.editor.Shift(ref, -1) {
			m.selectRef(ref)
		}
	case "J", "alt+down":
		if hasRef && m.editor.Shift(ref, 1) {
			m.selectRef(ref)
		}
	case "s":
		doc := m.editor.Document()
		return m, runOp(m.ctx, flow.KeySaveOutline, func(ctx context.Context) error { return f.SaveOutline(ctx, doc) })
	case "f":
		m.openInput(modalOutlineFeedback, "")
	}
	return m, nil
}

func (m appModel) viewOutlinePage() string {
	if m.editor == nil {
		return styleMuted().Render("No outline yet. Press g to generate one from the uploaded files.")
	}
	if m.preview {
		return m.viewport.View()
	}
	doc := m.editor.Document()
	w, _ := m.bodySize()

	var b strings.Builder
	title := doc.Title
	if title == "" {
		title = "(untitled outline)"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	if m.project.DraftRestored {
		b.WriteString(styleMuted().Render("  (unsaved edits restored)"))
	}
	b.WriteString("\n\n")

	edit, editing := m.editor.Editing()
	src, over, dragging := m.editor.Dragging()
	for i, r := range outlineRows(doc) {
		indent := ""
		if r.ref.IsSubsection() {
			indent = "    "
		}
		line := r.title
		if editing && edit.Ref == r.ref && edit.Field == outline.FieldTitle {
			line = m.input.View()
		}
		marker := "  "
		switch {
		case dragging && r.ref == src:
			marker = glyphDrag() + " "
		case dragging && r.ref == over:
			marker = glyphArrow() + " "
		}
		line = indent + marker + line
		switch {
		case i == m.cursor:
			line = styleSelected().Render(line)
		case dragging && r.ref == over:
			line = lipgloss.NewStyle().Foreground(colorDropTarget).Render(line)
		}
		b.WriteString(line + "\n")

		desc := r.description
		if editing && edit.Ref == r.ref && edit.Field == outline.FieldDescription {
			desc = m.input.View()
		}
		if strings.TrimSpace(desc) != "" {
			b.WriteString(styleMuted().Width(w-len(indent)-4).Render(indent+"    "+desc) + "\n")
		}
	}
	return b.String()
}

func (m appModel) outlinePreview(width int) string {
	if m.editor == nil {
		return ""
	}
	return publish.Terminal(outline.Markdown(m.editor.Document()), width)
}
