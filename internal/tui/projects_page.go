package tui

import (
	"context"
	"fmt"
	"strings"

	"quibo-cli/internal/flow"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type projectItem struct {
	row     flow.Summary
	current bool
}

func (i projectItem) FilterValue() string { return i.row.Project.Name }

func (i projectItem) Title() string {
	t := i.row.Project.Name
	if t == "" {
		t = i.row.Project.ID
	}
	if i.current {
		t += " " + glyphBullet()
	}
	return t
}

func (i projectItem) Description() string {
	parts := []string{i.row.Stage.Label()}
	if st := i.row.Status; st != nil && st.TotalSections > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d sections", st.CompletedSections, st.TotalSections))
	}
	if s := i.row.Project.Status; s != "" && s != "active" {
		parts = append(parts, s)
	}
	if i.row.Error != "" {
		parts = append(parts, "status unavailable")
	}
	return strings.Join(parts, " "+glyphBullet()+" ")
}

func (m *appModel) setProjectRows(rows []flow.Summary) {
	cur := m.flow.Project().ID
	items := make([]list.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, projectItem{row: r, current: r.Project.ID == cur})
	}
	m.projects.SetItems(items)
}

func (m appModel) updateProjects(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.projects.SettingFilter() {
		var cmd tea.Cmd
		m.projects, cmd = m.projects.Update(k)
		return m, cmd
	}
	switch k.String() {
	case "q":
		return m, tea.Quit
	case "enter":
		it, ok := m.projects.SelectedItem().(projectItem)
		if !ok {
			return m, nil
		}
		m.flash = ""
		return m, openProject(m.ctx, m.flow, it.row.Project.ID)
	case "n":
		m.openInput(modalUploadName, "")
		return m, nil
	case "d":
		it, ok := m.projects.SelectedItem().(projectItem)
		if !ok {
			return m, nil
		}
		m.deleteID = it.row.Project.ID
		m.confirmFocus = confirmFocusCancel
		m.modal = modalConfirmDelete
		return m, nil
	case "r":
		return m, loadProjects(m.ctx, m.flow)
	case "esc":
		if p := m.flow.Project(); p.ID != "" {
			m.enterProject()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.projects, cmd = m.projects.Update(k)
	return m, cmd
}

func (m *appModel) openInput(kind modalKind, value string) {
	m.modal = kind
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m appModel) updateModal(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal == modalConfirmDelete {
		switch k.String() {
		case "esc":
			m.modal = modalNone
		case "tab", "left", "right", "shift+tab":
			if m.confirmFocus == confirmFocusConfirm {
				m.confirmFocus = confirmFocusCancel
			} else {
				m.confirmFocus = confirmFocusConfirm
			}
		case "enter":
			m.modal = modalNone
			if m.confirmFocus == confirmFocusConfirm {
				f, id := m.flow, m.deleteID
				return m, runOp(m.ctx, flow.KeyDelete, func(ctx context.Context) error { return f.Delete(ctx, id, false) })
			}
		}
		return m, nil
	}

	switch k.String() {
	case "esc":
		m.modal = modalNone
		m.input.Blur()
		return m, nil
	case "enter":
		return m.submitModal()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(k)
	return m, cmd
}

func (m appModel) submitModal() (tea.Model, tea.Cmd) {
	v := strings.TrimSpace(m.input.Value())
	kind := m.modal
	m.modal = modalNone
	m.input.Blur()
	if v == "" {
		return m, nil
	}
	f := m.flow
	switch kind {
	case modalUploadName:
		m.uploadName = v
		m.openInput(modalUploadFiles, "")
	case modalUploadFiles:
		return m, uploadFiles(m.ctx, f, m.uploadName, v)
	case modalOutlineFeedback:
		return m, runOp(m.ctx, flow.KeyRegenerateOutline, func(ctx context.Context) error {
			return f.RegenerateOutline(ctx, v, "")
		})
	case modalSectionFeedback:
		idx := m.sectionCursor
		return m, runOp(m.ctx, flow.SectionKey(idx), func(ctx context.Context) error {
			return f.RegenerateSection(ctx, idx, v, flow.SectionOptions{})
		})
	}
	return m, nil
}

func (m appModel) viewModal() string {
	switch m.modal {
	case modalUploadName:
		return renderInputModal(m.width, "New project", "Project name", m.input.View())
	case modalUploadFiles:
		return renderInputModal(m.width, "New project", "Files to upload (.ipynb, .md, .py; space separated)", m.input.View())
	case modalOutlineFeedback:
		return renderInputModal(m.width, "Regenerate outline", "What should change?", m.input.View())
	case modalSectionFeedback:
		return renderInputModal(m.width, "Revise section", fmt.Sprintf("Feedback for section %d", m.sectionCursor+1), m.input.View())
	case modalConfirmDelete:
		return renderConfirmModal(m.width, "Archive project", "Archive "+m.deleteID+"?", "Archive", "Cancel", m.confirmFocus)
	}
	return ""
}
