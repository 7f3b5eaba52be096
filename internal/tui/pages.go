package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"quibo-cli/internal/flow"
	"quibo-cli/internal/publish"
	"quibo-cli/internal/workflow"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m appModel) viewPage() string {
	switch m.page() {
	case workflow.StageUpload:
		return m.viewUploadPage()
	case workflow.StageOutline:
		return m.viewOutlinePage()
	case workflow.StageDrafting:
		return m.viewDraftingPage()
	default:
		if m.viewport.TotalLineCount() == 0 {
			if m.page() == workflow.StageRefining {
				return styleMuted().Render("No refined draft yet. Press r to refine the compiled draft.")
			}
			return styleMuted().Render("No social content yet. Press s to generate it.")
		}
		return m.viewport.View()
	}
}

func (m appModel) pageHelp() string {
	switch m.page() {
	case workflow.StageUpload:
		return "p: process files   g: generate outline"
	case workflow.StageOutline:
		if m.editing() {
			return "enter: save field   esc: cancel"
		}
		if m.editor != nil {
			if _, _, dragging := m.editor.Dragging(); dragging {
				return "j/k: choose target   enter: drop   esc: cancel move"
			}
		}
		return "e/E: edit   a/A: add   x: delete   J/K: move   v: drag   s: save   f: feedback   g: regenerate   p: preview"
	case workflow.StageDrafting:
		return "g: draft section   G: draft all   f: revise   c: compile"
	case workflow.StageRefining:
		return "r: refine   pgup/pgdn: scroll"
	default:
		return "s: generate social   pgup/pgdn: scroll"
	}
}

// refreshContent re-renders the scrollable content of the current page.
func (m *appModel) refreshContent() {
	w, h := m.bodySize()
	var md string
	switch m.page() {
	case workflow.StageOutline:
		if m.preview {
			m.viewport.Height = h
			m.viewport.SetContent(m.outlinePreview(w))
		}
		return
	case workflow.StageDrafting:
		n := 0
		if m.project.Outline != nil {
			n = len(m.project.Outline.Sections)
		}
		m.viewport.Height = h - n - 2
		if m.viewport.Height < 3 {
			m.viewport.Height = 3
		}
		if sec, ok := m.project.Sections[m.sectionCursor]; ok {
			md = "## " + sec.Heading() + "\n\n" + sec.Body()
		}
	case workflow.StageRefining:
		m.viewport.Height = h
		md = m.refinedMarkdown()
	case workflow.StageSocial:
		m.viewport.Height = h
		md = publish.SocialMarkdown(m.project.Social)
	default:
		return
	}
	if strings.TrimSpace(md) == "" {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(publish.Terminal(md, w))
}

func (m appModel) refinedMarkdown() string {
	p := m.project
	if strings.TrimSpace(p.Refined) == "" {
		return ""
	}
	var b strings.Builder
	if len(p.TitleOptions) > 0 {
		b.WriteString("## Title options\n\n")
		for i, t := range p.TitleOptions {
			b.WriteString(strconv.Itoa(i+1) + ". **" + t.Title + "**")
			if t.Subtitle != "" {
				b.WriteString(" " + t.Subtitle)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if p.Summary != "" {
		b.WriteString("> " + p.Summary + "\n\n")
	}
	b.WriteString(p.Refined)
	return b.String()
}

func (m appModel) updateUploadPage(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.flow
	switch k.String() {
	case "p":
		return m, runOp(m.ctx, flow.KeyProcess, f.Process)
	case "g":
		return m, runOp(m.ctx, flow.KeyOutline, func(ctx context.Context) error {
			return f.GenerateOutline(ctx, flow.OutlineOptions{})
		})
	}
	return m, nil
}

func (m appModel) viewUploadPage() string {
	p := m.project
	if len(p.Files) == 0 {
		return styleMuted().Render("No files uploaded. Go back to projects (esc) and press n to start a new project.")
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Files") + "\n\n")
	for _, name := range p.Files {
		b.WriteString("  " + glyphBullet() + " " + name + "\n")
	}
	if len(p.FileHashes) > 0 {
		b.WriteString("\n" + styleMuted().Render(fmt.Sprintf("%d processed", len(p.FileHashes))) + "\n")
	}
	return b.String()
}

func (m appModel) updateDraftingPage(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.flow
	n := 0
	if m.project.Outline != nil {
		n = len(m.project.Outline.Sections)
	}
	switch k.String() {
	case "up", "k":
		if m.sectionCursor > 0 {
			m.sectionCursor--
			m.refreshContent()
		}
	case "down", "j":
		if m.sectionCursor < n-1 {
			m.sectionCursor++
			m.refreshContent()
		}
	case "g":
		idx := m.sectionCursor
		return m, runOp(m.ctx, flow.SectionKey(idx), func(ctx context.Context) error {
			return f.GenerateSection(ctx, idx, flow.SectionOptions{})
		})
	case "G":
		return m, runOp(m.ctx, flow.SectionKey(m.sectionCursor), func(ctx context.Context) error {
			_, err := f.GenerateAllSections(ctx, flow.SectionOptions{})
			return err
		})
	case "f":
		if _, ok := m.project.Sections[m.sectionCursor]; ok {
			m.openInput(modalSectionFeedback, "")
		}
	case "c":
		return m, runOp(m.ctx, flow.KeyCompile, f.Compile)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(k)
		return m, cmd
	}
	return m, nil
}

func (m appModel) viewDraftingPage() string {
	p := m.project
	if p.Outline == nil {
		return styleMuted().Render("No outline yet.")
	}
	var b strings.Builder
	for i, s := range p.Outline.Sections {
		mark := styleMuted().Render(glyphStepFuture())
		if _, ok := p.Sections[i]; ok {
			mark = lipgloss.NewStyle().Foreground(colorDone).Render(glyphStepDone())
		}
		if m.flow.Ops().Loading() != nil {
			if rec, ok := m.flow.Ops().Get(flow.SectionKey(i)); ok && rec.IsLoading {
				mark = m.spinner.View()
			}
		}
		line := fmt.Sprintf("%d. %s", i+1, s.Title)
		if i == m.sectionCursor {
			line = styleSelected().Render(line)
		}
		b.WriteString(mark + " " + line + "\n")
	}
	if strings.TrimSpace(p.Draft) != "" {
		b.WriteString(styleMuted().Render("compiled draft ready "+glyphArrow()+" tab to refine") + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString(m.viewport.View())
	return b.String()
}

func (m appModel) updateRefiningPage(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.String() == "r" {
		f := m.flow
		return m, runOp(m.ctx, flow.KeyRefine, func(ctx context.Context) error {
			return f.Refine(ctx, flow.RefineOptions{})
		})
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(k)
	return m, cmd
}

func (m appModel) updateSocialPage(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.String() == "s" {
		return m, runOp(m.ctx, flow.KeySocial, m.flow.Social)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(k)
	return m, cmd
}
