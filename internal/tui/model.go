package tui

import (
	"context"
	"log/slog"
	"strings"

	"quibo-cli/internal/flow"
	"quibo-cli/internal/logger"
	"quibo-cli/internal/outline"
	"quibo-cli/internal/store"
	"quibo-cli/internal/workflow"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type screen int

const (
	screenProjects screen = iota
	screenProject
)

type modalKind int

const (
	modalNone modalKind = iota
	modalUploadName
	modalUploadFiles
	modalOutlineFeedback
	modalSectionFeedback
	modalConfirmDelete
)

type appModel struct {
	ctx   context.Context
	flow  *flow.Flow
	store *store.Store
	log   *slog.Logger
	// onOpen is notified when a project becomes the working project.
	onOpen func(flow.Project)
	// startProject is opened by Init.
	startProject string

	width  int
	height int

	screen   screen
	projects list.Model
	project  flow.Project

	editor   *outline.Editor
	autosave *autosaver
	cursor   int
	// sectionCursor selects a section on the drafting page.
	sectionCursor int
	// preview shows the outline as rendered markdown instead of the editor.
	preview bool

	viewport viewport.Model
	spinner  spinner.Model
	input    textinput.Model

	modal        modalKind
	confirmFocus confirmModalFocus
	uploadName   string
	deleteID     string

	showDetails bool
	flash       string
}

// autosaver forwards editor changes to the working project. It is muted
// while the editor is re-synced from the project so a reload is not written
// back as a local edit.
type autosaver struct {
	ctx   context.Context
	flow  *flow.Flow
	log   *slog.Logger
	muted bool
}

func (a *autosaver) save(doc outline.Document) {
	if a.muted {
		return
	}
	if err := a.flow.EditOutline(a.ctx, doc); err != nil {
		a.log.Warn("outline autosave failed", "err", err)
	}
}

func newAppModel(ctx context.Context, opts Options) appModel {
	lg := opts.Logger
	if lg == nil {
		lg = logger.Discard()
	}
	m := appModel{
		ctx:    ctx,
		flow:   opts.Flow,
		store:  opts.Store,
		log:    lg,
		onOpen: opts.OnOpen,
		screen: screenProjects,

		startProject: opts.Project,
	}
	m.autosave = &autosaver{ctx: ctx, flow: opts.Flow, log: lg}
	m.projects = newList("Projects", nil)
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.input = textinput.New()
	m.input.CharLimit = 5000
	m.viewport = viewport.New(80, 20)

	m.project = opts.Flow.Project()
	if m.project.ID != "" {
		m.screen = screenProject
		m.syncEditor()
	}
	return m
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(true)
	// ESC means back here, not quit.
	l.KeyMap.Quit.SetKeys("q")
	l.KeyMap.CursorUp.SetKeys(append(l.KeyMap.CursorUp.Keys(), "ctrl+p")...)
	l.KeyMap.CursorDown.SetKeys(append(l.KeyMap.CursorDown.Keys(), "ctrl+n")...)
	return l
}

func (m appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, loadProjects(m.ctx, m.flow)}
	if m.startProject != "" && m.project.ID == "" {
		cmds = append(cmds, openProject(m.ctx, m.flow, m.startProject))
	}
	return tea.Batch(cmds...)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case projectsLoadedMsg:
		if msg.err == nil {
			m.setProjectRows(msg.rows)
		}
		return m, nil

	case projectChangedMsg:
		m.project = msg.project
		m.syncEditor()
		m.refreshContent()
		return m, nil

	case projectOpenedMsg:
		if msg.err != nil {
			m.log.Warn("open project failed", "err", msg.err)
			m.flash = msg.err.Error()
			return m, nil
		}
		m.enterProject()
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			m.log.Debug("operation ended with error", "key", msg.key, "err", msg.err)
		}
		if msg.key == flow.KeyDelete {
			return m, loadProjects(m.ctx, m.flow)
		}
		m.project = m.flow.Project()
		m.syncEditor()
		m.refreshContent()
		return m, nil

	case opsChangedMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.screen == screenProjects {
		var cmd tea.Cmd
		m.projects, cmd = m.projects.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *appModel) enterProject() {
	m.project = m.flow.Project()
	m.screen = screenProject
	m.cursor, m.sectionCursor = 0, 0
	m.preview = false
	m.editor = nil
	m.syncEditor()
	m.refreshContent()
	if m.onOpen != nil {
		m.onOpen(m.project)
	}
}

// syncEditor points the outline editor at the project's outline. An editor
// already showing the same document keeps its in-progress edit.
func (m *appModel) syncEditor() {
	if m.project.Outline == nil {
		m.editor = nil
		return
	}
	if m.editor == nil {
		m.editor = outline.NewEditor(*m.project.Outline, m.autosave.save)
		return
	}
	if sameDocument(m.editor.Document(), *m.project.Outline) {
		return
	}
	m.autosave.muted = true
	m.editor.Replace(*m.project.Outline)
	m.autosave.muted = false
	m.clampCursor()
}

func (m *appModel) layout() {
	w, h := m.bodySize()
	m.projects.SetSize(w, h)
	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = modalBodyWidth(m.width) - 4
	m.refreshContent()
}

// bodySize is the area between the header (title + stepper) and the
// status/footer lines.
func (m appModel) bodySize() (int, int) {
	w := m.width
	if w < 40 {
		w = 40
	}
	h := m.height - 8
	if h < 5 {
		h = 5
	}
	return w, h
}

func (m appModel) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.modal != modalNone {
		return m.updateModal(k)
	}
	if m.screen == screenProject && m.editing() {
		return m.updateFieldEdit(k)
	}
	if m.screen == screenProjects && m.projects.SettingFilter() {
		return m.updateProjects(k)
	}

	// Keys shared by every screen.
	switch k.String() {
	case "ctrl+x":
		for _, key := range m.flow.Ops().Loading() {
			m.flow.Cancel(key)
		}
		return m, nil
	case "ctrl+r":
		if rec, ok := m.failed(); ok && rec.Error.Retryable {
			f, key := m.flow, rec.Key
			return m, runOp(m.ctx, key, func(ctx context.Context) error { return f.Retry(ctx, key) })
		}
		return m, nil
	case "ctrl+d":
		if rec, ok := m.failed(); ok {
			m.flow.Dismiss(rec.Key)
			m.showDetails = false
		}
		return m, nil
	case "?":
		m.showDetails = !m.showDetails
		return m, nil
	}

	if m.screen == screenProjects {
		return m.updateProjects(k)
	}
	return m.updateProject(k)
}

func (m appModel) updateProject(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		if m.editor != nil {
			if _, _, dragging := m.editor.Dragging(); dragging {
				m.editor.DragCancel()
				return m, nil
			}
		}
		m.screen = screenProjects
		m.flow.Persist(m.ctx)
		return m, loadProjects(m.ctx, m.flow)
	case "tab":
		if err := m.flow.Advance(); err != nil {
			m.flash = "Finish this stage first."
			return m, nil
		}
		m.afterNavigate()
		return m, nil
	}
	if i, ok := stepKey(k.String()); ok {
		st, ok := m.project.Stepper().Click(i)
		if !ok {
			return m, nil
		}
		if err := m.flow.Navigate(st); err != nil {
			return m, nil
		}
		m.afterNavigate()
		return m, nil
	}

	switch m.page() {
	case workflow.StageUpload:
		return m.updateUploadPage(k)
	case workflow.StageOutline:
		return m.updateOutlinePage(k)
	case workflow.StageDrafting:
		return m.updateDraftingPage(k)
	case workflow.StageRefining:
		return m.updateRefiningPage(k)
	default:
		return m.updateSocialPage(k)
	}
}

func (m *appModel) afterNavigate() {
	m.project = m.flow.Project()
	m.flash = ""
	m.flow.Persist(m.ctx)
	m.refreshContent()
}

// page is the stage whose page is shown. Complete shares the social page.
func (m appModel) page() workflow.Stage {
	st := m.project.Stage
	if st == workflow.StageComplete {
		return workflow.StageSocial
	}
	if !st.Valid() {
		return workflow.StageUpload
	}
	return st
}

func (m appModel) View() string {
	if m.width == 0 {
		return ""
	}
	w, h := m.bodySize()

	var header, body, help string
	switch m.screen {
	case screenProjects:
		header = lipgloss.NewStyle().Bold(true).Render("Quibo") + styleMuted().Render("  projects") + "\n"
		body = m.projects.View()
		help = "enter: open   n: new   d: delete   r: refresh   /: filter   q: quit"
	default:
		title := m.project.Name
		if title == "" {
			title = m.project.ID
		}
		header = lipgloss.NewStyle().Bold(true).Render("Quibo") + styleMuted().Render("  "+title) + "\n" +
			renderStepper(m.project.Stepper(), w)
		body = m.viewPage()
		help = m.pageHelp() + "   1-5: step   tab: next   esc: projects"
	}

	sections := []string{
		header,
		normalizePane(body, w, h),
		m.viewStatus(w),
		styleMuted().Render(help),
	}
	out := strings.Join(sections, "\n")

	if modal := m.viewModal(); modal != "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}
	return out
}
