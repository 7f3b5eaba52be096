package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"quibo-cli/internal/api"
	"quibo-cli/internal/flow"

	tea "github.com/charmbracelet/bubbletea"
)

type opsChangedMsg struct{ key string }

type projectChangedMsg struct{ project flow.Project }

type projectsLoadedMsg struct {
	rows []flow.Summary
	err  error
}

// opDoneMsg reports a finished flow operation. Failures are already recorded
// in the operation registry; err is kept for logging and tests.
type opDoneMsg struct {
	key string
	err error
}

type projectOpenedMsg struct {
	err error
}

func runOp(ctx context.Context, key string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{key: key, err: fn(ctx)}
	}
}

func loadProjects(ctx context.Context, f *flow.Flow) tea.Cmd {
	return func() tea.Msg {
		rows, err := f.Overview(ctx, "", true)
		return projectsLoadedMsg{rows: rows, err: err}
	}
}

// openProject prefers the local working copy and asks the backend only when
// nothing is cached.
func openProject(ctx context.Context, f *flow.Flow, idOrName string) tea.Cmd {
	return func() tea.Msg {
		ok, err := f.Restore(ctx, idOrName)
		if err == nil && !ok {
			err = f.Resume(ctx, idOrName)
		}
		return projectOpenedMsg{err: err}
	}
}

// uploadFiles reads space-separated paths and creates a project from them.
func uploadFiles(ctx context.Context, f *flow.Flow, name, paths string) tea.Cmd {
	return func() tea.Msg {
		var files []api.UploadFile
		for _, p := range strings.Fields(paths) {
			b, err := os.ReadFile(p)
			if err != nil {
				return projectOpenedMsg{err: err}
			}
			files = append(files, api.UploadFile{Name: filepath.Base(p), Content: b})
		}
		return projectOpenedMsg{err: f.Upload(ctx, name, files)}
	}
}
