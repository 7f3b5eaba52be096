// Package tui is the interactive front end: a project list and, per project,
// one page for each workflow stage under a clickable stepper.
package tui

import (
	"context"
	"io"
	"log/slog"

	"quibo-cli/internal/flow"
	"quibo-cli/internal/opstatus"
	"quibo-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Flow   *flow.Flow
	Store  *store.Store
	Logger *slog.Logger
	// Project is opened on start when set (id or cached name).
	Project string
	// OnOpen is called after a project is opened or created.
	OnOpen func(flow.Project)

	Input  io.Reader
	Output io.Writer
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference()

	m := newAppModel(ctx, opts)
	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	p := tea.NewProgram(m, progOpts...)

	unsubOps := opts.Flow.Ops().Subscribe(func(ch opstatus.Change) { p.Send(opsChangedMsg{key: ch.Key}) })
	defer unsubOps()
	unsubProject := opts.Flow.Subscribe(func(fp flow.Project) { p.Send(projectChangedMsg{project: fp}) })
	defer unsubProject()

	_, err := p.Run()
	if err == tea.ErrProgramKilled && ctx.Err() != nil {
		return nil
	}
	return err
}
