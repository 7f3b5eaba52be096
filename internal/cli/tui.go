package cli

import (
	"path/filepath"
	"strings"

	"quibo-cli/internal/config"
	"quibo-cli/internal/flow"
	"quibo-cli/internal/logger"
	"quibo-cli/internal/tui"

	"github.com/spf13/cobra"
)

// logFile is where the TUI logs; stderr belongs to the screen.
const logFile = "quibo.log"

func runTUI(cmd *cobra.Command, app *App) error {
	lg, closer, err := logger.InitFile(app.cfg.Log.Level, app.cfg.Log.Format, filepath.Join(app.cfg.Dir, logFile))
	if err != nil {
		return writeErr(cmd, err)
	}
	defer closer.Close()
	app.log = lg

	f, err := app.open(cmd.Context())
	if err != nil {
		return writeErr(cmd, err)
	}

	start := strings.TrimSpace(app.Project)
	if start == "" {
		if st, err := config.LoadState(app.cfg.Dir); err == nil {
			start = st.CurrentProjectID
		}
	}

	go func() {
		if err := f.CheckConnectivity(cmd.Context()); err != nil {
			lg.Warn("backend unreachable", "err", err)
		}
	}()

	err = tui.Run(cmd.Context(), tui.Options{
		Flow:    f,
		Store:   app.store,
		Logger:  lg,
		Project: start,
		OnOpen: func(p flow.Project) {
			if err := app.use(p); err != nil {
				lg.Warn("failed to record current project", "project_id", p.ID, "err", err)
			}
		},
		Input:  cmd.InOrStdin(),
		Output: cmd.OutOrStdout(),
	})
	f.Persist(cmd.Context())
	return err
}
