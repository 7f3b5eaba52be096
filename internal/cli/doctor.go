package cli

import (
	"context"
	"errors"

	"quibo-cli/internal/config"
	"quibo-cli/internal/gitrepo"

	"github.com/spf13/cobra"
)

var errDoctorIssuesFound = errors.New("doctor found errors")

func newDoctorCmd(app *App) *cobra.Command {
	var fail, online bool
	var repo string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the local cache, session, export repository and (optionally) the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.open(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			report, err := app.store.Doctor(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			state, err := config.LoadState(app.cfg.Dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, signedIn := app.session.Current()

			meta := map[string]any{
				"issues":         len(report.Issues),
				"hasErrors":      report.HasErrors(),
				"signedIn":       signedIn,
				"currentProject": state.CurrentProjectID,
			}
			if signedIn {
				meta["sessionExpired"] = s.Expired(timeNow(), 0)
			}
			meta["git"] = gitInfo(cmd.Context(), repo)
			if online {
				if err := f.CheckConnectivity(cmd.Context()); err != nil {
					meta["backend"] = err.Error()
				} else {
					meta["backend"] = "ok"
				}
			}

			if err := writeOut(cmd, app, map[string]any{
				"data":   report,
				"meta":   meta,
				"_hints": []string{"quibo health"},
			}); err != nil {
				return err
			}
			if fail && report.HasErrors() {
				return errDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if errors are found")
	cmd.Flags().BoolVar(&online, "online", false, "Also probe the backend")
	cmd.Flags().StringVar(&repo, "repo", ".", "Export directory whose git repository is reported")
	return cmd
}

// gitInfo reports what "draft export --commit" would find in dir.
func gitInfo(ctx context.Context, dir string) map[string]any {
	if !gitrepo.Available() {
		return map[string]any{"available": false}
	}
	st, err := gitrepo.GetStatus(ctx, dir)
	if err != nil {
		return map[string]any{"available": true, "error": err.Error()}
	}
	return map[string]any{"available": true, "status": st}
}
