package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.open(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := f.CheckConnectivity(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"status": "ok",
					"apiUrl": app.cfg.API.URL,
				},
			})
		},
	}
}
