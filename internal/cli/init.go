package cli

import (
	"quibo-cli/internal/config"
	"quibo-cli/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file and local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := config.Init(app.cfg.Dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := app.open(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			version, err := app.store.SchemaVersion(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":           app.cfg.Dir,
					"configPath":    config.Path(app.cfg.Dir),
					"configCreated": created,
					"cachePath":     store.Path(app.cfg.Dir),
					"schemaVersion": version,
				},
				"_hints": []string{
					"quibo config set api.url <backend-url>",
					"quibo auth login --token <access-token>",
				},
			})
		},
	}
	return cmd
}
