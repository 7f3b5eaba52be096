package cli

import (
	"sort"

	"github.com/spf13/cobra"
)

// newCatalogCmds exposes the backend's persona and model catalogs.
func newCatalogCmds(app *App) []*cobra.Command {
	personas := &cobra.Command{
		Use:   "personas",
		Short: "List writing personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.open(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			ps, err := app.client.Personas(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			type row struct {
				Key         string `json:"key"`
				Name        string `json:"name"`
				Description string `json:"description,omitempty"`
			}
			rows := make([]row, 0, len(ps))
			for k, p := range ps {
				rows = append(rows, row{Key: k, Name: p.Name, Description: p.Description})
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
			return writeOut(cmd, app, map[string]any{"data": rows, "meta": map[string]any{"count": len(rows)}})
		},
	}

	models := &cobra.Command{
		Use:   "models",
		Short: "List model providers and their models",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.open(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			ms, err := app.client.Models(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ms})
		},
	}

	return []*cobra.Command{personas, models}
}
