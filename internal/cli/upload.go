package cli

import (
	"os"
	"path/filepath"
	"strings"

	"quibo-cli/internal/api"

	"github.com/spf13/cobra"
)

func newUploadCmd(app *App) *cobra.Command {
	var name, model, specificModel, persona string
	var process bool

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Create a project from notebooks, markdown and python files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]api.UploadFile, 0, len(args))
			for _, path := range args {
				b, err := os.ReadFile(path)
				if err != nil {
					return writeErr(cmd, err)
				}
				files = append(files, api.UploadFile{Name: filepath.Base(path), Content: b})
			}
			if strings.TrimSpace(name) == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			f, err := app.open(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			d := defaultsFrom(app.cfg)
			if model != "" {
				d.Model, d.SpecificModel = model, specificModel
			}
			if persona != "" {
				d.Persona = persona
			}
			f.SetDefaults(d)

			if err := f.Upload(cmd.Context(), name, files); err != nil {
				return writeErr(cmd, err)
			}
			if err := app.use(f.Project()); err != nil {
				return writeErr(cmd, err)
			}
			if process {
				if err := f.Process(cmd.Context()); err != nil {
					return writeErr(cmd, err)
				}
			}
			hint := "quibo process"
			if process {
				hint = "quibo outline generate"
			}
			return writeOut(cmd, app, map[string]any{
				"data":   projectView(f.Project()),
				"_hints": []string{hint},
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name (default: first file's name)")
	cmd.Flags().StringVar(&model, "model", "", "Model provider (overrides generation.model)")
	cmd.Flags().StringVar(&specificModel, "specific-model", "", "Exact model id within the provider")
	cmd.Flags().StringVar(&persona, "persona", "", "Writing persona (overrides generation.persona)")
	cmd.Flags().BoolVar(&process, "process", false, "Also process the files")
	return cmd
}

func newProcessCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Process the uploaded files of the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := f.Process(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   projectView(f.Project()),
				"_hints": []string{"quibo outline generate"},
			})
		},
	}
}

func newResumeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <project-id|name>",
		Short: "Reload a project's state from the backend and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.open(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := f.Resume(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			p := f.Project()
			if err := app.use(p); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": projectView(p)})
		},
	}
}
