package cli

import (
	"errors"
	"strings"

	"quibo-cli/internal/api"
	"quibo-cli/internal/config"
	"quibo-cli/internal/store"

	"github.com/spf13/cobra"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Project commands",
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsShowCmd(app))
	cmd.AddCommand(newProjectsCreateCmd(app))
	cmd.AddCommand(newProjectsDeleteCmd(app))
	cmd.AddCommand(newProjectsStatusCmd(app))
	cmd.AddCommand(newProjectsUseCmd(app))
	return cmd
}

func newProjectsListCmd(app *App) *cobra.Command {
	var status string
	var withStatus, local bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects with their workflow stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.open(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if local {
				cached, err := app.store.ListProjects(cmd.Context())
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": cached, "meta": map[string]any{"source": "cache"}})
			}
			rows, err := f.Overview(cmd.Context(), strings.TrimSpace(status), withStatus)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": rows,
				"meta": map[string]any{"count": len(rows)},
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (active|archived|deleted)")
	cmd.Flags().BoolVar(&withStatus, "with-status", true, "Fetch each project's generation status")
	cmd.Flags().BoolVar(&local, "local", false, "List the local cache without contacting the backend")
	return cmd
}

func newProjectsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project's details, progress and costs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.open(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			id := resolveProjectID(cmd, app, args[0])
			d, err := app.client.GetProject(cmd.Context(), id)
			if err != nil {
				var ae *api.Error
				if errors.As(err, &ae) && ae.Category == api.CategoryNotFound {
					return writeErr(cmd, errNotFound("project", args[0]))
				}
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": d})
		},
	}
}

// resolveProjectID maps a cached project name to its id; anything else is
// passed through as an id.
func resolveProjectID(cmd *cobra.Command, app *App, ref string) string {
	ref = strings.TrimSpace(ref)
	if app.store == nil {
		return ref
	}
	if p, err := app.store.FindProject(cmd.Context(), ref); err == nil {
		return p.ID
	}
	return ref
}

func newProjectsCreateCmd(app *App) *cobra.Command {
	var name string
	var use bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.open(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			resp, err := app.client.CreateProject(cmd.Context(), api.CreateProjectRequest{Name: strings.TrimSpace(name)})
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := app.store.UpsertProject(cmd.Context(), store.Project{ID: resp.ProjectID, Name: resp.Name}); err != nil {
				app.log.Warn("failed to cache project", "project_id", resp.ProjectID, "err", err)
			}
			if use {
				if err := config.SaveState(app.cfg.Dir, config.State{CurrentProjectID: resp.ProjectID, CurrentProjectName: resp.Name}); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": resp})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().BoolVar(&use, "use", false, "Make it the current project")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectsDeleteCmd(app *App) *cobra.Command {
	var permanent bool

	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Archive a project (or delete it with --permanent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.open(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			id := resolveProjectID(cmd, app, args[0])
			if err := f.Delete(cmd.Context(), id, permanent); err != nil {
				return writeErr(cmd, err)
			}
			st, err := config.LoadState(app.cfg.Dir)
			if err == nil && st.CurrentProjectID == id {
				if err := config.SaveState(app.cfg.Dir, config.State{}); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"id": id, "permanent": permanent},
			})
		},
	}

	cmd.Flags().BoolVar(&permanent, "permanent", false, "Delete instead of archiving")
	return cmd
}

func newProjectsStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status [project-id]",
		Short: "Show generation status (sections drafted, drafts present)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if _, err := app.open(cmd.Context()); err != nil {
					return writeErr(cmd, err)
				}
				st, err := app.client.ProjectStatus(cmd.Context(), resolveProjectID(cmd, app, args[0]))
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": st})
			}
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := f.Status(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": st})
		},
	}
}

func newProjectsUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <project-id|name>",
		Short: "Select the project later commands operate on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.open(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			ok, err := f.Restore(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if !ok {
				if err := f.Resume(cmd.Context(), args[0]); err != nil {
					return writeErr(cmd, err)
				}
			}
			p := f.Project()
			if err := app.use(p); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": projectView(p)})
		},
	}
}
