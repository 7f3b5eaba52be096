package cli

import (
	"strings"

	"quibo-cli/internal/flow"
	"quibo-cli/internal/gitrepo"
	"quibo-cli/internal/publish"

	"github.com/spf13/cobra"
)

const renderWidth = 100

func newDraftCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Compile, show and export the blog draft",
	}
	cmd.AddCommand(newDraftCompileCmd(app))
	cmd.AddCommand(newDraftShowCmd(app))
	cmd.AddCommand(newDraftExportCmd(app))
	return cmd
}

func newDraftCompileCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Join the drafted sections into one draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := f.Compile(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   projectView(f.Project()),
				"_hints": []string{"quibo draft show --render", "quibo refine"},
			})
		},
	}
}

// post builds the exportable post. titleIndex picks one of the refine step's
// title options; -1 keeps the outline title.
func post(p flow.Project, titleIndex int) (publish.Post, error) {
	out := publish.Post{
		Body:    p.Draft,
		Summary: p.Summary,
		Social:  p.Social,
	}
	if strings.TrimSpace(p.Refined) != "" {
		out.Body = p.Refined
	}
	if strings.TrimSpace(out.Body) == "" {
		return out, flow.ErrNoDraft
	}
	if p.Outline != nil {
		out.Title = p.Outline.Title
	}
	if titleIndex >= 0 {
		if titleIndex >= len(p.TitleOptions) {
			return out, errUsage("title option %d not available (%d proposed)", titleIndex, len(p.TitleOptions))
		}
		opt := p.TitleOptions[titleIndex]
		out.Title, out.Subtitle = opt.Title, opt.Subtitle
	}
	return out, nil
}

func newDraftShowCmd(app *App) *cobra.Command {
	var compiled, render bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the draft as markdown (refined when available)",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			p := f.Project()
			body := p.Refined
			if compiled || strings.TrimSpace(body) == "" {
				body = p.Draft
			}
			if strings.TrimSpace(body) == "" {
				return writeErr(cmd, flow.ErrNoDraft)
			}
			if render {
				body = publish.Terminal(body, renderWidth)
			}
			if !strings.HasSuffix(body, "\n") {
				body += "\n"
			}
			_, err = cmd.OutOrStdout().Write([]byte(body))
			return err
		},
	}

	cmd.Flags().BoolVar(&compiled, "compiled", false, "Show the compiled draft even when a refined one exists")
	cmd.Flags().BoolVar(&render, "render", false, "Render markdown for the terminal")
	return cmd
}

func newDraftExportCmd(app *App) *cobra.Command {
	var dir, name string
	var formats []string
	var overwrite, social, commit bool
	var titleIndex int
	var message string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the post to files (markdown and/or HTML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			pst, err := post(f.Project(), titleIndex)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := publish.Export(pst, publish.ExportOptions{
				Dir:       dir,
				Name:      name,
				Formats:   formats,
				Overwrite: overwrite,
				Social:    social,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			out := map[string]any{"data": res}
			if commit {
				if message == "" {
					message = "Add post: " + firstNonBlank(pst.Title, name, "untitled")
				}
				committed, err := gitrepo.CommitFiles(cmd.Context(), dir, res.Written, message)
				if err != nil {
					return writeErr(cmd, err)
				}
				out["meta"] = map[string]any{"committed": committed}
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&dir, "to", ".", "Output directory")
	cmd.Flags().StringVar(&name, "name", "", "File name stem (default: slug of the title)")
	cmd.Flags().StringSliceVar(&formats, "as", []string{publish.FormatMarkdown}, "Export formats (md,html)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	cmd.Flags().BoolVar(&social, "social", false, "Also write the social pack as <name>.social.md")
	cmd.Flags().IntVar(&titleIndex, "title-index", -1, "Use this proposed title option (0-based)")
	cmd.Flags().BoolVar(&commit, "commit", false, "Commit the written files to the git repository containing --to")
	cmd.Flags().StringVar(&message, "message", "", "Commit message for --commit")
	return cmd
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
