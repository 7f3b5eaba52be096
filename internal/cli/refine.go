package cli

import (
	"quibo-cli/internal/flow"
	"quibo-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newRefineCmd(app *App) *cobra.Command {
	var o flow.RefineOptions
	var titleIndex int

	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Polish the compiled draft and propose titles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("title-index") {
				o.SelectedTitleIndex = &titleIndex
			}
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := f.Refine(cmd.Context(), o); err != nil {
				return writeErr(cmd, err)
			}
			p := f.Project()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"summary":      p.Summary,
					"titleOptions": p.TitleOptions,
					"project":      projectView(p),
				},
				"_hints": []string{"quibo draft show --render", "quibo social"},
			})
		},
	}

	cmd.Flags().IntVar(&o.NumTitles, "titles", 0, "How many title options to propose (1-10)")
	cmd.Flags().StringVar(&o.TitleGuidelines, "title-guidelines", "", "Guidance for the proposed titles")
	cmd.Flags().IntVar(&titleIndex, "title-index", 0, "Apply a previously proposed title option (0-based)")
	cmd.Flags().StringVar(&o.CustomTitle, "title", "", "Use this title")
	return cmd
}

func newSocialCmd(app *App) *cobra.Command {
	var markdown, show bool

	cmd := &cobra.Command{
		Use:   "social",
		Short: "Generate LinkedIn, X and newsletter content for the post",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if !show {
				if err := f.Social(cmd.Context()); err != nil {
					return writeErr(cmd, err)
				}
			}
			p := f.Project()
			if p.Social.Empty() {
				return writeErr(cmd, errNotFound("social content", p.Name))
			}
			if markdown {
				_, err := cmd.OutOrStdout().Write([]byte(publish.SocialMarkdown(p.Social)))
				return err
			}
			return writeOut(cmd, app, map[string]any{
				"data":   p.Social,
				"_hints": []string{"quibo draft export --social"},
			})
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print as markdown")
	cmd.Flags().BoolVar(&show, "show", false, "Print the existing pack without regenerating")
	return cmd
}
