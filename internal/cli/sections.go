package cli

import (
	"github.com/spf13/cobra"

	"quibo-cli/internal/flow"
)

func newSectionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sections",
		Aliases: []string{"section"},
		Short:   "Draft outline sections",
	}
	cmd.AddCommand(newSectionsGenerateCmd(app))
	cmd.AddCommand(newSectionsShowCmd(app))
	return cmd
}

func newSectionsGenerateCmd(app *App) *cobra.Command {
	var index, maxIterations int
	var all bool
	var feedback string
	var threshold float64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draft one section (--index), or every missing one (--all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == cmd.Flags().Changed("index") {
				return writeErr(cmd, errUsage("pass exactly one of --index or --all"))
			}
			if all && feedback != "" {
				return writeErr(cmd, errUsage("--feedback applies to a single --index"))
			}
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			o := flow.SectionOptions{MaxIterations: maxIterations}
			if cmd.Flags().Changed("quality-threshold") {
				o.QualityThreshold = &threshold
			}

			if all {
				n, err := f.GenerateAllSections(cmd.Context(), o)
				if err != nil {
					return writeErr(cmd, err)
				}
				p := f.Project()
				return writeOut(cmd, app, map[string]any{
					"data":   projectView(p),
					"meta":   map[string]any{"generated": n},
					"_hints": []string{"quibo draft compile"},
				})
			}

			if feedback != "" {
				err = f.RegenerateSection(cmd.Context(), index, feedback, o)
			} else {
				err = f.GenerateSection(cmd.Context(), index, o)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			p := f.Project()
			hints := []string{"quibo sections generate --all"}
			if len(p.MissingSections()) == 0 {
				hints = []string{"quibo draft compile"}
			}
			return writeOut(cmd, app, map[string]any{
				"data":   p.Sections[index],
				"meta":   map[string]any{"index": index, "missing": p.MissingSections()},
				"_hints": hints,
			})
		},
	}

	cmd.Flags().IntVar(&index, "index", 0, "Section index (0-based, outline order)")
	cmd.Flags().BoolVar(&all, "all", false, "Draft every section without a draft, in order")
	cmd.Flags().StringVar(&feedback, "feedback", "", "Redraft the section addressing this feedback")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Refinement iterations (default: generation.maxIterations)")
	cmd.Flags().Float64Var(&threshold, "quality-threshold", 0, "Quality threshold 0..1 (default: generation.qualityThreshold)")
	return cmd
}

func newSectionsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List drafted sections by index",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			p := f.Project()
			return writeOut(cmd, app, map[string]any{
				"data": p.Sections,
				"meta": map[string]any{"missing": p.MissingSections()},
			})
		},
	}
}
