package cli

import (
	"errors"

	"quibo-cli/internal/flow"
	"quibo-cli/internal/workflow"

	"github.com/spf13/cobra"
)

func newStageCmd(app *App) *cobra.Command {
	var goTo string
	var next bool

	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Show the workflow stepper, or move between stages",
		Long: "Only completed stages can be revisited with --goto; --next moves one stage\n" +
			"forward when the project already has what that stage needs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if goTo != "" && next {
				return writeErr(cmd, errUsage("--goto and --next are mutually exclusive"))
			}
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			switch {
			case goTo != "":
				st, err := workflow.ParseStage(goTo)
				if err != nil {
					return writeErr(cmd, errUsage("%v", err))
				}
				if err := f.Navigate(st); err != nil {
					return writeErr(cmd, lockedErr(err, st))
				}
				f.Persist(cmd.Context())
			case next:
				if err := f.Advance(); err != nil {
					return writeErr(cmd, err)
				}
				f.Persist(cmd.Context())
			}
			p := f.Project()
			return writeOut(cmd, app, map[string]any{
				"data": newStepperView(p.Stepper()),
				"meta": map[string]any{"stage": p.Stage, "reached": p.Reached},
			})
		},
	}

	cmd.Flags().StringVar(&goTo, "goto", "", "Show an earlier stage (upload|outline|draft|refine|social)")
	cmd.Flags().BoolVar(&next, "next", false, "Move to the next stage")
	return cmd
}

func lockedErr(err error, st workflow.Stage) error {
	if errors.Is(err, flow.ErrLocked) {
		return errUsage("cannot go to %s: only completed stages can be revisited", st.Label())
	}
	return err
}
