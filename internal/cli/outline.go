package cli

import (
	"errors"
	"strconv"
	"strings"

	"quibo-cli/internal/flow"
	"quibo-cli/internal/outline"
	"quibo-cli/internal/publish"
	"quibo-cli/internal/store"

	"github.com/spf13/cobra"
)

func newOutlineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Generate, edit and version the project outline",
		Long: strings.TrimSpace(`
Outline edits (add-section, rename, move, ...) change the local working copy
and are autosaved; nothing reaches the backend until ` + "`quibo outline save`" + `.

Sections are addressed by id; subsections by <section-id>/<subsection-id>.`),
	}
	cmd.AddCommand(newOutlineGenerateCmd(app))
	cmd.AddCommand(newOutlineShowCmd(app))
	cmd.AddCommand(newOutlineAddSectionCmd(app))
	cmd.AddCommand(newOutlineAddSubsectionCmd(app))
	cmd.AddCommand(newOutlineDeleteCmd(app))
	cmd.AddCommand(newOutlineMoveCmd(app))
	cmd.AddCommand(newOutlineRenameCmd(app))
	cmd.AddCommand(newOutlineSaveCmd(app))
	cmd.AddCommand(newOutlineRegenerateCmd(app))
	cmd.AddCommand(newOutlineVersionsCmd(app))
	cmd.AddCommand(newOutlineFeedbackCmd(app))
	cmd.AddCommand(newOutlineRestoreCmd(app))
	return cmd
}

// parseRef reads "sec" or "sec/sub".
func parseRef(s string) (outline.Ref, error) {
	s = strings.TrimSpace(s)
	sec, sub, nested := strings.Cut(s, "/")
	sec, sub = strings.TrimSpace(sec), strings.TrimSpace(sub)
	if sec == "" || (nested && sub == "") {
		return outline.Ref{}, errUsage("invalid outline reference %q (want <section-id> or <section-id>/<subsection-id>)", s)
	}
	if nested {
		return outline.SubRef(sec, sub), nil
	}
	return outline.SectionRef(sec), nil
}

func workingOutline(f *flow.Flow) (outline.Document, error) {
	p := f.Project()
	if p.Outline == nil {
		return outline.Document{}, flow.ErrNoOutline
	}
	return p.Outline.Clone(), nil
}

// editOutline applies edit to the working outline and autosaves the result.
func editOutline(cmd *cobra.Command, app *App, edit func(outline.Document) (outline.Document, error)) (outline.Document, error) {
	f, err := app.selected(cmd.Context())
	if err != nil {
		return outline.Document{}, err
	}
	doc, err := workingOutline(f)
	if err != nil {
		return outline.Document{}, err
	}
	doc, err = edit(doc)
	if err != nil {
		return outline.Document{}, err
	}
	if err := f.EditOutline(cmd.Context(), doc); err != nil {
		return outline.Document{}, err
	}
	f.Persist(cmd.Context())
	return doc, nil
}

func outlineHints() []string {
	return []string{"quibo outline show --markdown", "quibo outline save"}
}

func newOutlineGenerateCmd(app *App) *cobra.Command {
	var o flow.OutlineOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an outline from the processed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := f.GenerateOutline(cmd.Context(), o); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   f.Project().Outline,
				"_hints": []string{"quibo sections generate --all"},
			})
		},
	}

	cmd.Flags().StringVar(&o.Guidelines, "guidelines", "", "Extra guidance for the outline")
	cmd.Flags().StringVar(&o.Length, "length", "", "Length preference (auto|short|medium|long|custom)")
	cmd.Flags().IntVar(&o.CustomLength, "custom-length", 0, "Target word count with --length custom")
	cmd.Flags().StringVar(&o.Style, "style", "", "Writing style (balanced|concise|comprehensive)")
	return cmd
}

func newOutlineShowCmd(app *App) *cobra.Command {
	var markdown, render bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the working outline",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			doc, err := workingOutline(f)
			if err != nil {
				return writeErr(cmd, err)
			}
			if markdown || render {
				md := outline.Markdown(doc)
				if render {
					md = publish.Terminal(md, renderWidth)
				}
				_, err := cmd.OutOrStdout().Write([]byte(md))
				return err
			}
			return writeOut(cmd, app, map[string]any{
				"data": doc,
				"meta": map[string]any{
					"version":       f.Project().OutlineVersion,
					"draftRestored": f.Project().DraftRestored,
				},
			})
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print as markdown")
	cmd.Flags().BoolVar(&render, "render", false, "Render markdown for the terminal")
	return cmd
}

func newOutlineAddSectionCmd(app *App) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "add-section",
		Short: "Append a section",
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			doc, err := editOutline(cmd, app, func(d outline.Document) (outline.Document, error) {
				d, id = outline.AddSection(d)
				return setFields(d, outline.SectionRef(id), title, description)
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			sec, _ := doc.FindSection(id)
			return writeOut(cmd, app, map[string]any{"data": sec, "_hints": outlineHints()})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Section title")
	cmd.Flags().StringVar(&description, "description", "", "Section description")
	return cmd
}

func newOutlineAddSubsectionCmd(app *App) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "add-subsection <section-id>",
		Short: "Append a subsection to a section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secID := strings.TrimSpace(args[0])
			var id string
			doc, err := editOutline(cmd, app, func(d outline.Document) (outline.Document, error) {
				var ok bool
				d, id, ok = outline.AddSubsection(d, secID)
				if !ok {
					return d, errNotFound("section", secID)
				}
				return setFields(d, outline.SubRef(secID, id), title, description)
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			sec, _ := doc.FindSection(secID)
			return writeOut(cmd, app, map[string]any{"data": sec, "_hints": outlineHints()})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Subsection title")
	cmd.Flags().StringVar(&description, "description", "", "Subsection description")
	return cmd
}

func setFields(d outline.Document, ref outline.Ref, title, description string) (outline.Document, error) {
	if title != "" {
		d, _ = outline.SetField(d, ref, outline.FieldTitle, title)
	}
	if description != "" {
		d, _ = outline.SetField(d, ref, outline.FieldDescription, description)
	}
	return d, nil
}

func newOutlineDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <ref>",
		Aliases: []string{"rm"},
		Short:   "Delete a section or subsection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			doc, err := editOutline(cmd, app, func(d outline.Document) (outline.Document, error) {
				if !d.Has(ref) {
					return d, errNotFound("outline item", args[0])
				}
				return outline.Delete(d, ref), nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": doc, "_hints": outlineHints()})
		},
	}
}

func newOutlineMoveCmd(app *App) *cobra.Command {
	var before string
	var up, down bool

	cmd := &cobra.Command{
		Use:   "move <ref>",
		Short: "Reorder a section or subsection (--before <ref>, --up or --down)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			set := 0
			for _, b := range []bool{before != "", up, down} {
				if b {
					set++
				}
			}
			if set != 1 {
				return writeErr(cmd, errUsage("exactly one of --before, --up or --down is required"))
			}
			doc, err := editOutline(cmd, app, func(d outline.Document) (outline.Document, error) {
				if !d.Has(ref) {
					return d, errNotFound("outline item", args[0])
				}
				var ok bool
				switch {
				case up:
					d, ok = outline.Shift(d, ref, -1)
				case down:
					d, ok = outline.Shift(d, ref, 1)
				default:
					dst, err := parseRef(before)
					if err != nil {
						return d, err
					}
					d, ok = outline.Move(d, ref, dst)
				}
				if !ok {
					return d, errUsage("cannot move %s there", args[0])
				}
				return d, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": doc, "_hints": outlineHints()})
		},
	}

	cmd.Flags().StringVar(&before, "before", "", "Move to the position of this item (same level and parent)")
	cmd.Flags().BoolVar(&up, "up", false, "Move one position up")
	cmd.Flags().BoolVar(&down, "down", false, "Move one position down")
	return cmd
}

func newOutlineRenameCmd(app *App) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "rename [ref]",
		Short: "Set the title or description of the outline, a section or a subsection",
		Long:  "Without a ref, --title sets the outline's own title.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("title") && !cmd.Flags().Changed("description") {
				return writeErr(cmd, errUsage("nothing to change: pass --title and/or --description"))
			}
			doc, err := editOutline(cmd, app, func(d outline.Document) (outline.Document, error) {
				if len(args) == 0 {
					if cmd.Flags().Changed("description") {
						return d, errUsage("--description needs a section or subsection ref")
					}
					d.Title = title
					return d, nil
				}
				ref, err := parseRef(args[0])
				if err != nil {
					return d, err
				}
				if !d.Has(ref) {
					return d, errNotFound("outline item", args[0])
				}
				if cmd.Flags().Changed("title") {
					d, _ = outline.SetField(d, ref, outline.FieldTitle, title)
				}
				if cmd.Flags().Changed("description") {
					d, _ = outline.SetField(d, ref, outline.FieldDescription, description)
				}
				return d, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": doc, "_hints": outlineHints()})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	return cmd
}

func newOutlineSaveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Validate the working outline and record it as a new version",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			doc, err := workingOutline(f)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := f.SaveOutline(cmd.Context(), doc); err != nil {
				return writeErr(cmd, err)
			}
			p := f.Project()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"version": p.OutlineVersion, "outline": p.Outline},
			})
		},
	}
}

func newOutlineRegenerateCmd(app *App) *cobra.Command {
	var feedback, focus string

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Ask for a revised outline that addresses feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := f.RegenerateOutline(cmd.Context(), feedback, focus); err != nil {
				return writeErr(cmd, err)
			}
			p := f.Project()
			return writeOut(cmd, app, map[string]any{
				"data": p.Outline,
				"meta": map[string]any{"version": p.OutlineVersion},
			})
		},
	}

	cmd.Flags().StringVar(&feedback, "feedback", "", "What to change")
	cmd.Flags().StringVar(&focus, "focus", "", "Focus area (structure|content|flow|technical_level)")
	_ = cmd.MarkFlagRequired("feedback")
	return cmd
}

func newOutlineVersionsCmd(app *App) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List saved outline versions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			p := f.Project()
			if remote {
				vs, err := app.client.OutlineVersions(cmd.Context(), p.Name)
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": vs.Versions, "meta": map[string]any{"count": vs.TotalVersions, "source": "backend"}})
			}
			vs, err := app.store.OutlineVersions(cmd.Context(), p.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": vs, "meta": map[string]any{"count": len(vs), "source": "cache"}})
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "List the versions the backend recorded")
	return cmd
}

func newOutlineFeedbackCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "feedback",
		Short: "List feedback recorded against the outline",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			fb, err := app.store.ListFeedback(cmd.Context(), f.Project().ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": fb, "meta": map[string]any{"count": len(fb)}})
		},
	}
}

func newOutlineRestoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <version>",
		Short: "Load a saved version into the working outline",
		Long:  "The restored outline replaces the working copy; run `quibo outline save` to record it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(args[0]), "v"))
			if err != nil || n < 1 {
				return writeErr(cmd, errUsage("invalid version %q", args[0]))
			}
			f, err := app.selected(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			v, err := app.store.OutlineVersion(cmd.Context(), f.Project().ID, n)
			if errors.Is(err, store.ErrNotFound) {
				return writeErr(cmd, errNotFound("outline version", args[0]))
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := f.EditOutline(cmd.Context(), v.Outline); err != nil {
				return writeErr(cmd, err)
			}
			f.Persist(cmd.Context())
			return writeOut(cmd, app, map[string]any{
				"data":   v.Outline,
				"meta":   map[string]any{"restoredFrom": v.VersionNumber},
				"_hints": []string{"quibo outline save"},
			})
		},
	}
}
