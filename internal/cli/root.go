package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"quibo-cli/internal/api"
	"quibo-cli/internal/config"
	"quibo-cli/internal/flow"
	"quibo-cli/internal/format"
	"quibo-cli/internal/logger"
	"quibo-cli/internal/opstatus"
	"quibo-cli/internal/session"
	"quibo-cli/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	Dir      string
	APIURL   string
	APIKey   string
	Format   string
	Pretty   bool
	Project  string
	Offline  bool
	LogLevel string

	cfg     *config.Config
	log     *slog.Logger
	store   *store.Store
	session *session.Manager
	client  *api.Client
	flow    *flow.Flow
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "quibo",
		Short:        "Quibo blog authoring CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  quibo

  # Walk a project through the workflow from scripts
  quibo upload --name intro-to-go notes.md analysis.ipynb
  quibo process
  quibo outline generate --length medium
  quibo sections generate --all
  quibo draft compile
  quibo refine --titles 3
  quibo social

  # Direct project lookup (shortcut for: quibo projects show <project-id>)
  quibo 3f0c2a9e-4b7d-4a43-9d0e-2c1b7f5e8a10
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := app.configure(cmd); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.close()
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", "", "Config and cache directory (default: $QUIBO_CONFIG_DIR or ~/.quibo)")
	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "Backend base URL (overrides api.url)")
	cmd.PersistentFlags().StringVar(&app.APIKey, "api-key", "", "Backend API key (overrides api.key)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "json", "Output format (json|edn|text)")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.Project, "project", "", "Project id or name (default: the project selected with `quibo projects use`)")
	cmd.PersistentFlags().BoolVar(&app.Offline, "offline", false, "Treat the backend as unreachable: network failures are not offered for retry")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newAuthCmd(app))
	cmd.AddCommand(newHealthCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newUploadCmd(app))
	cmd.AddCommand(newProcessCmd(app))
	cmd.AddCommand(newOutlineCmd(app))
	cmd.AddCommand(newSectionsCmd(app))
	cmd.AddCommand(newDraftCmd(app))
	cmd.AddCommand(newRefineCmd(app))
	cmd.AddCommand(newSocialCmd(app))
	cmd.AddCommand(newResumeCmd(app))
	cmd.AddCommand(newStageCmd(app))
	cmd.AddCommand(newCatalogCmds(app)...)
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// flagOverrides maps persistent flags to config keys. Only flags set on the
// command line override file and environment values.
var flagOverrides = []struct {
	flag string
	key  string
	val  func(*App) any
}{
	{"api-url", "api.url", func(a *App) any { return a.APIURL }},
	{"api-key", "api.key", func(a *App) any { return a.APIKey }},
	{"format", "output.format", func(a *App) any { return a.Format }},
	{"pretty", "output.pretty", func(a *App) any { return a.Pretty }},
	{"offline", "offline", func(a *App) any { return a.Offline }},
	{"log-level", "log.level", func(a *App) any { return a.LogLevel }},
}

func (app *App) configure(cmd *cobra.Command) error {
	overrides := map[string]any{}
	for _, o := range flagOverrides {
		if cmd.Flags().Changed(o.flag) {
			overrides[o.key] = o.val(app)
		}
	}
	cfg, err := config.Load(strings.TrimSpace(app.Dir), overrides)
	if err != nil {
		return err
	}
	if !format.Valid(cfg.Output.Format) {
		return fmt.Errorf("unknown format: %s (supported: %s)", cfg.Output.Format, strings.Join(format.Formats, ", "))
	}
	app.cfg = cfg
	app.log = logger.Init(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	return nil
}

// open wires the backend client, session, local cache and workflow driver.
func (app *App) open(ctx context.Context) (*flow.Flow, error) {
	if app.flow != nil {
		return app.flow, nil
	}
	if app.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	cfg := app.cfg

	st, err := store.Open(ctx, store.Path(cfg.Dir))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	app.store = st

	app.session = session.NewManager(session.Options{
		Dir:     cfg.Dir,
		AuthURL: cfg.Auth.URL,
		AnonKey: cfg.Auth.AnonKey,
		Logger:  app.log,
	})
	if err := app.session.Load(); err != nil {
		app.log.Warn("ignoring unreadable session", "err", err)
	}

	client, err := api.New(api.Options{
		BaseURL:    cfg.API.URL,
		APIKey:     cfg.API.Key,
		Tokens:     app.session,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		Logger:     app.log,
	})
	if err != nil {
		return nil, err
	}
	app.client = client

	ops := opstatus.New(context.Background())
	ops.SetOffline(cfg.Offline)
	app.flow = flow.New(flow.Options{
		API:      client,
		Ops:      ops,
		Store:    st,
		Logger:   app.log,
		Defaults: defaultsFrom(cfg),
	})
	return app.flow, nil
}

func defaultsFrom(cfg *config.Config) flow.Defaults {
	g := cfg.Generation
	return flow.Defaults{
		Model:            g.Model,
		SpecificModel:    g.SpecificModel,
		Persona:          g.Persona,
		Length:           g.Length,
		Style:            g.Style,
		MaxIterations:    g.MaxIterations,
		QualityThreshold: g.QualityThreshold,
	}
}

// selected returns the workflow driver with the current project loaded:
// --project, else the project recorded by `quibo projects use`. The local
// working copy is preferred; the backend is asked only when none is cached.
func (app *App) selected(ctx context.Context) (*flow.Flow, error) {
	f, err := app.open(ctx)
	if err != nil {
		return nil, err
	}
	if p := f.Project(); p.ID != "" {
		return f, nil
	}
	ref := strings.TrimSpace(app.Project)
	if ref == "" {
		st, err := config.LoadState(app.cfg.Dir)
		if err != nil {
			return nil, err
		}
		ref = st.CurrentProjectID
	}
	if ref == "" {
		return nil, errNoProject
	}
	ok, err := f.Restore(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := f.Resume(ctx, ref); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// use records p as the default project for later commands.
func (app *App) use(p flow.Project) error {
	if p.ID == "" {
		return nil
	}
	return config.SaveState(app.cfg.Dir, config.State{CurrentProjectID: p.ID, CurrentProjectName: p.Name})
}

func (app *App) close() error {
	var err error
	if app.store != nil {
		err = app.store.Close()
		app.store = nil
	}
	app.flow = nil
	return err
}

func (app *App) outputFormat() (string, bool) {
	if app.cfg != nil {
		return app.cfg.Output.Format, app.cfg.Output.Pretty
	}
	return app.Format, app.Pretty
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	f, pretty := app.outputFormat()
	return format.Write(cmd.OutOrStdout(), v, f, pretty)
}

// writeErr prints err to stderr. Operation failures carry a friendly message
// and, separately, the backend's details.
func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	var oe *opstatus.OperationError
	if errors.As(err, &oe) && oe.Details != "" && oe.Details != oe.Message {
		fmt.Fprintln(cmd.ErrOrStderr(), "details: "+oe.Details)
	}
	return err
}

var timeNow = time.Now
