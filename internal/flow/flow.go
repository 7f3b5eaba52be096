// Package flow drives a project through the authoring workflow. Each
// operation runs under an opstatus token so that a cancelled or superseded
// request never overwrites newer state.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"quibo-cli/internal/api"
	"quibo-cli/internal/logger"
	"quibo-cli/internal/opstatus"
	"quibo-cli/internal/outline"
	"quibo-cli/internal/store"
	"quibo-cli/internal/workflow"
)

// Operation keys.
const (
	KeyUpload            = "upload"
	KeyProcess           = "process"
	KeyOutline           = "outline"
	KeySaveOutline       = "outline.save"
	KeyRegenerateOutline = "outline.regenerate"
	KeyCompile           = "compile"
	KeyRefine            = "refine"
	KeySocial            = "social"
	KeyResume            = "resume"
	KeyProjects          = "projects"
	KeyDelete            = "delete"
)

var (
	ErrNoProject    = errors.New("no project selected")
	ErrNoRetry      = errors.New("nothing to retry")
	ErrLocked       = errors.New("stage not reached yet")
	ErrNotRetryable = errors.New("operation cannot be retried")
)

// SectionKey is the operation key for drafting one section.
func SectionKey(index int) string { return "section." + strconv.Itoa(index) }

// Defaults are generation settings applied when a request leaves them unset.
type Defaults struct {
	Model            string
	SpecificModel    string
	Persona          string
	Length           string
	Style            string
	MaxIterations    int
	QualityThreshold float64
}

type Options struct {
	API      *api.Client
	Ops      *opstatus.Registry
	Store    *store.Store
	Logger   *slog.Logger
	Defaults Defaults
}

// Project is the working view of the selected project.
type Project struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	JobID         string `json:"jobId,omitempty"`
	Model         string `json:"model,omitempty"`
	SpecificModel string `json:"specificModel,omitempty"`
	Persona       string `json:"persona,omitempty"`

	// Stage is the page being shown; Reached is the furthest stage the
	// project's artifacts allow.
	Stage   workflow.Stage `json:"stage"`
	Reached workflow.Stage `json:"reached"`

	Files      []string          `json:"files,omitempty"`
	FileHashes map[string]string `json:"fileHashes,omitempty"`

	Outline        *outline.Document `json:"outline,omitempty"`
	OutlineVersion int               `json:"outlineVersion,omitempty"`
	// DraftRestored is set when Outline came from a local autosave.
	DraftRestored bool `json:"draftRestored,omitempty"`

	Sections     map[int]api.GeneratedSection `json:"sections,omitempty"`
	Draft        string                       `json:"draft,omitempty"`
	Refined      string                       `json:"refined,omitempty"`
	Summary      string                       `json:"summary,omitempty"`
	TitleOptions []api.TitleOption            `json:"titleOptions,omitempty"`
	Social       *api.SocialContent           `json:"social,omitempty"`
	Cost         map[string]any               `json:"cost,omitempty"`
}

// Facts reports which artifacts the project has.
func (p Project) Facts() workflow.Facts {
	return workflow.Facts{
		HasFiles:        len(p.FileHashes) > 0,
		HasOutline:      p.Outline != nil && len(p.Outline.Sections) > 0,
		HasFinalDraft:   strings.TrimSpace(p.Draft) != "",
		HasRefinedDraft: strings.TrimSpace(p.Refined) != "",
		HasSocial:       !p.Social.Empty(),
	}
}

// MissingSections lists outline section indexes without a drafted section.
func (p Project) MissingSections() []int {
	if p.Outline == nil {
		return nil
	}
	var out []int
	for i := range p.Outline.Sections {
		if _, ok := p.Sections[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}

// Stepper positions the progress bar at the shown stage.
func (p Project) Stepper() workflow.Stepper {
	st := p.Stage
	if st == "" {
		st = workflow.StageUpload
	}
	return workflow.NewStepper(workflow.DefaultSteps(), st)
}

func (p Project) clone() Project {
	out := p
	out.Files = append([]string(nil), p.Files...)
	if p.FileHashes != nil {
		out.FileHashes = make(map[string]string, len(p.FileHashes))
		for k, v := range p.FileHashes {
			out.FileHashes[k] = v
		}
	}
	if p.Outline != nil {
		d := p.Outline.Clone()
		out.Outline = &d
	}
	if p.Sections != nil {
		out.Sections = make(map[int]api.GeneratedSection, len(p.Sections))
		for k, v := range p.Sections {
			out.Sections[k] = v
		}
	}
	out.TitleOptions = append([]api.TitleOption(nil), p.TitleOptions...)
	return out
}

type Flow struct {
	api      *api.Client
	ops      *opstatus.Registry
	store    *store.Store
	log      *slog.Logger
	defaults Defaults

	mu      sync.Mutex
	project Project
	replay  map[string]func(context.Context) error

	subMu  sync.Mutex
	subs   map[int]func(Project)
	nextID int
}

func New(opts Options) *Flow {
	f := &Flow{
		api:      opts.API,
		ops:      opts.Ops,
		store:    opts.Store,
		log:      opts.Logger,
		defaults: opts.Defaults,
		replay:   map[string]func(context.Context) error{},
		subs:     map[int]func(Project){},
	}
	if f.ops == nil {
		f.ops = opstatus.New(context.Background())
	}
	if f.log == nil {
		f.log = logger.Default()
	}
	f.project.Stage = workflow.StageUpload
	f.project.Reached = workflow.StageUpload
	return f
}

func (f *Flow) Ops() *opstatus.Registry { return f.ops }

// Project returns a copy of the working project.
func (f *Flow) Project() Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.project.clone()
}

// Subscribe registers fn for project changes. The returned func unsubscribes.
func (f *Flow) Subscribe(fn func(Project)) func() {
	f.subMu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.subMu.Unlock()
	return func() {
		f.subMu.Lock()
		delete(f.subs, id)
		f.subMu.Unlock()
	}
}

func (f *Flow) notify() {
	p := f.Project()
	f.subMu.Lock()
	fns := make([]func(Project), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.subMu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}

// update applies fn to the project under lock, raises Reached to cover the
// project's artifacts and shown stage, and notifies subscribers.
func (f *Flow) update(fn func(p *Project)) {
	f.apply(fn)
	f.notify()
}

// apply is update without the notification.
func (f *Flow) apply(fn func(p *Project)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.project)
	if !f.project.Stage.Valid() {
		f.project.Stage = workflow.StageUpload
	}
	f.project.Reached = later(f.project.Reached, later(f.project.Stage, workflow.DeriveStage(f.project.Facts())))
}

func later(a, b workflow.Stage) workflow.Stage {
	if workflow.Before(a, b) || !a.Valid() {
		return b
	}
	return a
}

// advanceTo moves the shown stage forward to st; it never moves backward.
func advanceTo(p *Project, st workflow.Stage) {
	if workflow.Before(p.Stage, st) {
		p.Stage = st
	}
}

func (f *Flow) current() (Project, error) {
	p := f.Project()
	if p.ID == "" && p.Name == "" {
		return p, ErrNoProject
	}
	return p, nil
}

// op remembers fn as key's replay, so Retry re-sends the exact request, and
// runs it.
func (f *Flow) op(ctx context.Context, key string, fn func(context.Context) error) error {
	f.mu.Lock()
	f.replay[key] = fn
	f.mu.Unlock()
	return fn(ctx)
}

// run executes call under a fresh token for key. The result is applied only
// if the token is still live when call returns; a cancelled or superseded
// run returns the cancellation cause and leaves state untouched.
func (f *Flow) run(ctx context.Context, key, message string, call func(context.Context) (func(*Project), error)) error {
	tok := f.ops.Start(key, message)
	rctx, cancel := context.WithCancel(tok.Context())
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	lg := logger.FromContext(logger.WithContext(ctx, logger.OperationKey, key), f.log)
	lg.Debug("operation started", "message", message)

	apply, err := call(rctx)
	if err != nil {
		if ctx.Err() != nil && f.ops.Live(tok) {
			f.ops.Cancel(key)
			f.forget(key)
			lg.Info("operation cancelled by caller")
			return opstatus.ErrCancelled
		}
		if !f.ops.Fail(tok, err) {
			return stale(tok)
		}
		lg.Warn("operation failed", "err", err)
		rec, _ := f.ops.Get(key)
		if rec.Error != nil {
			return rec.Error
		}
		return err
	}
	// The result lands only if tok is still live at that instant; a newer run
	// for key cannot start between the check and the write.
	ok := f.ops.SucceedWith(tok, func() {
		f.forget(key)
		if apply != nil {
			f.apply(apply)
		}
	})
	if !ok {
		return stale(tok)
	}
	if apply != nil {
		f.notify()
	}
	lg.Debug("operation finished")
	return nil
}

func stale(tok *opstatus.Token) error {
	if cause := context.Cause(tok.Context()); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return opstatus.ErrSuperseded
}

// Retry replays the last failed request for key with the same parameters.
func (f *Flow) Retry(ctx context.Context, key string) error {
	f.mu.Lock()
	replay := f.replay[key]
	f.mu.Unlock()
	if replay == nil {
		return ErrNoRetry
	}
	if rec, ok := f.ops.Get(key); ok && rec.Error != nil && !rec.Error.Retryable {
		return ErrNotRetryable
	}
	f.ops.IncrementRetry(key)
	return replay(ctx)
}

// Cancel aborts the in-flight operation for key. A cancelled request is not
// offered for retry.
func (f *Flow) Cancel(key string) bool {
	ok := f.ops.Cancel(key)
	f.forget(key)
	return ok
}

// Dismiss clears a failed operation's error and forgets its replay.
func (f *Flow) Dismiss(key string) {
	f.ops.Clear(key)
	f.forget(key)
}

func (f *Flow) forget(key string) {
	f.mu.Lock()
	delete(f.replay, key)
	f.mu.Unlock()
}

// Navigate shows an earlier stage. Only completed steps are reachable.
func (f *Flow) Navigate(target workflow.Stage) error {
	p := f.Project()
	if !workflow.CanEnter(p.Stage, target) {
		return ErrLocked
	}
	f.update(func(p *Project) { p.Stage = target })
	return nil
}

// Advance moves the shown stage one step forward when the project has the
// artifacts for it.
func (f *Flow) Advance() error {
	p := f.Project()
	next, ok := workflow.Next(p.Stage)
	if !ok || workflow.Before(p.Reached, next) {
		return ErrLocked
	}
	f.update(func(p *Project) { p.Stage = next })
	return nil
}

// SetDefaults replaces generation defaults for subsequent requests.
func (f *Flow) SetDefaults(d Defaults) {
	f.mu.Lock()
	f.defaults = d
	f.mu.Unlock()
}

func (f *Flow) defaultsFor(p Project) Defaults {
	f.mu.Lock()
	d := f.defaults
	f.mu.Unlock()
	if p.Model != "" {
		d.Model = p.Model
	}
	if p.SpecificModel != "" {
		d.SpecificModel = p.SpecificModel
	}
	if p.Persona != "" {
		d.Persona = p.Persona
	}
	return d
}

// contentHashes picks the first notebook and markdown hash by path order.
func contentHashes(hashes map[string]string) (notebook, markdown string) {
	paths := make([]string, 0, len(hashes))
	for p := range hashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		lp := strings.ToLower(p)
		switch {
		case notebook == "" && strings.HasSuffix(lp, ".ipynb"):
			notebook = hashes[p]
		case markdown == "" && strings.HasSuffix(lp, ".md"):
			markdown = hashes[p]
		}
	}
	return notebook, markdown
}
