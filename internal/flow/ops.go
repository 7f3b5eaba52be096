package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"quibo-cli/internal/api"
	"quibo-cli/internal/outline"
	"quibo-cli/internal/store"
	"quibo-cli/internal/workflow"
)

var (
	ErrNoOutline       = errors.New("project has no outline yet")
	ErrNoDraft         = errors.New("project has no compiled draft yet")
	ErrSectionRange    = errors.New("section index out of range")
	ErrSectionsMissing = errors.New("some sections have not been generated")
)

type OutlineOptions struct {
	Guidelines   string
	Length       string
	CustomLength int
	Style        string
}

type SectionOptions struct {
	MaxIterations    int
	QualityThreshold *float64
}

type RefineOptions struct {
	NumTitles          int
	TitleGuidelines    string
	SelectedTitleIndex *int
	CustomTitle        string
}

func firstNonEmpty(xs ...string) string {
	for _, x := range xs {
		if strings.TrimSpace(x) != "" {
			return x
		}
	}
	return ""
}

// resetOutline installs a fresh outline and drops everything derived from
// the previous one.
func resetOutline(p *Project, doc outline.Document) {
	p.Outline = &doc
	p.DraftRestored = false
	p.Sections = nil
	p.Draft = ""
	p.Refined = ""
	p.Summary = ""
	p.TitleOptions = nil
	p.Social = nil
	p.Reached = ""
	if workflow.Before(workflow.StageOutline, p.Stage) {
		p.Stage = workflow.StageOutline
	}
	advanceTo(p, workflow.StageOutline)
}

// Upload creates a project from source files.
func (f *Flow) Upload(ctx context.Context, name string, files []api.UploadFile) error {
	d := f.defaultsFor(Project{})
	req := api.UploadRequest{
		ProjectName: strings.TrimSpace(name),
		Files:       files,
		ModelName:   d.Model,
		Persona:     d.Persona,
	}
	if err := api.Check(req); err != nil {
		return err
	}
	return f.op(ctx, KeyUpload, func(ctx context.Context) error {
		err := f.run(ctx, KeyUpload, "Uploading files...", func(ctx context.Context) (func(*Project), error) {
			resp, err := f.api.Upload(ctx, req)
			if err != nil {
				return nil, err
			}
			return func(p *Project) {
				*p = Project{
					ID:            resp.ProjectID,
					Name:          firstNonEmpty(resp.ProjectName, req.ProjectName),
					JobID:         firstNonEmpty(resp.JobID, resp.ProjectID),
					Model:         d.Model,
					SpecificModel: d.SpecificModel,
					Persona:       d.Persona,
					Stage:         workflow.StageUpload,
					Files:         resp.Files,
				}
			}, nil
		})
		if err != nil {
			return err
		}
		f.Persist(ctx)
		return nil
	})
}

// Process parses the uploaded files and records their content hashes.
func (f *Flow) Process(ctx context.Context) error {
	p, err := f.current()
	if err != nil {
		return err
	}
	d := f.defaultsFor(p)
	req := api.ProcessRequest{ProjectName: p.Name, ModelName: d.Model, FilePaths: p.Files}
	if err := api.Check(req); err != nil {
		return err
	}
	return f.op(ctx, KeyProcess, func(ctx context.Context) error {
		err := f.run(ctx, KeyProcess, "Processing files...", func(ctx context.Context) (func(*Project), error) {
			resp, err := f.api.ProcessFiles(ctx, req)
			if err != nil {
				return nil, err
			}
			return func(p *Project) {
				p.FileHashes = resp.FileHashes
				advanceTo(p, workflow.StageOutline)
			}, nil
		})
		if err != nil {
			return err
		}
		f.Persist(ctx)
		return nil
	})
}

// GenerateOutline asks the backend for a new outline, replacing any current one.
func (f *Flow) GenerateOutline(ctx context.Context, o OutlineOptions) error {
	p, err := f.current()
	if err != nil {
		return err
	}
	d := f.defaultsFor(p)
	notebook, markdown := contentHashes(p.FileHashes)
	req := api.OutlineRequest{
		ProjectName:      p.Name,
		ModelName:        d.Model,
		NotebookHash:     notebook,
		MarkdownHash:     markdown,
		UserGuidelines:   strings.TrimSpace(o.Guidelines),
		LengthPreference: firstNonEmpty(o.Length, d.Length),
		WritingStyle:     firstNonEmpty(o.Style, d.Style),
		PersonaStyle:     d.Persona,
		SpecificModel:    d.SpecificModel,
	}
	if req.LengthPreference == api.LengthCustom {
		req.CustomLength = o.CustomLength
	}
	if err := api.Check(req); err != nil {
		return err
	}
	return f.op(ctx, KeyOutline, func(ctx context.Context) error {
		err := f.run(ctx, KeyOutline, "Generating outline...", func(ctx context.Context) (func(*Project), error) {
			resp, err := f.api.GenerateOutline(ctx, req)
			if err != nil {
				return nil, err
			}
			doc := outline.FromWire(resp.Outline)
			return func(p *Project) {
				if resp.ProjectID != "" {
					p.ID = resp.ProjectID
				}
				p.Cost = resp.CostSummary
				resetOutline(p, doc)
			}, nil
		})
		if err != nil {
			return err
		}
		f.recordVersion(ctx, store.SourceGenerated, "")
		f.Persist(ctx)
		return nil
	})
}

// EditOutline replaces the working outline with a locally edited copy and
// autosaves it. Nothing is sent to the backend until SaveOutline.
func (f *Flow) EditOutline(ctx context.Context, doc outline.Document) error {
	p, err := f.current()
	if err != nil {
		return err
	}
	if p.Outline == nil {
		return ErrNoOutline
	}
	f.update(func(p *Project) {
		d := doc.Clone()
		p.Outline = &d
	})
	if f.store == nil || p.ID == "" {
		return nil
	}
	if err := f.store.EnsureProject(ctx, p.ID, p.Name); err != nil {
		return err
	}
	_, err = f.store.SaveDraft(ctx, p.ID, doc)
	return err
}

// SaveOutline validates doc, records it on the backend and as a new local
// version, and discards the autosave.
func (f *Flow) SaveOutline(ctx context.Context, doc outline.Document) error {
	p, err := f.current()
	if err != nil {
		return err
	}
	doc = outline.Normalize(doc)
	if err := outline.Validate(doc); err != nil {
		return &api.ValidationError{Fields: map[string]string{"outline": err.Error()}}
	}
	return f.op(ctx, KeySaveOutline, func(ctx context.Context) error {
		err := f.run(ctx, KeySaveOutline, "Saving outline...", func(ctx context.Context) (func(*Project), error) {
			if p.ID != "" {
				m := api.Milestone{ProjectID: p.ID, Type: api.MilestoneOutlineGenerated, Data: outline.ToWire(doc)}
				if _, err := f.api.SaveMilestone(ctx, m); err != nil {
					return nil, err
				}
			}
			return func(p *Project) {
				d := doc.Clone()
				p.Outline = &d
				p.DraftRestored = false
			}, nil
		})
		if err != nil {
			return err
		}
		f.recordVersion(ctx, store.SourceEdited, "")
		if f.store != nil && p.ID != "" {
			if err := f.store.ClearDraft(ctx, p.ID); err != nil {
				f.log.Warn("failed to clear outline autosave", "project_id", p.ID, "err", err)
			}
		}
		f.Persist(ctx)
		return nil
	})
}

// RegenerateOutline records feedback locally, then asks the backend for a
// revised outline that addresses it.
func (f *Flow) RegenerateOutline(ctx context.Context, feedback, focus string) error {
	p, err := f.current()
	if err != nil {
		return err
	}
	d := f.defaultsFor(p)
	req := api.RegenerateOutlineRequest{
		ProjectName:     p.Name,
		FeedbackContent: strings.TrimSpace(feedback),
		FocusArea:       focus,
		ModelName:       d.Model,
		SpecificModel:   d.SpecificModel,
	}
	if err := api.Check(req); err != nil {
		return err
	}
	feedbackID := f.recordFeedback(ctx, p, req.FeedbackContent, focus)
	return f.op(ctx, KeyRegenerateOutline, func(ctx context.Context) error {
		err := f.run(ctx, KeyRegenerateOutline, "Regenerating outline...", func(ctx context.Context) (func(*Project), error) {
			resp, err := f.api.RegenerateOutline(ctx, req)
			if err != nil {
				return nil, err
			}
			doc := outline.FromWire(resp.Outline)
			return func(p *Project) {
				p.Cost = resp.CostSummary
				resetOutline(p, doc)
			}, nil
		})
		if err != nil {
			return err
		}
		f.recordVersion(ctx, store.SourceRegenerated, feedbackID)
		if f.store != nil && feedbackID != "" {
			if err := f.store.MarkFeedbackAddressed(ctx, feedbackID); err != nil {
				f.log.Warn("failed to mark feedback addressed", "feedback_id", feedbackID, "err", err)
			}
		}
		f.Persist(ctx)
		return nil
	})
}

func (f *Flow) sectionRequest(p Project, index int, o SectionOptions) (api.SectionRequest, error) {
	if p.Outline == nil {
		return api.SectionRequest{}, ErrNoOutline
	}
	if index < 0 || index >= len(p.Outline.Sections) {
		return api.SectionRequest{}, fmt.Errorf("%w: %d (outline has %d sections)", ErrSectionRange, index, len(p.Outline.Sections))
	}
	d := f.defaultsFor(p)
	req := api.SectionRequest{
		ProjectName:      p.Name,
		ProjectID:        p.ID,
		SectionIndex:     index,
		MaxIterations:    o.MaxIterations,
		QualityThreshold: o.QualityThreshold,
	}
	if req.MaxIterations == 0 {
		req.MaxIterations = d.MaxIterations
	}
	if req.QualityThreshold == nil && d.QualityThreshold > 0 {
		q := d.QualityThreshold
		req.QualityThreshold = &q
	}
	return req, api.Check(req)
}

func applySection(resp api.SectionResponse, index int) func(*Project) {
	return func(p *Project) {
		if p.Sections == nil {
			p.Sections = map[int]api.GeneratedSection{}
		}
		p.Sections[index] = api.GeneratedSection{
			SectionTitle:      resp.SectionTitle,
			SectionContent:    resp.SectionContent,
			ImagePlaceholders: resp.ImagePlaceholders,
		}
		if resp.CostSummary != nil {
			p.Cost = resp.CostSummary
		}
		advanceTo(p, workflow.StageDrafting)
	}
}

// GenerateSection drafts one outline section.
func (f *Flow) GenerateSection(ctx context.Context, index int, o SectionOptions) error {
	p, err := f.current()
	if err != nil {
		return err
	}
	req, err := f.sectionRequest(p, index, o)
	if err != nil {
		return err
	}
	key := SectionKey(index)
	msg := fmt.Sprintf("Drafting section %d of %d...", index+1, len(p.Outline.Sections))
	return f.op(ctx, key, func(ctx context.Context) error {
		err := f.run(ctx, key, msg, func(ctx context.Context) (func(*Project), error) {
			resp, err := f.api.GenerateSection(ctx, req)
			if err != nil {
				return nil, err
			}
			return applySection(resp, index), nil
		})
		if err != nil {
			return err
		}
		f.Persist(ctx)
		return nil
	})
}

// GenerateAllSections drafts every missing section in order and stops at the
// first failure. It returns how many sections were drafted.
func (f *Flow) GenerateAllSections(ctx context.Context, o SectionOptions) (int, error) {
	p, err := f.current()
	if err != nil {
		return 0, err
	}
	if p.Outline == nil {
		return 0, ErrNoOutline
	}
	done := 0
	for _, idx := range p.MissingSections() {
		if err := f.GenerateSection(ctx, idx, o); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}

// RegenerateSection redrafts a section taking reviewer feedback into account.
func (f *Flow) RegenerateSection(ctx context.Context, index int, feedback string, o SectionOptions) error {
	p, err := f.current()
	if err != nil {
		return err
	}
	base, err := f.sectionRequest(p, index, o)
	if err != nil {
		return err
	}
	req := api.RegenerateSectionRequest{
		ProjectName:      p.Name,
		JobID:            firstNonEmpty(p.JobID, p.ID),
		SectionIndex:     index,
		Feedback:         strings.TrimSpace(feedback),
		MaxIterations:    base.MaxIterations,
		QualityThreshold: base.QualityThreshold,
	}
	if err := api.Check(req); err != nil {
		return err
	}
	key := SectionKey(index)
	msg := fmt.Sprintf("Revising section %d...", index+1)
	return f.op(ctx, key, func(ctx context.Context) error {
		err := f.run(ctx, key, msg, func(ctx context.Context) (func(*Project), error) {
			resp, err := f.api.RegenerateSection(ctx, req)
			if err != nil {
				return nil, err
			}
			return applySection(resp, index), nil
		})
		if err != nil {
			return err
		}
		f.Persist(ctx)
		return nil
	})
}

// Compile joins the drafted sections into a single draft.
func (f *Flow) Compile(ctx context.Context) error {
	p, err := f.current()
	if err != nil {
		return err
	}
	if p.Outline == nil {
		return ErrNoOutline
	}
	if missing := p.MissingSections(); len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrSectionsMissing, missing)
	}
	req := api.CompileRequest{ProjectName: p.Name, JobID: firstNonEmpty(p.JobID, p.ID)}
	if err := api.Check(req); err != nil {
		return err
	}
	return f.op(ctx, KeyCompile, func(ctx context.Context) error {
		err := f.run(ctx, KeyCompile, "Compiling draft...", func(ctx context.Context) (func(*Project), error) {
			resp, err := f.api.CompileDraft(ctx, req)
			if err != nil {
				return nil, err
			}
			return func(p *Project) {
				p.Draft = resp.Draft
				if resp.CostSummary != nil {
					p.Cost = resp.CostSummary
				}
				advanceTo(p, workflow.StageDrafting)
			}, nil
		})
		if err != nil {
			return err
		}
		f.Persist(ctx)
		return nil
	})
}

// Refine polishes the compiled draft and proposes titles.
func (f *Flow) Refine(ctx context.Context, o RefineOptions) error {
	p, err := f.current()
	if err != nil {
		return err
	}
	if strings.TrimSpace(p.Draft) == "" {
		return ErrNoDraft
	}
	d := f.defaultsFor(p)
	req := api.RefineRequest{
		ProjectName:        p.Name,
		JobID:              firstNonEmpty(p.JobID, p.ID),
		CompiledDraft:      p.Draft,
		Persona:            d.Persona,
		SelectedTitleIndex: o.SelectedTitleIndex,
		CustomTitle:        strings.TrimSpace(o.CustomTitle),
	}
	if o.NumTitles > 0 || o.TitleGuidelines != "" {
		req.TitleConfig = &api.TitleConfig{NumTitles: o.NumTitles, Guidelines: o.TitleGuidelines}
	}
	if err := api.Check(req); err != nil {
		return err
	}
	return f.op(ctx, KeyRefine, func(ctx context.Context) error {
		err := f.run(ctx, KeyRefine, "Refining draft...", func(ctx context.Context) (func(*Project), error) {
			resp, err := f.api.RefineBlog(ctx, req)
			if err != nil {
				return nil, err
			}
			return func(p *Project) {
				p.Refined = firstNonEmpty(resp.FormattedDraft, resp.RefinedDraft)
				p.Summary = resp.Summary
				p.TitleOptions = resp.TitleOptions
				if resp.CostSummary != nil {
					p.Cost = resp.CostSummary
				}
				advanceTo(p, workflow.StageRefining)
			}, nil
		})
		if err != nil {
			return err
		}
		f.Persist(ctx)
		return nil
	})
}

// Social produces the social media pack for the refined post.
func (f *Flow) Social(ctx context.Context) error {
	p, err := f.current()
	if err != nil {
		return err
	}
	req := api.SocialRequest{ProjectName: p.Name, ProjectID: p.ID}
	if err := api.Check(req); err != nil {
		return err
	}
	return f.op(ctx, KeySocial, func(ctx context.Context) error {
		err := f.run(ctx, KeySocial, "Generating social content...", func(ctx context.Context) (func(*Project), error) {
			resp, err := f.api.GenerateSocial(ctx, req)
			if err != nil {
				return nil, err
			}
			return func(p *Project) {
				sc := resp.SocialContent
				p.Social = &sc
				advanceTo(p, workflow.StageSocial)
			}, nil
		})
		if err != nil {
			return err
		}
		f.Persist(ctx)
		return nil
	})
}

// Resume loads a project's accumulated state from the backend. idOrName may
// be a project id or the name of a cached project. A local outline autosave
// newer than the last saved version replaces the backend outline.
func (f *Flow) Resume(ctx context.Context, idOrName string) error {
	id := strings.TrimSpace(idOrName)
	if id == "" {
		return ErrNoProject
	}
	if f.store != nil {
		if cp, err := f.store.FindProject(ctx, id); err == nil {
			id = cp.ID
		}
	}
	return f.op(ctx, KeyResume, func(ctx context.Context) error {
		err := f.run(ctx, KeyResume, "Loading project...", func(ctx context.Context) (func(*Project), error) {
			st, err := f.api.Resume(ctx, id)
			if err != nil {
				return nil, err
			}
			next := fromResume(st, id)
			f.restoreDraft(ctx, &next)
			return func(p *Project) { *p = next }, nil
		})
		if err != nil {
			return err
		}
		f.Persist(ctx)
		return nil
	})
}

// Restore selects a project from the local cache without contacting the
// backend. It reports false when the project was never cached with a working
// copy; callers then fall back to Resume.
func (f *Flow) Restore(ctx context.Context, idOrName string) (bool, error) {
	if f.store == nil {
		return false, nil
	}
	cp, err := f.store.FindProject(ctx, strings.TrimSpace(idOrName))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(cp.Payload) == 0 {
		return false, nil
	}
	var p Project
	if err := json.Unmarshal(cp.Payload, &p); err != nil {
		return false, fmt.Errorf("decode cached project %s: %w", cp.ID, err)
	}
	if p.ID == "" {
		p.ID = cp.ID
	}
	f.restoreDraft(ctx, &p)
	f.update(func(cur *Project) { *cur = p })
	return true, nil
}

func fromResume(st api.ResumeState, id string) Project {
	p := Project{
		ID:            firstNonEmpty(st.ProjectID, id),
		Name:          st.ProjectName,
		JobID:         firstNonEmpty(st.ProjectID, id),
		Model:         st.ModelName,
		SpecificModel: st.SpecificModel,
		Persona:       st.Persona,
		Draft:         st.FinalDraft,
		Refined:       st.RefinedDraft,
		Summary:       st.Summary,
		TitleOptions:  st.TitleOptions,
		Social:        st.SocialContent,
		Cost:          st.CostSummary,
	}
	if len(st.Outline) > 0 {
		doc := outline.FromWire(st.Outline)
		p.Outline = &doc
	}
	for k, sec := range st.GeneratedSections {
		var idx int
		if _, err := fmt.Sscanf(k, "%d", &idx); err != nil {
			continue
		}
		if p.Sections == nil {
			p.Sections = map[int]api.GeneratedSection{}
		}
		p.Sections[idx] = sec
	}
	facts := p.Facts()
	switch stage, err := workflow.ParseStage(st.CurrentStage); {
	case err == nil:
		p.Stage = stage
	case facts != (workflow.Facts{}):
		p.Stage = workflow.DeriveStage(facts)
	default:
		p.Stage = workflow.StageFromProgress(st.Progress)
	}
	return p
}

func (f *Flow) restoreDraft(ctx context.Context, p *Project) {
	if f.store == nil || p.ID == "" {
		return
	}
	d, err := f.store.LoadDraft(ctx, p.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			f.log.Warn("failed to load outline autosave", "project_id", p.ID, "err", err)
		}
		return
	}
	if v, err := f.store.LatestOutlineVersion(ctx, p.ID); err == nil && !d.SavedAt.After(v.CreatedAt) {
		return
	}
	doc := d.Outline
	p.Outline = &doc
	p.DraftRestored = true
}

// Delete archives a project on the backend, or removes it when permanent is
// set, and drops it from the local cache.
func (f *Flow) Delete(ctx context.Context, id string, permanent bool) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNoProject
	}
	return f.op(ctx, KeyDelete, func(ctx context.Context) error {
		err := f.run(ctx, KeyDelete, "Deleting project...", func(ctx context.Context) (func(*Project), error) {
			if err := f.api.DeleteProject(ctx, id, permanent); err != nil {
				return nil, err
			}
			return func(p *Project) {
				if p.ID == id {
					*p = Project{Stage: workflow.StageUpload}
				}
			}, nil
		})
		if err != nil {
			return err
		}
		if f.store != nil {
			if err := f.store.DeleteProject(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
				f.log.Warn("failed to drop cached project", "project_id", id, "err", err)
			}
		}
		return nil
	})
}

// recordVersion stores the working outline as the project's next local version.
func (f *Flow) recordVersion(ctx context.Context, source, feedbackID string) {
	if f.store == nil {
		return
	}
	p := f.Project()
	if p.ID == "" || p.Outline == nil {
		return
	}
	if err := f.store.EnsureProject(ctx, p.ID, p.Name); err != nil {
		f.log.Warn("failed to cache project", "project_id", p.ID, "err", err)
		return
	}
	v, err := f.store.SaveOutlineVersion(ctx, p.ID, *p.Outline, source, feedbackID)
	if err != nil {
		f.log.Warn("failed to record outline version", "project_id", p.ID, "err", err)
		return
	}
	f.mu.Lock()
	if f.project.ID == p.ID {
		f.project.OutlineVersion = v.VersionNumber
	}
	f.mu.Unlock()
}

func (f *Flow) recordFeedback(ctx context.Context, p Project, content, focus string) string {
	if f.store == nil || p.ID == "" {
		return ""
	}
	if err := f.store.EnsureProject(ctx, p.ID, p.Name); err != nil {
		f.log.Warn("failed to cache project", "project_id", p.ID, "err", err)
		return ""
	}
	fb := store.Feedback{ProjectID: p.ID, Content: content, FocusArea: focus, Source: store.FeedbackUser}
	if v, err := f.store.LatestOutlineVersion(ctx, p.ID); err == nil {
		fb.OutlineVersionID = v.ID
	}
	saved, err := f.store.AddFeedback(ctx, fb)
	if err != nil {
		f.log.Warn("failed to record feedback", "project_id", p.ID, "err", err)
		return ""
	}
	return saved.ID
}

// Persist caches the working project. Cache failures are logged, never fatal.
func (f *Flow) Persist(ctx context.Context) {
	if f.store == nil {
		return
	}
	p := f.Project()
	if p.ID == "" {
		return
	}
	payload, err := json.Marshal(p)
	if err != nil {
		f.log.Warn("failed to encode project", "project_id", p.ID, "err", err)
		return
	}
	cp := store.Project{
		ID:      p.ID,
		Name:    p.Name,
		Stage:   string(p.Reached),
		JobID:   p.JobID,
		Payload: payload,
	}
	if err := f.store.UpsertProject(ctx, cp); err != nil {
		f.log.Warn("failed to cache project", "project_id", p.ID, "err", err)
	}
}
