package flow

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"quibo-cli/internal/api"
	"quibo-cli/internal/store"
	"quibo-cli/internal/workflow"
)

// overviewConcurrency bounds parallel status requests.
const overviewConcurrency = 4

// Summary is one row of the project overview.
type Summary struct {
	Project api.Project        `json:"project"`
	Stage   workflow.Stage     `json:"stage"`
	Status  *api.ProjectStatus `json:"status,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// summaryStage prefers the backend's explicit stage, then the status
// artifacts, and falls back to the progress percentage.
func summaryStage(p api.Project, st *api.ProjectStatus) workflow.Stage {
	if stage, err := workflow.ParseStage(p.CurrentStage); err == nil {
		return stage
	}
	if st != nil {
		facts := workflow.Facts{
			HasOutline:      st.HasOutline,
			HasFinalDraft:   st.HasFinalDraft,
			HasRefinedDraft: st.HasRefinedDraft,
			HasSocial:       !st.SocialContent.Empty(),
		}
		if facts != (workflow.Facts{}) {
			return workflow.DeriveStage(facts)
		}
	}
	return workflow.StageFromProgress(p.Progress)
}

// Overview lists projects and, when withStatus is set, fetches each one's
// generation status concurrently. A failed status fetch is reported on its
// row and does not fail the overview.
func (f *Flow) Overview(ctx context.Context, status string, withStatus bool) ([]Summary, error) {
	var out []Summary
	err := f.op(ctx, KeyProjects, func(ctx context.Context) error {
		return f.run(ctx, KeyProjects, "Loading projects...", func(ctx context.Context) (func(*Project), error) {
			list, err := f.api.ListProjects(ctx, status)
			if err != nil {
				return nil, err
			}
			rows := make([]Summary, len(list.Projects))
			for i, p := range list.Projects {
				rows[i] = Summary{Project: p}
			}
			if withStatus {
				var mu sync.Mutex
				g, gctx := errgroup.WithContext(ctx)
				g.SetLimit(overviewConcurrency)
				for i := range rows {
					g.Go(func() error {
						st, err := f.api.ProjectStatus(gctx, rows[i].Project.ID)
						mu.Lock()
						defer mu.Unlock()
						if err != nil {
							if errors.Is(err, context.Canceled) {
								return err
							}
							rows[i].Error = err.Error()
							return nil
						}
						rows[i].Status = &st
						return nil
					})
				}
				if err := g.Wait(); err != nil {
					return nil, err
				}
			}
			for i := range rows {
				rows[i].Stage = summaryStage(rows[i].Project, rows[i].Status)
			}
			sort.SliceStable(rows, func(i, j int) bool {
				return rows[i].Project.UpdatedAt > rows[j].Project.UpdatedAt
			})
			out = rows
			return nil, nil
		})
	})
	if err != nil {
		return nil, err
	}
	f.cacheSummaries(ctx, out)
	return out, nil
}

func (f *Flow) cacheSummaries(ctx context.Context, rows []Summary) {
	if f.store == nil {
		return
	}
	for _, r := range rows {
		if r.Project.ID == "" {
			continue
		}
		cp := store.Project{
			ID:     r.Project.ID,
			Name:   r.Project.Name,
			Status: r.Project.Status,
			Stage:  string(r.Stage),
		}
		if existing, err := f.store.GetProject(ctx, r.Project.ID); err == nil {
			cp.JobID = existing.JobID
			cp.Payload = existing.Payload
		}
		if err := f.store.UpsertProject(ctx, cp); err != nil {
			f.log.Warn("failed to cache project", "project_id", r.Project.ID, "err", err)
		}
	}
}

// Status fetches the selected project's generation status.
func (f *Flow) Status(ctx context.Context) (api.ProjectStatus, error) {
	p, err := f.current()
	if err != nil {
		return api.ProjectStatus{}, err
	}
	return f.api.ProjectStatus(ctx, p.ID)
}

// CheckConnectivity probes the backend. A network failure marks the client
// offline, which suppresses retry offers for network errors.
func (f *Flow) CheckConnectivity(ctx context.Context) error {
	_, err := f.api.Health(ctx)
	var ae *api.Error
	switch {
	case err == nil:
		f.ops.SetOffline(false)
	case errors.As(err, &ae) && ae.Category == api.CategoryNetwork:
		f.ops.SetOffline(true)
	}
	return err
}
