package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func seg(s string) string { return url.PathEscape(s) }

// Health reports the backend's health payload.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.getJSON(ctx, "/health", nil, &out)
	return out, err
}

// ListProjects lists projects, optionally filtered by status (active, archived, deleted).
func (c *Client) ListProjects(ctx context.Context, status string) (ProjectList, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {status}}
	}
	var out ProjectList
	err := c.getJSON(ctx, "/api/v2/projects", q, &out)
	return out, err
}

func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (CreateProjectResponse, error) {
	var out CreateProjectResponse
	if err := asValidationError(req.Validate()); err != nil {
		return out, err
	}
	err := c.postJSON(ctx, "/api/v2/projects", req, &out)
	return out, err
}

func (c *Client) GetProject(ctx context.Context, id string) (ProjectDetail, error) {
	var out ProjectDetail
	err := c.getJSON(ctx, "/api/v2/projects/"+seg(id), nil, &out)
	return out, err
}

// DeleteProject archives a project, or removes it when permanent is set.
func (c *Client) DeleteProject(ctx context.Context, id string, permanent bool) error {
	var q url.Values
	if permanent {
		q = url.Values{"permanent": {strconv.FormatBool(true)}}
	}
	return c.do(ctx, http.MethodDelete, "/api/v2/projects/"+seg(id), q, nil, nil)
}

func (c *Client) ProjectStatus(ctx context.Context, id string) (ProjectStatus, error) {
	var out ProjectStatus
	err := c.getJSON(ctx, "/project_status/"+seg(id), nil, &out)
	return out, err
}

func (c *Client) Resume(ctx context.Context, id string) (ResumeState, error) {
	var out ResumeState
	err := c.getJSON(ctx, "/resume/"+seg(id), nil, &out)
	return out, err
}

// Upload sends source files as multipart form data and creates the project.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (UploadResponse, error) {
	var out UploadResponse
	if err := asValidationError(req.Validate()); err != nil {
		return out, err
	}
	fields := map[string]string{"model_name": req.ModelName, "persona": req.Persona}
	err := c.postMultipart(ctx, "/upload/"+seg(req.ProjectName), req.Files, fields, &out)
	return out, err
}

func (c *Client) ProcessFiles(ctx context.Context, req ProcessRequest) (ProcessResponse, error) {
	var out ProcessResponse
	if err := asValidationError(req.Validate()); err != nil {
		return out, err
	}
	err := c.postJSON(ctx, "/process_files/"+seg(req.ProjectName), req, &out)
	return out, err
}

func (c *Client) GenerateOutline(ctx context.Context, req OutlineRequest) (OutlineResponse, error) {
	var out OutlineResponse
	if err := asValidationError(req.Validate()); err != nil {
		return out, err
	}
	err := c.postJSON(ctx, "/generate_outline/"+seg(req.ProjectName), req, &out)
	return out, err
}

func (c *Client) RegenerateOutline(ctx context.Context, req RegenerateOutlineRequest) (RegenerateOutlineResponse, error) {
	var out RegenerateOutlineResponse
	if err := asValidationError(req.Validate()); err != nil {
		return out, err
	}
	err := c.postJSON(ctx, "/api/v2/projects/"+seg(req.ProjectName)+"/outline/regenerate", req, &out)
	return out, err
}

func (c *Client) OutlineVersions(ctx context.Context, projectName string) (OutlineVersions, error) {
	var out OutlineVersions
	err := c.getJSON(ctx, "/api/v2/projects/"+seg(projectName)+"/outline/versions", nil, &out)
	return out, err
}

func (c *Client) GenerateSection(ctx context.Context, req SectionRequest) (SectionResponse, error) {
	var out SectionResponse
	if err := asValidationError(req.Validate()); err != nil {
		return out, err
	}
	err := c.postJSON(ctx, "/generate_section/"+seg(req.ProjectName), req, &out)
	return out, err
}

func (c *Client) RegenerateSection(ctx context.Context, req RegenerateSectionRequest) (SectionResponse, error) {
	var out SectionResponse
	if err := asValidationError(req.Validate()); err != nil {
		return out, err
	}
	err := c.postJSON(ctx, "/regenerate_section_with_feedback/"+seg(req.ProjectName), req, &out)
	return out, err
}

func (c *Client) CompileDraft(ctx context.Context, req CompileRequest) (CompileResponse, error) {
	var out CompileResponse
	if err := asValidationError(req.Validate()); err != nil {
		return out, err
	}
	err := c.postJSON(ctx, "/compile_draft/"+seg(req.ProjectName), req, &out)
	return out, err
}

func (c *Client) RefineBlog(ctx context.Context, req RefineRequest) (RefineResponse, error) {
	var out RefineResponse
	if err := asValidationError(req.Validate()); err != nil {
		return out, err
	}
	err := c.postJSON(ctx, "/refine_blog/"+seg(req.ProjectName), req, &out)
	return out, err
}

func (c *Client) GenerateSocial(ctx context.Context, req SocialRequest) (SocialResponse, error) {
	var out SocialResponse
	if err := asValidationError(req.Validate()); err != nil {
		return out, err
	}
	err := c.postJSON(ctx, "/generate_social_content/"+seg(req.ProjectName), req, &out)
	return out, err
}

// SaveMilestone records workflow output, such as a user-edited outline, on the backend.
func (c *Client) SaveMilestone(ctx context.Context, m Milestone) (MilestoneResponse, error) {
	var out MilestoneResponse
	if err := asValidationError(m.Validate()); err != nil {
		return out, err
	}
	err := c.postJSON(ctx, "/api/v2/projects/"+seg(m.ProjectID)+"/milestones", m, &out)
	return out, err
}

func (c *Client) Personas(ctx context.Context) (Personas, error) {
	var out Personas
	err := c.getJSON(ctx, "/personas", nil, identifierKeys{&out})
	return out, err
}

func (c *Client) Models(ctx context.Context) (Models, error) {
	var out Models
	err := c.getJSON(ctx, "/models", nil, &out)
	return out, err
}
