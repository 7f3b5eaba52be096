package api

// Field names below are the client's camelCase names; the backend's
// snake_case names are produced by key conversion on the wire.

type Health struct {
	Status string `json:"status"`
}

func (h Health) OK() bool { return h.Status == "ok" }

// Project is a row in the project list.
type Project struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    string         `json:"status,omitempty"`
	CreatedAt string         `json:"createdAt,omitempty"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Progress  float64        `json:"progress,omitempty"`
	TotalCost float64        `json:"totalCost,omitempty"`
	// CurrentStage is the backend's authoritative workflow stage when present.
	CurrentStage string `json:"currentStage,omitempty"`
}

type ProjectList struct {
	Status   string    `json:"status"`
	Projects []Project `json:"projects"`
	Count    int       `json:"count"`
}

type CreateProjectRequest struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type CreateProjectResponse struct {
	Status    string `json:"status"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Message   string `json:"message"`
}

type ProgressInfo struct {
	Percentage float64        `json:"percentage"`
	Milestones map[string]any `json:"milestones,omitempty"`
	Sections   map[string]any `json:"sections,omitempty"`
}

// ProjectDetail is the response of GET /api/v2/projects/{id}.
type ProjectDetail struct {
	Status      string         `json:"status"`
	Project     Project        `json:"project"`
	Progress    ProgressInfo   `json:"progress"`
	CostSummary map[string]any `json:"costSummary,omitempty"`
	Milestones  map[string]any `json:"milestones,omitempty"`
	Sections    []any          `json:"sections,omitempty"`
	NextStep    string         `json:"nextStep,omitempty"`
}

// ProjectStatus summarizes generation progress for a project.
type ProjectStatus struct {
	ProjectID         string         `json:"projectId"`
	ProjectName       string         `json:"projectName"`
	TotalSections     int            `json:"totalSections"`
	CompletedSections int            `json:"completedSections"`
	MissingSections   []int          `json:"missingSections"`
	HasOutline        bool           `json:"hasOutline"`
	HasFinalDraft     bool           `json:"hasFinalDraft"`
	HasRefinedDraft   bool           `json:"hasRefinedDraft"`
	OutlineTitle      string         `json:"outlineTitle"`
	Outline           map[string]any `json:"outline,omitempty"`
	FinalDraft        string         `json:"finalDraft,omitempty"`
	RefinedDraft      string         `json:"refinedDraft,omitempty"`
	SocialContent     *SocialContent `json:"socialContent,omitempty"`
}

type TitleOption struct {
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

type Tweet struct {
	TweetNumber    int    `json:"tweetNumber"`
	Content        string `json:"content"`
	CharacterCount int    `json:"characterCount,omitempty"`
}

type XThread struct {
	ThreadTopic string  `json:"threadTopic,omitempty"`
	TotalTweets int     `json:"totalTweets,omitempty"`
	Tweets      []Tweet `json:"tweets,omitempty"`
}

type SocialContent struct {
	ContentBreakdown  string   `json:"contentBreakdown,omitempty"`
	LinkedinPost      string   `json:"linkedinPost,omitempty"`
	XPost             string   `json:"xPost,omitempty"`
	XThread           *XThread `json:"xThread,omitempty"`
	NewsletterContent string   `json:"newsletterContent,omitempty"`
}

// Empty reports whether no social artifact was produced.
func (s *SocialContent) Empty() bool {
	return s == nil || (s.ContentBreakdown == "" && s.LinkedinPost == "" && s.XPost == "" && s.NewsletterContent == "" && s.XThread == nil)
}

// GeneratedSection is one drafted section as stored by the backend.
type GeneratedSection struct {
	Title             string `json:"title,omitempty"`
	SectionTitle      string `json:"sectionTitle,omitempty"`
	Content           string `json:"content,omitempty"`
	SectionContent    string `json:"sectionContent,omitempty"`
	ImagePlaceholders []any  `json:"imagePlaceholders,omitempty"`
}

// Heading returns whichever title field the backend filled.
func (g GeneratedSection) Heading() string {
	if g.SectionTitle != "" {
		return g.SectionTitle
	}
	return g.Title
}

// Body returns whichever content field the backend filled.
func (g GeneratedSection) Body() string {
	if g.SectionContent != "" {
		return g.SectionContent
	}
	return g.Content
}

// ResumeState is everything needed to rehydrate a project session.
type ResumeState struct {
	ProjectID         string                      `json:"projectId"`
	ProjectName       string                      `json:"projectName"`
	ModelName         string                      `json:"modelName,omitempty"`
	Persona           string                      `json:"persona,omitempty"`
	SpecificModel     string                      `json:"specificModel,omitempty"`
	Outline           map[string]any              `json:"outline,omitempty"`
	OutlineHash       string                      `json:"outlineHash,omitempty"`
	FinalDraft        string                      `json:"finalDraft,omitempty"`
	RefinedDraft      string                      `json:"refinedDraft,omitempty"`
	Summary           string                      `json:"summary,omitempty"`
	TitleOptions      []TitleOption               `json:"titleOptions,omitempty"`
	SocialContent     *SocialContent              `json:"socialContent,omitempty"`
	GeneratedSections map[string]GeneratedSection `json:"generatedSections,omitempty"`
	CostSummary       map[string]any              `json:"costSummary,omitempty"`
	CurrentStage      string                      `json:"currentStage,omitempty"`
	Progress          float64                     `json:"progress,omitempty"`
}

type UploadRequest struct {
	ProjectName string
	Files       []UploadFile
	ModelName   string
	Persona     string
}

type UploadResponse struct {
	Message     string `json:"message"`
	ProjectName string `json:"projectName"`
	ProjectID   string `json:"projectId"`
	// JobID is an alias of ProjectID kept by the backend for older clients.
	JobID string   `json:"jobId,omitempty"`
	Files []string `json:"files"`
}

type ProcessRequest struct {
	ProjectName string   `json:"-"`
	ModelName   string   `json:"modelName"`
	FilePaths   []string `json:"filePaths"`
}

type ProcessResponse struct {
	Message         string            `json:"message"`
	Project         string            `json:"project"`
	FileHashes      map[string]string `json:"fileHashes"`
	DurationSeconds float64           `json:"durationSeconds,omitempty"`
}

// Length preferences accepted by outline generation.
const (
	LengthAuto   = "auto"
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
	LengthCustom = "custom"
)

// Writing styles accepted by outline generation.
const (
	StyleBalanced      = "balanced"
	StyleConcise       = "concise"
	StyleComprehensive = "comprehensive"
)

type OutlineRequest struct {
	ProjectName      string `json:"-"`
	ModelName        string `json:"modelName"`
	NotebookHash     string `json:"notebookHash,omitempty"`
	MarkdownHash     string `json:"markdownHash,omitempty"`
	UserGuidelines   string `json:"userGuidelines,omitempty"`
	LengthPreference string `json:"lengthPreference,omitempty"`
	CustomLength     int    `json:"customLength,omitempty"`
	WritingStyle     string `json:"writingStyle,omitempty"`
	PersonaStyle     string `json:"personaStyle,omitempty"`
	SpecificModel    string `json:"specificModel,omitempty"`
}

type OutlineResponse struct {
	ProjectID       string         `json:"projectId"`
	Outline         map[string]any `json:"outline"`
	CostSummary     map[string]any `json:"costSummary,omitempty"`
	DurationSeconds float64        `json:"durationSeconds,omitempty"`
}

// Outline feedback focus areas.
const (
	FocusStructure      = "structure"
	FocusContent        = "content"
	FocusFlow           = "flow"
	FocusTechnicalLevel = "technical_level"
)

type RegenerateOutlineRequest struct {
	ProjectName       string `json:"-"`
	FeedbackContent   string `json:"feedbackContent"`
	FocusArea         string `json:"focusArea,omitempty"`
	PreviousVersionID string `json:"previousVersionId,omitempty"`
	ModelName         string `json:"modelName,omitempty"`
	SpecificModel     string `json:"specificModel,omitempty"`
}

type VersionInfo struct {
	VersionNumber int    `json:"versionNumber"`
	VersionID     string `json:"versionId"`
	TotalVersions int    `json:"totalVersions"`
	IsLatest      bool   `json:"isLatest"`
}

type RegenerateOutlineResponse struct {
	Status          string         `json:"status"`
	ProjectID       string         `json:"projectId"`
	ProjectName     string         `json:"projectName"`
	Outline         map[string]any `json:"outline"`
	VersionInfo     VersionInfo    `json:"versionInfo"`
	CostSummary     map[string]any `json:"costSummary,omitempty"`
	DurationSeconds float64        `json:"durationSeconds,omitempty"`
}

type OutlinePreview struct {
	Title            string `json:"title"`
	SectionCount     int    `json:"sectionCount"`
	DifficultyLevel  string `json:"difficultyLevel,omitempty"`
	HasPrerequisites bool   `json:"hasPrerequisites"`
}

type OutlineVersion struct {
	VersionID      string          `json:"versionId"`
	VersionNumber  int             `json:"versionNumber"`
	CreatedAt      string          `json:"createdAt,omitempty"`
	OutlineHash    string          `json:"outlineHash,omitempty"`
	ModelUsed      string          `json:"modelUsed,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
	OutlinePreview *OutlinePreview `json:"outlinePreview,omitempty"`
}

type OutlineVersions struct {
	Status        string           `json:"status"`
	ProjectID     string           `json:"projectId"`
	ProjectName   string           `json:"projectName"`
	Versions      []OutlineVersion `json:"versions"`
	TotalVersions int              `json:"totalVersions"`
}

type SectionRequest struct {
	ProjectName      string   `json:"-"`
	ProjectID        string   `json:"projectId,omitempty"`
	SectionIndex     int      `json:"sectionIndex"`
	MaxIterations    int      `json:"maxIterations,omitempty"`
	QualityThreshold *float64 `json:"qualityThreshold,omitempty"`
}

type RegenerateSectionRequest struct {
	ProjectName      string   `json:"-"`
	JobID            string   `json:"jobId"`
	SectionIndex     int      `json:"sectionIndex"`
	Feedback         string   `json:"feedback"`
	MaxIterations    int      `json:"maxIterations,omitempty"`
	QualityThreshold *float64 `json:"qualityThreshold,omitempty"`
}

type SectionResponse struct {
	ProjectID         string         `json:"projectId"`
	SectionTitle      string         `json:"sectionTitle"`
	SectionContent    string         `json:"sectionContent"`
	ImagePlaceholders []any          `json:"imagePlaceholders,omitempty"`
	SectionIndex      int            `json:"sectionIndex"`
	WasCached         bool           `json:"wasCached"`
	CostSummary       map[string]any `json:"costSummary,omitempty"`
	SectionCost       float64        `json:"sectionCost,omitempty"`
	SectionTokens     int            `json:"sectionTokens,omitempty"`
}

type CompileRequest struct {
	ProjectName string `json:"-"`
	JobID       string `json:"jobId"`
}

type CompileResponse struct {
	JobID            string         `json:"jobId"`
	ProjectID        string         `json:"projectId"`
	Draft            string         `json:"draft"`
	DraftSaved       bool           `json:"draftSaved"`
	SectionsCompiled int            `json:"sectionsCompiled"`
	CostSummary      map[string]any `json:"costSummary,omitempty"`
}

type TitleConfig struct {
	NumTitles  int    `json:"numTitles,omitempty"`
	Guidelines string `json:"guidelines,omitempty"`
}

type RefineRequest struct {
	ProjectName   string       `json:"-"`
	JobID         string       `json:"jobId"`
	CompiledDraft string       `json:"compiledDraft"`
	Persona       string       `json:"persona,omitempty"`
	TitleConfig   *TitleConfig `json:"titleConfig,omitempty"`
	// SelectedTitleIndex and CustomTitle pin the title of the refined post.
	// At most one may be set.
	SelectedTitleIndex *int   `json:"selectedTitleIndex,omitempty"`
	CustomTitle        string `json:"customTitle,omitempty"`
}

type RefineResponse struct {
	JobID             string         `json:"jobId"`
	ProjectID         string         `json:"projectId"`
	RefinedDraft      string         `json:"refinedDraft"`
	Summary           string         `json:"summary"`
	TitleOptions      []TitleOption  `json:"titleOptions"`
	CostSummary       map[string]any `json:"costSummary,omitempty"`
	FormattedDraft    string         `json:"formattedDraft,omitempty"`
	FormattingSkipped bool           `json:"formattingSkipped,omitempty"`
}

type SocialRequest struct {
	ProjectName string `json:"-"`
	ProjectID   string `json:"projectId,omitempty"`
}

type SocialResponse struct {
	ProjectID     string        `json:"projectId"`
	ProjectName   string        `json:"projectName"`
	SocialContent SocialContent `json:"socialContent"`
	BlogCompleted bool          `json:"blogCompleted"`
	WordCount     int           `json:"wordCount,omitempty"`
	TotalCost     float64       `json:"totalCost,omitempty"`
}

type Persona struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Personas maps persona keys to their display info.
type Personas map[string]Persona

// Models is the provider → model catalog; its shape is backend-defined.
type Models map[string]any

// Milestone types recorded against a project.
const (
	MilestoneFilesUploaded    = "files_uploaded"
	MilestoneOutlineGenerated = "outline_generated"
	MilestoneDraftCompleted   = "draft_completed"
	MilestoneBlogRefined      = "blog_refined"
	MilestoneSocialGenerated  = "social_generated"
)

type Milestone struct {
	ProjectID string         `json:"-"`
	Type      string         `json:"type"`
	Data      any            `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type MilestoneResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
