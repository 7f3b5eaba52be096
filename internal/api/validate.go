package api

import (
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SupportedExtensions lists the source file types the backend ingests.
var SupportedExtensions = []string{".ipynb", ".md", ".py"}

var notBlank = validation.By(func(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("quibo.blank", "cannot be blank")
	}
	return nil
})

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (r CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, notBlank, validation.Length(1, 100)),
	)
}

func (r UploadRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectName, validation.Required, notBlank, validation.Length(1, 100)),
		validation.Field(&r.Files, validation.Required, validation.By(func(value any) error {
			for _, f := range value.([]UploadFile) {
				if strings.TrimSpace(f.Name) == "" {
					return validation.NewError("quibo.upload.file_name", "every file needs a name")
				}
				if !supported(f.Name) {
					return validation.NewError("quibo.upload.file_type",
						"unsupported file type "+filepath.Ext(f.Name)+" (supported: "+strings.Join(SupportedExtensions, ", ")+")")
				}
			}
			return nil
		})),
	)
}

func (r ProcessRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectName, validation.Required, notBlank),
		validation.Field(&r.ModelName, validation.Required, notBlank),
		validation.Field(&r.FilePaths, validation.Required),
	)
}

func (r OutlineRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectName, validation.Required, notBlank),
		validation.Field(&r.ModelName, validation.Required, notBlank),
		validation.Field(&r.NotebookHash, validation.When(r.MarkdownHash == "",
			validation.Required.Error("a notebook or markdown content hash is required"))),
		validation.Field(&r.LengthPreference, validation.In(LengthAuto, LengthShort, LengthMedium, LengthLong, LengthCustom)),
		validation.Field(&r.CustomLength,
			validation.When(r.LengthPreference == LengthCustom, validation.Required, validation.Min(100), validation.Max(20000)),
			validation.When(r.LengthPreference != LengthCustom, validation.Empty.Error("only allowed with the custom length preference")),
		),
		validation.Field(&r.WritingStyle, validation.In(StyleBalanced, StyleConcise, StyleComprehensive)),
	)
}

func (r RegenerateOutlineRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectName, validation.Required, notBlank),
		validation.Field(&r.FeedbackContent, validation.Required, notBlank, validation.Length(1, 5000)),
		validation.Field(&r.FocusArea, validation.In(FocusStructure, FocusContent, FocusFlow, FocusTechnicalLevel)),
	)
}

func validateSectionTuning(maxIterations *int, threshold **float64) []*validation.FieldRules {
	return []*validation.FieldRules{
		validation.Field(maxIterations, validation.Min(0), validation.Max(10)),
		validation.Field(threshold, validation.Min(0.0), validation.Max(1.0)),
	}
}

func (r SectionRequest) Validate() error {
	rules := []*validation.FieldRules{
		validation.Field(&r.ProjectName, validation.Required, notBlank),
		validation.Field(&r.SectionIndex, validation.Min(0)),
	}
	rules = append(rules, validateSectionTuning(&r.MaxIterations, &r.QualityThreshold)...)
	return validation.ValidateStruct(&r, rules...)
}

func (r RegenerateSectionRequest) Validate() error {
	rules := []*validation.FieldRules{
		validation.Field(&r.ProjectName, validation.Required, notBlank),
		validation.Field(&r.JobID, validation.Required, notBlank),
		validation.Field(&r.SectionIndex, validation.Min(0)),
		validation.Field(&r.Feedback, validation.Required, notBlank),
	}
	rules = append(rules, validateSectionTuning(&r.MaxIterations, &r.QualityThreshold)...)
	return validation.ValidateStruct(&r, rules...)
}

func (r CompileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectName, validation.Required, notBlank),
		validation.Field(&r.JobID, validation.Required, notBlank),
	)
}

func (r RefineRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectName, validation.Required, notBlank),
		validation.Field(&r.JobID, validation.Required, notBlank),
		validation.Field(&r.CompiledDraft, validation.Required, notBlank),
		validation.Field(&r.SelectedTitleIndex, validation.Min(0)),
		validation.Field(&r.CustomTitle, validation.When(r.SelectedTitleIndex != nil,
			validation.Empty.Error("cannot be combined with selectedTitleIndex"))),
		validation.Field(&r.TitleConfig),
	)
}

func (c TitleConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.NumTitles, validation.Min(1), validation.Max(10)),
	)
}

func (r SocialRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectName, validation.Required, notBlank),
	)
}

func (m Milestone) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ProjectID, validation.Required, notBlank),
		validation.Field(&m.Type, validation.Required, validation.In(
			MilestoneFilesUploaded, MilestoneOutlineGenerated, MilestoneDraftCompleted,
			MilestoneBlogRefined, MilestoneSocialGenerated)),
		validation.Field(&m.Data, validation.NotNil),
	)
}
