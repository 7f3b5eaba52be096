package outline

// Document is an editable blog outline. Sequence position is the display and
// generation order; Section.Order is only a hint consumed when a document is
// first loaded from the backend.
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`

	Prerequisites     []string `json:"prerequisites,omitempty"`
	LearningGoals     []string `json:"learningGoals,omitempty"`
	EstimatedReadTime string   `json:"estimatedReadTime,omitempty"`
	DifficultyLevel   string   `json:"difficultyLevel,omitempty"`
	Introduction      string   `json:"introduction,omitempty"`
	Conclusion        string   `json:"conclusion,omitempty"`
}

type Section struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Subsections []Subsection `json:"subsections,omitempty"`
	Order       *int         `json:"order,omitempty"`

	LearningGoals []string `json:"learningGoals,omitempty"`
	IncludeCode   bool     `json:"includeCode,omitempty"`
}

// Subsection ids are unique within their owning section only.
type Subsection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Field names an editable text field.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
)

// Ref addresses a section (Sub empty) or one of its subsections.
type Ref struct {
	Section string `json:"section"`
	Sub     string `json:"sub,omitempty"`
}

func SectionRef(id string) Ref        { return Ref{Section: id} }
func SubRef(sectionID, id string) Ref { return Ref{Section: sectionID, Sub: id} }
func (r Ref) IsSubsection() bool      { return r.Sub != "" }
func (r Ref) IsZero() bool            { return r.Section == "" && r.Sub == "" }
func (r Ref) SameKind(o Ref) bool     { return r.IsSubsection() == o.IsSubsection() }
func (r Ref) SameParent(o Ref) bool   { return r.Section == o.Section }

const (
	placeholderSectionTitle       = "New Section"
	placeholderSectionDescription = "Describe what this section covers."
	placeholderSubsectionTitle    = "New Subsection"
	placeholderSubsectionDesc     = "Describe this subsection."
)

// Clone returns a deep copy.
func (d Document) Clone() Document {
	out := d
	out.Prerequisites = cloneStrings(d.Prerequisites)
	out.LearningGoals = cloneStrings(d.LearningGoals)
	if d.Sections != nil {
		out.Sections = make([]Section, len(d.Sections))
		for i, s := range d.Sections {
			out.Sections[i] = s.clone()
		}
	}
	return out
}

func (s Section) clone() Section {
	out := s
	out.LearningGoals = cloneStrings(s.LearningGoals)
	if s.Subsections != nil {
		out.Subsections = append([]Subsection(nil), s.Subsections...)
	}
	if s.Order != nil {
		v := *s.Order
		out.Order = &v
	}
	return out
}

func cloneStrings(xs []string) []string {
	if xs == nil {
		return nil
	}
	return append([]string(nil), xs...)
}

func (d Document) sectionIndex(id string) int {
	for i := range d.Sections {
		if d.Sections[i].ID == id {
			return i
		}
	}
	return -1
}

func (s Section) subsectionIndex(id string) int {
	for i := range s.Subsections {
		if s.Subsections[i].ID == id {
			return i
		}
	}
	return -1
}

// FindSection returns the section with id.
func (d Document) FindSection(id string) (Section, bool) {
	i := d.sectionIndex(id)
	if i < 0 {
		return Section{}, false
	}
	return d.Sections[i], true
}

// Has reports whether ref points at an existing entity.
func (d Document) Has(ref Ref) bool {
	i := d.sectionIndex(ref.Section)
	if i < 0 {
		return false
	}
	if !ref.IsSubsection() {
		return true
	}
	return d.Sections[i].subsectionIndex(ref.Sub) >= 0
}

// Value returns the current text of field on ref.
func (d Document) Value(ref Ref, field Field) (string, bool) {
	i := d.sectionIndex(ref.Section)
	if i < 0 {
		return "", false
	}
	sec := d.Sections[i]
	if !ref.IsSubsection() {
		switch field {
		case FieldTitle:
			return sec.Title, true
		case FieldDescription:
			return sec.Description, true
		}
		return "", false
	}
	j := sec.subsectionIndex(ref.Sub)
	if j < 0 {
		return "", false
	}
	switch field {
	case FieldTitle:
		return sec.Subsections[j].Title, true
	case FieldDescription:
		return sec.Subsections[j].Description, true
	}
	return "", false
}

// SectionIDs returns section ids in order.
func (d Document) SectionIDs() []string {
	out := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		out = append(out, s.ID)
	}
	return out
}
