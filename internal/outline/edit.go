package outline

// All edits take a Document by value and return a new one. Inputs are never
// mutated; a rejected edit returns the input unchanged.

// AddSection appends a placeholder section and returns its id.
func AddSection(d Document) (Document, string) {
	return addSection(d, nil)
}

func addSection(d Document, retired func(string) bool) (Document, string) {
	out := d.Clone()
	id := d.newSectionID(retired)
	out.Sections = append(out.Sections, Section{
		ID:          id,
		Title:       placeholderSectionTitle,
		Description: placeholderSectionDescription,
		Subsections: []Subsection{},
	})
	return out, id
}

// DeleteSection removes the section with id. Sibling ids are untouched.
func DeleteSection(d Document, id string) Document {
	i := d.sectionIndex(id)
	if i < 0 {
		return d
	}
	out := d.Clone()
	out.Sections = append(out.Sections[:i], out.Sections[i+1:]...)
	return out
}

// AddSubsection appends a placeholder subsection to sectionID.
func AddSubsection(d Document, sectionID string) (Document, string, bool) {
	return addSubsection(d, sectionID, nil)
}

func addSubsection(d Document, sectionID string, retired func(string) bool) (Document, string, bool) {
	i := d.sectionIndex(sectionID)
	if i < 0 {
		return d, "", false
	}
	out := d.Clone()
	sec := &out.Sections[i]
	id := sec.newSubsectionID(retired)
	sec.Subsections = append(sec.Subsections, Subsection{
		ID:          id,
		Title:       placeholderSubsectionTitle,
		Description: placeholderSubsectionDesc,
	})
	return out, id, true
}

func DeleteSubsection(d Document, sectionID, subID string) Document {
	i := d.sectionIndex(sectionID)
	if i < 0 {
		return d
	}
	j := d.Sections[i].subsectionIndex(subID)
	if j < 0 {
		return d
	}
	out := d.Clone()
	sec := &out.Sections[i]
	sec.Subsections = append(sec.Subsections[:j], sec.Subsections[j+1:]...)
	return out
}

// ReorderSections moves src to dst's position, shifting the items in between by one.
func ReorderSections(d Document, srcID, dstID string) (Document, bool) {
	from := d.sectionIndex(srcID)
	to := d.sectionIndex(dstID)
	if from < 0 || to < 0 || from == to {
		return d, false
	}
	out := d.Clone()
	out.Sections = moveIndex(out.Sections, from, to)
	return out, true
}

// ReorderSubsections reorders within a single section. Subsections never
// migrate between sections.
func ReorderSubsections(d Document, sectionID, srcID, dstID string) (Document, bool) {
	i := d.sectionIndex(sectionID)
	if i < 0 {
		return d, false
	}
	from := d.Sections[i].subsectionIndex(srcID)
	to := d.Sections[i].subsectionIndex(dstID)
	if from < 0 || to < 0 || from == to {
		return d, false
	}
	out := d.Clone()
	out.Sections[i].Subsections = moveIndex(out.Sections[i].Subsections, from, to)
	return out, true
}

// Move is the drag-and-drop entry point. Cross-kind and cross-parent moves are
// rejected without touching the document.
func Move(d Document, src, dst Ref) (Document, bool) {
	if !src.SameKind(dst) {
		return d, false
	}
	if !src.IsSubsection() {
		return ReorderSections(d, src.Section, dst.Section)
	}
	if !src.SameParent(dst) {
		return d, false
	}
	return ReorderSubsections(d, src.Section, src.Sub, dst.Sub)
}

// Shift moves ref by delta positions among its siblings (keyboard reordering).
func Shift(d Document, ref Ref, delta int) (Document, bool) {
	i := d.sectionIndex(ref.Section)
	if i < 0 || delta == 0 {
		return d, false
	}
	if !ref.IsSubsection() {
		j := i + delta
		if j < 0 || j >= len(d.Sections) {
			return d, false
		}
		return ReorderSections(d, ref.Section, d.Sections[j].ID)
	}
	subs := d.Sections[i].Subsections
	k := d.Sections[i].subsectionIndex(ref.Sub)
	if k < 0 {
		return d, false
	}
	j := k + delta
	if j < 0 || j >= len(subs) {
		return d, false
	}
	return ReorderSubsections(d, ref.Section, ref.Sub, subs[j].ID)
}

// SetField writes value verbatim into one field of one entity.
func SetField(d Document, ref Ref, field Field, value string) (Document, bool) {
	if field != FieldTitle && field != FieldDescription {
		return d, false
	}
	i := d.sectionIndex(ref.Section)
	if i < 0 {
		return d, false
	}
	if !ref.IsSubsection() {
		out := d.Clone()
		sec := &out.Sections[i]
		if field == FieldTitle {
			sec.Title = value
		} else {
			sec.Description = value
		}
		return out, true
	}
	j := d.Sections[i].subsectionIndex(ref.Sub)
	if j < 0 {
		return d, false
	}
	out := d.Clone()
	sub := &out.Sections[i].Subsections[j]
	if field == FieldTitle {
		sub.Title = value
	} else {
		sub.Description = value
	}
	return out, true
}

// Delete removes the entity at ref.
func Delete(d Document, ref Ref) Document {
	if ref.IsSubsection() {
		return DeleteSubsection(d, ref.Section, ref.Sub)
	}
	return DeleteSection(d, ref.Section)
}

func moveIndex[T any](xs []T, from, to int) []T {
	item := xs[from]
	rest := make([]T, 0, len(xs))
	rest = append(rest, xs[:from]...)
	rest = append(rest, xs[from+1:]...)
	out := make([]T, 0, len(xs))
	out = append(out, rest[:to]...)
	out = append(out, item)
	out = append(out, rest[to:]...)
	return out
}
