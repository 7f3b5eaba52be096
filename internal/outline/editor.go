package outline

import "strings"

// EditState is the in-progress edit of a single field.
type EditState struct {
	Ref      Ref
	Field    Field
	Original string
	Buffer   string
}

// Editor owns an outline document plus transient UI state: at most one field
// mid-edit across the whole document, and an optional drag in progress.
// Every successful mutation replaces the document and calls OnChange.
type Editor struct {
	doc      Document
	onChange func(Document)

	edit *EditState

	dragSrc  *Ref
	dragOver *Ref

	// retired holds refs deleted during this session; new items never reuse them.
	retired map[Ref]bool
}

func NewEditor(doc Document, onChange func(Document)) *Editor {
	return &Editor{doc: doc.Clone(), onChange: onChange, retired: map[Ref]bool{}}
}

// Document returns a copy of the current document.
func (e *Editor) Document() Document { return e.doc.Clone() }

// Replace swaps in a regenerated document and drops all transient state.
func (e *Editor) Replace(doc Document) {
	e.edit = nil
	e.dragSrc = nil
	e.dragOver = nil
	e.set(doc.Clone())
}

func (e *Editor) set(doc Document) {
	e.doc = doc
	if e.edit != nil && !e.doc.Has(e.edit.Ref) {
		e.edit = nil
	}
	if e.onChange != nil {
		e.onChange(e.doc.Clone())
	}
}

func (e *Editor) AddSection() string {
	doc, id := addSection(e.doc, func(id string) bool { return e.retired[SectionRef(id)] })
	e.set(doc)
	return id
}

func (e *Editor) AddSubsection(sectionID string) (string, bool) {
	doc, id, ok := addSubsection(e.doc, sectionID, func(id string) bool {
		return e.retired[SubRef(sectionID, id)]
	})
	if !ok {
		return "", false
	}
	e.set(doc)
	return id, true
}

// Delete removes ref. Deleting an absent id leaves the document (and listeners) alone.
func (e *Editor) Delete(ref Ref) bool {
	if !e.doc.Has(ref) {
		return false
	}
	e.retired[ref] = true
	e.set(Delete(e.doc, ref))
	return true
}

func (e *Editor) Move(src, dst Ref) bool {
	doc, ok := Move(e.doc, src, dst)
	if !ok {
		return false
	}
	e.set(doc)
	return true
}

func (e *Editor) Shift(ref Ref, delta int) bool {
	doc, ok := Shift(e.doc, ref, delta)
	if !ok {
		return false
	}
	e.set(doc)
	return true
}

// Editing returns the active edit, if any.
func (e *Editor) Editing() (EditState, bool) {
	if e.edit == nil {
		return EditState{}, false
	}
	return *e.edit, true
}

// BeginEdit captures the current value of field into the scratch buffer.
// An edit already in progress elsewhere is committed first.
func (e *Editor) BeginEdit(ref Ref, field Field) bool {
	if _, ok := e.doc.Value(ref, field); !ok {
		return false
	}
	if e.edit != nil {
		if e.edit.Ref == ref && e.edit.Field == field {
			return true
		}
		e.Commit()
	}
	// Commit may have changed the document; re-read.
	cur, ok := e.doc.Value(ref, field)
	if !ok {
		return false
	}
	e.edit = &EditState{Ref: ref, Field: field, Original: cur, Buffer: cur}
	return true
}

func (e *Editor) SetBuffer(s string) {
	if e.edit != nil {
		e.edit.Buffer = s
	}
}

// Commit ends the active edit. A trimmed, non-empty buffer is written back; an
// empty or whitespace-only buffer cancels instead. Reports whether the document changed.
func (e *Editor) Commit() bool {
	if e.edit == nil {
		return false
	}
	ed := *e.edit
	e.edit = nil
	v := strings.TrimSpace(ed.Buffer)
	if v == "" || v == ed.Original {
		return false
	}
	doc, ok := SetField(e.doc, ed.Ref, ed.Field, v)
	if !ok {
		return false
	}
	e.set(doc)
	return true
}

// Blur is a focus loss; it commits like an explicit confirm.
func (e *Editor) Blur() bool { return e.Commit() }

func (e *Editor) Cancel() { e.edit = nil }

// DragStart begins a drag from ref.
func (e *Editor) DragStart(ref Ref) bool {
	if !e.doc.Has(ref) {
		return false
	}
	r := ref
	e.dragSrc = &r
	e.dragOver = nil
	return true
}

// DragOver records the hovered drop target. It returns false when dropping on
// ref would be rejected, so callers can render a "no drop" affordance.
func (e *Editor) DragOver(ref Ref) bool {
	if e.dragSrc == nil {
		return false
	}
	r := ref
	e.dragOver = &r
	src := *e.dragSrc
	return src.SameKind(ref) && (!src.IsSubsection() || src.SameParent(ref)) && e.doc.Has(ref)
}

// Drop completes the drag onto the last hovered target.
func (e *Editor) Drop() bool {
	src, dst := e.dragSrc, e.dragOver
	e.dragSrc, e.dragOver = nil, nil
	if src == nil || dst == nil {
		return false
	}
	return e.Move(*src, *dst)
}

func (e *Editor) DragCancel() {
	e.dragSrc, e.dragOver = nil, nil
}

// Dragging returns the drag source and hovered target (zero Ref when none).
func (e *Editor) Dragging() (src Ref, over Ref, ok bool) {
	if e.dragSrc == nil {
		return Ref{}, Ref{}, false
	}
	if e.dragOver != nil {
		over = *e.dragOver
	}
	return *e.dragSrc, over, true
}
