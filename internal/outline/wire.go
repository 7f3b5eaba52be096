package outline

import (
	"fmt"
	"sort"
	"strings"
)

// FromWire builds a Document from a backend outline payload whose keys have
// already been converted to camelCase. The backend sends subsections as plain
// strings and never sends ids; ids are assigned here. Prerequisites arrive
// either as a list or as {requiredKnowledge, recommendedTools, setupInstructions}.
// Section order hints, when present, are applied once here and then dropped.
func FromWire(raw map[string]any) Document {
	d := Document{
		Title:             str(raw["title"]),
		LearningGoals:     strList(raw["learningGoals"]),
		EstimatedReadTime: firstNonEmpty(str(raw["estimatedReadTime"]), str(raw["estimatedTime"])),
		DifficultyLevel:   str(raw["difficultyLevel"]),
		Introduction:      str(raw["introduction"]),
		Conclusion:        str(raw["conclusion"]),
	}
	switch p := raw["prerequisites"].(type) {
	case []any:
		d.Prerequisites = strList(p)
	case map[string]any:
		for _, k := range []string{"requiredKnowledge", "recommendedTools", "setupInstructions"} {
			d.Prerequisites = append(d.Prerequisites, strList(p[k])...)
		}
	}

	secs, _ := raw["sections"].([]any)
	type ordered struct {
		sec   Section
		order int
		has   bool
		pos   int
	}
	tmp := make([]ordered, 0, len(secs))
	for pos, s := range secs {
		m, ok := s.(map[string]any)
		if !ok {
			if title := str(s); title != "" {
				m = map[string]any{"title": title}
			} else {
				continue
			}
		}
		sec := Section{
			ID:            str(m["id"]),
			Title:         str(m["title"]),
			Description:   firstNonEmpty(str(m["description"]), str(m["summary"])),
			LearningGoals: strList(m["learningGoals"]),
			IncludeCode:   boolean(m["includeCode"]),
		}
		if subs, ok := m["subsections"].([]any); ok {
			sec.Subsections = make([]Subsection, 0, len(subs))
			for _, x := range subs {
				switch v := x.(type) {
				case string:
					sec.Subsections = append(sec.Subsections, Subsection{Title: strings.TrimSpace(v)})
				case map[string]any:
					sec.Subsections = append(sec.Subsections, Subsection{
						ID:          str(v["id"]),
						Title:       str(v["title"]),
						Description: str(v["description"]),
					})
				}
			}
		}
		o := ordered{sec: sec, pos: pos}
		if n, ok := number(m["order"]); ok {
			o.order, o.has = n, true
		}
		tmp = append(tmp, o)
	}
	sort.SliceStable(tmp, func(i, j int) bool {
		a, b := tmp[i], tmp[j]
		if a.has && b.has {
			return a.order < b.order
		}
		if a.has != b.has {
			return a.has
		}
		return a.pos < b.pos
	})
	for _, o := range tmp {
		d.Sections = append(d.Sections, o.sec)
	}
	return Normalize(d)
}

// Normalize assigns ids to entities that lack one (or share one) and drops
// order hints.
func Normalize(d Document) Document {
	out := d.Clone()
	seen := map[string]bool{}
	for i := range out.Sections {
		sec := &out.Sections[i]
		sec.Order = nil
		if sec.ID == "" || seen[sec.ID] {
			sec.ID = uniqueID("sec", func(id string) bool { return seen[id] || out.sectionIndex(id) >= 0 })
		}
		seen[sec.ID] = true

		subSeen := map[string]bool{}
		for j := range sec.Subsections {
			sub := &sec.Subsections[j]
			if sub.ID == "" || subSeen[sub.ID] {
				sub.ID = uniqueID("sub", func(id string) bool { return subSeen[id] || sec.subsectionIndex(id) >= 0 })
			}
			subSeen[sub.ID] = true
		}
	}
	return out
}

// ToWire renders the document in the backend's outline shape (camelCase keys;
// the API layer converts them to snake_case).
func ToWire(d Document) map[string]any {
	sections := make([]any, 0, len(d.Sections))
	for _, s := range d.Sections {
		subs := make([]any, 0, len(s.Subsections))
		for _, sub := range s.Subsections {
			subs = append(subs, sub.Title)
		}
		m := map[string]any{
			"title":       s.Title,
			"subsections": subs,
		}
		if s.Description != "" {
			m["description"] = s.Description
		}
		if len(s.LearningGoals) > 0 {
			m["learningGoals"] = toAny(s.LearningGoals)
		}
		if s.IncludeCode {
			m["includeCode"] = true
		}
		sections = append(sections, m)
	}
	out := map[string]any{
		"title":    d.Title,
		"sections": sections,
	}
	if len(d.Prerequisites) > 0 {
		out["prerequisites"] = toAny(d.Prerequisites)
	}
	if len(d.LearningGoals) > 0 {
		out["learningGoals"] = toAny(d.LearningGoals)
	}
	if d.EstimatedReadTime != "" {
		out["estimatedReadTime"] = d.EstimatedReadTime
	}
	if d.DifficultyLevel != "" {
		out["difficultyLevel"] = d.DifficultyLevel
	}
	if d.Introduction != "" {
		out["introduction"] = d.Introduction
	}
	if d.Conclusion != "" {
		out["conclusion"] = d.Conclusion
	}
	return out
}

// Validate checks structural invariants: a title, unique section ids, and
// subsection ids unique within their section.
func Validate(d Document) error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("outline title is empty")
	}
	seen := map[string]bool{}
	for _, s := range d.Sections {
		if s.ID == "" {
			return fmt.Errorf("section %q has no id", s.Title)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate section id: %s", s.ID)
		}
		seen[s.ID] = true
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("section %s has an empty title", s.ID)
		}
		subSeen := map[string]bool{}
		for _, sub := range s.Subsections {
			if sub.ID == "" || subSeen[sub.ID] {
				return fmt.Errorf("section %s: missing or duplicate subsection id %q", s.ID, sub.ID)
			}
			subSeen[sub.ID] = true
		}
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func boolean(v any) bool {
	b, _ := v.(bool)
	return b
}

func number(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func strList(v any) []string {
	xs, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if s := str(x); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toAny(xs []string) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func firstNonEmpty(xs ...string) string {
	for _, x := range xs {
		if x != "" {
			return x
		}
	}
	return ""
}
