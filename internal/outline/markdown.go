package outline

import (
	"bytes"
	"fmt"
	"strings"
)

// Markdown renders the outline for previews and exports.
func Markdown(d Document) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = "Untitled outline"
	}
	writeLn("# " + title)
	writeLn("")

	var meta []string
	if d.DifficultyLevel != "" {
		meta = append(meta, "Difficulty: "+d.DifficultyLevel)
	}
	if d.EstimatedReadTime != "" {
		meta = append(meta, "Read time: "+d.EstimatedReadTime)
	}
	if len(meta) > 0 {
		writeLn("_" + strings.Join(meta, " · ") + "_")
		writeLn("")
	}
	if len(d.Prerequisites) > 0 {
		writeLn("**Prerequisites**")
		writeLn("")
		for _, p := range d.Prerequisites {
			writeLn("- " + p)
		}
		writeLn("")
	}
	if len(d.LearningGoals) > 0 {
		writeLn("**Learning goals**")
		writeLn("")
		for _, g := range d.LearningGoals {
			writeLn("- " + g)
		}
		writeLn("")
	}
	if d.Introduction != "" {
		writeLn(d.Introduction)
		writeLn("")
	}

	for i, s := range d.Sections {
		writeLn(fmt.Sprintf("## %d. %s", i+1, strings.TrimSpace(s.Title)))
		if s.Description != "" {
			writeLn("")
			writeLn(s.Description)
		}
		if len(s.Subsections) > 0 {
			writeLn("")
			for _, sub := range s.Subsections {
				line := "- " + strings.TrimSpace(sub.Title)
				if sub.Description != "" {
					line += ": " + sub.Description
				}
				writeLn(line)
			}
		}
		writeLn("")
	}

	if d.Conclusion != "" {
		writeLn("## Conclusion")
		writeLn("")
		writeLn(d.Conclusion)
	}
	return strings.TrimRight(buf.String(), "\n") + "\n"
}
