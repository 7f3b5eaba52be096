package publish

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Export formats.
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

type ExportOptions struct {
	// Dir receives the files; it is created if missing.
	Dir string
	// Name is the file stem. Derived from the post title when empty.
	Name      string
	Formats   []string
	Overwrite bool
	// Social also writes <name>.social.md when the post has a social pack.
	Social bool
}

type ExportResult struct {
	Written []string `json:"written"`
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug makes a lowercase file-name-safe stem.
func Slug(s string) string {
	s = strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(s) > 60 {
		s = strings.TrimRight(s[:60], "-")
	}
	if s == "" {
		return "post"
	}
	return s
}

// Export writes the post in each requested format and stops at the first error.
func Export(p Post, opt ExportOptions) (ExportResult, error) {
	dir := strings.TrimSpace(opt.Dir)
	if dir == "" {
		return ExportResult{}, errors.New("missing --to")
	}
	if strings.TrimSpace(p.Body) == "" {
		return ExportResult{}, errors.New("nothing to export: the project has no draft yet")
	}
	dir = filepath.Clean(dir)
	name := strings.TrimSpace(opt.Name)
	if name == "" {
		name = Slug(p.Title)
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = []string{FormatMarkdown}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ExportResult{}, err
	}

	var res ExportResult
	for _, f := range formats {
		var (
			content string
			err     error
		)
		switch strings.ToLower(strings.TrimSpace(f)) {
		case FormatMarkdown, "markdown":
			f, content = FormatMarkdown, Markdown(p)
		case FormatHTML:
			f = FormatHTML
			content, err = HTML(p)
		default:
			return res, fmt.Errorf("unknown export format: %s (supported: md, html)", f)
		}
		if err != nil {
			return res, err
		}
		path := filepath.Join(dir, name+"."+f)
		if err := writeFile(path, []byte(content), opt.Overwrite); err != nil {
			return res, err
		}
		res.Written = append(res.Written, path)
	}
	if opt.Social {
		if md := SocialMarkdown(p.Social); md != "" {
			path := filepath.Join(dir, name+".social.md")
			if err := writeFile(path, []byte(md), opt.Overwrite); err != nil {
				return res, err
			}
			res.Written = append(res.Written, path)
		}
	}
	return res, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
