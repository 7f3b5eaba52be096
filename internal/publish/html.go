package publish

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in drafts is not passed through.
var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithXHTML(),
	),
)

// HTMLFragment converts markdown to an HTML fragment.
func HTMLFragment(md string) (string, error) {
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(strings.TrimSpace(md)), &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

var pageTemplate = template.Must(template.New("post").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- if .Summary}}
<meta name="description" content="{{.Summary}}">
{{- end}}
</head>
<body>
<article>
{{.Body}}
</article>
</body>
</html>
`))

// HTML renders the post as a standalone HTML page.
func HTML(p Post) (string, error) {
	frag, err := HTMLFragment(Markdown(p))
	if err != nil {
		return "", err
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = "Untitled post"
	}
	var out bytes.Buffer
	err = pageTemplate.Execute(&out, struct {
		Title   string
		Summary string
		Body    template.HTML
	}{
		Title:   title,
		Summary: strings.TrimSpace(p.Summary),
		// goldmark omits raw HTML unless WithUnsafe is set.
		Body: template.HTML(frag),
	})
	return out.String(), err
}
