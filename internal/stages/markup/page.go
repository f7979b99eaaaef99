package markup

import (
	"bytes"
	"errors"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates a page that opens front matter but never closes it.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// FrontMatter holds the page fields the markup stage understands.
type FrontMatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Lang        string `yaml:"lang"`
}

// splitFrontMatter separates `---` delimited YAML front matter from the body.
func splitFrontMatter(content []byte) (raw, body []byte, err error) {
	nl := "\n"
	if bytes.HasPrefix(content, []byte("---\r\n")) {
		nl = "\r\n"
	}
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, nil
	}
	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return nil, rest[len(open):], nil
	}
	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], nil
}

var pageMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{ .Lang }}">
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
{{- if .Description }}
<meta name="description" content="{{ .Description }}">
{{- end }}
</head>
<body>
{{ .Body }}
</body>
</html>
`))

// renderMarkdownPage turns a markdown page into a standalone HTML document.
func renderMarkdownPage(content []byte, fallbackTitle string) ([]byte, error) {
	raw, body, err := splitFrontMatter(content)
	if err != nil {
		return nil, err
	}
	var fm FrontMatter
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &fm); err != nil {
			return nil, err
		}
	}
	if fm.Title == "" {
		fm.Title = fallbackTitle
	}
	if fm.Lang == "" {
		fm.Lang = "en"
	}

	var rendered bytes.Buffer
	if err := pageMarkdown.Convert(body, &rendered); err != nil {
		return nil, err
	}

	var page bytes.Buffer
	err = pageTemplate.Execute(&page, struct {
		FrontMatter
		Body template.HTML
	}{fm, template.HTML(strings.TrimSpace(rendered.String()))}) //nolint:gosec // rendered from the project's own sources
	if err != nil {
		return nil, err
	}
	return page.Bytes(), nil
}
