package search

import (
	"html/template"
	"io"
)

// EmptyMessage is shown when a query matches nothing
const EmptyMessage = "No related articles found"

var resultsTmpl = template.Must(template.New("results").Parse(
	`{{- range . -}}
<a href="{{.URL}}" class="search-result-item"><h4>{{.Title}}</h4><p>{{.Snippet}}</p></a>
{{- else -}}
<div class="search-result-item"><h4>` + EmptyMessage + `</h4></div>
{{- end -}}`))

type renderedMatch struct {
	Title   string
	URL     string
	Snippet template.HTML
}

// RenderHTML writes the result list markup the theme's search overlay
// displays. Snippets are already escaped and are written as is.
func RenderHTML(w io.Writer, matches []Match) error {
	items := make([]renderedMatch, len(matches))
	for i, m := range matches {
		items[i] = renderedMatch{
			Title:   m.Title,
			URL:     m.URL,
			Snippet: template.HTML(m.Snippet), //nolint:gosec // '<' escaped by Snippet
		}
	}
	return resultsTmpl.Execute(w, items)
}
