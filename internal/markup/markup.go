// Package markup renders note bodies for the HTML pages.
package markup

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
)

// Goldmark drops raw HTML unless WithUnsafe is set, so user text cannot
// inject markup into the saved page.
var md = goldmark.New()

// Render converts a Markdown note body into HTML. On conversion failure the
// escaped source text is returned.
func Render(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text)) //nolint:gosec // escaped above
	}
	return template.HTML(buf.String()) //nolint:gosec // goldmark omits raw HTML
}
