// Package templates holds the templ components of the web client: layout,
// components and pages. This package renders workout descriptions.
package templates

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

var mdRenderer = goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()))

// Markdown renders a workout description to HTML. Raw HTML in the source is
// omitted, so the result is safe to write unescaped.
func Markdown(source string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(source), &buf); err != nil {
		return "<p>" + html.EscapeString(source) + "</p>"
	}
	return buf.String()
}
