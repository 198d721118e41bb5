package notifier

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"ipowatch/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// composed holds the per-offering email content, built once and reused
// across every recipient of that offering.
type composed struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// composer renders the final-day email from embedded templates: plain text
// via text/template, the styled body via html/template so offering fields
// scraped from a public page are escaped on the way into markup.
type composer struct {
	html *template.Template
	text *texttemplate.Template
}

func newComposer() (*composer, error) {
	htmlTmpl, err := template.ParseFS(templateFS, "templates/final_day.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing html template: %w", err)
	}
	textTmpl, err := texttemplate.ParseFS(templateFS, "templates/final_day.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing text template: %w", err)
	}
	return &composer{html: htmlTmpl, text: textTmpl}, nil
}

// compose renders subject and both bodies for one offering.
func (c *composer) compose(o types.Offering) (composed, error) {
	subject := fmt.Sprintf("Final Day: %s %s (%s)", o.Type, o.Company, o.Symbol)

	var text strings.Builder
	if err := c.text.Execute(&text, o); err != nil {
		return composed{}, fmt.Errorf("rendering text body: %w", err)
	}
	var html strings.Builder
	if err := c.html.Execute(&html, o); err != nil {
		return composed{}, fmt.Errorf("rendering html body: %w", err)
	}

	return composed{
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
