package export

import (
	"bytes"
	"html/template"
	"time"
)

// SafeHTML marks a string as safe HTML for template injection.
func SafeHTML(s interface{}) template.HTML {
	switch v := s.(type) {
	case string:
		return template.HTML(v)
	case template.HTML:
		return v
	default:
		return template.HTML("")
	}
}

var documentTemplate = template.Must(template.New("document").Funcs(template.FuncMap{
	"safeHTML": SafeHTML,
}).Parse(documentTemplateHTML))

// TemplateData holds data for document template rendering
type TemplateData struct {
	Title       string
	ContentHTML template.HTML
	Author      string
	UpdatedAt   time.Time
	Mode        string
	Issues      []TemplateIssue
}

// TemplateIssue holds one analysis finding for the appendix
type TemplateIssue struct {
	Text       string
	Suggestion string
	Reason     string
	Severity   string
}

// RenderDocumentHTML renders the document template with provided data
func RenderDocumentHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const documentTemplateHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #0d7a5f; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    mark.hl-high { background: #fecaca; }
    mark.hl-medium { background: #fef08a; }
    mark.hl-low { background: #bfdbfe; }
    .issue { background: #f5f5f5; padding: 1rem; margin: 1rem 0; border-left: 3px solid #999; }
    .issue.high { border-left-color: #dc2626; }
    .issue.medium { border-left-color: #ca8a04; }
    .issue.low { border-left-color: #2563eb; }
    .issue .severity { text-transform: uppercase; font-size: 0.75em; color: #666; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">{{.Author}} | {{.UpdatedAt.Format "Jan 2, 2006"}}{{if .Mode}} | {{.Mode}} review{{end}}</div>
  <div>{{.ContentHTML | safeHTML}}</div>
  {{if .Issues}}
  <h2>Inclusivity findings</h2>
  {{range .Issues}}
  <div class="issue {{.Severity}}">
    <div class="severity">{{.Severity}}</div>
    <p><strong>&ldquo;{{.Text}}&rdquo;</strong> &rarr; {{.Suggestion}}</p>
    <p>{{.Reason}}</p>
  </div>
  {{end}}
  {{end}}
</body>
</html>`
