package export

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"

	"clearlang/api/internal/analysis"
	"clearlang/api/internal/richtext"
	"clearlang/api/internal/store"
)

// DocumentSource loads documents for export.
type DocumentSource interface {
	GetDocument(ctx context.Context, id int64) (store.Document, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
}

// Service provides document export functionality
type Service struct {
	source DocumentSource
}

// NewService creates a new export service
func NewService(source DocumentSource) *Service {
	return &Service{source: source}
}

// Export renders the document, highlights included, in the requested format.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	doc, err := s.source.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc.RichContent == "" {
		return nil, ErrContentUnavailable
	}

	tree, err := richtext.Parse(doc.RichContent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}

	author := ""
	if owner, err := s.source.GetUserByID(ctx, doc.UserID); err == nil {
		author = owner.DisplayName
	}

	data := TemplateData{
		Title:       doc.Title,
		ContentHTML: template.HTML(richtext.ToHTML(tree)),
		Author:      author,
		UpdatedAt:   doc.UpdatedAt,
	}
	if doc.AnalysisMode != nil {
		data.Mode = *doc.AnalysisMode
	}
	if req.IncludeIssues && len(doc.AnalysisResult) > 0 {
		data.Issues = issuesFromResult(doc.AnalysisResult)
	}

	html, err := RenderDocumentHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, doc.Title)
	case FormatDOCX:
		return exportDOCX(html, doc.Title)
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(doc.Title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

func issuesFromResult(raw json.RawMessage) []TemplateIssue {
	var result analysis.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	issues := make([]TemplateIssue, 0, len(result.Issues))
	for _, issue := range result.Issues {
		issues = append(issues, TemplateIssue{
			Text:       issue.Text,
			Suggestion: issue.Suggestion,
			Reason:     issue.Reason,
			Severity:   string(issue.Severity),
		})
	}
	return issues
}
