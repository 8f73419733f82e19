package analysis

import "clearlang/api/internal/richtext"

// LocateIssues fills StartIndex/EndIndex on each issue by finding the flagged
// text inside the document's extracted plain text. Issues whose text cannot
// be found keep -1 offsets; they still appear in the result so the caller can
// list them without a highlight.
func LocateIssues(doc *richtext.Node, issues []Issue) []Issue {
	return LocateIssuesInText(richtext.ExtractText(doc), issues)
}

// LocateIssuesInText is LocateIssues for callers that analyze bare text with
// no document behind it.
func LocateIssuesInText(text string, issues []Issue) []Issue {
	located := make([]Issue, len(issues))
	for i, issue := range issues {
		located[i] = issue
		if span := Locate(text, issue.Text); span != nil {
			located[i].StartIndex = span.Start
			located[i].EndIndex = span.End
		}
	}
	return located
}

// ApplyIssueHighlights clears any highlight marks already on the document and
// re-applies one per locatable issue. Clearing first makes the operation
// idempotent: running it twice over the same issues yields the same tree.
// Each issue is located against a fresh text extraction because applying a
// highlight splits text nodes, and stale segment indexes would misplace later
// spans.
func ApplyIssueHighlights(doc *richtext.Node, issues []Issue) {
	richtext.ClearHighlights(doc)
	for _, issue := range issues {
		text := richtext.ExtractText(doc)
		span := Locate(text, issue.Text)
		if span == nil {
			continue
		}
		richtext.ApplyHighlight(doc, richtext.Span{
			Start:    span.Start,
			End:      span.End,
			Severity: string(issue.Severity),
		})
	}
}
