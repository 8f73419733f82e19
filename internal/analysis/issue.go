package analysis

import (
	"encoding/json"
	"fmt"
)

// Severity grades how strongly an issue should be surfaced.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func validSeverity(raw string) bool {
	switch Severity(raw) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Issue is one flagged passage. StartIndex/EndIndex are rune offsets derived
// by the span locator against the current document text, never trusted from
// the engine; both are -1 when the flagged text is no longer present.
type Issue struct {
	Text       string   `json:"text"`
	Suggestion string   `json:"suggestion"`
	Reason     string   `json:"reason"`
	Severity   Severity `json:"severity"`
	StartIndex int      `json:"startIndex"`
	EndIndex   int      `json:"endIndex"`
}

// Result is the outcome of one analysis call. It is created fresh per call
// and never mutated afterwards; a re-analysis produces a new Result.
type Result struct {
	Issues []Issue `json:"issues"`
}

// rawIssue is the engine's wire shape before normalization.
type rawIssue struct {
	Text       string `json:"text"`
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
	Severity   string `json:"severity"`
}

// ParseEngineResponse validates the engine's JSON at the boundary. A response
// that is not a JSON object or lacks the issues array is malformed; individual
// bad issues degrade by being dropped instead of failing the batch.
func ParseEngineResponse(data []byte) (*Result, error) {
	var envelope struct {
		Issues json.RawMessage `json:"issues"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if len(envelope.Issues) == 0 || string(envelope.Issues) == "null" {
		return nil, &MalformedResponseError{Reason: "missing issues array"}
	}

	var raw []rawIssue
	if err := json.Unmarshal(envelope.Issues, &raw); err != nil {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("issues is not an array of objects: %v", err)}
	}

	return &Result{Issues: normalizeIssues(raw)}, nil
}

// normalizeIssues converts raw engine issues into the Issue shape. An issue
// missing text or suggestion is dropped on its own; a missing severity
// defaults to low, while an unrecognized severity value drops the issue.
func normalizeIssues(raw []rawIssue) []Issue {
	issues := make([]Issue, 0, len(raw))
	for _, item := range raw {
		if item.Text == "" || item.Suggestion == "" {
			continue
		}
		severity := SeverityLow
		if item.Severity != "" {
			if !validSeverity(item.Severity) {
				continue
			}
			severity = Severity(item.Severity)
		}
		issues = append(issues, Issue{
			Text:       item.Text,
			Suggestion: item.Suggestion,
			Reason:     item.Reason,
			Severity:   severity,
			StartIndex: -1,
			EndIndex:   -1,
		})
	}
	return issues
}
