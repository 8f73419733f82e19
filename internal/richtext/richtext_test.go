package richtext

import (
	"strings"
	"testing"
)

func parseDoc(t *testing.T, raw string) *Node {
	t.Helper()
	doc, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "not json", `[]`, `"text"`} {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", raw)
		}
	}
}

func TestExtractText(t *testing.T) {
	doc := parseDoc(t, `{"type":"doc","content":[
		{"type":"heading","attrs":{"level":1},"content":[{"type":"text","text":"Hiring"}]},
		{"type":"paragraph","content":[{"type":"text","text":"First line."},{"type":"hardBreak"},{"type":"text","text":"Second line."}]},
		{"type":"paragraph","content":[{"type":"text","text":"Last."}]}
	]}`)

	got := ExtractText(doc)
	want := "Hiring\nFirst line.\nSecond line.\nLast."
	if got != want {
		t.Errorf("ExtractText = %q, want %q", got, want)
	}
}

func TestExtractTextNestedList(t *testing.T) {
	doc := parseDoc(t, `{"type":"doc","content":[
		{"type":"bulletList","content":[
			{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"alpha"}]}]},
			{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"beta"}]}]}
		]}
	]}`)

	got := ExtractText(doc)
	if !strings.Contains(got, "alpha") || !strings.Contains(got, "beta") {
		t.Fatalf("ExtractText = %q", got)
	}
	if strings.Contains(got, "alphabeta") {
		t.Errorf("list items ran together: %q", got)
	}
}

func TestExtractTextEmpty(t *testing.T) {
	if got := ExtractText(nil); got != "" {
		t.Errorf("ExtractText(nil) = %q", got)
	}
	doc := parseDoc(t, `{"type":"doc"}`)
	if got := ExtractText(doc); got != "" {
		t.Errorf("ExtractText(empty doc) = %q", got)
	}
}

func TestApplyHighlightSplitsTextNode(t *testing.T) {
	doc := parseDoc(t, `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"one two three"}]}]}`)

	ApplyHighlight(doc, Span{Start: 4, End: 7, Severity: "high"})

	para := doc.Content[0]
	if len(para.Content) != 3 {
		t.Fatalf("children = %d, want 3", len(para.Content))
	}
	if para.Content[1].Text != "two" {
		t.Errorf("marked text = %q", para.Content[1].Text)
	}
	if para.Content[1].Marks[0].Attrs["class"] != "hl-high" {
		t.Errorf("class = %v", para.Content[1].Marks[0].Attrs["class"])
	}
	if len(para.Content[0].Marks) != 0 || len(para.Content[2].Marks) != 0 {
		t.Error("neighboring splits picked up marks")
	}
}

func TestApplyHighlightPreservesExistingMarks(t *testing.T) {
	doc := parseDoc(t, `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","marks":[{"type":"italic"}],"text":"emphasized"}]}]}`)

	ApplyHighlight(doc, Span{Start: 0, End: 10, Severity: "low"})

	node := doc.Content[0].Content[0]
	if len(node.Marks) != 2 {
		t.Fatalf("marks = %+v, want italic plus highlight", node.Marks)
	}
	if node.Marks[0].Type != "italic" || node.Marks[1].Type != MarkHighlight {
		t.Errorf("marks = %+v", node.Marks)
	}
}

func TestClearHighlightsMergesText(t *testing.T) {
	doc := parseDoc(t, `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"one two three"}]}]}`)
	ApplyHighlight(doc, Span{Start: 4, End: 7, Severity: "medium"})

	ClearHighlights(doc)

	para := doc.Content[0]
	if len(para.Content) != 1 {
		t.Fatalf("children = %d, want 1 after merge", len(para.Content))
	}
	if para.Content[0].Text != "one two three" {
		t.Errorf("merged text = %q", para.Content[0].Text)
	}
	if len(para.Content[0].Marks) != 0 {
		t.Errorf("marks left: %+v", para.Content[0].Marks)
	}
}

func TestClearHighlightsKeepsOtherMarks(t *testing.T) {
	doc := parseDoc(t, `{"type":"doc","content":[{"type":"paragraph","content":[
		{"type":"text","marks":[{"type":"bold"}],"text":"strong"},
		{"type":"text","marks":[{"type":"bold"},{"type":"highlight","attrs":{"class":"hl-low"}}],"text":" words"}
	]}]}`)

	ClearHighlights(doc)

	para := doc.Content[0]
	if len(para.Content) != 1 {
		t.Fatalf("children = %d, want 1 (equal marks merge)", len(para.Content))
	}
	if para.Content[0].Text != "strong words" {
		t.Errorf("text = %q", para.Content[0].Text)
	}
	if len(para.Content[0].Marks) != 1 || para.Content[0].Marks[0].Type != "bold" {
		t.Errorf("marks = %+v", para.Content[0].Marks)
	}
}

func TestClearHighlightsMergesNonScalarAttrs(t *testing.T) {
	// Editors attach array- and object-valued mark attrs (tab stops, color
	// specs); merging must not choke on them.
	doc := parseDoc(t, `{"type":"doc","content":[{"type":"paragraph","content":[
		{"type":"text","marks":[{"type":"textStyle","attrs":{"stops":[1,2]}}],"text":"lead "},
		{"type":"text","marks":[{"type":"textStyle","attrs":{"stops":[1,2]}}],"text":"trail"}
	]}]}`)

	ClearHighlights(doc)

	para := doc.Content[0]
	if len(para.Content) != 1 {
		t.Fatalf("children = %d, want 1 (deep-equal attrs merge)", len(para.Content))
	}
	if para.Content[0].Text != "lead trail" {
		t.Errorf("text = %q", para.Content[0].Text)
	}
}

func TestClearHighlightsKeepsDistinctNonScalarAttrs(t *testing.T) {
	doc := parseDoc(t, `{"type":"doc","content":[{"type":"paragraph","content":[
		{"type":"text","marks":[{"type":"textStyle","attrs":{"stops":[1,2]}}],"text":"lead "},
		{"type":"text","marks":[{"type":"textStyle","attrs":{"stops":[3]}}],"text":"trail"}
	]}]}`)

	ClearHighlights(doc)

	para := doc.Content[0]
	if len(para.Content) != 2 {
		t.Fatalf("children = %d, want 2 (different attrs must not merge)", len(para.Content))
	}
}

func TestSeverityClass(t *testing.T) {
	cases := map[string]string{
		"high":    "hl-high",
		"medium":  "hl-medium",
		"low":     "hl-low",
		"":        "hl-low",
		"unknown": "hl-low",
	}
	for severity, want := range cases {
		if got := SeverityClass(severity); got != want {
			t.Errorf("SeverityClass(%q) = %q, want %q", severity, got, want)
		}
	}
}

func TestToHTML(t *testing.T) {
	doc := parseDoc(t, `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"The chairman decided."}]}]}`)
	ApplyHighlight(doc, Span{Start: 4, End: 12, Severity: "medium"})

	html := ToHTML(doc)
	if !strings.Contains(html, `<mark class="hl-medium">chairman</mark>`) {
		t.Errorf("html = %q", html)
	}
	if !strings.HasPrefix(html, "<p>") {
		t.Errorf("html = %q", html)
	}
}

func TestToHTMLEscapes(t *testing.T) {
	doc := parseDoc(t, `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"a < b & c"}]}]}`)
	html := ToHTML(doc)
	if !strings.Contains(html, "a &lt; b &amp; c") {
		t.Errorf("html = %q", html)
	}
}
