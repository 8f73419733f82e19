package richtext

// MarkHighlight is the mark type used for analysis highlights.
const MarkHighlight = "highlight"

// Span is a rune-offset range into the document's extracted plain text,
// tagged with the severity that decides its visual treatment.
type Span struct {
	Start    int
	End      int
	Severity string
}

// SeverityClass maps a severity to the CSS class carried on the highlight
// mark. The three severities get three distinct treatments.
func SeverityClass(severity string) string {
	switch severity {
	case "high":
		return "hl-high"
	case "medium":
		return "hl-medium"
	default:
		return "hl-low"
	}
}

// HighlightMark builds the mark applied over a flagged span.
func HighlightMark(severity string) Mark {
	return Mark{
		Type:  MarkHighlight,
		Attrs: map[string]any{"class": SeverityClass(severity)},
	}
}

// ClearHighlights removes every highlight mark from the document and merges
// text nodes that earlier highlighting split apart. Clearing then re-applying
// the same spans therefore reproduces the document byte for byte, which is
// what makes highlight application idempotent.
func ClearHighlights(doc *Node) {
	if doc == nil {
		return
	}
	var walk func(node *Node)
	walk = func(node *Node) {
		for _, child := range node.Content {
			if child.IsText() {
				child.Marks = withoutMark(child.Marks, MarkHighlight)
				continue
			}
			walk(child)
		}
		node.Content = mergeAdjacentText(node.Content)
	}
	walk(doc)
}

// ApplyHighlight marks the [span.Start, span.End) rune range. Text nodes
// partially covered by the span are split so the mark lands exactly on the
// flagged characters. Clearing marks never changes text length, but offsets
// are still resolved against a fresh traversal by the caller rather than
// assuming that invariant holds.
func ApplyHighlight(doc *Node, span Span) {
	if doc == nil || span.End <= span.Start {
		return
	}
	mark := HighlightMark(span.Severity)

	segments, _ := collectSegments(doc)
	// Splitting mutates Content slices, so walk the collected segments in
	// reverse: earlier segments keep valid parent indexes.
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg.end <= span.Start || seg.start >= span.End {
			continue
		}
		from := max(span.Start, seg.start) - seg.start
		to := min(span.End, seg.end) - seg.start
		markTextRange(seg.parent, seg.index, from, to, mark)
	}
}

// markTextRange applies mark to the rune range [from, to) of the text node at
// parent.Content[index], splitting the node when the range is partial.
func markTextRange(parent *Node, index, from, to int, mark Mark) {
	node := parent.Content[index]
	runes := []rune(node.Text)
	if from <= 0 && to >= len(runes) {
		node.Marks = append(node.Marks, mark)
		return
	}

	var pieces []*Node
	if from > 0 {
		pieces = append(pieces, &Node{Type: "text", Text: string(runes[:from]), Marks: copyMarks(node.Marks)})
	}
	marked := &Node{Type: "text", Text: string(runes[from:to]), Marks: append(copyMarks(node.Marks), mark)}
	pieces = append(pieces, marked)
	if to < len(runes) {
		pieces = append(pieces, &Node{Type: "text", Text: string(runes[to:]), Marks: copyMarks(node.Marks)})
	}

	replaced := make([]*Node, 0, len(parent.Content)+len(pieces)-1)
	replaced = append(replaced, parent.Content[:index]...)
	replaced = append(replaced, pieces...)
	replaced = append(replaced, parent.Content[index+1:]...)
	parent.Content = replaced
}

func withoutMark(marks []Mark, markType string) []Mark {
	if len(marks) == 0 {
		return nil
	}
	kept := marks[:0]
	for _, mark := range marks {
		if mark.Type != markType {
			kept = append(kept, mark)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func copyMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	copied := make([]Mark, len(marks))
	copy(copied, marks)
	return copied
}

// mergeAdjacentText joins neighboring text nodes carrying identical marks.
func mergeAdjacentText(content []*Node) []*Node {
	if len(content) < 2 {
		return content
	}
	merged := content[:0]
	for _, node := range content {
		if len(merged) > 0 {
			last := merged[len(merged)-1]
			if last.IsText() && node.IsText() && marksEqual(last.Marks, node.Marks) {
				last.Text += node.Text
				continue
			}
		}
		merged = append(merged, node)
	}
	return merged
}
