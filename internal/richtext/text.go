package richtext

import "strings"

// Block-level node types. Each block boundary contributes a newline to the
// extracted plain text so offsets never bleed across paragraphs.
var blockTypes = map[string]struct{}{
	"paragraph":      {},
	"heading":        {},
	"blockquote":     {},
	"codeBlock":      {},
	"listItem":       {},
	"tableRow":       {},
	"horizontalRule": {},
}

// segment maps a text node to its rune-offset range in the extracted text.
type segment struct {
	parent *Node
	index  int
	node   *Node
	start  int
	end    int
}

// ExtractText strips all markup and returns the document's plain text.
// This is the single authority for deriving plainText from richContent;
// highlight offsets are computed against exactly this traversal.
func ExtractText(doc *Node) string {
	if doc == nil {
		return ""
	}
	_, text := collectSegments(doc)
	return text
}

// collectSegments walks the tree, returning every text node with its rune
// offsets alongside the full extracted text.
func collectSegments(doc *Node) ([]segment, string) {
	var builder strings.Builder
	var segments []segment
	offset := 0

	var walk func(node *Node)
	walk = func(node *Node) {
		for i, child := range node.Content {
			if child.IsText() {
				runes := len([]rune(child.Text))
				segments = append(segments, segment{
					parent: node,
					index:  i,
					node:   child,
					start:  offset,
					end:    offset + runes,
				})
				builder.WriteString(child.Text)
				offset += runes
				continue
			}
			if child.Type == "hardBreak" {
				builder.WriteString("\n")
				offset++
				continue
			}
			walk(child)
			if _, isBlock := blockTypes[child.Type]; isBlock && i < len(node.Content)-1 {
				builder.WriteString("\n")
				offset++
			}
		}
	}
	walk(doc)

	return segments, builder.String()
}
