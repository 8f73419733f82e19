// Package richtext models ProseMirror documents: parsing, plain-text
// extraction, highlight mark surgery, and HTML rendering.
package richtext

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Node is a node in the ProseMirror document tree.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// Mark is a text mark (formatting or highlight).
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Parse decodes a serialized ProseMirror document.
func Parse(raw string) (*Node, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty rich content")
	}
	var doc Node
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse rich content: %w", err)
	}
	if doc.Type == "" {
		return nil, fmt.Errorf("rich content missing node type")
	}
	return &doc, nil
}

// Serialize encodes the document back to its stored JSON form.
func (n *Node) Serialize() (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("serialize rich content: %w", err)
	}
	return string(data), nil
}

// IsText reports whether the node is a text leaf.
func (n *Node) IsText() bool {
	return n.Type == "text"
}

func (m Mark) equal(other Mark) bool {
	if m.Type != other.Type {
		return false
	}
	if len(m.Attrs) != len(other.Attrs) {
		return false
	}
	for key, value := range m.Attrs {
		// Attr values come from client JSON and can be arrays or objects,
		// so a plain != would panic on uncomparable types.
		otherValue, ok := other.Attrs[key]
		if !ok || !reflect.DeepEqual(value, otherValue) {
			return false
		}
	}
	return true
}

func marksEqual(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].equal(b[i]) {
			return false
		}
	}
	return true
}
