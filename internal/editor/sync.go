// Package editor holds the live document state and reconciles it with
// externally supplied content updates, such as a saved document being loaded
// or highlighted content coming back from an analysis.
package editor

import (
	"unicode/utf8"

	"clearlang/api/internal/richtext"
)

// Selection is a cursor range in rune offsets over the document's plain
// text. Anchor == Head is a plain caret.
type Selection struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

// State is the live editor document. It is the only place external content
// pushes and user edits meet; everything else reads snapshots.
type State struct {
	content   string
	textLen   int
	selection Selection
	dirty     bool
}

// NewState builds editor state around serialized rich content.
func NewState(richContent string) (*State, error) {
	length, err := textLength(richContent)
	if err != nil {
		return nil, err
	}
	return &State{content: richContent, textLen: length}, nil
}

func (s *State) Content() string      { return s.content }
func (s *State) Selection() Selection { return s.selection }

// Dirty reports whether the user has typed since the last external sync.
func (s *State) Dirty() bool { return s.dirty }

// SetSelection moves the cursor, clamped to the document's text length.
func (s *State) SetSelection(sel Selection) {
	s.selection = s.clamp(sel)
}

// Edit records a user-driven content change. User edits always win locally
// and flip the state to dirty until the next external sync.
func (s *State) Edit(richContent string, sel Selection) error {
	length, err := textLength(richContent)
	if err != nil {
		return err
	}
	s.content = richContent
	s.textLen = length
	s.selection = s.clamp(sel)
	s.dirty = true
	return nil
}

// SyncExternalContent pushes externally produced content into the editor.
// Identical content is a strict no-op so repeated syncs never disturb the
// cursor or undo history. When content does change, external wins even over
// a dirty editor, and the previous selection is kept where the new content
// is long enough, otherwise clamped to its end.
func (s *State) SyncExternalContent(newRichContent string) error {
	if newRichContent == s.content {
		return nil
	}
	length, err := textLength(newRichContent)
	if err != nil {
		return err
	}
	s.content = newRichContent
	s.textLen = length
	s.selection = s.clamp(s.selection)
	s.dirty = false
	return nil
}

func (s *State) clamp(sel Selection) Selection {
	return Selection{
		Anchor: clampOffset(sel.Anchor, s.textLen),
		Head:   clampOffset(sel.Head, s.textLen),
	}
}

func clampOffset(offset, limit int) int {
	if offset < 0 {
		return 0
	}
	if offset > limit {
		return limit
	}
	return offset
}

func textLength(richContent string) (int, error) {
	doc, err := richtext.Parse(richContent)
	if err != nil {
		return 0, err
	}
	return utf8.RuneCountInString(richtext.ExtractText(doc)), nil
}
