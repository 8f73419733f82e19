package analysis

import "context"

// suggestionThreshold is the confidence an automatic classification must
// strictly exceed before the result carries a mode suggestion.
const suggestionThreshold = 0.70

// Classification is the engine's guess at what kind of text a document is.
type Classification struct {
	DetectedType string  `json:"type"`
	Confidence   float64 `json:"confidence"`
	Explanation  string  `json:"explanation"`
}

// Engine runs the remote language model. Analyze returns the raw JSON body
// the model produced for the given rubric; Classify guesses the content type.
type Engine interface {
	Analyze(ctx context.Context, systemInstructions, userContent string) ([]byte, error)
	Classify(ctx context.Context, content string) (Classification, error)
}

// ModeSuggestion tells the caller a different analysis mode likely fits the
// document better than the one they chose.
type ModeSuggestion struct {
	Suggested   Mode    `json:"suggested"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation,omitempty"`
}

// suggestMode turns a classification into a suggestion, or nil when the
// classification is too uncertain, names no known mode, or already matches
// the mode the caller requested. The catch-all "general" type collapses to
// the language mode since that rubric covers unspecialized prose.
func suggestMode(c Classification, requested Mode) *ModeSuggestion {
	if c.Confidence <= suggestionThreshold {
		return nil
	}
	detected := c.DetectedType
	if detected == "general" {
		detected = string(ModeLanguage)
	}
	mode, err := ParseMode(detected)
	if err != nil {
		return nil
	}
	if mode == requested {
		return nil
	}
	return &ModeSuggestion{
		Suggested:   mode,
		Confidence:  c.Confidence,
		Explanation: c.Explanation,
	}
}
