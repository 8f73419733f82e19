package analysis

import (
	"context"
	"strings"
)

// maxWords caps how much text one analysis call may cover. Longer documents
// must be rejected before any network call is made.
const maxWords = 10000

// Orchestrator drives one analysis round trip: validate, classify and
// analyze concurrently, then normalize the engine's findings.
type Orchestrator struct {
	engine Engine
}

func NewOrchestrator(engine Engine) *Orchestrator {
	return &Orchestrator{engine: engine}
}

// Outcome bundles the analysis result with an optional mode suggestion.
type Outcome struct {
	Result     *Result         `json:"result"`
	Suggestion *ModeSuggestion `json:"modeSuggestion,omitempty"`
}

// Analyze validates content and mode, then runs the rubric analysis and the
// content-type classification concurrently against the engine. A failed
// classification only suppresses the suggestion; the analysis result still
// comes back. Engine and parse failures on the analysis side fail the call.
func (o *Orchestrator) Analyze(ctx context.Context, content string, mode Mode) (*Outcome, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptyContent
	}
	if len(strings.Fields(content)) > maxWords {
		return nil, ErrContentTooLong
	}
	rubric, err := SelectRubric(mode)
	if err != nil {
		return nil, err
	}

	type classifyResult struct {
		c   Classification
		err error
	}
	classifyCh := make(chan classifyResult, 1)
	go func() {
		c, err := o.engine.Classify(ctx, content)
		classifyCh <- classifyResult{c, err}
	}()

	body, err := o.engine.Analyze(ctx, rubric, content)
	if err != nil {
		return nil, err
	}
	result, err := ParseEngineResponse(body)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Result: result}
	if cr := <-classifyCh; cr.err == nil {
		outcome.Suggestion = suggestMode(cr.c, mode)
	}
	return outcome, nil
}
