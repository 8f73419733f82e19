package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyContent rejects analysis of blank or whitespace-only text.
	ErrEmptyContent = errors.New("content is empty")
	// ErrContentTooLong rejects text over the word limit.
	ErrContentTooLong = errors.New("content exceeds the word limit")
	// ErrInvalidMode rejects modes outside the closed enumeration.
	ErrInvalidMode = errors.New("invalid analysis mode")
	// ErrRateLimited surfaces a provider 429. Never retried here; the caller
	// decides whether to try again.
	ErrRateLimited = errors.New("analysis engine rate limited")
	// ErrEngineAuth surfaces a provider 401.
	ErrEngineAuth = errors.New("analysis engine authentication failed")
)

// MalformedResponseError reports an engine response that is not valid JSON or
// lacks the issues array.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed engine response: %s", e.Reason)
}

// EngineError is the catch-all for provider failures that are neither rate
// limits nor auth failures. It carries the provider's message so the caller
// can render something more useful than "something went wrong".
type EngineError struct {
	Status  int
	Message string
}

func (e *EngineError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("analysis engine error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("analysis engine error: %s", e.Message)
}
