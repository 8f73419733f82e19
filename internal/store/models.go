package store

import (
	"encoding/json"
	"time"
)

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Document is a saved piece of writing. PlainText is always derived from
// RichContent by stripping markup; it is stored alongside so search and the
// analysis word limit never need to reparse the rich form. AnalysisResult
// holds the JSON of the last analysis, replaced wholesale on re-analysis.
type Document struct {
	ID             int64
	UserID         string
	Title          string
	PlainText      string
	RichContent    string
	HTMLContent    string
	AnalysisMode   *string
	AnalysisResult json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DocumentPatch is a partial document update. Nil fields are left untouched.
type DocumentPatch struct {
	Title          *string
	PlainText      *string
	RichContent    *string
	HTMLContent    *string
	AnalysisMode   *string
	AnalysisResult json.RawMessage
}
