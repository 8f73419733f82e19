package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clearlang/api/internal/analysis"
	"clearlang/api/internal/auth"
	"clearlang/api/internal/authpw"
	"clearlang/api/internal/config"
	"clearlang/api/internal/editor"
	"clearlang/api/internal/email"
	"clearlang/api/internal/export"
	"clearlang/api/internal/revision"
	"clearlang/api/internal/richtext"
	"clearlang/api/internal/search"
	"clearlang/api/internal/store"
	"clearlang/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

// DocumentInput carries a document create or update. Nil fields on update
// leave the stored value untouched.
type DocumentInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// emptyDocument is the rich-text tree a document starts with before the
// user types anything.
const emptyDocument = `{"type":"doc","content":[{"type":"paragraph"}]}`

type dataStore interface {
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
	CreateDocument(ctx context.Context, doc store.Document) (store.Document, error)
	GetDocument(ctx context.Context, id int64) (store.Document, error)
	UpdateDocument(ctx context.Context, id int64, patch store.DocumentPatch) (store.Document, error)
	DeleteDocument(ctx context.Context, id int64) error
	ListDocuments(ctx context.Context, userID string) ([]store.Document, error)
	Ping(ctx context.Context) error
}

// SessionStore holds refresh tokens, keyed by their hash. Backed by Redis
// when configured and by Postgres otherwise.
type SessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg          config.Config
	store        dataStore
	sessions     SessionStore
	authPassword *authpw.Service
	email        *email.Service
	analyzer     *analysis.Orchestrator
	search       *search.Service
	revisions    *revision.Service
	exporter     *export.Service
}

// New wires the service with Postgres-backed refresh sessions. The engine is
// optional; without one the analysis endpoints report unavailable.
func New(cfg config.Config, dataStore *store.PostgresStore, revisions *revision.Service, searchService *search.Service, eng analysis.Engine) *Service {
	return NewWithSessionStore(cfg, dataStore, dataStore, revisions, searchService, eng)
}

func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions SessionStore, revisions *revision.Service, searchService *search.Service, eng analysis.Engine) *Service {
	svc := &Service{
		cfg:          cfg,
		store:        dataStore,
		sessions:     sessions,
		authPassword: authpw.NewService(dataStore),
		email: email.NewService(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		}),
		search:    searchService,
		revisions: revisions,
		exporter:  export.NewService(dataStore),
	}
	if eng != nil {
		svc.analyzer = analysis.NewOrchestrator(eng)
	}
	return svc
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authPassword
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

// SendVerificationEmail delivers the account verification link. Callers fire
// this in a goroutine; failures are logged by the email service.
func (s *Service) SendVerificationEmail(to, userName, token string) error {
	if !s.SMTPConfigured() {
		return nil
	}
	url := fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(s.cfg.AppBaseURL, "/"), token)
	return s.email.SendVerificationEmail(to, userName, url)
}

func (s *Service) SendPasswordResetEmail(to, userName, token string) error {
	if !s.SMTPConfigured() {
		return nil
	}
	url := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.AppBaseURL, "/"), token)
	return s.email.SendPasswordResetEmail(to, userName, url)
}

// CreateSession issues access and refresh tokens for an already
// authenticated user.
func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	// Single use: the old refresh token dies the moment it is redeemed.
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// CreateDocument stores a new document owned by the session user. The plain
// text and HTML renderings are derived from the rich content here so they can
// never drift from it.
func (s *Service) CreateDocument(ctx context.Context, session Session, input DocumentInput) (map[string]any, error) {
	content := emptyDocument
	if input.Content != nil && strings.TrimSpace(*input.Content) != "" {
		content = *input.Content
	}
	doc, err := richtext.Parse(content)
	if err != nil {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_CONTENT", "Document content is not a valid rich-text tree", nil)
	}

	title := "Untitled document"
	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		title = strings.TrimSpace(*input.Title)
	}

	created, err := s.store.CreateDocument(ctx, store.Document{
		UserID:      session.UserID,
		Title:       title,
		PlainText:   richtext.ExtractText(doc),
		RichContent: content,
		HTMLContent: richtext.ToHTML(doc),
	})
	if err != nil {
		return nil, err
	}

	s.indexDocument(created)
	if s.revisions != nil {
		_ = s.revisions.EnsureDocumentRepo(strconv.FormatInt(created.ID, 10), snapshotOf(created), session.UserName)
	}

	return documentPayload(created), nil
}

func (s *Service) GetDocument(ctx context.Context, session Session, id int64) (map[string]any, error) {
	doc, err := s.loadOwnedDocument(ctx, session, id)
	if err != nil {
		return nil, err
	}
	return documentPayload(doc), nil
}

// UpdateDocument applies a partial update. A content change invalidates the
// stored analysis because its offsets refer to text that no longer exists.
func (s *Service) UpdateDocument(ctx context.Context, session Session, id int64, input DocumentInput) (map[string]any, error) {
	current, err := s.loadOwnedDocument(ctx, session, id)
	if err != nil {
		return nil, err
	}

	patch := store.DocumentPatch{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Title cannot be empty", nil)
		}
		patch.Title = &title
	}
	if input.Content != nil && *input.Content != current.RichContent {
		doc, err := richtext.Parse(*input.Content)
		if err != nil {
			return nil, domainError(http.StatusUnprocessableEntity, "INVALID_CONTENT", "Document content is not a valid rich-text tree", nil)
		}
		plain := richtext.ExtractText(doc)
		html := richtext.ToHTML(doc)
		patch.RichContent = input.Content
		patch.PlainText = &plain
		patch.HTMLContent = &html
		patch.AnalysisResult = json.RawMessage("null")
	}

	updated, err := s.store.UpdateDocument(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.indexDocument(updated)
	if s.revisions != nil {
		_, _ = s.revisions.CommitSnapshot(strconv.FormatInt(id, 10), snapshotOf(updated), session.UserName, "Update document")
	}

	return documentPayload(updated), nil
}

func (s *Service) DeleteDocument(ctx context.Context, session Session, id int64) error {
	if _, err := s.loadOwnedDocument(ctx, session, id); err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteDocument(strconv.FormatInt(id, 10))
	}
	return nil
}

func (s *Service) ListDocuments(ctx context.Context, session Session) ([]map[string]any, error) {
	docs, err := s.store.ListDocuments(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	summaries := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, documentSummary(doc))
	}
	return summaries, nil
}

// AnalyzeText runs an analysis over bare text with no document behind it.
// Issue offsets are rune positions into the submitted text.
func (s *Service) AnalyzeText(ctx context.Context, content, rawMode string) (map[string]any, error) {
	if s.analyzer == nil {
		return nil, domainError(http.StatusServiceUnavailable, "ANALYSIS_UNAVAILABLE", "Analysis engine is not configured", nil)
	}
	mode, err := analysis.ParseMode(rawMode)
	if err != nil {
		return nil, err
	}
	outcome, err := s.analyzer.Analyze(ctx, content, mode)
	if err != nil {
		return nil, err
	}
	outcome.Result.Issues = analysis.LocateIssuesInText(content, outcome.Result.Issues)
	return analysisPayload(outcome), nil
}

// AnalyzeDocument analyzes a stored document, highlights the located issues
// in its rich content, and persists both the analysis and the highlighted
// rendering. If the document changes while the engine is thinking, the stale
// result is discarded instead of clobbering the newer text.
func (s *Service) AnalyzeDocument(ctx context.Context, session Session, id int64, rawMode string) (map[string]any, error) {
	if s.analyzer == nil {
		return nil, domainError(http.StatusServiceUnavailable, "ANALYSIS_UNAVAILABLE", "Analysis engine is not configured", nil)
	}
	mode, err := analysis.ParseMode(rawMode)
	if err != nil {
		return nil, err
	}

	before, err := s.loadOwnedDocument(ctx, session, id)
	if err != nil {
		return nil, err
	}
	doc, err := richtext.Parse(before.RichContent)
	if err != nil {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_CONTENT", "Document content is not a valid rich-text tree", nil)
	}

	outcome, err := s.analyzer.Analyze(ctx, richtext.ExtractText(doc), mode)
	if err != nil {
		return nil, err
	}

	after, err := s.loadOwnedDocument(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if after.RichContent != before.RichContent {
		return nil, domainError(http.StatusConflict, "ANALYSIS_STALE", "Document changed while the analysis was running", nil)
	}

	outcome.Result.Issues = analysis.LocateIssues(doc, outcome.Result.Issues)
	analysis.ApplyIssueHighlights(doc, outcome.Result.Issues)

	highlighted, err := doc.Serialize()
	if err != nil {
		return nil, err
	}
	html := richtext.ToHTML(doc)
	resultJSON, err := json.Marshal(outcome.Result)
	if err != nil {
		return nil, err
	}
	modeString := string(mode)

	updated, err := s.store.UpdateDocument(ctx, id, store.DocumentPatch{
		RichContent:    &highlighted,
		HTMLContent:    &html,
		AnalysisMode:   &modeString,
		AnalysisResult: resultJSON,
	})
	if err != nil {
		return nil, err
	}

	if s.revisions != nil {
		_, _ = s.revisions.CommitSnapshot(strconv.FormatInt(id, 10), snapshotOf(updated), session.UserName, fmt.Sprintf("Analyze (%s)", modeString))
	}

	payload := documentPayload(updated)
	for k, v := range analysisPayload(outcome) {
		payload[k] = v
	}
	return payload, nil
}

// SyncEditor reconciles a client editor against the stored document. The
// stored content always wins; the client's selection survives, clamped to
// the new text length.
func (s *Service) SyncEditor(ctx context.Context, session Session, id int64, clientContent string, sel editor.Selection) (map[string]any, error) {
	doc, err := s.loadOwnedDocument(ctx, session, id)
	if err != nil {
		return nil, err
	}

	state, err := editor.NewState(clientContent)
	if err != nil {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_CONTENT", "Editor content is not a valid rich-text tree", nil)
	}
	state.SetSelection(sel)

	changed := doc.RichContent != clientContent
	if changed {
		if err := state.SyncExternalContent(doc.RichContent); err != nil {
			return nil, err
		}
	}

	selection := state.Selection()
	return map[string]any{
		"content":   json.RawMessage(state.Content()),
		"selection": map[string]int{"anchor": selection.Anchor, "head": selection.Head},
		"changed":   changed,
	}, nil
}

func (s *Service) History(ctx context.Context, session Session, id int64, limit int) ([]map[string]any, error) {
	if s.revisions == nil {
		return nil, domainError(http.StatusServiceUnavailable, "HISTORY_UNAVAILABLE", "Revision history is not configured", nil)
	}
	if _, err := s.loadOwnedDocument(ctx, session, id); err != nil {
		return nil, err
	}
	commits, err := s.revisions.History(strconv.FormatInt(id, 10), limit)
	if err != nil {
		return nil, err
	}
	entries := make([]map[string]any, 0, len(commits))
	for _, commit := range commits {
		entries = append(entries, map[string]any{
			"hash":      commit.Hash,
			"message":   commit.Message,
			"author":    commit.Author,
			"createdAt": commit.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return entries, nil
}

func (s *Service) RevisionSnapshot(ctx context.Context, session Session, id int64, hash string) (map[string]any, error) {
	if s.revisions == nil {
		return nil, domainError(http.StatusServiceUnavailable, "HISTORY_UNAVAILABLE", "Revision history is not configured", nil)
	}
	if _, err := s.loadOwnedDocument(ctx, session, id); err != nil {
		return nil, err
	}
	snapshot, err := s.revisions.GetSnapshot(strconv.FormatInt(id, 10), hash)
	if err != nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Revision not found", nil)
	}
	return map[string]any{
		"title":          snapshot.Title,
		"content":        snapshot.RichContent,
		"html":           snapshot.HTMLContent,
		"plainText":      snapshot.PlainText,
		"analysisMode":   nilIfEmpty(snapshot.AnalysisMode),
		"analysisResult": rawOrNull(snapshot.AnalysisResult),
	}, nil
}

func (s *Service) Export(ctx context.Context, session Session, id int64, format export.Format, includeIssues bool) (*export.Result, error) {
	if s.exporter == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export is not configured", nil)
	}
	if _, err := s.loadOwnedDocument(ctx, session, id); err != nil {
		return nil, err
	}
	return s.exporter.Export(ctx, export.Request{
		DocumentID:    id,
		Format:        format,
		IncludeIssues: includeIssues,
	})
}

func (s *Service) Search(ctx context.Context, session Session, text string, limit, offset int) (search.Response, error) {
	if s.search == nil {
		return search.Response{}, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Search is not configured", nil)
	}
	return s.search.Search(search.Query{
		Text:   text,
		UserID: session.UserID,
		Limit:  limit,
		Offset: offset,
	}), nil
}

// loadOwnedDocument fetches a document and enforces ownership. A document
// owned by someone else reads as not found so IDs cannot be probed.
func (s *Service) loadOwnedDocument(ctx context.Context, session Session, id int64) (store.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return store.Document{}, err
	}
	if doc.UserID != session.UserID {
		return store.Document{}, store.ErrNotFound
	}
	return doc, nil
}

func (s *Service) indexDocument(doc store.Document) {
	if s.search == nil {
		return
	}
	s.search.IndexDocument(search.DocumentRecord{
		ID:     strconv.FormatInt(doc.ID, 10),
		UserID: doc.UserID,
		Title:  doc.Title,
		Body:   doc.PlainText,
	})
}

func snapshotOf(doc store.Document) revision.Snapshot {
	snapshot := revision.Snapshot{
		Title:       doc.Title,
		PlainText:   doc.PlainText,
		RichContent: json.RawMessage(doc.RichContent),
		HTMLContent: doc.HTMLContent,
	}
	if doc.AnalysisMode != nil {
		snapshot.AnalysisMode = *doc.AnalysisMode
	}
	if len(doc.AnalysisResult) > 0 {
		snapshot.AnalysisResult = doc.AnalysisResult
	}
	return snapshot
}

func documentPayload(doc store.Document) map[string]any {
	var mode any
	if doc.AnalysisMode != nil {
		mode = *doc.AnalysisMode
	}
	return map[string]any{
		"id":             doc.ID,
		"title":          doc.Title,
		"content":        json.RawMessage(doc.RichContent),
		"html":           doc.HTMLContent,
		"plainText":      doc.PlainText,
		"analysisMode":   mode,
		"analysisResult": rawOrNull(doc.AnalysisResult),
		"createdAt":      doc.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":      doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func documentSummary(doc store.Document) map[string]any {
	var mode any
	if doc.AnalysisMode != nil {
		mode = *doc.AnalysisMode
	}
	return map[string]any{
		"id":           doc.ID,
		"title":        doc.Title,
		"preview":      preview(doc.PlainText, 160),
		"analysisMode": mode,
		"updatedAt":    doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func analysisPayload(outcome *analysis.Outcome) map[string]any {
	payload := map[string]any{"analysis": outcome.Result}
	if outcome.Suggestion != nil {
		payload["modeSuggestion"] = outcome.Suggestion
	}
	return payload
}

func preview(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit])
}

func nilIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
