package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"clearlang/api/internal/analysis"
	"clearlang/api/internal/authpw"
	"clearlang/api/internal/config"
	"clearlang/api/internal/email"
	"clearlang/api/internal/export"
	"clearlang/api/internal/store"
)

// fakeStore is an in-memory store covering both the document interface the
// service consumes and the user interface the password auth service needs.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]store.User
	documents map[int64]store.Document
	nextID    int64
	revoked   map[string]bool
	resets    map[string]resetRecord

	pingFn func(context.Context) error
}

type resetRecord struct {
	userID    string
	expiresAt time.Time
	used      bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]store.User),
		documents: make(map[int64]store.Document),
		revoked:   make(map[string]bool),
		resets:    make(map[string]resetRecord),
	}
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (f *fakeStore) GetUserByID(_ context.Context, userID string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user store.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) UpdateUserVerificationToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.VerificationToken = token
	user.VerificationExpiresAt = &expiresAt
	f.users[userID] = user
	return nil
}

func (f *fakeStore) VerifyUserEmail(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, user := range f.users {
		if user.VerificationToken == token && token != "" {
			if user.VerificationExpiresAt != nil && user.VerificationExpiresAt.Before(time.Now()) {
				return store.ErrNotFound
			}
			user.IsEmailVerified = true
			user.VerificationToken = ""
			f.users[id] = user
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	f.users[userID] = user
	return nil
}

func (f *fakeStore) CreatePasswordReset(_ context.Context, userID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets[token] = resetRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeStore) GetPasswordReset(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.resets[token]
	if !ok || record.used || record.expiresAt.Before(time.Now()) {
		return "", store.ErrNotFound
	}
	return record.userID, nil
}

func (f *fakeStore) MarkPasswordResetUsed(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.resets[token]
	if !ok {
		return store.ErrNotFound
	}
	record.used = true
	f.resets[token] = record
	return nil
}

func (f *fakeStore) RevokeAccessToken(_ context.Context, jti string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = true
	return nil
}

func (f *fakeStore) IsAccessTokenRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[jti], nil
}

func (f *fakeStore) CreateDocument(_ context.Context, doc store.Document) (store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	doc.ID = f.nextID
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	f.documents[doc.ID] = doc
	return doc, nil
}

func (f *fakeStore) GetDocument(_ context.Context, id int64) (store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.documents[id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return doc, nil
}

func (f *fakeStore) UpdateDocument(_ context.Context, id int64, patch store.DocumentPatch) (store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.documents[id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	if patch.Title != nil {
		doc.Title = *patch.Title
	}
	if patch.PlainText != nil {
		doc.PlainText = *patch.PlainText
	}
	if patch.RichContent != nil {
		doc.RichContent = *patch.RichContent
	}
	if patch.HTMLContent != nil {
		doc.HTMLContent = *patch.HTMLContent
	}
	if patch.AnalysisMode != nil {
		doc.AnalysisMode = patch.AnalysisMode
	}
	if len(patch.AnalysisResult) > 0 {
		if string(patch.AnalysisResult) == "null" {
			doc.AnalysisResult = nil
		} else {
			doc.AnalysisResult = patch.AnalysisResult
		}
	}
	doc.UpdatedAt = time.Now()
	f.documents[id] = doc
	return doc, nil
}

func (f *fakeStore) DeleteDocument(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.documents[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.documents, id)
	return nil
}

func (f *fakeStore) ListDocuments(_ context.Context, userID string) ([]store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var docs []store.Document
	for _, doc := range f.documents {
		if doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

// setDocumentContent swaps a stored document's rich content out from under
// an in-flight operation.
func (f *fakeStore) setDocumentContent(id int64, richContent string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc := f.documents[id]
	doc.RichContent = richContent
	f.documents[id] = doc
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]sessionRecord
}

type sessionRecord struct {
	user      store.User
	expiresAt time.Time
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]sessionRecord)}
}

func (f *fakeSessions) SaveRefreshSession(_ context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[tokenHash] = sessionRecord{user: user, expiresAt: expiresAt}
	return nil
}

func (f *fakeSessions) LookupRefreshSession(_ context.Context, tokenHash string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.sessions[tokenHash]
	if !ok || record.expiresAt.Before(time.Now()) {
		return store.User{}, store.ErrNotFound
	}
	return record.user, nil
}

func (f *fakeSessions) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, tokenHash)
	return nil
}

type fakeEngine struct {
	analyzeFn  func(ctx context.Context, systemInstructions, userContent string) ([]byte, error)
	classifyFn func(ctx context.Context, content string) (analysis.Classification, error)
}

func (f *fakeEngine) Analyze(ctx context.Context, systemInstructions, userContent string) ([]byte, error) {
	if f.analyzeFn != nil {
		return f.analyzeFn(ctx, systemInstructions, userContent)
	}
	return []byte(`{"issues":[]}`), nil
}

func (f *fakeEngine) Classify(ctx context.Context, content string) (analysis.Classification, error) {
	if f.classifyFn != nil {
		return f.classifyFn(ctx, content)
	}
	return analysis.Classification{DetectedType: "general", Confidence: 0}, nil
}

func newTestService(fs *fakeStore) *Service {
	return newTestServiceWithEngine(fs, nil)
}

func newTestServiceWithEngine(fs *fakeStore, eng analysis.Engine) *Service {
	svc := &Service{
		cfg: config.Config{
			JWTSecret:  "test-secret",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
		},
		store:        fs,
		sessions:     newFakeSessions(),
		authPassword: authpw.NewService(fs),
		email:        email.NewService(email.Config{}),
		exporter:     export.NewService(fs),
	}
	if eng != nil {
		svc.analyzer = analysis.NewOrchestrator(eng)
	}
	return svc
}

func seedVerifiedUser(t *testing.T, fs *fakeStore, id, displayName, emailAddr string) store.User {
	t.Helper()
	user := store.User{
		ID:              id,
		DisplayName:     displayName,
		Email:           emailAddr,
		IsEmailVerified: true,
	}
	if err := fs.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func bearerFor(t *testing.T, svc *Service, userID string) string {
	t.Helper()
	session, err := svc.CreateSession(context.Background(), userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session.Token
}
