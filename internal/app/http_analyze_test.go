package app

import (
	"context"
	"net/http"
	"testing"

	"clearlang/api/internal/analysis"
)

const chairmanIssues = `{"issues":[{"text":"chairman","suggestion":"chairperson","reason":"Gendered role title","severity":"medium"}]}`

func analyzeServer(t *testing.T, eng analysis.Engine) (*HTTPServer, string) {
	t.Helper()
	fs := newFakeStore()
	svc := newTestServiceWithEngine(fs, eng)
	server := NewHTTPServer(svc, "*")
	seedVerifiedUser(t, fs, "usr_1", "Avery", "avery@example.com")
	return server, bearerFor(t, svc, "usr_1")
}

func TestAnalyzeRequiresAuth(t *testing.T) {
	server, _ := analyzeServer(t, &fakeEngine{})
	rr := postJSON(t, server, "/api/analyze", `{"content":"The chairman spoke.","mode":"language"}`, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAnalyzeWithoutEngineReportsUnavailable(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	server := NewHTTPServer(svc, "*")
	seedVerifiedUser(t, fs, "usr_1", "Avery", "avery@example.com")
	token := bearerFor(t, svc, "usr_1")

	rr := postJSON(t, server, "/api/analyze", `{"content":"The chairman spoke.","mode":"language"}`, token)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", rr.Code, rr.Body.String())
	}
	if decodePayload(t, rr)["code"] != "ANALYSIS_UNAVAILABLE" {
		t.Fatalf("expected ANALYSIS_UNAVAILABLE, got %s", rr.Body.String())
	}
}

func TestAnalyzeRejectsEmptyContent(t *testing.T) {
	server, token := analyzeServer(t, &fakeEngine{})
	rr := postJSON(t, server, "/api/analyze", `{"content":"   \n ","mode":"language"}`, token)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	if decodePayload(t, rr)["code"] != "EMPTY_CONTENT" {
		t.Fatalf("expected EMPTY_CONTENT, got %s", rr.Body.String())
	}
}

func TestAnalyzeRejectsUnknownMode(t *testing.T) {
	server, token := analyzeServer(t, &fakeEngine{})
	rr := postJSON(t, server, "/api/analyze", `{"content":"Some text.","mode":"legal"}`, token)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	if decodePayload(t, rr)["code"] != "INVALID_MODE" {
		t.Fatalf("expected INVALID_MODE, got %s", rr.Body.String())
	}
}

func TestAnalyzeMapsRateLimit(t *testing.T) {
	eng := &fakeEngine{
		analyzeFn: func(context.Context, string, string) ([]byte, error) {
			return nil, analysis.ErrRateLimited
		},
	}
	server, token := analyzeServer(t, eng)
	rr := postJSON(t, server, "/api/analyze", `{"content":"Some text.","mode":"language"}`, token)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAnalyzeMapsMalformedResponse(t *testing.T) {
	eng := &fakeEngine{
		analyzeFn: func(context.Context, string, string) ([]byte, error) {
			return []byte(`this is not json`), nil
		},
	}
	server, token := analyzeServer(t, eng)
	rr := postJSON(t, server, "/api/analyze", `{"content":"Some text.","mode":"language"}`, token)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d body=%s", rr.Code, rr.Body.String())
	}
	if decodePayload(t, rr)["code"] != "MALFORMED_RESPONSE" {
		t.Fatalf("expected MALFORMED_RESPONSE, got %s", rr.Body.String())
	}
}

func TestAnalyzeReturnsLocatedIssuesAndSuggestion(t *testing.T) {
	eng := &fakeEngine{
		analyzeFn: func(context.Context, string, string) ([]byte, error) {
			return []byte(chairmanIssues), nil
		},
		classifyFn: func(context.Context, string) (analysis.Classification, error) {
			return analysis.Classification{DetectedType: "recruitment", Confidence: 0.9, Explanation: "Reads like a job posting"}, nil
		},
	}
	server, token := analyzeServer(t, eng)

	rr := postJSON(t, server, "/api/analyze", `{"content":"The chairman spoke.","mode":"language"}`, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodePayload(t, rr)

	result, ok := payload["analysis"].(map[string]any)
	if !ok {
		t.Fatalf("expected analysis object in %v", payload)
	}
	issues, ok := result["issues"].([]any)
	if !ok || len(issues) != 1 {
		t.Fatalf("expected one issue, got %v", result["issues"])
	}
	issue := issues[0].(map[string]any)
	if issue["text"] != "chairman" || issue["severity"] != "medium" {
		t.Fatalf("unexpected issue %v", issue)
	}
	if issue["startIndex"] != float64(4) || issue["endIndex"] != float64(12) {
		t.Fatalf("expected offsets [4,12), got %v %v", issue["startIndex"], issue["endIndex"])
	}

	suggestion, ok := payload["modeSuggestion"].(map[string]any)
	if !ok {
		t.Fatalf("expected modeSuggestion in %v", payload)
	}
	if suggestion["suggested"] != "recruitment" {
		t.Fatalf("expected recruitment suggestion, got %v", suggestion)
	}
}

func TestAnalyzeMatchingModeOmitsSuggestion(t *testing.T) {
	eng := &fakeEngine{
		classifyFn: func(context.Context, string) (analysis.Classification, error) {
			return analysis.Classification{DetectedType: "language", Confidence: 0.95}, nil
		},
	}
	server, token := analyzeServer(t, eng)

	rr := postJSON(t, server, "/api/analyze", `{"content":"Some text.","mode":"language"}`, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if _, present := decodePayload(t, rr)["modeSuggestion"]; present {
		t.Fatalf("expected no modeSuggestion, got %s", rr.Body.String())
	}
}
