package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	server := NewHTTPServer(newTestService(newFakeStore()), "*")
	rr := getJSON(t, server, "/api/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if decodePayload(t, rr)["ok"] != true {
		t.Fatalf("expected ok true, got %s", rr.Body.String())
	}
}

func TestReadyEndpointSuccess(t *testing.T) {
	server := NewHTTPServer(newTestService(newFakeStore()), "*")
	rr := getJSON(t, server, "/api/ready", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if decodePayload(t, rr)["status"] != "ready" {
		t.Fatalf("expected ready, got %s", rr.Body.String())
	}
}

func TestReadyEndpointDatabaseFailure(t *testing.T) {
	fs := newFakeStore()
	fs.pingFn = func(context.Context) error { return errors.New("connection refused") }
	server := NewHTTPServer(newTestService(fs), "*")

	rr := getJSON(t, server, "/api/ready", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", rr.Code, rr.Body.String())
	}
	if decodePayload(t, rr)["status"] != "not_ready" {
		t.Fatalf("expected not_ready, got %s", rr.Body.String())
	}
}

func TestOptionsRequestShortCircuits(t *testing.T) {
	server := NewHTTPServer(newTestService(newFakeStore()), "*")
	req := httptest.NewRequest(http.MethodOptions, "/api/documents", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS origin header, got %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRequestIDPropagates(t *testing.T) {
	server := NewHTTPServer(newTestService(newFakeStore()), "*")
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") != "req-123" {
		t.Fatalf("expected request id to echo, got %q", rr.Header().Get("X-Request-ID"))
	}
}
