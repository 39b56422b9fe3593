package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"task-manager/internal/observability/logging"
)

func TestLogging_RecordsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, logging.Config{})

	h := WithRequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v; line=%s", err, buf.String())
	}
	if rec["msg"] != "http_request" || rec["rid"] != "rid-1" || rec["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RequestIDFromContext(req.Context()); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestRecover_WritesErrorBeforeResponse(t *testing.T) {
	h := Recover(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal server error") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRecover_KeepsStartedResponse(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, logging.Config{})

	h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("id,title\n"))
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/export", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status to stay 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "id,title\n" {
		t.Fatalf("body was appended to: %q", got)
	}
	if !strings.Contains(buf.String(), "handler panic") {
		t.Fatalf("expected panic to be logged, got %s", buf.String())
	}
}

func TestRecover_BodyWithoutWriteHeader(t *testing.T) {
	h := Recover(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("partial"))
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "partial" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}
