package httpapi_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"task-manager/internal/httpapi"
	"task-manager/internal/model"
	"task-manager/internal/store/deferred"
	"task-manager/internal/store/memorystore"
	"task-manager/internal/task"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := memorystore.NewTaskStore()
	srv := httpapi.NewServer(task.NewService(repo), repo, httpapi.Config{})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			r = strings.NewReader(s)
		} else {
			b, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			r = bytes.NewReader(b)
		}
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decodeTask(t *testing.T, data []byte) model.Task {
	t.Helper()
	var task model.Task
	if err := json.Unmarshal(data, &task); err != nil {
		t.Fatalf("unmarshal task: %v; body=%s", err, string(data))
	}
	return task
}

func decodeList(t *testing.T, data []byte) []model.Task {
	t.Helper()
	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		t.Fatalf("unmarshal list: %v; body=%s", err, string(data))
	}
	return tasks
}

func decodeMessage(t *testing.T, data []byte) string {
	t.Helper()
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("unmarshal message: %v; body=%s", err, string(data))
	}
	return payload.Message
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)
	c := ts.Client()
	before := time.Now().UTC().Truncate(time.Millisecond)

	resp, body := doJSON(t, c, http.MethodPost, ts.URL+"/api/tasks", map[string]any{"title": "Buy milk"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", resp.StatusCode, body)
	}
	created := decodeTask(t, body)
	if created.ID == "" || created.Completed || created.Description != "" {
		t.Fatalf("unexpected task: %+v", created)
	}
	if created.CreatedAt.Before(before) {
		t.Fatalf("createdAt %s before request %s", created.CreatedAt, before)
	}

	resp, body = doJSON(t, c, http.MethodPut, ts.URL+"/api/tasks/"+created.ID, map[string]any{"completed": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status=%d body=%s", resp.StatusCode, body)
	}
	updated := decodeTask(t, body)
	if !updated.Completed || updated.Title != "Buy milk" || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("unexpected update: %+v", updated)
	}

	resp, body = doJSON(t, c, http.MethodDelete, ts.URL+"/api/tasks/"+created.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", resp.StatusCode, body)
	}
	if msg := decodeMessage(t, body); msg != "Task deleted successfully" {
		t.Fatalf("delete message=%q", msg)
	}

	resp, body = doJSON(t, c, http.MethodGet, ts.URL+"/api/tasks/"+created.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status=%d body=%s", resp.StatusCode, body)
	}
	if msg := decodeMessage(t, body); msg != "Task not found" {
		t.Fatalf("not found message=%q", msg)
	}
}

func TestCreateTask_RequiresTitle(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []any{map[string]any{"title": "   "}, map[string]any{"description": "x"}, ""} {
		resp, data := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/tasks", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %v: status=%d data=%s", body, resp.StatusCode, data)
		}
		if msg := decodeMessage(t, data); msg != "Task title is required" {
			t.Fatalf("message=%q", msg)
		}
	}

	_, data := doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/tasks", nil)
	if got := decodeList(t, data); len(got) != 0 {
		t.Fatalf("store mutated: %+v", got)
	}
}

func TestCreateTask_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	resp, data := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/tasks", `{"title":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", resp.StatusCode, data)
	}
}

func TestCreateTask_IgnoresUnknownFields(t *testing.T) {
	ts := newTestServer(t)

	resp, data := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/tasks",
		map[string]any{"title": "  Write report ", "priority": "high"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status=%d body=%s", resp.StatusCode, data)
	}
	if got := decodeTask(t, data); got.Title != "Write report" {
		t.Fatalf("title=%q", got.Title)
	}
}

func TestCreateTask_BodyTooLarge(t *testing.T) {
	repo := memorystore.NewTaskStore()
	srv := httpapi.NewServer(task.NewService(repo), repo, httpapi.Config{})

	big := `{"title":"` + strings.Repeat("a", 2<<20) + `"}`
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(big)))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d body=%.100s", w.Code, w.Body.String())
	}
}

func TestListTasks_NewestFirst(t *testing.T) {
	ts := newTestServer(t)

	for _, title := range []string{"first", "second", "third"} {
		resp, data := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/tasks", map[string]any{"title": title})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status=%d body=%s", resp.StatusCode, data)
		}
	}

	resp, data := doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/tasks", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, data)
	}
	got := decodeList(t, data)
	if len(got) != 3 {
		t.Fatalf("len=%d", len(got))
	}
	for i, want := range []string{"third", "second", "first"} {
		if got[i].Title != want {
			t.Fatalf("pos %d: got %q want %q", i, got[i].Title, want)
		}
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].CreatedAt.After(got[i].CreatedAt) {
			t.Fatalf("not strictly descending at %d", i)
		}
	}
}

func TestListTasks_EmptyIsArray(t *testing.T) {
	ts := newTestServer(t)

	_, data := doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/tasks", nil)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("body=%s", data)
	}
}

func TestListTasks_CompletedFilter(t *testing.T) {
	ts := newTestServer(t)

	_, data := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/tasks", map[string]any{"title": "done"})
	done := decodeTask(t, data)
	doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/tasks", map[string]any{"title": "open"})
	doJSON(t, ts.Client(), http.MethodPut, ts.URL+"/api/tasks/"+done.ID, map[string]any{"completed": true})

	_, data = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/tasks?completed=true", nil)
	got := decodeList(t, data)
	if len(got) != 1 || got[0].ID != done.ID {
		t.Fatalf("unexpected filter result: %+v", got)
	}

	resp, data := doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/tasks?completed=maybe", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", resp.StatusCode, data)
	}
}

func TestUpdateTask_Missing(t *testing.T) {
	ts := newTestServer(t)

	resp, data := doJSON(t, ts.Client(), http.MethodPut, ts.URL+"/api/tasks/nope", map[string]any{"completed": true})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", resp.StatusCode, data)
	}
}

func TestUpdateTask_RejectsBlankTitle(t *testing.T) {
	ts := newTestServer(t)

	_, data := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/tasks", map[string]any{"title": "keep"})
	created := decodeTask(t, data)

	resp, data := doJSON(t, ts.Client(), http.MethodPut, ts.URL+"/api/tasks/"+created.ID, map[string]any{"title": " "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", resp.StatusCode, data)
	}

	_, data = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/tasks/"+created.ID, nil)
	if got := decodeTask(t, data); got.Title != "keep" {
		t.Fatalf("title=%q", got.Title)
	}
}

func TestUpdateTask_EmptyPatchReturnsCurrent(t *testing.T) {
	ts := newTestServer(t)

	_, data := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/tasks", map[string]any{"title": "same", "description": "d"})
	created := decodeTask(t, data)

	resp, data := doJSON(t, ts.Client(), http.MethodPut, ts.URL+"/api/tasks/"+created.ID, map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, data)
	}
	got := decodeTask(t, data)
	if got.ID != created.ID || got.Title != created.Title || got.Description != created.Description ||
		got.Completed != created.Completed || !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("got %+v want %+v", got, created)
	}
}

func TestDeleteTask_Missing(t *testing.T) {
	ts := newTestServer(t)

	resp, data := doJSON(t, ts.Client(), http.MethodDelete, ts.URL+"/api/tasks/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", resp.StatusCode, data)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, ts.Client(), http.MethodPatch, ts.URL+"/api/tasks/x", map[string]any{})
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestExportTasks(t *testing.T) {
	ts := newTestServer(t)
	doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/tasks", map[string]any{"title": "Buy milk", "description": "2l"})

	resp, data := doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/tasks/export?format=csv", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, data)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content-type=%q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "tasks.csv") {
		t.Fatalf("content-disposition=%q", cd)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil || len(rows) != 2 || rows[1][1] != "Buy milk" {
		t.Fatalf("rows=%v err=%v", rows, err)
	}

	resp, _ = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/tasks/export?format=pdf", nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf status=%d ct=%q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	resp, _ = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/tasks/export?format=xml", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("xml status=%d", resp.StatusCode)
	}
}

func TestHealth_Connected(t *testing.T) {
	ts := newTestServer(t)

	resp, data := doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, data)
	}
	var h struct {
		Status    string `json:"status"`
		Database  string `json:"database"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &h); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if h.Status != "UP" || h.Database != "Connected" {
		t.Fatalf("health=%+v", h)
	}
	if _, err := time.Parse(time.RFC3339, h.Timestamp); err != nil {
		t.Fatalf("timestamp=%q", h.Timestamp)
	}
}

func TestStoreUnavailable(t *testing.T) {
	repo := deferred.New()
	srv := httpapi.NewServer(task.NewService(repo), repo, httpapi.Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, data := doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status=%d", resp.StatusCode)
	}
	if !strings.Contains(string(data), `"database":"Disconnected"`) {
		t.Fatalf("health body=%s", data)
	}

	resp, data = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/tasks", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("list status=%d body=%s", resp.StatusCode, data)
	}
	msg := decodeMessage(t, data)
	if msg != "Failed to fetch tasks. Please try again." || strings.Contains(msg, "unavailable") {
		t.Fatalf("message leaks or changed: %q", msg)
	}

	resp, _ = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/readyz", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", resp.StatusCode)
	}

	repo.Set(memorystore.NewTaskStore())

	_, data = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/health", nil)
	if !strings.Contains(string(data), `"database":"Connected"`) {
		t.Fatalf("health after connect=%s", data)
	}
	resp, _ = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/tasks", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list after connect status=%d", resp.StatusCode)
	}
}

type panicService struct{ httpapi.TaskService }

func (panicService) List(context.Context) ([]model.Task, error) { panic("boom") }

type failingService struct{ httpapi.TaskService }

func (failingService) Get(context.Context, string) (model.Task, error) {
	return model.Task{}, errors.New("connection reset by peer")
}

func TestPanicRecovered(t *testing.T) {
	srv := httpapi.NewServer(panicService{}, nil, httpapi.Config{})
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestRequestTimeoutBoundsStoreCalls(t *testing.T) {
	repo := memorystore.NewTaskStore()
	svc := task.NewService(repo, task.WithStoreTimeout(time.Minute))
	srv := httpapi.NewServer(svc, repo, httpapi.Config{RequestTimeout: time.Nanosecond})
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if msg := decodeMessage(t, w.Body.Bytes()); msg != "Failed to fetch tasks. Please try again." {
		t.Fatalf("message=%q", msg)
	}
}

func TestInternalErrorNotLeaked(t *testing.T) {
	srv := httpapi.NewServer(failingService{}, nil, httpapi.Config{})
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/abc", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection reset") {
		t.Fatalf("cause leaked: %s", w.Body.String())
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("X-Request-Id", "rid-123")
	req.Header.Set("Origin", "http://localhost:8080")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("X-Request-Id"); got != "rid-123" {
		t.Fatalf("request id=%q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin=%q", got)
	}

	resp, _ = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/healthz", nil)
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Tasks</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	repo := memorystore.NewTaskStore()
	srv := httpapi.NewServer(task.NewService(repo), repo, httpapi.Config{StaticDir: dir})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, data := doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "Tasks") {
		t.Fatalf("status=%d body=%s", resp.StatusCode, data)
	}

	resp, _ = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/tasks", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("api shadowed by static files: %d", resp.StatusCode)
	}
}
