package client_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"task-manager/internal/client"
	"task-manager/internal/httpapi"
	"task-manager/internal/model"
	"task-manager/internal/store/deferred"
	"task-manager/internal/store/memorystore"
	"task-manager/internal/task"
)

func newClient(t *testing.T, repo task.TaskRepository) *client.Client {
	t.Helper()
	ts := httptest.NewServer(httpapi.NewServer(task.NewService(repo), repo, httpapi.Config{}))
	t.Cleanup(ts.Close)
	return client.New(ts.URL+"/", client.WithHTTPClient(ts.Client()))
}

func TestClient_CRUD(t *testing.T) {
	ctx := context.Background()
	c := newClient(t, memorystore.NewTaskStore())

	created, err := c.Create(ctx, "Buy milk", "2l")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Title != "Buy milk" || created.Description != "2l" {
		t.Fatalf("created=%+v", created)
	}

	done := true
	updated, err := c.Update(ctx, created.ID, model.TaskPatch{Completed: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed || updated.Title != "Buy milk" {
		t.Fatalf("updated=%+v", updated)
	}

	got, err := c.Get(ctx, created.ID)
	if err != nil || !got.Completed {
		t.Fatalf("get=%+v err=%v", got, err)
	}

	list, err := c.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list=%+v err=%v", list, err)
	}

	if err := c.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, created.ID); !client.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClient_APIErrorCarriesMessage(t *testing.T) {
	c := newClient(t, memorystore.NewTaskStore())

	_, err := c.Create(context.Background(), "  ", "")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != 400 || apiErr.Message != "Task title is required" {
		t.Fatalf("apiErr=%+v", apiErr)
	}
}

func TestClient_Health(t *testing.T) {
	ctx := context.Background()
	repo := deferred.New()
	c := newClient(t, repo)

	h, err := c.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if h.Connected() {
		t.Fatalf("expected disconnected, got %+v", h)
	}

	repo.Set(memorystore.NewTaskStore())
	h, err = c.Health(ctx)
	if err != nil || !h.Connected() || h.Status != "UP" {
		t.Fatalf("health=%+v err=%v", h, err)
	}
}

func TestClient_Unreachable(t *testing.T) {
	c := client.New("http://127.0.0.1:1")
	if _, err := c.List(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
