package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"task-manager/internal/model"
	"task-manager/internal/store/storetest"
	"task-manager/internal/task"
)

func TestTaskStore_SQLite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) task.TaskRepository {
		path := filepath.Join(t.TempDir(), "tasks.db")
		s, err := Open(context.Background(), DriverSQLite, path)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestTaskStore_MySQL(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set (integration test)")
	}

	storetest.Run(t, func(t *testing.T) task.TaskRepository {
		s, err := Open(context.Background(), DriverMySQL, dsn)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.db.Exec(`DELETE FROM tasks`); err != nil {
			t.Fatalf("clean: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")

	s, err := Open(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	in := model.Task{
		ID:        "task-1",
		Title:     "survive restart",
		CreatedAt: time.Date(2026, 2, 25, 12, 0, 0, 5_000_000, time.UTC),
	}
	if err := s.Insert(ctx, in); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_ = s.Close()

	s, err = Open(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CreatedAt.Equal(in.CreatedAt) || got.Title != in.Title {
		t.Fatalf("got %+v want %+v", got, in)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMapError(t *testing.T) {
	if err := mapError(fmt.Errorf("scan: %w", sql.ErrNoRows)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
