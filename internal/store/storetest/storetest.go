// Package storetest holds the behaviour every task.TaskRepository must share.
// Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"task-manager/internal/ids"
	"task-manager/internal/model"
	"task-manager/internal/task"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) task.TaskRepository

var base = time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)

func newTask(title string, offset time.Duration) model.Task {
	return model.Task{
		ID:          ids.NewID(),
		Title:       title,
		Description: "",
		CreatedAt:   base.Add(offset),
	}
}

func Run(t *testing.T, newRepo Factory) {
	t.Run("InsertThenGet", func(t *testing.T) { testInsertThenGet(t, newRepo(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newRepo(t)) })
	t.Run("ListNewestFirst", func(t *testing.T) { testListNewestFirst(t, newRepo(t)) })
	t.Run("ListEmpty", func(t *testing.T) { testListEmpty(t, newRepo(t)) })
	t.Run("UpdatePartial", func(t *testing.T) { testUpdatePartial(t, newRepo(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newRepo(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newRepo(t)) })
	t.Run("DeleteMissing", func(t *testing.T) { testDeleteMissing(t, newRepo(t)) })
	t.Run("ConcurrentUpdates", func(t *testing.T) { testConcurrentUpdates(t, newRepo(t)) })
	t.Run("Ping", func(t *testing.T) { testPing(t, newRepo(t)) })
	t.Run("ExpiredContext", func(t *testing.T) { testExpiredContext(t, newRepo(t)) })
}

func mustInsert(t *testing.T, repo task.TaskRepository, tk model.Task) {
	t.Helper()
	if err := repo.Insert(context.Background(), tk); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func sameTask(a, b model.Task) bool {
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.Description == b.Description &&
		a.Completed == b.Completed &&
		a.CreatedAt.Equal(b.CreatedAt)
}

func testInsertThenGet(t *testing.T, repo task.TaskRepository) {
	ctx := context.Background()
	in := newTask("Buy milk", 0)
	in.Description = "2 litres"
	mustInsert(t, repo, in)

	got, err := repo.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !sameTask(got, in) {
		t.Fatalf("round trip mismatch\n got=%+v\nwant=%+v", got, in)
	}
}

func testGetMissing(t *testing.T, repo task.TaskRepository) {
	_, err := repo.Get(context.Background(), ids.NewID())
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testListNewestFirst(t *testing.T, repo task.TaskRepository) {
	const n = 5
	for i := 0; i < n; i++ {
		// inserted out of order on purpose
		offset := time.Duration((i*3)%n) * time.Minute
		mustInsert(t, repo, newTask(fmt.Sprintf("task %d", i), offset))
	}

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != n {
		t.Fatalf("expected %d tasks, got %d", n, len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].CreatedAt.After(got[i].CreatedAt) {
			t.Fatalf("not strictly descending at %d: %s then %s", i, got[i-1].CreatedAt, got[i].CreatedAt)
		}
	}
}

func testListEmpty(t *testing.T, repo task.TaskRepository) {
	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
}

func testUpdatePartial(t *testing.T, repo task.TaskRepository) {
	ctx := context.Background()
	in := newTask("Write tests", 0)
	in.Description = "for every backend"
	mustInsert(t, repo, in)

	done := true
	updated, err := repo.Update(ctx, in.ID, model.TaskPatch{Completed: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed {
		t.Fatalf("expected completed=true")
	}
	if updated.Title != in.Title || updated.Description != in.Description || !updated.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("unsupplied fields changed: %+v", updated)
	}

	title, desc := "Write more tests", ""
	updated, err = repo.Update(ctx, in.ID, model.TaskPatch{Title: &title, Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title || updated.Description != "" || !updated.Completed {
		t.Fatalf("unexpected task after second update: %+v", updated)
	}

	got, err := repo.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !sameTask(got, updated) {
		t.Fatalf("get after update mismatch\n got=%+v\nwant=%+v", got, updated)
	}
}

func testUpdateMissing(t *testing.T, repo task.TaskRepository) {
	ctx := context.Background()
	mustInsert(t, repo, newTask("keep me", 0))

	done := true
	_, err := repo.Update(ctx, ids.NewID(), model.TaskPatch{Completed: &done})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].Completed {
		t.Fatalf("store changed: %+v", all)
	}
}

func testDelete(t *testing.T, repo task.TaskRepository) {
	ctx := context.Background()
	a := newTask("a", 0)
	b := newTask("b", time.Minute)
	mustInsert(t, repo, a)
	mustInsert(t, repo, b)

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, a.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].ID != b.ID {
		t.Fatalf("unexpected list after delete: %+v", all)
	}
}

func testDeleteMissing(t *testing.T, repo task.TaskRepository) {
	err := repo.Delete(context.Background(), ids.NewID())
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testConcurrentUpdates(t *testing.T, repo task.TaskRepository) {
	ctx := context.Background()
	in := newTask("contended", 0)
	mustInsert(t, repo, in)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			done := i%2 == 0
			if _, err := repo.Update(ctx, in.ID, model.TaskPatch{Completed: &done}); err != nil {
				errs <- err
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			desc := fmt.Sprintf("writer %d", i)
			if _, err := repo.Update(ctx, in.ID, model.TaskPatch{Description: &desc}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent update: %v", err)
	}

	got, err := repo.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != in.Title || !got.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("torn record: %+v", got)
	}
}

func testPing(t *testing.T, repo task.TaskRepository) {
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func testExpiredContext(t *testing.T, repo task.TaskRepository) {
	tk := newTask("keep", 0)
	mustInsert(t, repo, tk)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	if _, err := repo.List(ctx); err == nil {
		t.Fatalf("list: expected error on expired context")
	}
	if _, err := repo.Get(ctx, tk.ID); err == nil {
		t.Fatalf("get: expected error on expired context")
	}
	done := true
	if _, err := repo.Update(ctx, tk.ID, model.TaskPatch{Completed: &done}); err == nil {
		t.Fatalf("update: expected error on expired context")
	}
	if err := repo.Delete(ctx, tk.ID); err == nil {
		t.Fatalf("delete: expected error on expired context")
	}

	got, err := repo.Get(context.Background(), tk.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !sameTask(got, tk) {
		t.Fatalf("task changed: %+v", got)
	}
}
