// Package deferred provides a repository that answers ErrStoreUnavailable
// until a real backend is installed. If the startup connect loop gives up,
// nothing is installed and the server runs degraded.
package deferred

import (
	"context"
	"sync/atomic"

	"task-manager/internal/model"
	"task-manager/internal/task"
)

type holder struct {
	repo task.TaskRepository
}

type Store struct {
	cur atomic.Pointer[holder]
}

func New() *Store {
	return &Store{}
}

// Set installs the connected backend. Later calls replace it.
func (s *Store) Set(repo task.TaskRepository) {
	s.cur.Store(&holder{repo: repo})
}

// Ready reports whether a backend has been installed.
func (s *Store) Ready() bool {
	return s.backend() != nil
}

func (s *Store) backend() task.TaskRepository {
	h := s.cur.Load()
	if h == nil {
		return nil
	}
	return h.repo
}

func (s *Store) Insert(ctx context.Context, t model.Task) error {
	repo := s.backend()
	if repo == nil {
		return model.ErrStoreUnavailable
	}
	return repo.Insert(ctx, t)
}

func (s *Store) List(ctx context.Context) ([]model.Task, error) {
	repo := s.backend()
	if repo == nil {
		return nil, model.ErrStoreUnavailable
	}
	return repo.List(ctx)
}

func (s *Store) Get(ctx context.Context, id string) (model.Task, error) {
	repo := s.backend()
	if repo == nil {
		return model.Task{}, model.ErrStoreUnavailable
	}
	return repo.Get(ctx, id)
}

func (s *Store) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	repo := s.backend()
	if repo == nil {
		return model.Task{}, model.ErrStoreUnavailable
	}
	return repo.Update(ctx, id, patch)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	repo := s.backend()
	if repo == nil {
		return model.ErrStoreUnavailable
	}
	return repo.Delete(ctx, id)
}

func (s *Store) Ping(ctx context.Context) error {
	repo := s.backend()
	if repo == nil {
		return model.ErrStoreUnavailable
	}
	return repo.Ping(ctx)
}

func (s *Store) Close() error {
	repo := s.backend()
	if repo == nil {
		return nil
	}
	return repo.Close()
}
