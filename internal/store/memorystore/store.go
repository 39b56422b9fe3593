package memorystore

import (
	"context"
	"fmt"
	"sync"

	"task-manager/internal/model"
)

type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]model.Task)}
}

func (s *TaskStore) Insert(ctx context.Context, t model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.ID]; exists {
		return fmt.Errorf("insert task %s: duplicate id", t.ID)
	}
	s.tasks[t.ID] = t
	return nil
}

func (s *TaskStore) List(ctx context.Context) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	s.mu.RUnlock()

	model.SortNewestFirst(out)
	return out, nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, model.ErrNotFound
	}
	return t, nil
}

func (s *TaskStore) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, model.ErrNotFound
	}

	t = patch.Apply(t)
	s.tasks[id] = t
	return t, nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *TaskStore) Ping(context.Context) error { return nil }

func (s *TaskStore) Close() error { return nil }
