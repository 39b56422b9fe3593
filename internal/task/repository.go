package task

import (
	"context"

	"task-manager/internal/model"
)

// TaskRepository is implemented by every storage backend. Implementations
// return model.ErrNotFound for unknown ids and wrap connectivity failures
// with model.ErrStoreUnavailable.
type TaskRepository interface {
	Insert(ctx context.Context, t model.Task) error
	List(ctx context.Context) ([]model.Task, error)
	Get(ctx context.Context, id string) (model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}
