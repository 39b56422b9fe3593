package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"task-manager/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL CHECK (btrim(title) <> ''),
    description TEXT NOT NULL DEFAULT '',
    completed   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS tasks_created_at_idx ON tasks (created_at DESC);
`

const taskColumns = `id, title, description, completed, created_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// Open connects to url and makes sure the tasks table exists.
func Open(ctx context.Context, url string, opts ...Option) (*TaskRepo, error) {
	pool, err := OpenPool(ctx, url, opts...)
	if err != nil {
		return nil, err
	}
	r := NewTaskRepo(pool)
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *TaskRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", handlePgError(err))
	}
	return nil
}

func (r *TaskRepo) Insert(ctx context.Context, t model.Task) error {
	const q = `
INSERT INTO tasks (id, title, description, completed, created_at)
VALUES ($1, $2, $3, $4, $5);
`
	if _, err := r.pool.Exec(ctx, q, t.ID, t.Title, t.Description, t.Completed, t.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert task: %w", handlePgError(err))
	}
	return nil
}

func (r *TaskRepo) List(ctx context.Context) ([]model.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, id ASC;`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", handlePgError(err))
	}
	tasks, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Task])
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", handlePgError(err))
	}
	for i := range tasks {
		tasks[i].CreatedAt = tasks[i].CreatedAt.UTC()
	}
	return tasks, nil
}

func (r *TaskRepo) Get(ctx context.Context, id string) (model.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1;`

	t, err := scanTask(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return model.Task{}, handlePgError(err)
	}
	return t, nil
}

// Update applies the patch in a single statement so concurrent writers never
// observe a half-merged row.
func (r *TaskRepo) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	const q = `
UPDATE tasks
SET title       = COALESCE($2, title),
    description = COALESCE($3, description),
    completed   = COALESCE($4, completed)
WHERE id = $1
RETURNING ` + taskColumns + `;
`
	t, err := scanTask(r.pool.QueryRow(ctx, q, id, patch.Title, patch.Description, patch.Completed))
	if err != nil {
		return model.Task{}, handlePgError(err)
	}
	return t, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", handlePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *TaskRepo) Ping(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Second)
		defer cancel()
	}
	return handlePgError(r.pool.Ping(ctx))
}

func (r *TaskRepo) Close() error {
	r.pool.Close()
	return nil
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt); err != nil {
		return model.Task{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}
