// Package sqlstore keeps tasks in SQLite or MySQL through database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"task-manager/internal/model"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS tasks (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    completed   BOOLEAN NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS tasks_created_at_idx ON tasks (created_at DESC)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS tasks (
    id          VARCHAR(36) PRIMARY KEY,
    title       TEXT NOT NULL,
    description TEXT NOT NULL,
    completed   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  BIGINT NOT NULL,
    INDEX tasks_created_at_idx (created_at)
)`,
	},
}

// taskRow is the storage shape; created_at is unix milliseconds so ordering
// behaves the same on every dialect.
type taskRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Completed   bool   `db:"completed"`
	CreatedAt   int64  `db:"created_at"`
}

func toRow(t model.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UnixMilli(),
	}
}

func (r taskRow) task() model.Task {
	return model.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		CreatedAt:   time.UnixMilli(r.CreatedAt).UTC(),
	}
}

type TaskStore struct {
	db     *sqlx.DB
	driver string
}

// Open opens dsn with the given driver (DriverSQLite or DriverMySQL), pings it
// and creates the tasks table.
func Open(ctx context.Context, driverName, dsn string) (*TaskStore, error) {
	stmts, ok := schemas[driverName]
	if !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driverName)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	if driverName == DriverSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: pinging %s: %w", model.ErrStoreUnavailable, driverName, err)
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	return &TaskStore{db: db, driver: driverName}, nil
}

const selectTask = `SELECT id, title, description, completed, created_at FROM tasks`

func (s *TaskStore) Insert(ctx context.Context, t model.Task) error {
	const q = `INSERT INTO tasks (id, title, description, completed, created_at)
VALUES (:id, :title, :description, :completed, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, toRow(t)); err != nil {
		return fmt.Errorf("insert task: %w", mapError(err))
	}
	return nil
}

func (s *TaskStore) List(ctx context.Context) ([]model.Task, error) {
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, selectTask+` ORDER BY created_at DESC, id ASC`); err != nil {
		return nil, fmt.Errorf("list tasks: %w", mapError(err))
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (model.Task, error) {
	var r taskRow
	if err := s.db.GetContext(ctx, &r, s.db.Rebind(selectTask+` WHERE id = ?`), id); err != nil {
		return model.Task{}, mapError(err)
	}
	return r.task(), nil
}

// Update reads, merges and writes inside one transaction. MySQL locks the row
// with FOR UPDATE; SQLite serialises writers on its single connection.
func (s *TaskStore) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Task{}, fmt.Errorf("begin: %w", mapError(err))
	}
	defer func() { _ = tx.Rollback() }()

	q := selectTask + ` WHERE id = ?`
	if s.driver == DriverMySQL {
		q += ` FOR UPDATE`
	}

	var r taskRow
	if err := tx.GetContext(ctx, &r, tx.Rebind(q), id); err != nil {
		return model.Task{}, mapError(err)
	}

	updated := patch.Apply(r.task())
	const upd = `UPDATE tasks SET title = ?, description = ?, completed = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, tx.Rebind(upd), updated.Title, updated.Description, updated.Completed, id); err != nil {
		return model.Task{}, fmt.Errorf("update task: %w", mapError(err))
	}
	if err := tx.Commit(); err != nil {
		return model.Task{}, fmt.Errorf("commit: %w", mapError(err))
	}
	return updated, nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *TaskStore) Ping(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Second)
		defer cancel()
	}
	return mapError(s.db.PingContext(ctx))
}

func (s *TaskStore) Close() error {
	return s.db.Close()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}
	return err
}
