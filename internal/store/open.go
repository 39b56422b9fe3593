// Package store picks the task backend named in the configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"task-manager/internal/config"
	"task-manager/internal/store/memorystore"
	"task-manager/internal/store/mongostore"
	"task-manager/internal/store/postgres"
	"task-manager/internal/store/sqlstore"
	"task-manager/internal/task"
)

// Opener returns the function the connect loop calls to reach the configured
// backend. Every call opens a fresh connection; a failed attempt leaves
// nothing behind.
func Opener(cfg config.StoreConfig, logger *slog.Logger) (task.OpenFunc, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return func(context.Context) (task.TaskRepository, error) {
			return memorystore.NewTaskStore(), nil
		}, nil
	case config.BackendPostgres:
		return func(ctx context.Context) (task.TaskRepository, error) {
			return postgres.Open(ctx, cfg.URL,
				postgres.WithLogger(logger),
				postgres.WithLogQueries(cfg.LogQueries))
		}, nil
	case config.BackendMongo:
		return func(ctx context.Context) (task.TaskRepository, error) {
			return mongostore.Open(ctx, cfg.URL, cfg.Database)
		}, nil
	case config.BackendSQLite:
		return func(ctx context.Context) (task.TaskRepository, error) {
			return sqlstore.Open(ctx, sqlstore.DriverSQLite, cfg.URL)
		}, nil
	case config.BackendMySQL:
		return func(ctx context.Context) (task.TaskRepository, error) {
			return sqlstore.Open(ctx, sqlstore.DriverMySQL, cfg.URL)
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
