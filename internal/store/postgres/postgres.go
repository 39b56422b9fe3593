package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"task-manager/internal/model"
)

type options struct {
	maxConns    int32
	minConns    int32
	maxLifetime time.Duration
	maxIdleTime time.Duration
	logger      *slog.Logger
	logQueries  bool
}

type Option func(*options)

func WithMaxConns(n int32) Option {
	return func(o *options) { o.maxConns = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLogQueries logs every statement at debug level.
func WithLogQueries(enable bool) Option {
	return func(o *options) { o.logQueries = enable }
}

// OpenPool parses url, builds the pool and pings it once.
func OpenPool(ctx context.Context, url string, opts ...Option) (*pgxpool.Pool, error) {
	o := &options{
		maxConns:    10,
		minConns:    0,
		maxLifetime: time.Hour,
		maxIdleTime: 30 * time.Minute,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	cfg.MaxConns = o.maxConns
	cfg.MinConns = o.minConns
	cfg.MaxConnLifetime = o.maxLifetime
	cfg.MaxConnIdleTime = o.maxIdleTime
	if o.logQueries {
		cfg.ConnConfig.Tracer = &queryLogger{logger: o.logger}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging postgres: %w", model.ErrStoreUnavailable, err)
	}
	return pool, nil
}

// handlePgError maps driver errors onto the model's sentinel errors.
func handlePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}
	return err
}

type queryLogger struct {
	logger *slog.Logger
}

func (l *queryLogger) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	l.logger.DebugContext(ctx, "query start", "sql", data.SQL)
	return ctx
}

func (l *queryLogger) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	if data.Err != nil {
		l.logger.DebugContext(ctx, "query end", "error", data.Err.Error())
		return
	}
	l.logger.DebugContext(ctx, "query end", "command_tag", data.CommandTag.String())
}
