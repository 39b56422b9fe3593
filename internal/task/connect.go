package task

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// OpenFunc opens a backend and returns it once it answers.
type OpenFunc func(ctx context.Context) (TaskRepository, error)

type ConnectConfig struct {
	Attempts       int           // total tries, e.g. 10
	AttemptTimeout time.Duration // per try, e.g. 5s
	Backoff        BackoffConfig
	RNG            *rand.Rand
}

func DefaultConnectConfig() ConnectConfig {
	return ConnectConfig{
		Attempts:       10,
		AttemptTimeout: 5 * time.Second,
		Backoff:        DefaultBackoff(),
	}
}

// Connect calls open until it succeeds, the attempts run out or ctx is
// canceled, sleeping with backoff between tries.
func Connect(ctx context.Context, open OpenFunc, cfg ConnectConfig, logger *slog.Logger) (TaskRepository, error) {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultConnectConfig().AttemptTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.AttemptTimeout)
		repo, err := open(attemptCtx)
		cancel()
		if err == nil {
			logger.InfoContext(ctx, "store connected", "attempt", attempt)
			return repo, nil
		}
		lastErr = err

		if attempt == cfg.Attempts {
			break
		}

		wait := RetryDelay(attempt, cfg.Backoff, cfg.RNG)
		logger.WarnContext(ctx, "store not reachable, retrying",
			"attempt", attempt,
			"max_attempts", cfg.Attempts,
			"retry_in", wait.String(),
			"err", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %w", ErrStoreNotReady, ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrStoreNotReady, cfg.Attempts, lastErr)
}
