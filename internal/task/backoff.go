package task

import (
	"math/rand"
	"time"
)

type BackoffConfig struct {
	BaseDelay time.Duration // e.g. 500ms
	MaxDelay  time.Duration // e.g. 10s
}

func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  10 * time.Second,
	}
}

// RetryDelay computes how long to wait before the next attempt using
// exponential backoff with full jitter. attempt is 1-based (1 => BaseDelay).
func RetryDelay(attempt int, cfg BackoffConfig, rng *rand.Rand) time.Duration {
	delay := backoffCeiling(attempt, cfg)

	// full jitter: random in [0, delay]
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return time.Duration(rng.Int63n(int64(delay) + 1))
}

// backoffCeiling is min(BaseDelay * 2^(attempt-1), MaxDelay).
func backoffCeiling(attempt int, cfg BackoffConfig) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBackoff().BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultBackoff().MaxDelay
	}

	// compare before shifting so a wrapped product never slips under the cap
	shift := attempt - 1
	if shift >= 63 || cfg.BaseDelay > cfg.MaxDelay>>shift {
		return cfg.MaxDelay
	}
	return cfg.BaseDelay << shift
}
