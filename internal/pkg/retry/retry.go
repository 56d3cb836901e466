package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 10
	defaultDelay    = 200 * time.Millisecond
	defaultMaxDelay = 20 * time.Second
)

type RetryConfig struct {
	Attempts uint          `yaml:"attempts" env:"ATTEMPTS"`
	Delay    time.Duration `yaml:"delay" env:"DELAY"`
	MaxDelay time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
}

// ToRetryOptions builds exponential backoff with jitter capped at MaxDelay.
// Attempts counts the first call, so Attempts=10 means at most nine retries.
func (rc *RetryConfig) ToRetryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(rc.Attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(rc.Delay),
		retry.LastErrorOnly(true),
	}
}

// WithDefaults fills zero fields with the package defaults.
func (rc RetryConfig) WithDefaults() RetryConfig {
	if rc.Attempts == 0 {
		rc.Attempts = defaultAttempts
	}
	if rc.Delay == 0 {
		rc.Delay = defaultDelay
	}
	if rc.MaxDelay == 0 {
		rc.MaxDelay = defaultMaxDelay
	}
	return rc
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}
