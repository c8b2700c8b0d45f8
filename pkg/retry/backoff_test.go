package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Sleep:        func(context.Context, time.Duration) error { return nil },
	}
}

func TestWithBackoffSucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), testConfig(), zaptest.NewLogger(t), "fetch", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithBackoffExhaustsBudget(t *testing.T) {
	wrapped := errors.New("permanent")
	attempts := 0
	err := WithBackoff(context.Background(), testConfig(), zaptest.NewLogger(t), "fetch", func() error {
		attempts++
		return wrapped
	})
	require.ErrorIs(t, err, wrapped)
	assert.Equal(t, 3, attempts)
}

func TestWithBackoffStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := testConfig()
	cfg.Sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	attempts := 0
	err := WithBackoff(ctx, cfg, zaptest.NewLogger(t), "fetch", func() error {
		attempts++
		return errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 10

	assert.Equal(t, time.Second, calculateBackoff(cfg, 1))
	assert.Equal(t, 2*time.Second, calculateBackoff(cfg, 2))
	assert.Equal(t, 4*time.Second, calculateBackoff(cfg, 3))
	// Beyond the cap every delay clamps to MaxDelay.
	assert.Equal(t, cfg.MaxDelay, calculateBackoff(cfg, 9))
}
