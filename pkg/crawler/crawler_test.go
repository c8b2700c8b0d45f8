package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPauserDefaultsNonPositiveDelay(t *testing.T) {
	assert.Equal(t, defaultPageDelay, newPauser(0).delay)
	assert.Equal(t, defaultPageDelay, newPauser(-time.Second).delay)
	assert.Equal(t, time.Millisecond, newPauser(time.Millisecond).delay)
}

func TestPauserHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newPauser(time.Hour).pause(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
