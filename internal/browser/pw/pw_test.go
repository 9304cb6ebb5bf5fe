package pw

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/config"
)

func TestNearLabelSelector(t *testing.T) {
	assert.Equal(t,
		`label:visible:has-text("Last Name") >> xpath=following::*[self::input or self::select or self::textarea][1]`,
		NearLabelSelector("Last Name"))
	assert.Contains(t, NearLabelSelector(`say "hi" \o/`), `has-text("say \"hi\" \\o/")`)
}

func TestMillis(t *testing.T) {
	assert.Equal(t, 800.0, millis(800*time.Millisecond, time.Second))
	assert.Equal(t, 1000.0, millis(0, time.Second))
}

func TestDriver_NotStarted(t *testing.T) {
	d := NewDriver(config.NewDefaultConfig().Browser, zaptest.NewLogger(t))
	assert.Equal(t, config.DriverPlaywright, d.Name())

	_, err := d.NewPage(context.Background(), "page-1")
	require.Error(t, err)
	assert.NoError(t, d.Stop(context.Background()), "stopping an idle driver is a no-op")
}

func TestWaitMillis(t *testing.T) {
	t.Run("no deadline keeps timeout", func(t *testing.T) {
		ms, err := waitMillis(context.Background(), 800*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 800.0, ms)
	})

	t.Run("capped by deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		ms, err := waitMillis(ctx, 5*time.Second)
		require.NoError(t, err)
		assert.Greater(t, ms, 0.0)
		assert.LessOrEqual(t, ms, 200.0)
	})

	t.Run("sub-millisecond remainder never becomes zero", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(500*time.Microsecond))
		defer cancel()
		ms, err := waitMillis(ctx, 800*time.Millisecond)
		if err != nil {
			// The deadline may already have passed on a slow runner.
			assert.ErrorIs(t, err, browser.ErrNotVisible)
			return
		}
		assert.Equal(t, 1.0, ms)
	})

	t.Run("zero timeout becomes one millisecond", func(t *testing.T) {
		ms, err := waitMillis(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, 1.0, ms)
	})

	t.Run("expired deadline", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		_, err := waitMillis(ctx, 800*time.Millisecond)
		assert.ErrorIs(t, err, browser.ErrNotVisible)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
