package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/sentinel"
)

func TestOnce(t *testing.T) {
	t.Run("succeeds on second attempt after transport error", func(t *testing.T) {
		calls := 0
		got, err := OnceWithBackoff(context.Background(), time.Millisecond, func(context.Context) (int, error) {
			calls++
			if calls == 1 {
				return 0, sentinel.ErrUnavailable
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 2, calls)
	})

	t.Run("retries at most once", func(t *testing.T) {
		calls := 0
		_, err := OnceWithBackoff(context.Background(), time.Millisecond, func(context.Context) (int, error) {
			calls++
			return 0, errors.New("connection refused")
		})
		require.Error(t, err)
		assert.Equal(t, 2, calls)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("does not retry non-retryable errors", func(t *testing.T) {
		calls := 0
		_, err := Once(context.Background(), func(context.Context) (string, error) {
			calls++
			return "", sentinel.ErrNotFound
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("permission denied is retried once then surfaced distinctly", func(t *testing.T) {
		calls := 0
		_, err := OnceWithBackoff(context.Background(), time.Millisecond, func(context.Context) (int, error) {
			calls++
			return 0, sentinel.ErrPermissionDenied
		})
		require.Error(t, err)
		assert.Equal(t, 2, calls)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("stops when context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := Once(ctx, func(context.Context) (int, error) {
			calls++
			cancel()
			return 0, sentinel.ErrUnavailable
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
