package startup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/moviefinder/moviefinder/internal/directory"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		MaxAttempts:  3,
		Multiplier:   2,
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", errors.New("dial tcp 127.0.0.1:80: connect: connection refused"), true},
		{"wrapped transport", directory.TransportError("search", errors.New("i/o timeout")), true},
		{"deadline", fmt.Errorf("test: %w", context.DeadlineExceeded), true},
		{"not found", directory.TransportError("fetch by id", directory.ErrNotFound), false},
		{"not configured", directory.ErrNotConfigured, false},
		{"decode", directory.DecodeError("search", errors.New("timeout field missing")), false},
		{"other", errors.New("invalid API key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNetworkError(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after network errors", func(t *testing.T) {
		attempts := 0
		err := WithRetry(context.Background(), "test", fastRetry(), func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("connection refused")
			}
			return nil
		}, zerolog.Nop())
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		attempts := 0
		err := WithRetry(context.Background(), "test", fastRetry(), func(context.Context) error {
			attempts++
			return errors.New("no such host")
		}, zerolog.Nop())
		assert.EqualError(t, err, "no such host")
		assert.Equal(t, 3, attempts)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		attempts := 0
		err := WithRetry(context.Background(), "test", fastRetry(), func(context.Context) error {
			attempts++
			return directory.ErrNotConfigured
		}, zerolog.Nop())
		assert.ErrorIs(t, err, directory.ErrNotConfigured)
		assert.Equal(t, 1, attempts)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cfg := fastRetry()
		cfg.InitialDelay = time.Hour
		err := WithRetry(ctx, "test", cfg, func(context.Context) error {
			cancel()
			return errors.New("connection reset by peer")
		}, zerolog.Nop())
		assert.ErrorIs(t, err, context.Canceled)
	})
}
