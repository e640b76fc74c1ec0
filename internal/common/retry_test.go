package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/coorte/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	errPending := errors.New("pending")
	errFatal := errors.New("fatal")
	opts := service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{name: "succeeds first time", failures: 0, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, err: &RetryableError{Err: errPending, Retryable: true}, wantCalls: 3},
		{name: "exhausts attempts", failures: 5, err: &RetryableError{Err: errPending, Retryable: true}, wantCalls: 3, wantErr: ErrMaxRetries},
		{name: "plain error is not retried", failures: 5, err: errFatal, wantCalls: 1, wantErr: errFatal},
		{name: "non-retryable error", failures: 5, err: &RetryableError{Err: errFatal}, wantCalls: 1, wantErr: errFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			}, opts)

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := WithRetry(ctx, func() error {
		calls++
		cancel()
		return &RetryableError{Err: errors.New("pending"), Retryable: true}
	}, service.RetryOptions{MaxAttempts: 5, InitialDelay: time.Hour})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
