package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Attempts: 6, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{9, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Delay(tt.attempt), "attempt %d", tt.attempt)
	}

	unbounded := Backoff{BaseDelay: time.Millisecond}
	assert.Equal(t, 16*time.Millisecond, unbounded.Delay(5))
}

func TestBackoff_Do(t *testing.T) {
	errTransient := errors.New("transient")

	tests := []struct {
		name      string
		failFirst int
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{"first try", 0, 3, 1, nil},
		{"eventual success", 2, 5, 3, nil},
		{"exhausted", 10, 3, 3, errTransient},
		{"no attempts", 0, 0, 0, ErrInvalidAttempts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			b := Backoff{Attempts: tt.attempts, BaseDelay: time.Millisecond}
			err := b.Do(context.Background(), nil, func(context.Context) error {
				calls++
				if calls <= tt.failFirst {
					return errTransient
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantErr, err)
			}
		})
	}
}

func TestBackoff_DoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	b := Backoff{Attempts: 5, BaseDelay: time.Hour}

	done := make(chan error, 1)
	go func() {
		done <- b.Do(ctx, nil, func(context.Context) error {
			calls++
			return errors.New("fail")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancel")
	}
}

func TestBackoff_DoCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Backoff{Attempts: 3}.Do(ctx, nil, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
