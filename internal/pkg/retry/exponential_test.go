package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2,
	}
}

func TestExecute(t *testing.T) {
	errTransient := errors.New("connection reset")
	errFatal := errors.New("bad request")

	tests := []struct {
		name         string
		failures     int
		failWith     error
		retryable    func(error) bool
		wantErr      error
		wantAttempts int
	}{
		{name: "first attempt succeeds", failures: 0, wantAttempts: 1},
		{name: "succeeds after retries", failures: 2, failWith: errTransient, wantAttempts: 3},
		{name: "gives up", failures: 10, failWith: errTransient, wantErr: errTransient, wantAttempts: 4},
		{
			name:         "non-retryable error stops",
			failures:     10,
			failWith:     errFatal,
			retryable:    func(err error) bool { return !errors.Is(err, errFatal) },
			wantErr:      errFatal,
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fastConfig()
			cfg.Retryable = tt.retryable
			r := New(cfg)

			attempts := 0
			err := r.Execute(context.Background(), func(ctx context.Context) error {
				attempts++
				if attempts <= tt.failures {
					return tt.failWith
				}
				return nil
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantAttempts, attempts)
		})
	}
}

func TestExecute_ContextCancelled(t *testing.T) {
	cfg := fastConfig()
	cfg.BaseDelay = time.Hour
	cfg.MaxDelay = time.Hour
	r := New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Execute(ctx, func(ctx context.Context) error { return errors.New("down") })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDelay(t *testing.T) {
	r := New(Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2})

	assert.Equal(t, 100*time.Millisecond, r.delay(0))
	assert.Equal(t, 200*time.Millisecond, r.delay(1))
	assert.Equal(t, 400*time.Millisecond, r.delay(2))
	assert.Equal(t, time.Second, r.delay(10))

	jittered := New(Config{BaseDelay: 100 * time.Millisecond, Multiplier: 1, Jitter: true})
	d := jittered.delay(0)
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.LessOrEqual(t, d, 110*time.Millisecond)
}
