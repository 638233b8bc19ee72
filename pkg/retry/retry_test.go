package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "wpfetch/pkg/errors"
)

func testConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errs.New(errs.ErrorTypeNetwork, "connection reset")
		}
		return nil
	}, testConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.New(errs.ErrorTypeNetwork, "connection reset")
	}, testConfig(2))

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "max retry attempts")
}

func TestDoDoesNotRetryNonRetryableErrors(t *testing.T) {
	calls := 0
	unknownUser := errs.UnknownUser("ghost")
	err := Do(func() error {
		calls++
		return unknownUser
	}, testConfig(3))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errs.IsUnknownUser(err))
}

func TestDoCustomRetryPredicate(t *testing.T) {
	cfg := testConfig(3)
	cfg.RetryIf = func(error) bool { return true }

	calls := 0
	err := Do(func() error {
		calls++
		return fmt.Errorf("always retried")
	}, cfg)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoOnRetryCallback(t *testing.T) {
	cfg := testConfig(3)
	var attempts []int
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	}

	_ = Do(func() error {
		return errs.New(errs.ErrorTypeNetwork, "boom")
	}, cfg)

	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := testConfig(5)
	cfg.Context = ctx
	cfg.Backoff = &ConstantBackoff{Delay: time.Second}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(func() error {
			calls++
			return errs.New(errs.ErrorTypeNetwork, "boom")
		}, cfg)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry cancelled")
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not observe context cancellation")
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(func() (string, error) {
		calls++
		if calls < 2 {
			return "", errs.New(errs.ErrorTypeNetwork, "boom")
		}
		return "posts", nil
	}, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "posts", result)
	assert.Equal(t, 2, calls)
}

func TestDefaultRetryIfUsesStatusCode(t *testing.T) {
	assert.True(t, DefaultRetryIf(errs.APIUnavailable("server error", 503)))
	assert.False(t, DefaultRetryIf(errs.APIUnavailable("not found", 404)))
	assert.False(t, DefaultRetryIf(errs.UnknownUser("ghost")))
	assert.True(t, DefaultRetryIf(errs.Timeout("selector wait")))
	assert.False(t, DefaultRetryIf(context.Canceled))
}

func TestExponentialBackoffCapsAtMax(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  time.Second,
		MaxDelay:   4 * time.Second,
		Multiplier: 2.0,
	}

	assert.Equal(t, time.Second, eb.NextDelay(1))
	assert.Equal(t, 2*time.Second, eb.NextDelay(2))
	assert.Equal(t, 4*time.Second, eb.NextDelay(3))
	assert.Equal(t, 4*time.Second, eb.NextDelay(10))
	assert.Equal(t, time.Duration(0), eb.NextDelay(0))
}
