package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRetrier records waits instead of sleeping
func newTestRetrier(cfg Config) (*Retrier, *[]time.Duration) {
	var waits []time.Duration
	r := New(cfg)
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	r.jitter = func() float64 { return 0.5 }
	return r, &waits
}

func testConfig() Config {
	return Config{MaxRetries: 3, InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}
}

func TestDo_SucceedsAfterTransientErrors(t *testing.T) {
	r, waits := newTestRetrier(testConfig())

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("503 service unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *waits)
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	r, waits := newTestRetrier(testConfig())

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("invalid api key")
	})

	assert.EqualError(t, err, "invalid api key")
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
}

func TestDo_ExhaustsBudget(t *testing.T) {
	r, waits := newTestRetrier(testConfig())

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("connection reset")
	})

	assert.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}, *waits)
}

func TestDo_UsesSuggestedDelay(t *testing.T) {
	r, waits := newTestRetrier(testConfig())

	calls := 0
	_ = r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("429 quota exceeded, please retry in 0.25s")
		}
		return nil
	})

	assert.Equal(t, []time.Duration{250 * time.Millisecond}, *waits)
}

func TestDo_ContextCancelled(t *testing.T) {
	r := New(Config{MaxRetries: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffFactor: 2})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, func(ctx context.Context) error {
			calls++
			return errors.New("timeout")
		})
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestDo_OnRetryHook(t *testing.T) {
	r, _ := newTestRetrier(testConfig())

	var attempts []Attempt
	r = r.OnRetry(func(a Attempt) { attempts = append(attempts, a) })

	_ = r.Do(context.Background(), func(ctx context.Context) error {
		return errors.New("network down")
	})

	require.Len(t, attempts, 3)
	assert.Equal(t, 1, attempts[0].Number)
	assert.Equal(t, 3, attempts[2].Number)
}

func TestBackoff(t *testing.T) {
	r, _ := newTestRetrier(Config{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2})

	assert.Equal(t, time.Second, r.backoff(0))
	assert.Equal(t, 2*time.Second, r.backoff(1))
	assert.Equal(t, 4*time.Second, r.backoff(2))
	assert.Equal(t, 5*time.Second, r.backoff(3))

	r.config.JitterEnabled = true
	r.jitter = func() float64 { return 1 }
	assert.Equal(t, 1100*time.Millisecond, r.backoff(0))
	r.jitter = func() float64 { return 0 }
	assert.Equal(t, 900*time.Millisecond, r.backoff(0))
}

func TestDelay_SuggestedIsCapped(t *testing.T) {
	r, _ := newTestRetrier(testConfig())
	assert.Equal(t, time.Second, r.Delay(0, errors.New("Retry-After: 120")))
}

func TestParseSuggestedDelay(t *testing.T) {
	tests := []struct {
		text string
		want time.Duration
		ok   bool
	}{
		{"Please retry in 12.5s.", 12500 * time.Millisecond, true},
		{"retry in 500ms", 500 * time.Millisecond, true},
		{`{"@type": "RetryInfo", "retryDelay": "30s"}`, 30 * time.Second, true},
		{"Retry-After: 20", 20 * time.Second, true},
		{"internal error", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseSuggestedDelay(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestRunWithRetry_ReturnsValue(t *testing.T) {
	r, _ := newTestRetrier(testConfig())

	calls := 0
	v, err := RunWithRetry(context.Background(), r, func(ctx context.Context) (float64, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("timeout")
		}
		return 42.5, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42.5, v)
}

func TestRunWithModelFallback(t *testing.T) {
	r, _ := newTestRetrier(Config{MaxRetries: 1, InitialDelay: time.Millisecond, BackoffFactor: 2})

	tried := map[string]int{}
	v, model, err := RunWithModelFallback(context.Background(), r, []string{"primary", "secondary", "tertiary"},
		func(ctx context.Context, model string) (string, error) {
			tried[model]++
			switch model {
			case "primary":
				return "", errors.New("model primary not found")
			case "secondary":
				return "", errors.New("503 overloaded")
			default:
				return "ok from " + model, nil
			}
		})

	require.NoError(t, err)
	assert.Equal(t, "tertiary", model)
	assert.Equal(t, "ok from tertiary", v)
	assert.Equal(t, 1, tried["primary"])
	assert.Equal(t, 2, tried["secondary"])
	assert.Equal(t, 1, tried["tertiary"])
}

func TestRunWithModelFallback_AllFail(t *testing.T) {
	r, _ := newTestRetrier(Config{MaxRetries: 0})

	sentinel := errors.New("model a not found")
	_, model, err := RunWithModelFallback(context.Background(), r, []string{"a", "b"},
		func(ctx context.Context, m string) (int, error) {
			if m == "a" {
				return 0, sentinel
			}
			return 0, errors.New("model b not found")
		})

	assert.Empty(t, model)
	var fbErr *FallbackError
	require.ErrorAs(t, err, &fbErr)
	assert.Equal(t, []string{"a", "b"}, fbErr.Order)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "a: model a not found")
}

func TestRunWithModelFallback_StopsOnCredentials(t *testing.T) {
	r, _ := newTestRetrier(Config{MaxRetries: 2})

	tried := 0
	_, _, err := RunWithModelFallback(context.Background(), r, []string{"a", "b"},
		func(ctx context.Context, m string) (int, error) {
			tried++
			return 0, errors.New("unauthorized")
		})

	assert.Error(t, err)
	assert.Equal(t, 1, tried)
}

func TestRunWithModelFallback_NoModels(t *testing.T) {
	r, _ := newTestRetrier(testConfig())

	_, _, err := RunWithModelFallback(context.Background(), r, nil,
		func(ctx context.Context, m string) (int, error) { return 1, nil })
	assert.EqualError(t, err, "no fallback candidates configured")
}
