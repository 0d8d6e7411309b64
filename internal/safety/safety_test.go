package safety

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ducminhle1904/trade-setup-engine/internal/errors"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	cb := NewCircuitBreaker("quotes", CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Timeout: 10 * time.Second})
	cb.now = clock.Now
	return cb
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)

	var transitions []string
	cb.OnStateChange(func(from, to CircuitBreakerState) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	boom := errors.New("503 service unavailable")
	assert.ErrorIs(t, cb.Call(func() error { return boom }), boom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Call(func() error { return boom }), boom)
	assert.Equal(t, StateOpen, cb.State())

	calls := 0
	err := cb.Call(func() error { calls++; return nil })
	require.Error(t, err)
	assert.Zero(t, calls)

	var engineErr *apperrors.EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, apperrors.ErrorCategoryExchange, engineErr.Category)
	assert.False(t, engineErr.IsRetryable())

	clock.Advance(11 * time.Second)
	require.NoError(t, cb.Call(func() error { calls++; return nil }))
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)

	fail := func() error { return errors.New("timeout") }
	_ = cb.Call(fail)
	_ = cb.Call(fail)
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(11 * time.Second)
	_ = cb.Call(fail)
	assert.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := newTestBreaker(&fakeClock{t: time.Now()})

	fail := func() error { return errors.New("timeout") }
	_ = cb.Call(fail)
	_ = cb.Call(func() error { return nil })
	_ = cb.Call(fail)
	assert.Equal(t, StateClosed, cb.State())
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter("quotes", 2, 4)
	rl.now = clock.Now

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	clock.Advance(250 * time.Millisecond)
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	clock.Advance(time.Hour)
	assert.InDelta(t, 2, rl.Tokens(), 1e-9)
}

func TestRateLimiter_WaitSleepsUntilToken(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter("quotes", 1, 2)
	rl.now = clock.Now

	var waits []time.Duration
	rl.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		clock.Advance(d)
		return nil
	}

	require.NoError(t, rl.Wait(context.Background()))
	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, waits)
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter("quotes", 1, 0.001)
	require.True(t, rl.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.Canceled)
}

type stubQuotes struct {
	calls int
	err   error
}

func (s *stubQuotes) GetLatestPrice(ctx context.Context, asset string) (types.Quote, error) {
	s.calls++
	if s.err != nil {
		return types.Quote{}, s.err
	}
	return types.Quote{Symbol: asset, Price: 60000}, nil
}

func TestQuoteGuard_PassesThroughAndTrips(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	stub := &stubQuotes{}
	guard := NewQuoteGuard(stub, NewRateLimiter("quotes", 100, 100), newTestBreaker(clock))

	q, err := guard.GetLatestPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 60000.0, q.Price)

	stub.err = errors.New("connection reset")
	_, _ = guard.GetLatestPrice(context.Background(), "BTCUSDT")
	_, _ = guard.GetLatestPrice(context.Background(), "BTCUSDT")
	require.Equal(t, StateOpen, guard.Breaker().State())

	_, err = guard.GetLatestPrice(context.Background(), "BTCUSDT")
	assert.Error(t, err)
	assert.Equal(t, 3, stub.calls)
}

func TestQuoteGuard_NoSafeguards(t *testing.T) {
	stub := &stubQuotes{}
	guard := NewQuoteGuard(stub, nil, nil)

	_, err := guard.GetLatestPrice(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Nil(t, guard.Breaker())
}
