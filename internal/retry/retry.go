package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/ducminhle1904/trade-setup-engine/internal/errors"
)

// Config holds configuration for retry mechanisms
type Config struct {
	MaxRetries    int           `json:"maxRetries"`
	InitialDelay  time.Duration `json:"initialDelay"`
	MaxDelay      time.Duration `json:"maxDelay"`
	BackoffFactor float64       `json:"backoffFactor"`
	JitterEnabled bool          `json:"jitterEnabled"`
}

// DefaultConfig returns a default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Classifier decides whether an error is worth another attempt
type Classifier func(err error) bool

// DefaultClassifier retries whatever apperrors.CategorizeError marks retryable
func DefaultClassifier(err error) bool {
	return apperrors.CategorizeError(err, "retry", "classify").IsRetryable()
}

// Attempt describes a failed try, passed to the OnRetry hook
type Attempt struct {
	Number int
	Err    error
	Delay  time.Duration
}

// Retrier runs a function until it succeeds, fails permanently or exhausts its budget
type Retrier struct {
	config    Config
	retryable Classifier
	onRetry   func(Attempt)
	sleep     func(ctx context.Context, d time.Duration) error
	jitter    func() float64
}

// New creates a retrier with the default classifier
func New(config Config) *Retrier {
	return &Retrier{
		config:    config,
		retryable: DefaultClassifier,
		sleep:     sleepContext,
		jitter:    rand.Float64,
	}
}

// WithClassifier replaces the retryable-error check
func (r *Retrier) WithClassifier(c Classifier) *Retrier {
	cp := *r
	cp.retryable = c
	return &cp
}

// OnRetry registers a hook invoked before each wait
func (r *Retrier) OnRetry(fn func(Attempt)) *Retrier {
	cp := *r
	cp.onRetry = fn
	return &cp
}

// Config returns the retry configuration
func (r *Retrier) Config() Config {
	return r.config
}

// Do executes fn with retry logic
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == r.config.MaxRetries || !r.retryable(err) {
			break
		}

		delay := r.Delay(attempt, err)
		if r.onRetry != nil {
			r.onRetry(Attempt{Number: attempt + 1, Err: err, Delay: delay})
		}

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// RunWithRetry executes fn with retry logic and returns its value
func RunWithRetry[T any](ctx context.Context, r *Retrier, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// Delay returns the wait before the next attempt. A delay suggested by the
// server in the error text wins over exponential backoff.
func (r *Retrier) Delay(attempt int, err error) time.Duration {
	if err != nil {
		if suggested, ok := ParseSuggestedDelay(err.Error()); ok {
			if r.config.MaxDelay > 0 && suggested > r.config.MaxDelay {
				return r.config.MaxDelay
			}
			return suggested
		}
	}
	return r.backoff(attempt)
}

func (r *Retrier) backoff(attempt int) time.Duration {
	delay := r.config.InitialDelay

	if attempt > 0 && r.config.BackoffFactor > 0 {
		delay = time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt)))
	}

	if r.config.MaxDelay > 0 && delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	// +/-10% jitter
	if r.config.JitterEnabled {
		jitter := time.Duration(float64(delay) * 0.1 * (2*r.jitter() - 1))
		delay += jitter
	}

	if delay < 0 {
		return 0
	}
	return delay
}

var suggestedDelayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)retry in\s+([0-9]+(?:\.[0-9]+)?)\s*(ms|s|sec|seconds?)?`),
	regexp.MustCompile(`(?i)"?retry_?delay"?\s*[:=]\s*"?([0-9]+(?:\.[0-9]+)?)\s*(ms|s)?"?`),
	regexp.MustCompile(`(?i)retry-after:?\s*([0-9]+(?:\.[0-9]+)?)\s*(ms|s)?`),
}

// ParseSuggestedDelay extracts a server-suggested wait such as "Please retry in 12.5s",
// `"retryDelay": "30s"` or "Retry-After: 20" from error text.
func ParseSuggestedDelay(text string) (time.Duration, bool) {
	for _, re := range suggestedDelayPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil || value < 0 {
			continue
		}
		unit := time.Second
		if strings.EqualFold(m[2], "ms") {
			unit = time.Millisecond
		}
		return time.Duration(value * float64(unit)), true
	}
	return 0, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FallbackError lists the failure of every identifier tried
type FallbackError struct {
	Failures map[string]error
	Order    []string
}

func (e *FallbackError) Error() string {
	if len(e.Order) == 0 {
		return "no fallback candidates configured"
	}
	parts := make([]string, 0, len(e.Order))
	for _, id := range e.Order {
		parts = append(parts, fmt.Sprintf("%s: %v", id, e.Failures[id]))
	}
	return "all fallback candidates failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes every candidate's error to errors.Is and errors.As
func (e *FallbackError) Unwrap() []error {
	out := make([]error, 0, len(e.Order))
	for _, id := range e.Order {
		out = append(out, e.Failures[id])
	}
	return out
}

// RunWithModelFallback tries each model identifier in order, each with its
// own retry budget, and returns the first success with the identifier that produced it.
// Errors categorized STOP (credentials, configuration) end the walk early.
func RunWithModelFallback[T any](ctx context.Context, r *Retrier, models []string, fn func(ctx context.Context, model string) (T, error)) (T, string, error) {
	var zero T
	fallbackErr := &FallbackError{Failures: make(map[string]error, len(models))}

	for _, model := range models {
		result, err := RunWithRetry(ctx, r, func(ctx context.Context) (T, error) {
			return fn(ctx, model)
		})
		if err == nil {
			return result, model, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, "", ctxErr
		}

		fallbackErr.Order = append(fallbackErr.Order, model)
		fallbackErr.Failures[model] = err

		if apperrors.CategorizeError(err, "retry", "fallback").GetRecoveryAction() == apperrors.RecoveryActionStop {
			break
		}
	}

	return zero, "", fallbackErr
}
