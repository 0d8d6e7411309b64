package safety

import (
	"context"

	"github.com/ducminhle1904/trade-setup-engine/internal/exchange"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// QuoteGuard throttles quote requests and stops sending them while the exchange keeps failing
type QuoteGuard struct {
	next    exchange.QuoteProvider
	limiter *RateLimiter
	breaker *CircuitBreaker
}

var _ exchange.QuoteProvider = (*QuoteGuard)(nil)

// NewQuoteGuard wraps next. Either safeguard may be nil.
func NewQuoteGuard(next exchange.QuoteProvider, limiter *RateLimiter, breaker *CircuitBreaker) *QuoteGuard {
	return &QuoteGuard{next: next, limiter: limiter, breaker: breaker}
}

// GetLatestPrice implements exchange.QuoteProvider
func (g *QuoteGuard) GetLatestPrice(ctx context.Context, asset string) (types.Quote, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return types.Quote{}, err
		}
	}
	if g.breaker == nil {
		return g.next.GetLatestPrice(ctx, asset)
	}

	var quote types.Quote
	err := g.breaker.Call(func() error {
		var err error
		quote, err = g.next.GetLatestPrice(ctx, asset)
		return err
	})
	return quote, err
}

// Breaker returns the circuit breaker, nil when none is configured
func (g *QuoteGuard) Breaker() *CircuitBreaker {
	return g.breaker
}
