package bybit

import (
	"context"
	"errors"
	"testing"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ducminhle1904/trade-setup-engine/internal/errors"
	"github.com/ducminhle1904/trade-setup-engine/internal/retry"
)

func tickerResponse(category, symbol, price string) *bybit_api.ServerResponse {
	return &bybit_api.ServerResponse{
		RetCode: 0,
		RetMsg:  "OK",
		Result: map[string]interface{}{
			"category": category,
			"list": []interface{}{
				map[string]interface{}{"symbol": symbol, "lastPrice": price},
			},
		},
	}
}

func newTestClient(fetch func(ctx context.Context, params map[string]interface{}) (interface{}, error)) *Client {
	c := NewClient(Config{Testnet: true, Retry: retry.Config{MaxRetries: 2, BackoffFactor: 2}})
	c.fetchTickers = fetch
	c.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestExchangeSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", ExchangeSymbol("btc/usd"))
	assert.Equal(t, "BTCUSDT", ExchangeSymbol("BTCUSDT"))
	assert.Equal(t, "XAUUSDT", ExchangeSymbol("XAUUSD"))
	assert.Equal(t, "ETHBTC", ExchangeSymbol("ETHBTC"))
}

func TestGetLatestPrice_Linear(t *testing.T) {
	var categories []string
	c := newTestClient(func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		categories = append(categories, params["category"].(string))
		return tickerResponse("linear", "BTCUSDT", "64250.5"), nil
	})

	q, err := c.GetLatestPrice(context.Background(), "BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", q.Symbol)
	assert.Equal(t, "linear", q.Category)
	assert.Equal(t, 64250.5, q.Price)
	assert.Equal(t, []string{"linear"}, categories)
	assert.Equal(t, "testnet", c.GetEnvironment())
}

func TestGetLatestPrice_FallsBackToSpot(t *testing.T) {
	calls := map[string]int{}
	c := newTestClient(func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		category := params["category"].(string)
		calls[category]++
		if category == "linear" {
			return &bybit_api.ServerResponse{RetCode: ErrCodeInvalidParams, RetMsg: "params error: symbol invalid"}, nil
		}
		return tickerResponse("spot", "XAUUSDT", "2011.25"), nil
	})

	q, err := c.GetLatestPrice(context.Background(), "XAUUSD")
	require.NoError(t, err)
	assert.Equal(t, "spot", q.Category)
	assert.Equal(t, 2011.25, q.Price)
	assert.Equal(t, 1, calls["linear"])
	assert.Equal(t, 1, calls["spot"])
}

func TestGetLatestPrice_RetriesBusyServer(t *testing.T) {
	calls := 0
	c := newTestClient(func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		calls++
		if calls == 1 {
			return &bybit_api.ServerResponse{RetCode: ErrCodeServiceBusy, RetMsg: "system busy"}, nil
		}
		return tickerResponse("linear", "ETHUSDT", "3100"), nil
	})

	var retried []retry.Attempt
	c.OnRetry(func(a retry.Attempt) { retried = append(retried, a) })

	q, err := c.GetLatestPrice(context.Background(), "ETHUSD")
	require.NoError(t, err)
	assert.Equal(t, 3100.0, q.Price)
	assert.Equal(t, 2, calls)
	assert.Len(t, retried, 1)
}

func TestGetLatestPrice_CredentialsStopFallback(t *testing.T) {
	calls := 0
	c := newTestClient(func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		calls++
		return &bybit_api.ServerResponse{RetCode: ErrCodeInvalidAPIKey, RetMsg: "API key is invalid"}, nil
	})

	_, err := c.GetLatestPrice(context.Background(), "BTCUSD")
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrCodeInvalidAPIKey, apiErr.Code)
}

func TestGetLatestPrice_AllCategoriesFail(t *testing.T) {
	c := newTestClient(func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		return tickerResponse(params["category"].(string), "OTHERUSDT", "1"), nil
	})

	_, err := c.GetLatestPrice(context.Background(), "EURUSD")
	var fbErr *retry.FallbackError
	require.ErrorAs(t, err, &fbErr)
	assert.Equal(t, []string{"linear", "spot"}, fbErr.Order)
}

func TestParseLatestPriceResponse_Invalid(t *testing.T) {
	_, err := parseLatestPriceResponse("nope", "spot", "BTCUSDT")
	assert.Error(t, err)

	_, err = parseLatestPriceResponse(tickerResponse("spot", "BTCUSDT", "abc"), "spot", "BTCUSDT")
	assert.Error(t, err)
}

func TestParseAPIError(t *testing.T) {
	assert.NoError(t, ParseAPIError("op", 0, "OK", "spot", "BTCUSDT"))

	err := ParseAPIError("op", ErrCodeRateLimitExceeded, "Too many visits", "spot", "BTCUSDT")
	var engineErr *apperrors.EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, apperrors.ErrorCategoryRateLimit, engineErr.Category)
	assert.True(t, engineErr.IsRetryable())
	assert.True(t, IsRetryableError(err))

	err = ParseAPIError("op", ErrCodeInvalidSignature, "bad sign", "", "")
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, apperrors.RecoveryActionStop, engineErr.GetRecoveryAction())
	assert.False(t, IsRetryableError(err))

	assert.True(t, IsRetryableError(errors.New("connection reset by peer")))
	assert.False(t, IsRetryableError(nil))
}
