package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/trade-setup-engine/internal/market"
	"github.com/ducminhle1904/trade-setup-engine/internal/retry"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// ExchangeSymbol maps an asset ticker onto Bybit's USDT-quoted naming,
// e.g. "BTC/USD" -> "BTCUSDT", "XAUUSD" -> "XAUUSDT".
func ExchangeSymbol(asset string) string {
	symbol := market.NormalizeSymbol(asset)
	if strings.HasSuffix(symbol, "USD") {
		return symbol + "T"
	}
	return symbol
}

// GetLatestPrice fetches the last traded price for an asset, trying each
// configured category in order with its own retry budget.
func (c *Client) GetLatestPrice(ctx context.Context, asset string) (types.Quote, error) {
	symbol := ExchangeSymbol(asset)
	if symbol == "" {
		return types.Quote{}, fmt.Errorf("failed to get latest price: empty symbol")
	}

	price, category, err := retry.RunWithModelFallback(ctx, c.retrier, c.categories,
		func(ctx context.Context, category string) (float64, error) {
			return c.getTickerPrice(ctx, category, symbol)
		})
	if err != nil {
		return types.Quote{}, fmt.Errorf("failed to get latest price for %s: %w", symbol, err)
	}

	return types.Quote{
		Symbol:    symbol,
		Category:  category,
		Price:     price,
		Timestamp: c.now().UTC(),
	}, nil
}

func (c *Client) getTickerPrice(ctx context.Context, category, symbol string) (float64, error) {
	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
	}

	result, err := c.fetchTickers(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("get tickers %s/%s: %w", category, symbol, err)
	}

	return parseLatestPriceResponse(result, category, symbol)
}

// parseLatestPriceResponse parses the ticker response to extract the latest price
func parseLatestPriceResponse(response interface{}, category, symbol string) (float64, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok || serverResp == nil {
		return 0, fmt.Errorf("invalid response type %T", response)
	}

	if err := ParseAPIError("GetMarketTickers", serverResp.RetCode, serverResp.RetMsg, category, symbol); err != nil {
		return 0, err
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal result: %w", err)
	}

	var tickerResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}

	if err := json.Unmarshal(resultBytes, &tickerResult); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ticker result: %w", err)
	}

	for _, item := range tickerResult.List {
		if item.Symbol != symbol {
			continue
		}
		price, err := strconv.ParseFloat(item.LastPrice, 64)
		if err != nil || price <= 0 {
			return 0, fmt.Errorf("invalid last price %q for %s", item.LastPrice, symbol)
		}
		return price, nil
	}

	return 0, ParseAPIError("GetMarketTickers", ErrCodeSymbolNotFound, "symbol not found in ticker list", category, symbol)
}
