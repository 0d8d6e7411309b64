package bybit

import (
	"context"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/trade-setup-engine/internal/retry"
)

// DefaultCategories is the order in which ticker categories are tried
var DefaultCategories = []string{"linear", "spot"}

// Client wraps the Bybit API client for public market data
type Client struct {
	httpClient   *bybit_api.Client
	testnet      bool
	demo         bool
	categories   []string
	retrier      *retry.Retrier
	fetchTickers func(ctx context.Context, params map[string]interface{}) (interface{}, error)
	now          func() time.Time
}

// Config holds the configuration for the Bybit client
type Config struct {
	APIKey     string
	APISecret  string
	Testnet    bool
	Demo       bool // Demo trading environment
	Categories []string
	Retry      retry.Config
}

// NewClient creates a new Bybit client
func NewClient(config Config) *Client {
	var baseURL string
	if config.Demo {
		baseURL = "https://api-demo.bybit.com"
	} else if config.Testnet {
		baseURL = bybit_api.TESTNET
	} else {
		baseURL = bybit_api.MAINNET
	}

	httpClient := bybit_api.NewBybitHttpClient(
		config.APIKey,
		config.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	categories := config.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}

	retryConfig := config.Retry
	if retryConfig == (retry.Config{}) {
		retryConfig = retry.DefaultConfig()
	}

	c := &Client{
		httpClient: httpClient,
		testnet:    config.Testnet,
		demo:       config.Demo,
		categories: categories,
		retrier:    retry.New(retryConfig).WithClassifier(IsRetryableError),
		now:        time.Now,
	}
	c.fetchTickers = func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		return c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	}
	return c
}

// OnRetry registers a hook called before each retried ticker request
func (c *Client) OnRetry(fn func(retry.Attempt)) {
	c.retrier = c.retrier.OnRetry(fn)
}

// Categories returns the ticker categories in fallback order
func (c *Client) Categories() []string {
	return c.categories
}

// GetEnvironment returns a string describing the current environment
func (c *Client) GetEnvironment() string {
	if c.demo {
		return "demo"
	} else if c.testnet {
		return "testnet"
	}
	return "mainnet"
}
