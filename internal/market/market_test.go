package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_KnownAssets(t *testing.T) {
	c := NewDefaultClassifier()

	tests := []struct {
		ticker       string
		category     AssetCategory
		contractSize float64
		decimals     int
	}{
		{"XAUUSD", CategoryMetals, 100, 2},
		{"xau/usd", CategoryMetals, 100, 2},
		{"GOLD", CategoryMetals, 100, 2},
		{"BTCUSDT", CategoryCrypto, 1, 2},
		{"BINANCE:BTCUSDT.P", CategoryCrypto, 1, 2},
		{"ETH-USD", CategoryCrypto, 1, 2},
		{"NAS100", CategoryIndices, 1, 2},
		{"US30.cash", CategoryIndices, 1, 2},
		{"GER40", CategoryIndices, 1, 2},
		{"USDJPY", CategoryForex, 100000, 3},
		{"EURUSD", CategoryForex, 100000, 5},
	}

	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			cfg := c.Detect(tt.ticker)
			assert.Equal(t, tt.category, cfg.Category)
			assert.Equal(t, tt.contractSize, cfg.ContractSize)
			assert.Equal(t, tt.decimals, cfg.Decimals)
		})
	}
}

func TestDetect_UnknownFallsBackToForex(t *testing.T) {
	c := NewDefaultClassifier()
	assert.Equal(t, DefaultForexConfig(), c.Detect("RANDOMCOIN"))
	assert.Equal(t, DefaultForexConfig(), c.Detect(""))
}

func TestDetect_RuleOrderWins(t *testing.T) {
	// XAUJPY carries both the metals and the JPY fragment
	c := NewDefaultClassifier()
	assert.Equal(t, CategoryMetals, c.Detect("XAUJPY").Category)
	// BTC is checked before ETH
	assert.Equal(t, 1.0, c.Detect("ETHBTC").PipValue)
}

func TestDetect_InjectedRules(t *testing.T) {
	custom := AssetConfig{ContractSize: 5000, PipValue: 0.001, Decimals: 3, Category: CategoryMetals}
	c := NewClassifier([]ClassifierRule{{Name: "silver", Contains: []string{"XAG"}, Config: custom}}, DefaultForexConfig())

	assert.Equal(t, custom, c.Detect("XAGUSD"))
	assert.Equal(t, DefaultForexConfig(), c.Detect("XAUUSD"))
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "EURUSD", NormalizeSymbol(" eur/usd "))
	assert.Equal(t, "BINANCEBTCUSDTP", NormalizeSymbol("BINANCE:btcusdt.p"))
	assert.Equal(t, "US30", NormalizeSymbol("US-30"))
}

func TestCatalogLookup(t *testing.T) {
	c := NewDefaultCatalog()

	assert.Equal(t, 0.0005, c.Lookup("EURUSD").MinStopLoss)
	assert.Equal(t, 1.5, c.Lookup("XAU/USD").MinStopLoss)
	assert.Equal(t, 150.0, c.Lookup("BTCUSDT").MinStopLoss)
	assert.Equal(t, 20.0, c.Lookup("USTEC").MinStopLoss)

	cfg, symbol := c.Resolve("RANDOMCOIN")
	assert.Equal(t, "DEFAULT", symbol)
	assert.Equal(t, DefaultMarketConfig(), cfg)
}

func TestCatalogLookup_DistancesAreOrdered(t *testing.T) {
	c := NewDefaultCatalog()
	for _, symbol := range c.Symbols() {
		cfg := c.Lookup(symbol)
		assert.Less(t, cfg.MinStopLoss, cfg.MaxStopLoss, symbol)
		assert.Less(t, cfg.TP1Distance, cfg.TP2Distance, symbol)
		assert.Less(t, cfg.TP2Distance, cfg.TP3Distance, symbol)
	}
}

func TestParseCatalogYAML(t *testing.T) {
	doc := []byte(`
default:
  min_stop_loss: 0.001
  max_stop_loss: 0.01
markets:
  - symbol: XAGUSD
    match: [XAG, SILVER]
    min_stop_loss: 0.05
    max_stop_loss: 0.5
    tp1_distance: 0.1
    tp2_distance: 0.2
    tp3_distance: 0.3
    min_timeframe: M15
`)

	c, err := ParseCatalogYAML(doc)
	require.NoError(t, err)

	cfg, symbol := c.Resolve("silver")
	assert.Equal(t, "XAGUSD", symbol)
	assert.Equal(t, 0.05, cfg.MinStopLoss)
	assert.Equal(t, "M15", cfg.MinTimeframe)

	assert.Equal(t, 0.001, c.Lookup("EURUSD").MinStopLoss)
}

func TestParseCatalogYAML_Errors(t *testing.T) {
	_, err := ParseCatalogYAML([]byte("markets: []"))
	assert.Error(t, err)

	_, err = ParseCatalogYAML([]byte("markets:\n  - symbol: X\n    min_stop_loss: 0\n"))
	assert.Error(t, err)

	_, err = ParseCatalogYAML([]byte("markets: [unterminated"))
	assert.Error(t, err)
}
