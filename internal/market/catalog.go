package market

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarketConfig holds per-market risk parameters.
// All distances are in the market's native price units, never percentages.
type MarketConfig struct {
	MinStopLoss    float64 `json:"minStopLoss" yaml:"min_stop_loss"`
	MaxStopLoss    float64 `json:"maxStopLoss" yaml:"max_stop_loss"`
	TP1Distance    float64 `json:"tp1Distance" yaml:"tp1_distance"`
	TP2Distance    float64 `json:"tp2Distance" yaml:"tp2_distance"`
	TP3Distance    float64 `json:"tp3Distance" yaml:"tp3_distance"`
	MinTimeframe   string  `json:"minTimeframe" yaml:"min_timeframe"`
	SpikeThreshold float64 `json:"spikeThreshold" yaml:"spike_threshold"`
}

// CatalogEntry binds a MarketConfig to the ticker fragments that select it
type CatalogEntry struct {
	Symbol       string   `yaml:"symbol"`
	Match        []string `yaml:"match"`
	MarketConfig `yaml:",inline"`
}

func (e CatalogEntry) keys() []string {
	if len(e.Match) == 0 {
		return []string{NormalizeSymbol(e.Symbol)}
	}
	return e.Match
}

// Catalog is an immutable ordered table of market configs with a fallback entry
type Catalog struct {
	entries  []CatalogEntry
	fallback MarketConfig
}

// NewCatalog builds a catalog. Entries are matched in the given order.
func NewCatalog(entries []CatalogEntry, fallback MarketConfig) *Catalog {
	cp := make([]CatalogEntry, len(entries))
	for i, e := range entries {
		e.Match = normalizeAll(e.keys())
		cp[i] = e
	}
	return &Catalog{entries: cp, fallback: fallback}
}

// Lookup returns the config of the first entry whose match key is contained in asset
func (c *Catalog) Lookup(asset string) MarketConfig {
	cfg, _ := c.Resolve(asset)
	return cfg
}

// Resolve is Lookup that also reports the matched symbol, "DEFAULT" on fallback
func (c *Catalog) Resolve(asset string) (MarketConfig, string) {
	normalized := NormalizeSymbol(asset)
	for _, e := range c.entries {
		for _, key := range e.Match {
			if key != "" && strings.Contains(normalized, key) {
				return e.MarketConfig, e.Symbol
			}
		}
	}
	return c.fallback, "DEFAULT"
}

// Symbols lists the catalog symbols in match order
func (c *Catalog) Symbols() []string {
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Symbol)
	}
	return out
}

func normalizeAll(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, NormalizeSymbol(k))
	}
	return out
}

var eurusdConfig = MarketConfig{
	MinStopLoss: 0.0005, MaxStopLoss: 0.0050,
	TP1Distance: 0.0010, TP2Distance: 0.0020, TP3Distance: 0.0030,
	MinTimeframe: "M5", SpikeThreshold: 0.0015,
}

// DefaultEntries returns the built-in market table
func DefaultEntries() []CatalogEntry {
	return []CatalogEntry{
		{Symbol: "EURUSD", MarketConfig: eurusdConfig},
		{Symbol: "GBPUSD", MarketConfig: MarketConfig{
			MinStopLoss: 0.0007, MaxStopLoss: 0.0060,
			TP1Distance: 0.0012, TP2Distance: 0.0025, TP3Distance: 0.0040,
			MinTimeframe: "M5", SpikeThreshold: 0.0020,
		}},
		{Symbol: "USDJPY", MarketConfig: MarketConfig{
			MinStopLoss: 0.05, MaxStopLoss: 0.50,
			TP1Distance: 0.10, TP2Distance: 0.20, TP3Distance: 0.30,
			MinTimeframe: "M5", SpikeThreshold: 0.15,
		}},
		{Symbol: "GBPJPY", MarketConfig: MarketConfig{
			MinStopLoss: 0.08, MaxStopLoss: 0.80,
			TP1Distance: 0.15, TP2Distance: 0.30, TP3Distance: 0.50,
			MinTimeframe: "M5", SpikeThreshold: 0.25,
		}},
		{Symbol: "XAUUSD", Match: []string{"XAU", "GOLD"}, MarketConfig: MarketConfig{
			MinStopLoss: 1.5, MaxStopLoss: 15,
			TP1Distance: 3, TP2Distance: 6, TP3Distance: 10,
			MinTimeframe: "M5", SpikeThreshold: 5,
		}},
		{Symbol: "BTCUSD", Match: []string{"BTC"}, MarketConfig: MarketConfig{
			MinStopLoss: 150, MaxStopLoss: 1500,
			TP1Distance: 300, TP2Distance: 600, TP3Distance: 1000,
			MinTimeframe: "M15", SpikeThreshold: 500,
		}},
		{Symbol: "ETHUSD", Match: []string{"ETH"}, MarketConfig: MarketConfig{
			MinStopLoss: 8, MaxStopLoss: 80,
			TP1Distance: 15, TP2Distance: 30, TP3Distance: 50,
			MinTimeframe: "M15", SpikeThreshold: 25,
		}},
		{Symbol: "US30", Match: []string{"US30", "DJ30", "DOW", "DJI"}, MarketConfig: MarketConfig{
			MinStopLoss: 30, MaxStopLoss: 300,
			TP1Distance: 60, TP2Distance: 120, TP3Distance: 200,
			MinTimeframe: "M5", SpikeThreshold: 100,
		}},
		{Symbol: "NAS100", Match: []string{"NAS100", "US100", "NDX", "USTEC", "NASDAQ"}, MarketConfig: MarketConfig{
			MinStopLoss: 20, MaxStopLoss: 200,
			TP1Distance: 40, TP2Distance: 80, TP3Distance: 130,
			MinTimeframe: "M5", SpikeThreshold: 60,
		}},
		{Symbol: "SPX500", Match: []string{"SPX500", "US500", "SP500", "SPX"}, MarketConfig: MarketConfig{
			MinStopLoss: 5, MaxStopLoss: 50,
			TP1Distance: 10, TP2Distance: 20, TP3Distance: 35,
			MinTimeframe: "M5", SpikeThreshold: 15,
		}},
		{Symbol: "GER40", Match: []string{"GER40", "DE40", "DAX"}, MarketConfig: MarketConfig{
			MinStopLoss: 15, MaxStopLoss: 150,
			TP1Distance: 30, TP2Distance: 60, TP3Distance: 100,
			MinTimeframe: "M5", SpikeThreshold: 50,
		}},
	}
}

// DefaultMarketConfig is the fallback used for unrecognized symbols
func DefaultMarketConfig() MarketConfig {
	return eurusdConfig
}

// NewDefaultCatalog creates the built-in catalog
func NewDefaultCatalog() *Catalog {
	return NewCatalog(DefaultEntries(), DefaultMarketConfig())
}

// catalogFile is the YAML layout accepted by LoadCatalogYAML
type catalogFile struct {
	Default *MarketConfig  `yaml:"default"`
	Markets []CatalogEntry `yaml:"markets"`
}

// ParseCatalogYAML decodes a catalog document. A missing default keeps the built-in fallback.
func ParseCatalogYAML(data []byte) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse market catalog: %w", err)
	}
	if len(doc.Markets) == 0 {
		return nil, fmt.Errorf("market catalog has no markets")
	}
	for i, m := range doc.Markets {
		if m.Symbol == "" {
			return nil, fmt.Errorf("market #%d has no symbol", i+1)
		}
		if m.MinStopLoss <= 0 {
			return nil, fmt.Errorf("market %s: min_stop_loss must be positive", m.Symbol)
		}
	}

	fallback := DefaultMarketConfig()
	if doc.Default != nil {
		fallback = *doc.Default
	}
	return NewCatalog(doc.Markets, fallback), nil
}

// LoadCatalogYAML reads a catalog from a YAML file
func LoadCatalogYAML(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read market catalog %s: %w", path, err)
	}
	return ParseCatalogYAML(data)
}
