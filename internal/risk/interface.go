package risk

import "github.com/ducminhle1904/trade-setup-engine/internal/market"

// AssetClassifier resolves contract metadata for a ticker
type AssetClassifier interface {
	Detect(ticker string) market.AssetConfig
}

// MarketLookup resolves per-market risk parameters for a ticker
type MarketLookup interface {
	Lookup(asset string) market.MarketConfig
}
