package market

import "strings"

// AssetCategory groups instruments with the same contract conventions
type AssetCategory string

const (
	CategoryForex   AssetCategory = "forex"
	CategoryIndices AssetCategory = "indices"
	CategoryCrypto  AssetCategory = "crypto"
	CategoryMetals  AssetCategory = "metals"
)

// AssetConfig holds the contract metadata of an instrument
type AssetConfig struct {
	ContractSize float64       `json:"contractSize" yaml:"contract_size"`
	PipValue     float64       `json:"pipValue" yaml:"pip_value"`
	Decimals     int           `json:"decimals" yaml:"decimals"`
	Category     AssetCategory `json:"category" yaml:"category"`
}

// ClassifierRule maps tickers containing any of Contains to Config
type ClassifierRule struct {
	Name     string
	Contains []string
	Config   AssetConfig
}

func (r ClassifierRule) matches(normalized string) bool {
	for _, needle := range r.Contains {
		if strings.Contains(normalized, needle) {
			return true
		}
	}
	return false
}

var (
	metalsConfig  = AssetConfig{ContractSize: 100, PipValue: 0.01, Decimals: 2, Category: CategoryMetals}
	btcConfig     = AssetConfig{ContractSize: 1, PipValue: 1, Decimals: 2, Category: CategoryCrypto}
	ethConfig     = AssetConfig{ContractSize: 1, PipValue: 0.01, Decimals: 2, Category: CategoryCrypto}
	indicesConfig = AssetConfig{ContractSize: 1, PipValue: 1, Decimals: 2, Category: CategoryIndices}
	jpyConfig     = AssetConfig{ContractSize: 100000, PipValue: 0.01, Decimals: 3, Category: CategoryForex}
	forexConfig   = AssetConfig{ContractSize: 100000, PipValue: 0.0001, Decimals: 5, Category: CategoryForex}
)

// IndexAliases are the ticker fragments recognized as stock indices
var IndexAliases = []string{
	"US30", "DJ30", "DOW", "DJI",
	"NAS100", "US100", "NDX", "USTEC", "NASDAQ",
	"SPX500", "US500", "SP500", "SPX",
	"GER40", "DE40", "DAX",
	"UK100", "FTSE",
}

// DefaultRules returns the built-in classification rules.
// Order matters: XAUUSD must hit the metals rule before the forex fallback.
func DefaultRules() []ClassifierRule {
	return []ClassifierRule{
		{Name: "metals", Contains: []string{"XAU", "GOLD"}, Config: metalsConfig},
		{Name: "bitcoin", Contains: []string{"BTC"}, Config: btcConfig},
		{Name: "ether", Contains: []string{"ETH"}, Config: ethConfig},
		{Name: "indices", Contains: IndexAliases, Config: indicesConfig},
		{Name: "jpy", Contains: []string{"JPY"}, Config: jpyConfig},
	}
}

// DefaultForexConfig is returned when no rule matches
func DefaultForexConfig() AssetConfig {
	return forexConfig
}

// Classifier detects asset metadata from free-text tickers
type Classifier struct {
	rules    []ClassifierRule
	fallback AssetConfig
}

// NewClassifier creates a classifier over an ordered rule list
func NewClassifier(rules []ClassifierRule, fallback AssetConfig) *Classifier {
	r := make([]ClassifierRule, len(rules))
	copy(r, rules)
	return &Classifier{rules: r, fallback: fallback}
}

// NewDefaultClassifier creates a classifier with the built-in rules
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultRules(), DefaultForexConfig())
}

// Detect returns the config of the first rule matching the ticker
func (c *Classifier) Detect(ticker string) AssetConfig {
	normalized := NormalizeSymbol(ticker)
	for _, rule := range c.rules {
		if rule.matches(normalized) {
			return rule.Config
		}
	}
	return c.fallback
}

// NormalizeSymbol upper-cases a ticker and strips everything but letters and digits
func NormalizeSymbol(ticker string) string {
	var b strings.Builder
	b.Grow(len(ticker))
	for _, r := range strings.ToUpper(ticker) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
