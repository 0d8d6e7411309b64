package types

import "strings"

// Signal is the direction of a trading signal
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalNeutral Signal = "NEUTRAL"
)

// ParseSignal normalizes free text into a Signal. Unknown values map to NEUTRAL.
func ParseSignal(s string) Signal {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "LONG":
		return SignalBuy
	case "SELL", "SHORT":
		return SignalSell
	default:
		return SignalNeutral
	}
}

// UnmarshalText normalizes decoded values such as "buy" or "long"
func (s *Signal) UnmarshalText(text []byte) error {
	*s = ParseSignal(string(text))
	return nil
}

// Direction returns +1 for BUY, -1 for SELL and 0 otherwise
func (s Signal) Direction() float64 {
	switch s {
	case SignalBuy:
		return 1
	case SignalSell:
		return -1
	default:
		return 0
	}
}

// EntryType is the order type a signal recommends
type EntryType string

const (
	EntryLimit  EntryType = "Limit Order"
	EntryMarket EntryType = "Market Order"
)

// TradeSignal is the signal produced by the analysis layer
type TradeSignal struct {
	Asset       string     `json:"asset"`
	Signal      Signal     `json:"signal"`
	EntryPoints []float64  `json:"entryPoints"`
	StopLoss    float64    `json:"stopLoss"`
	TakeProfits [3]float64 `json:"takeProfits"`
	Confidence  float64    `json:"confidence"`
	EntryType   EntryType  `json:"entryType"`
	Timeframe   string     `json:"timeframe,omitempty"`
	Reasoning   string     `json:"reasoning,omitempty"`
}

// TradingSession restricts trading to a UTC hour window
type TradingSession struct {
	Enabled   bool `json:"enabled"`
	StartHour int  `json:"startHour"`
	EndHour   int  `json:"endHour"`
}

// PartialClose describes how a position is scaled out across the take-profits
type PartialClose struct {
	TP1Percent      float64 `json:"tp1Percent"`
	TP2Percent      float64 `json:"tp2Percent"`
	TP3Percent      float64 `json:"tp3Percent"`
	MoveToBreakeven bool    `json:"moveToBreakeven"`
}

// Percents returns the three leg percentages, falling back to 50/30/20 when none is set
func (p PartialClose) Percents() [3]float64 {
	if p.TP1Percent <= 0 && p.TP2Percent <= 0 && p.TP3Percent <= 0 {
		return [3]float64{50, 30, 20}
	}
	return [3]float64{p.TP1Percent, p.TP2Percent, p.TP3Percent}
}

// UserSettings is the user-owned risk configuration
type UserSettings struct {
	AccountSize     float64        `json:"accountSize"`
	AccountBalance  float64        `json:"accountBalance"`
	RiskPerTrade    float64        `json:"riskPerTrade"`
	MaxDailyLoss    float64        `json:"maxDailyLoss"`
	MaxTradesPerDay int            `json:"maxTradesPerDay"`
	AllowedMarkets  []string       `json:"allowedMarkets"`
	TradingSession  TradingSession `json:"tradingSession"`
	PartialClose    PartialClose   `json:"partialClose"`
	RiskRewardRatio string         `json:"riskRewardRatio"`
}

// Balance returns the account balance used for sizing.
// AccountBalance wins when set, otherwise AccountSize.
func (u UserSettings) Balance() float64 {
	if u.AccountBalance > 0 {
		return u.AccountBalance
	}
	return u.AccountSize
}

// TradeSetup is a TradeSignal enriched with sizing and validation output
type TradeSetup struct {
	TradeSignal

	LotSize              float64    `json:"lotSize"`
	FormattedLotSize     string     `json:"formattedLotSize"`
	RiskAmount           float64    `json:"riskAmount"`
	PotentialProfit      [3]float64 `json:"potentialProfit"`
	TotalPotentialProfit float64    `json:"totalPotentialProfit"`
	PartialCloseAmounts  [3]float64 `json:"partialCloseAmounts"`
	PartialCloseSizes    [3]string  `json:"partialCloseSizes"`
	MoveToBreakeven      bool       `json:"moveToBreakeven"`
	IsValid              bool       `json:"isValid"`
	ValidationMessage    string     `json:"validationMessage"`
	AssetCategory        string     `json:"assetCategory"`
	ContractSize         float64    `json:"contractSize"`
	CalculatedRR         string     `json:"calculatedRR"`
}
