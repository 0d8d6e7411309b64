package risk

import (
	"math"
	"strconv"

	"github.com/ducminhle1904/trade-setup-engine/internal/market"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

const (
	MinLotSize = 0.01
	MaxLotSize = 100.0

	msgInvalidRiskParams = "Invalid account or risk parameters"
	msgZeroStopDistance  = "Invalid Stop Loss (0 dist)"
)

// PositionSize is the result of a sizing call
type PositionSize struct {
	LotSize      float64 `json:"lotSize"`
	RiskAmount   float64 `json:"riskAmount"`
	ContractSize float64 `json:"contractSize"`
	IsValid      bool    `json:"isValid"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

// PositionSizer converts account risk into lot sizes
type PositionSizer struct {
	assets AssetClassifier
}

// NewPositionSizer creates a sizer over an asset classifier
func NewPositionSizer(assets AssetClassifier) *PositionSizer {
	return &PositionSizer{assets: assets}
}

// NewDefaultPositionSizer creates a sizer with the built-in classification rules
func NewDefaultPositionSizer() *PositionSizer {
	return NewPositionSizer(market.NewDefaultClassifier())
}

// CalculatePositionSize sizes a position so that hitting the stop loses
// riskPercentage of accountSize. The lot size is clamped to [0.01, 100].
func (p *PositionSizer) CalculatePositionSize(accountSize, riskPercentage, entryPrice, stopLoss float64, asset string) PositionSize {
	cfg := p.assets.Detect(asset)

	if accountSize <= 0 || riskPercentage <= 0 {
		return PositionSize{
			ContractSize: cfg.ContractSize,
			ErrorMessage: msgInvalidRiskParams,
		}
	}

	riskAmount := accountSize * riskPercentage / 100
	priceDifference := math.Abs(entryPrice - stopLoss)
	if priceDifference == 0 {
		return PositionSize{
			RiskAmount:   riskAmount,
			ContractSize: cfg.ContractSize,
			ErrorMessage: msgZeroStopDistance,
		}
	}

	lotSize := riskAmount / (priceDifference * cfg.ContractSize)

	return PositionSize{
		LotSize:      clampLotSize(lotSize),
		RiskAmount:   riskAmount,
		ContractSize: cfg.ContractSize,
		IsValid:      true,
	}
}

func clampLotSize(lots float64) float64 {
	if math.IsNaN(lots) || lots < MinLotSize {
		return MinLotSize
	}
	if lots > MaxLotSize {
		return MaxLotSize
	}
	return lots
}

// CalculatePnL returns the signed profit of closing lots at exit
func (p *PositionSizer) CalculatePnL(lots, entryPrice, exitPrice float64, asset string, direction types.Signal) float64 {
	cfg := p.assets.Detect(asset)
	return direction.Direction() * (exitPrice - entryPrice) * lots * cfg.ContractSize
}

// FormatLotSize renders lots with 3 decimals for crypto and 2 otherwise
func (p *PositionSizer) FormatLotSize(lots float64, asset string) string {
	return strconv.FormatFloat(lots, 'f', lotDecimals(p.assets.Detect(asset).Category), 64)
}

func lotDecimals(category market.AssetCategory) int {
	if category == market.CategoryCrypto {
		return 3
	}
	return 2
}
