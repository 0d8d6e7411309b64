package risk

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ducminhle1904/trade-setup-engine/internal/market"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// ErrInvalidRatio is returned when a "risk:reward" string cannot be parsed
var ErrInvalidRatio = errors.New("invalid risk:reward ratio")

const (
	// StopLossBuffer widens the catalog minimum stop by 20%
	StopLossBuffer = 1.2
)

// TakeProfitLadder is the share of the full reward distance each target sits at
var TakeProfitLadder = [3]float64{0.33, 0.66, 1.00}

// RiskReward is a parsed "risk:reward" ratio
type RiskReward struct {
	Risk   float64
	Reward float64
}

// Multiplier returns reward/risk
func (r RiskReward) Multiplier() float64 {
	return r.Reward / r.Risk
}

// ParseRiskReward parses strings such as "1:3" or "1 : 2.5"
func ParseRiskReward(ratio string) (RiskReward, error) {
	parts := strings.Split(ratio, ":")
	if len(parts) != 2 {
		return RiskReward{}, fmt.Errorf("%w: %q", ErrInvalidRatio, ratio)
	}

	riskPart, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	rewardPart, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return RiskReward{}, fmt.Errorf("%w: %q is not numeric", ErrInvalidRatio, ratio)
	}
	if !(riskPart > 0) || !(rewardPart > 0) || math.IsInf(riskPart, 0) || math.IsInf(rewardPart, 0) {
		return RiskReward{}, fmt.Errorf("%w: %q must be positive on both sides", ErrInvalidRatio, ratio)
	}

	return RiskReward{Risk: riskPart, Reward: rewardPart}, nil
}

// Levels are the derived stop and target prices for an entry
type Levels struct {
	StopLoss    float64    `json:"stopLoss"`
	TakeProfits [3]float64 `json:"takeProfits"`
	SLDistance  float64    `json:"slDistance"`
	TPDistances [3]float64 `json:"tpDistances"`
}

// Calculator derives stop-loss and take-profit levels from the market catalog
type Calculator struct {
	markets MarketLookup
}

// NewCalculator creates a calculator over a market lookup
func NewCalculator(markets MarketLookup) *Calculator {
	return &Calculator{markets: markets}
}

// NewDefaultCalculator creates a calculator over the built-in catalog
func NewDefaultCalculator() *Calculator {
	return NewCalculator(market.NewDefaultCatalog())
}

// CalculateTPSL places the stop 1.2x the market minimum away from entry and
// ladders three targets at 33%, 66% and 100% of the reward distance.
// NEUTRAL has no direction, so every level collapses onto the entry.
func (c *Calculator) CalculateTPSL(entryPrice float64, signal types.Signal, asset, riskRewardRatio string) (Levels, error) {
	rr, err := ParseRiskReward(riskRewardRatio)
	if err != nil {
		return Levels{}, err
	}

	cfg := c.markets.Lookup(asset)
	dir := signal.Direction()

	slDistance := cfg.MinStopLoss * StopLossBuffer
	rewardDistance := slDistance * rr.Multiplier()

	levels := Levels{
		StopLoss:   entryPrice - dir*slDistance,
		SLDistance: slDistance,
	}
	for i, share := range TakeProfitLadder {
		levels.TPDistances[i] = rewardDistance * share
		levels.TakeProfits[i] = entryPrice + dir*levels.TPDistances[i]
	}

	return levels, nil
}
