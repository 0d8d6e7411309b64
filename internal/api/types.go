package api

import (
	"github.com/ducminhle1904/trade-setup-engine/internal/market"
	"github.com/ducminhle1904/trade-setup-engine/internal/planner"
	"github.com/ducminhle1904/trade-setup-engine/internal/risk"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// SetupRequest is the body of POST /v1/setup
type SetupRequest struct {
	Signal types.TradeSignal `json:"signal"`

	// Settings falls back to the server's settings when omitted
	Settings *types.UserSettings `json:"settings"`

	RefreshEntry     bool     `json:"refreshEntry"`
	Notify           bool     `json:"notify"`
	CurrentDailyLoss *float64 `json:"currentDailyLoss"`
	TodayTradeCount  *int     `json:"todayTradeCount"`
}

// plannerRequest converts the body using settings for the risk parameters
func (r SetupRequest) plannerRequest(settings types.UserSettings) planner.Request {
	return planner.Request{
		Signal:           r.Signal,
		Settings:         settings,
		RefreshEntry:     r.RefreshEntry,
		Notify:           r.Notify,
		CurrentDailyLoss: r.CurrentDailyLoss,
		TodayTradeCount:  r.TodayTradeCount,
	}
}

// LevelsRequest is the body of POST /v1/levels
type LevelsRequest struct {
	Asset           string       `json:"asset" binding:"required"`
	Signal          types.Signal `json:"signal"`
	EntryPrice      float64      `json:"entryPrice" binding:"required,gt=0"`
	RiskRewardRatio string       `json:"riskRewardRatio"`
}

// LevelsResponse carries the derived levels and the catalog entry used
type LevelsResponse struct {
	Asset         string      `json:"asset"`
	CatalogSymbol string      `json:"catalogSymbol"`
	Levels        risk.Levels `json:"levels"`
}

// AssetResponse is the body of GET /v1/assets/:symbol
type AssetResponse struct {
	Symbol        string              `json:"symbol"`
	Asset         market.AssetConfig  `json:"asset"`
	Market        market.MarketConfig `json:"market"`
	CatalogSymbol string              `json:"catalogSymbol"`
}

// ErrorResponse is returned for every non-2xx status
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidRatio       = "INVALID_RATIO"
	CodeQuoteUnavailable   = "QUOTE_UNAVAILABLE"
	CodeJournalUnavailable = "JOURNAL_UNAVAILABLE"
)
