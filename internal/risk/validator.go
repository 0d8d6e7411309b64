package risk

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ducminhle1904/trade-setup-engine/internal/market"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// DefaultMinConfidence is the lowest signal confidence accepted for trading
const DefaultMinConfidence = 60.0

// Validation codes
const (
	CodeMarketNotListed = "MARKET_NOT_LISTED"
	CodeDailyLossLimit  = "DAILY_LOSS_LIMIT"
	CodeMaxTrades       = "MAX_TRADES_PER_DAY"
	CodeOutsideSession  = "OUTSIDE_TRADING_HOURS"
	CodeStopTooTight    = "STOP_LOSS_TOO_TIGHT"
	CodeLowConfidence   = "CONFIDENCE_TOO_LOW"
	CodeNeutralSignal   = "NEUTRAL_SIGNAL"
	CodeMissingLevels   = "MISSING_ENTRY_OR_STOP"
	CodeSizingFailed    = "POSITION_SIZING_FAILED"
)

// ValidationResult represents the result of a validation check
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Message    string   `json:"message,omitempty"`
	Code       string   `json:"code,omitempty"`
	Advisories []string `json:"advisories,omitempty"`
}

func pass() ValidationResult {
	return ValidationResult{Valid: true}
}

func fail(code, message string) ValidationResult {
	return ValidationResult{Valid: false, Message: message, Code: code}
}

// TradeValidator gates a proposed trade against the user's account rules
type TradeValidator struct {
	markets       MarketLookup
	minConfidence float64
	now           func() time.Time
}

// NewTradeValidator creates a validator over a market lookup
func NewTradeValidator(markets MarketLookup) *TradeValidator {
	return &TradeValidator{
		markets:       markets,
		minConfidence: DefaultMinConfidence,
		now:           time.Now,
	}
}

// WithClock returns a copy of the validator reading the time from now
func (v *TradeValidator) WithClock(now func() time.Time) *TradeValidator {
	cp := *v
	cp.now = now
	return &cp
}

// ValidateTrade runs the gates in order and returns the first failure
func (v *TradeValidator) ValidateTrade(signal types.TradeSignal, settings types.UserSettings, currentDailyLoss float64, todayTradeCount int) ValidationResult {
	var advisories []string
	if r := CheckAllowedMarket(signal, settings); r.Message != "" {
		advisories = append(advisories, r.Message)
	}

	gates := []func() ValidationResult{
		func() ValidationResult { return CheckDailyLoss(settings, currentDailyLoss) },
		func() ValidationResult { return CheckTradeCount(settings, todayTradeCount) },
		func() ValidationResult { return CheckTradingSession(settings.TradingSession, v.now()) },
		func() ValidationResult { return CheckStopDistance(signal, v.markets.Lookup(signal.Asset)) },
		func() ValidationResult { return CheckConfidence(signal, v.minConfidence) },
		func() ValidationResult { return CheckDirection(signal) },
	}

	for _, gate := range gates {
		if r := gate(); !r.Valid {
			r.Advisories = advisories
			return r
		}
	}

	r := pass()
	r.Advisories = advisories
	return r
}

// IsMarketAllowed reports whether asset appears in the allowlist.
// An empty allowlist allows everything.
func IsMarketAllowed(asset string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	normalized := market.NormalizeSymbol(asset)
	for _, a := range allowed {
		key := market.NormalizeSymbol(a)
		if key != "" && strings.Contains(normalized, key) {
			return true
		}
	}
	return false
}

// CheckAllowedMarket is advisory: it never fails, but reports unlisted markets
func CheckAllowedMarket(signal types.TradeSignal, settings types.UserSettings) ValidationResult {
	r := pass()
	if !IsMarketAllowed(signal.Asset, settings.AllowedMarkets) {
		r.Code = CodeMarketNotListed
		r.Message = fmt.Sprintf("%s is not in the allowed markets list", signal.Asset)
	}
	return r
}

// CheckDailyLoss fails once the day's loss reaches MaxDailyLoss percent of the balance
func CheckDailyLoss(settings types.UserSettings, currentDailyLoss float64) ValidationResult {
	balance := settings.Balance()
	if settings.MaxDailyLoss <= 0 || balance <= 0 {
		return pass()
	}
	lossPercent := math.Abs(currentDailyLoss) / balance * 100
	if lossPercent >= settings.MaxDailyLoss {
		return fail(CodeDailyLossLimit, "Daily loss limit reached")
	}
	return pass()
}

// CheckTradeCount fails once MaxTradesPerDay trades have been taken today
func CheckTradeCount(settings types.UserSettings, todayTradeCount int) ValidationResult {
	if settings.MaxTradesPerDay > 0 && todayTradeCount >= settings.MaxTradesPerDay {
		return fail(CodeMaxTrades, "Max trades per day reached")
	}
	return pass()
}

// CheckTradingSession fails when the UTC hour of now is outside [StartHour, EndHour).
// The window does not wrap past midnight: an overnight session such as 22 -> 6
// rejects every hour. config.ValidateUserSettings refuses such settings.
func CheckTradingSession(session types.TradingSession, now time.Time) ValidationResult {
	if !session.Enabled {
		return pass()
	}
	hour := now.UTC().Hour()
	if hour < session.StartHour || hour >= session.EndHour {
		return fail(CodeOutsideSession, "Outside trading hours")
	}
	return pass()
}

// CheckStopDistance fails when the stop is closer to entry than the market minimum
func CheckStopDistance(signal types.TradeSignal, cfg market.MarketConfig) ValidationResult {
	entry := ResolveEntryPrice(signal)
	if math.Abs(entry-signal.StopLoss) < cfg.MinStopLoss {
		return fail(CodeStopTooTight, "Stop loss too tight")
	}
	return pass()
}

// CheckConfidence fails below the minimum confidence
func CheckConfidence(signal types.TradeSignal, minConfidence float64) ValidationResult {
	if signal.Confidence < minConfidence {
		return fail(CodeLowConfidence, "Confidence too low")
	}
	return pass()
}

// CheckDirection fails for signals without a direction
func CheckDirection(signal types.TradeSignal) ValidationResult {
	if signal.Signal.Direction() == 0 {
		return fail(CodeNeutralSignal, "Signal is NEUTRAL")
	}
	return pass()
}
