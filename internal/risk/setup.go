package risk

import (
	"fmt"

	"github.com/ducminhle1904/trade-setup-engine/internal/market"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

const msgMissingLevels = "Missing entry price or stop loss"

// SetupBuilder turns a validated signal into a priced, partially closable trade plan
type SetupBuilder struct {
	assets    AssetClassifier
	validator *TradeValidator
	sizer     *PositionSizer
}

// NewSetupBuilder creates a builder. The sizer shares the builder's classifier.
func NewSetupBuilder(assets AssetClassifier, validator *TradeValidator) *SetupBuilder {
	return &SetupBuilder{
		assets:    assets,
		validator: validator,
		sizer:     NewPositionSizer(assets),
	}
}

// NewDefaultSetupBuilder creates a builder over the built-in tables and the wall clock
func NewDefaultSetupBuilder() *SetupBuilder {
	return NewSetupBuilder(market.NewDefaultClassifier(), NewTradeValidator(market.NewDefaultCatalog()))
}

// Validator exposes the builder's validator
func (b *SetupBuilder) Validator() *TradeValidator {
	return b.validator
}

// Sizer exposes the builder's position sizer
func (b *SetupBuilder) Sizer() *PositionSizer {
	return b.sizer
}

// BuildCompleteTradeSetup validates and sizes a signal. The result is always a
// complete TradeSetup; failures carry IsValid=false and a ValidationMessage.
func (b *SetupBuilder) BuildCompleteTradeSetup(signal types.TradeSignal, settings types.UserSettings, currentDailyLoss float64, todayTradeCount int) types.TradeSetup {
	setup, _ := b.Build(signal, settings, currentDailyLoss, todayTradeCount)
	return setup
}

// Build is BuildCompleteTradeSetup that also returns the outcome, carrying the
// rejection code and any advisories.
func (b *SetupBuilder) Build(signal types.TradeSignal, settings types.UserSettings, currentDailyLoss float64, todayTradeCount int) (types.TradeSetup, ValidationResult) {
	validation := b.validator.ValidateTrade(signal, settings, currentDailyLoss, todayTradeCount)
	if !validation.Valid {
		return rejectedSetup(signal, validation.Message), validation
	}

	entryPrice := ResolveEntryPrice(signal)
	if entryPrice == 0 || signal.StopLoss == 0 {
		return rejectedSetup(signal, msgMissingLevels), withAdvisories(fail(CodeMissingLevels, msgMissingLevels), validation)
	}

	sizing := b.sizer.CalculatePositionSize(settings.Balance(), settings.RiskPerTrade, entryPrice, signal.StopLoss, signal.Asset)
	if !sizing.IsValid {
		// Sizer numbers survive the rejection on purpose; consumers display them.
		setup := rejectedSetup(signal, sizing.ErrorMessage)
		setup.LotSize = sizing.LotSize
		setup.RiskAmount = sizing.RiskAmount
		setup.ContractSize = sizing.ContractSize
		return setup, withAdvisories(fail(CodeSizingFailed, sizing.ErrorMessage), validation)
	}

	cfg := b.assets.Detect(signal.Asset)
	percents := settings.PartialClose.Percents()

	setup := types.TradeSetup{
		TradeSignal:       signal,
		LotSize:           sizing.LotSize,
		FormattedLotSize:  b.sizer.FormatLotSize(sizing.LotSize, signal.Asset),
		RiskAmount:        sizing.RiskAmount,
		MoveToBreakeven:   settings.PartialClose.MoveToBreakeven,
		IsValid:           true,
		ValidationMessage: "Trade setup valid",
		AssetCategory:     string(cfg.Category),
		ContractSize:      sizing.ContractSize,
	}

	for i := range setup.PartialCloseAmounts {
		amount := sizing.LotSize * percents[i] / 100
		setup.PartialCloseAmounts[i] = amount
		setup.PartialCloseSizes[i] = b.sizer.FormatLotSize(amount, signal.Asset)

		target := signal.TakeProfits[i]
		if target > 0 {
			setup.PotentialProfit[i] = b.sizer.CalculatePnL(amount, entryPrice, target, signal.Asset, signal.Signal)
		}
		setup.TotalPotentialProfit += setup.PotentialProfit[i]
	}

	setup.CalculatedRR = realizedRatio(setup.TotalPotentialProfit, setup.RiskAmount, settings.RiskRewardRatio)
	return setup, validation
}

func withAdvisories(r, from ValidationResult) ValidationResult {
	r.Advisories = from.Advisories
	return r
}

// realizedRatio formats profit/risk as "1:X.XX", keeping the requested ratio when either side is non-positive
func realizedRatio(totalProfit, riskAmount float64, requested string) string {
	if riskAmount <= 0 || totalProfit <= 0 {
		return requested
	}
	return fmt.Sprintf("1:%.2f", totalProfit/riskAmount)
}

func rejectedSetup(signal types.TradeSignal, message string) types.TradeSetup {
	return types.TradeSetup{
		TradeSignal:       signal,
		PartialCloseSizes: [3]string{"0.00", "0.00", "0.00"},
		FormattedLotSize:  "0.00",
		ValidationMessage: message,
	}
}
