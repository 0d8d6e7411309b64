package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	apperrors "github.com/ducminhle1904/trade-setup-engine/internal/errors"
	"github.com/ducminhle1904/trade-setup-engine/internal/market"
	"github.com/ducminhle1904/trade-setup-engine/internal/risk"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// DefaultUserSettings returns the settings a new user starts with
func DefaultUserSettings() types.UserSettings {
	return types.UserSettings{
		AccountSize:     10000,
		AccountBalance:  10000,
		RiskPerTrade:    1,
		MaxDailyLoss:    5,
		MaxTradesPerDay: 5,
		TradingSession:  types.TradingSession{StartHour: 8, EndHour: 16},
		PartialClose:    types.PartialClose{TP1Percent: 50, TP2Percent: 30, TP3Percent: 20},
		RiskRewardRatio: "1:2",
	}
}

// LoadUserSettings reads a JSON settings file over the defaults.
// An empty path returns the defaults.
func LoadUserSettings(path string) (types.UserSettings, error) {
	settings := DefaultUserSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, apperrors.Wrap(err, apperrors.ErrorCategoryConfiguration, "config", "load_settings")
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, apperrors.Wrap(fmt.Errorf("failed to parse %s: %w", path, err),
			apperrors.ErrorCategoryConfiguration, "config", "load_settings")
	}

	if err := ValidateUserSettings(settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// SaveUserSettings writes settings as indented JSON
func SaveUserSettings(path string, settings types.UserSettings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCategoryConfiguration, "config", "save_settings")
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return apperrors.NewStorageError("config", "save_settings", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return apperrors.NewStorageError("config", "save_settings", err)
	}
	return nil
}

const partialCloseTolerance = 1e-6

// ValidateUserSettings rejects settings no trade could be sized with
func ValidateUserSettings(s types.UserSettings) error {
	invalid := func(msg string) error {
		return apperrors.NewConfigurationError("config", "validate_settings", msg)
	}

	switch {
	case s.Balance() <= 0:
		return invalid("account balance must be positive")
	case s.RiskPerTrade <= 0 || s.RiskPerTrade > 100:
		return invalid("riskPerTrade must be in (0, 100]")
	case s.MaxDailyLoss < 0 || s.MaxDailyLoss > 100:
		return invalid("maxDailyLoss must be in [0, 100]")
	case s.MaxTradesPerDay < 0:
		return invalid("maxTradesPerDay must not be negative")
	case s.TradingSession.StartHour < 0 || s.TradingSession.StartHour > 23 ||
		s.TradingSession.EndHour < 0 || s.TradingSession.EndHour > 24:
		return invalid("trading session hours out of range")
	case s.TradingSession.Enabled && s.TradingSession.StartHour >= s.TradingSession.EndHour:
		return invalid("trading session must start before it ends (UTC, no overnight windows)")
	}

	pc := s.PartialClose
	if pc.TP1Percent < 0 || pc.TP2Percent < 0 || pc.TP3Percent < 0 {
		return invalid("partial close percentages must not be negative")
	}
	// All zero selects the 50/30/20 default; anything else must cover the whole position
	if sum := pc.TP1Percent + pc.TP2Percent + pc.TP3Percent; sum != 0 && math.Abs(sum-100) > partialCloseTolerance {
		return invalid(fmt.Sprintf("partial close percentages must sum to 100, got %g", sum))
	}

	if _, err := risk.ParseRiskReward(s.RiskRewardRatio); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCategoryConfiguration, "config", "validate_settings")
	}
	return nil
}

// LoadCatalog returns the built-in catalog, or the YAML file at path when set
func LoadCatalog(path string) (*market.Catalog, error) {
	if path == "" {
		return market.NewDefaultCatalog(), nil
	}

	catalog, err := market.LoadCatalogYAML(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCategoryConfiguration, "config", "load_catalog")
	}
	return catalog, nil
}
