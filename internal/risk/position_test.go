package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

func TestCalculatePositionSize(t *testing.T) {
	p := NewDefaultPositionSizer()

	tests := []struct {
		name         string
		account      float64
		risk         float64
		entry        float64
		stop         float64
		asset        string
		lots         float64
		riskAmount   float64
		contractSize float64
	}{
		{"forex", 10000, 1, 1.1000, 1.0950, "EURUSD", 0.2, 100, 100000},
		{"gold", 10000, 1, 2000, 1990, "XAUUSD", 0.1, 100, 100},
		{"sell side", 10000, 2, 1990, 2000, "XAUUSD", 0.2, 200, 100},
		{"index", 5000, 1, 18000, 17950, "NAS100", 1, 50, 1},
		{"floor", 100, 1, 1.1, 1.0, "EURUSD", MinLotSize, 1, 100000},
		{"cap", 1000000, 5, 60000, 59999, "BTCUSD", MaxLotSize, 50000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.CalculatePositionSize(tt.account, tt.risk, tt.entry, tt.stop, tt.asset)
			assert.True(t, got.IsValid)
			assert.Empty(t, got.ErrorMessage)
			assert.InDelta(t, tt.lots, got.LotSize, 1e-9)
			assert.InDelta(t, tt.riskAmount, got.RiskAmount, 1e-9)
			assert.Equal(t, tt.contractSize, got.ContractSize)
		})
	}
}

func TestCalculatePositionSize_ClampRange(t *testing.T) {
	p := NewDefaultPositionSizer()

	stops := []float64{0.00001, 0.001, 0.5, 10, 500, 5000}
	for _, stop := range stops {
		for _, account := range []float64{10, 1000, 1e6, 1e9} {
			got := p.CalculatePositionSize(account, 1, 5000+stop, 5000, "BTCUSDT")
			assert.True(t, got.IsValid)
			assert.GreaterOrEqual(t, got.LotSize, MinLotSize)
			assert.LessOrEqual(t, got.LotSize, MaxLotSize)
		}
	}
}

func TestCalculatePositionSize_Invalid(t *testing.T) {
	p := NewDefaultPositionSizer()

	got := p.CalculatePositionSize(0, 1, 1.1, 1.0, "EURUSD")
	assert.False(t, got.IsValid)
	assert.Equal(t, "Invalid account or risk parameters", got.ErrorMessage)
	assert.Zero(t, got.LotSize)
	assert.Zero(t, got.RiskAmount)

	got = p.CalculatePositionSize(1000, -1, 1.1, 1.0, "EURUSD")
	assert.False(t, got.IsValid)
	assert.Equal(t, "Invalid account or risk parameters", got.ErrorMessage)

	got = p.CalculatePositionSize(1000, 1, 1.1, 1.1, "XAUUSD")
	assert.False(t, got.IsValid)
	assert.Equal(t, "Invalid Stop Loss (0 dist)", got.ErrorMessage)
	assert.Zero(t, got.LotSize)
	assert.Equal(t, 10.0, got.RiskAmount)
	assert.Equal(t, 100.0, got.ContractSize)
}

func TestCalculatePnL(t *testing.T) {
	p := NewDefaultPositionSizer()

	assert.InDelta(t, 100, p.CalculatePnL(0.1, 2000, 2010, "XAUUSD", types.SignalBuy), 1e-9)
	assert.InDelta(t, -100, p.CalculatePnL(0.1, 2000, 2010, "XAUUSD", types.SignalSell), 1e-9)
	assert.InDelta(t, 50, p.CalculatePnL(0.1, 1.1000, 1.1050, "EURUSD", types.SignalBuy), 1e-9)
	assert.Zero(t, p.CalculatePnL(0.1, 2000, 2010, "XAUUSD", types.SignalNeutral))
}

func TestFormatLotSize(t *testing.T) {
	p := NewDefaultPositionSizer()

	assert.Equal(t, "0.123", p.FormatLotSize(0.12345, "BTCUSDT"))
	assert.Equal(t, "0.123", p.FormatLotSize(0.12345, "ETHUSD"))
	assert.Equal(t, "0.12", p.FormatLotSize(0.12345, "EURUSD"))
	assert.Equal(t, "0.12", p.FormatLotSize(0.12345, "NAS100"))
	assert.Equal(t, "0.12", p.FormatLotSize(0.12345, "XAUUSD"))
	assert.Equal(t, "100.00", p.FormatLotSize(100, "GBPJPY"))
}
