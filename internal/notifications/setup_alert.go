package notifications

import (
	"fmt"
	"strings"

	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// FormatSetupAlert renders a valid setup as a Markdown message
func FormatSetupAlert(setup types.TradeSetup, entry float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s %s* (%s, confidence %.0f%%)\n", setup.Asset, setup.Signal, setup.EntryType, setup.Confidence)
	fmt.Fprintf(&b, "Entry: %g | SL: %g\n", entry, setup.StopLoss)
	for i, tp := range setup.TakeProfits {
		if tp <= 0 {
			continue
		}
		fmt.Fprintf(&b, "TP%d: %g | close %s lots | +$%.2f\n", i+1, tp, setup.PartialCloseSizes[i], setup.PotentialProfit[i])
	}
	fmt.Fprintf(&b, "Lots: %s | Risk: $%.2f | R:R %s", setup.FormattedLotSize, setup.RiskAmount, setup.CalculatedRR)
	if setup.MoveToBreakeven {
		b.WriteString("\nMove SL to breakeven after TP1")
	}
	return b.String()
}
