package risk

import "github.com/ducminhle1904/trade-setup-engine/pkg/types"

// ResolveEntryPrice picks the entry a signal should be priced at.
// Limit orders use the first entry point; market orders prefer the second
// (sniper) entry point and fall back to the first. Zero means no entry.
func ResolveEntryPrice(signal types.TradeSignal) float64 {
	points := signal.EntryPoints
	if len(points) == 0 {
		return 0
	}

	if signal.EntryType == types.EntryLimit {
		if points[0] > 0 {
			return points[0]
		}
		if len(points) > 1 {
			return points[1]
		}
		return 0
	}

	if len(points) > 1 && points[1] > 0 {
		return points[1]
	}
	return points[0]
}
