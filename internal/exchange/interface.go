package exchange

import (
	"context"

	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// QuoteProvider supplies the latest traded price for an asset
type QuoteProvider interface {
	GetLatestPrice(ctx context.Context, asset string) (types.Quote, error)
}
