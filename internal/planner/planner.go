package planner

import (
	"context"
	"time"

	"github.com/ducminhle1904/trade-setup-engine/internal/exchange"
	"github.com/ducminhle1904/trade-setup-engine/internal/journal"
	"github.com/ducminhle1904/trade-setup-engine/internal/logger"
	"github.com/ducminhle1904/trade-setup-engine/internal/monitoring"
	"github.com/ducminhle1904/trade-setup-engine/internal/notifications"
	"github.com/ducminhle1904/trade-setup-engine/internal/risk"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// StatsSource yields today's trade count and realized loss
type StatsSource interface {
	DailyStats(now time.Time) (journal.DailyStats, error)
}

// Request is one planning call
type Request struct {
	Signal   types.TradeSignal  `json:"signal"`
	Settings types.UserSettings `json:"settings"`

	// RefreshEntry replaces a Market Order's entry with the live quote
	RefreshEntry bool `json:"refreshEntry,omitempty"`
	// Notify sends an alert for a valid setup
	Notify bool `json:"notify,omitempty"`

	// Explicit overrides; when nil the journal is consulted
	CurrentDailyLoss *float64 `json:"currentDailyLoss,omitempty"`
	TodayTradeCount  *int     `json:"todayTradeCount,omitempty"`
}

// Result is the setup plus how it was produced
type Result struct {
	Setup      types.TradeSetup   `json:"setup"`
	EntryPrice float64            `json:"entryPrice"`
	Code       string             `json:"code,omitempty"`
	Advisories []string           `json:"advisories,omitempty"`
	Quote      *types.Quote       `json:"quote,omitempty"`
	Stats      journal.DailyStats `json:"stats"`
}

// Planner wires quotes, the journal and the setup builder together
type Planner struct {
	builder  *risk.SetupBuilder
	quotes   exchange.QuoteProvider
	stats    StatsSource
	log      *logger.Logger
	health   *monitoring.HealthChecker
	notifier notifications.Notifier
	now      func() time.Time
}

// Option configures a Planner
type Option func(*Planner)

// WithQuotes enables live entry refresh
func WithQuotes(q exchange.QuoteProvider) Option {
	return func(p *Planner) { p.quotes = q }
}

// WithStats sets where daily loss and trade count come from
func WithStats(s StatsSource) Option {
	return func(p *Planner) { p.stats = s }
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Planner) { p.log = l }
}

func WithHealth(h *monitoring.HealthChecker) Option {
	return func(p *Planner) { p.health = h }
}

func WithNotifier(n notifications.Notifier) Option {
	return func(p *Planner) { p.notifier = n }
}

// WithClock sets the clock used for journal day boundaries
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// New creates a planner around builder
func New(builder *risk.SetupBuilder, opts ...Option) *Planner {
	p := &Planner{
		builder:  builder,
		log:      logger.Discard(),
		notifier: notifications.NopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Builder returns the underlying setup builder
func (p *Planner) Builder() *risk.SetupBuilder {
	return p.builder
}

// Plan builds a setup for the request. Errors are infrastructure failures
// only; a rejected trade is a Result with an invalid setup.
func (p *Planner) Plan(ctx context.Context, req Request) (Result, error) {
	signal := req.Signal
	var result Result

	if req.RefreshEntry && signal.EntryType == types.EntryMarket && p.quotes != nil {
		q, err := p.quotes.GetLatestPrice(ctx, signal.Asset)
		monitoring.RecordQuote(q.Symbol, q.Price, err)
		if p.health != nil {
			p.health.MarkQuote(q.Price, err)
		}
		if err != nil {
			p.fail("quote", err)
			return Result{}, err
		}
		p.log.LogQuote(q)
		signal.EntryPoints = withMarketEntry(signal.EntryPoints, q.Price)
		result.Quote = &q
	}

	stats, err := p.dailyStats(req)
	if err != nil {
		p.fail("journal", err)
		return Result{}, err
	}
	result.Stats = stats

	setup, outcome := p.builder.Build(signal, req.Settings, stats.DailyLoss, stats.TradeCount)
	result.Setup = setup
	result.EntryPrice = risk.ResolveEntryPrice(signal)
	result.Code = outcome.Code
	result.Advisories = outcome.Advisories

	monitoring.RecordSetup(setup.AssetCategory, setup.IsValid, outcome.Code, setup.LotSize, setup.RiskAmount)
	if p.health != nil {
		p.health.MarkSetup()
	}
	p.log.LogTradeSetup(setup)
	for _, advisory := range outcome.Advisories {
		p.log.Warning("%s: %s", signal.Asset, advisory)
	}

	if req.Notify && setup.IsValid {
		msg := notifications.FormatSetupAlert(setup, result.EntryPrice)
		if err := p.notifier.SendAlert(ctx, notifications.LevelSuccess, msg); err != nil {
			// Alert delivery never fails the plan
			p.log.LogWarning("notify", "%v", err)
			monitoring.RecordError("notify")
		}
	}

	return result, nil
}

func (p *Planner) dailyStats(req Request) (journal.DailyStats, error) {
	var stats journal.DailyStats
	if p.stats != nil && (req.CurrentDailyLoss == nil || req.TodayTradeCount == nil) {
		s, err := p.stats.DailyStats(p.now())
		if err != nil {
			return journal.DailyStats{}, err
		}
		stats = s
	}

	if req.CurrentDailyLoss != nil {
		stats.DailyLoss = *req.CurrentDailyLoss
	}
	if req.TodayTradeCount != nil {
		stats.TradeCount = *req.TodayTradeCount
	}
	return stats, nil
}

func (p *Planner) fail(component string, err error) {
	p.log.LogError(component, err)
	monitoring.RecordError(component)
	if p.health != nil {
		p.health.RecordError(err)
	}
}

// withMarketEntry puts price where ResolveEntryPrice reads a market entry
func withMarketEntry(points []float64, price float64) []float64 {
	out := append([]float64(nil), points...)
	switch {
	case len(out) >= 2:
		out[1] = price
	case len(out) == 1:
		out[0] = price
	default:
		out = []float64{price}
	}
	return out
}
