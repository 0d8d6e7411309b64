package main

import (
	"github.com/ducminhle1904/trade-setup-engine/internal/config"
	"github.com/ducminhle1904/trade-setup-engine/internal/exchange"
	"github.com/ducminhle1904/trade-setup-engine/internal/exchange/bybit"
	"github.com/ducminhle1904/trade-setup-engine/internal/journal"
	"github.com/ducminhle1904/trade-setup-engine/internal/logger"
	"github.com/ducminhle1904/trade-setup-engine/internal/market"
	"github.com/ducminhle1904/trade-setup-engine/internal/monitoring"
	"github.com/ducminhle1904/trade-setup-engine/internal/notifications"
	"github.com/ducminhle1904/trade-setup-engine/internal/planner"
	"github.com/ducminhle1904/trade-setup-engine/internal/retry"
	"github.com/ducminhle1904/trade-setup-engine/internal/risk"
	"github.com/ducminhle1904/trade-setup-engine/internal/safety"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	envFile      string
	settingsFile string
	catalogFile  string
	journalFile  string
	logDir       string
	noQuotes     bool
}

// app holds everything a command needs, built once per invocation
type app struct {
	cfg        *config.Config
	settings   types.UserSettings
	classifier *market.Classifier
	catalog    *market.Catalog
	builder    *risk.SetupBuilder
	journal    *journal.FileJournal
	log        *logger.Logger
	health     *monitoring.HealthChecker
	planner    *planner.Planner
}

func newApp(opts *globalOptions) (*app, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, opts)

	settings, err := config.LoadUserSettings(cfg.Files.Settings)
	if err != nil {
		return nil, err
	}

	catalog, err := config.LoadCatalog(cfg.Files.Catalog)
	if err != nil {
		return nil, err
	}

	var log *logger.Logger
	if cfg.LogDir == "-" {
		log = logger.Discard()
	} else if log, err = logger.NewLogger(cfg.LogDir, "tradesetup"); err != nil {
		return nil, err
	}

	j, err := journal.NewFileJournal(cfg.Files.Journal)
	if err != nil {
		log.Close()
		return nil, err
	}

	classifier := market.NewDefaultClassifier()
	builder := risk.NewSetupBuilder(classifier, risk.NewTradeValidator(catalog))
	health := monitoring.NewHealthChecker(cfg.Quotes.Enabled)

	plannerOpts := []planner.Option{
		planner.WithStats(j),
		planner.WithLogger(log),
		planner.WithHealth(health),
		planner.WithNotifier(notifications.NewNotifier(cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID)),
	}

	if cfg.Quotes.Enabled {
		client := bybit.NewClient(bybit.Config{
			APIKey:     cfg.Quotes.APIKey,
			APISecret:  cfg.Quotes.APISecret,
			Testnet:    cfg.Quotes.Testnet,
			Demo:       cfg.Quotes.Demo,
			Categories: cfg.Quotes.Categories,
			Retry:      cfg.Quotes.Retry,
		})
		client.OnRetry(func(a retry.Attempt) {
			monitoring.RecordQuoteRetry()
			log.Warning("quote attempt %d failed, retrying in %s: %v", a.Number, a.Delay, a.Err)
		})
		plannerOpts = append(plannerOpts, planner.WithQuotes(newQuoteGuard(cfg, client, log)))
		log.Info("Bybit quotes enabled (%s, categories %v)", client.GetEnvironment(), client.Categories())
	}

	return &app{
		cfg:        cfg,
		settings:   settings,
		classifier: classifier,
		catalog:    catalog,
		builder:    builder,
		journal:    j,
		log:        log,
		health:     health,
		planner:    planner.New(builder, plannerOpts...),
	}, nil
}

func newQuoteGuard(cfg *config.Config, quotes exchange.QuoteProvider, log *logger.Logger) *safety.QuoteGuard {
	var limiter *safety.RateLimiter
	if cfg.Quotes.RateLimit > 0 {
		burst := cfg.Quotes.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = safety.NewRateLimiter("bybit_quotes", burst, cfg.Quotes.RateLimit)
	}

	breaker := safety.NewCircuitBreaker("bybit_quotes", safety.CircuitBreakerConfig{
		FailureThreshold: uint32(max(cfg.Quotes.BreakerThreshold, 0)),
		Timeout:          cfg.Quotes.BreakerTimeout,
	})
	breaker.OnStateChange(func(from, to safety.CircuitBreakerState) {
		log.Warning("quote circuit %s -> %s", from, to)
	})

	return safety.NewQuoteGuard(quotes, limiter, breaker)
}

func applyOverrides(cfg *config.Config, opts *globalOptions) {
	if opts.settingsFile != "" {
		cfg.Files.Settings = opts.settingsFile
	}
	if opts.catalogFile != "" {
		cfg.Files.Catalog = opts.catalogFile
	}
	if opts.journalFile != "" {
		cfg.Files.Journal = opts.journalFile
	}
	if opts.logDir != "" {
		cfg.LogDir = opts.logDir
	}
	if opts.noQuotes {
		cfg.Quotes.Enabled = false
	}
}

func (a *app) Close() error {
	return a.log.Close()
}
