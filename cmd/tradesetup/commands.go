package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/trade-setup-engine/internal/api"
	"github.com/ducminhle1904/trade-setup-engine/internal/journal"
	"github.com/ducminhle1904/trade-setup-engine/internal/monitoring"
	"github.com/ducminhle1904/trade-setup-engine/internal/planner"
	"github.com/ducminhle1904/trade-setup-engine/internal/risk"
	"github.com/ducminhle1904/trade-setup-engine/pkg/reporting"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "tradesetup",
		Short: "Position sizing and trade validation",
		Long: `tradesetup turns a trading signal into a sized, validated trade setup.

It checks the signal against daily loss, trade count, session, stop distance,
confidence and direction rules, sizes the position from account risk and
splits it across three take-profit levels.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "Env file to load (skipped when missing)")
	flags.StringVar(&opts.settingsFile, "settings", "", "User settings JSON (overrides SETTINGS_FILE)")
	flags.StringVar(&opts.catalogFile, "catalog", "", "Market catalog YAML (overrides CATALOG_FILE)")
	flags.StringVar(&opts.journalFile, "journal", "", "Trade journal JSON (overrides JOURNAL_FILE)")
	flags.StringVar(&opts.logDir, "log-dir", "", "Log directory, \"-\" disables file logging (overrides LOG_DIR)")
	flags.BoolVar(&opts.noQuotes, "no-quotes", false, "Disable live Bybit quotes")

	rootCmd.AddCommand(
		newBuildCmd(opts),
		newLevelsCmd(opts),
		newClassifyCmd(opts),
		newServeCmd(opts),
		newJournalCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// signalFlags describe a signal inline when no file is given
type signalFlags struct {
	file       string
	asset      string
	side       string
	entries    []float64
	stop       float64
	targets    []float64
	confidence float64
	entryType  string
	timeframe  string
}

func (f *signalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "signal-file", "f", "", "Signal JSON file, \"-\" reads stdin")
	cmd.Flags().StringVar(&f.asset, "asset", "", "Instrument ticker, e.g. XAUUSD")
	cmd.Flags().StringVar(&f.side, "side", "", "BUY, SELL or NEUTRAL")
	cmd.Flags().Float64SliceVar(&f.entries, "entry", nil, "Entry prices (comma separated)")
	cmd.Flags().Float64Var(&f.stop, "stop", 0, "Stop-loss price")
	cmd.Flags().Float64SliceVar(&f.targets, "tp", nil, "Up to three take-profit prices")
	cmd.Flags().Float64Var(&f.confidence, "confidence", 0, "Signal confidence 0-100")
	cmd.Flags().StringVar(&f.entryType, "entry-type", "limit", "limit or market")
	cmd.Flags().StringVar(&f.timeframe, "timeframe", "", "Signal timeframe")
}

func (f *signalFlags) signal(stdin io.Reader) (types.TradeSignal, error) {
	if f.file != "" {
		return readSignal(f.file, stdin)
	}
	if f.asset == "" {
		return types.TradeSignal{}, fmt.Errorf("either --signal-file or --asset is required")
	}
	if len(f.targets) > 3 {
		return types.TradeSignal{}, fmt.Errorf("at most three take-profits, got %d", len(f.targets))
	}

	s := types.TradeSignal{
		Asset:       f.asset,
		Signal:      types.ParseSignal(f.side),
		EntryPoints: f.entries,
		StopLoss:    f.stop,
		Confidence:  f.confidence,
		EntryType:   parseEntryType(f.entryType),
		Timeframe:   f.timeframe,
	}
	copy(s.TakeProfits[:], f.targets)
	return s, nil
}

func readSignal(path string, stdin io.Reader) (types.TradeSignal, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return types.TradeSignal{}, fmt.Errorf("failed to read signal: %w", err)
	}

	var s types.TradeSignal
	if err := json.Unmarshal(data, &s); err != nil {
		return types.TradeSignal{}, fmt.Errorf("failed to parse signal: %w", err)
	}
	return s, nil
}

func parseEntryType(s string) types.EntryType {
	if strings.Contains(strings.ToLower(s), "market") {
		return types.EntryMarket
	}
	return types.EntryLimit
}

func newBuildCmd(opts *globalOptions) *cobra.Command {
	var (
		sig       signalFlags
		ratio     string
		refresh   bool
		notify    bool
		record    bool
		dailyLoss float64
		trades    int
		format    string
		xlsxOut   string
		jsonOut   string
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a sized trade setup from a signal",
		Example: `  tradesetup build --asset XAUUSD --side BUY --entry 2000,2001 --stop 1990 --tp 2010,2020,2030 --confidence 75
  tradesetup build -f signal.json --xlsx auto`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := sig.signal(cmd.InOrStdin())
			if err != nil {
				return err
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			settings := a.settings
			if ratio != "" {
				if _, err := risk.ParseRiskReward(ratio); err != nil {
					return err
				}
				settings.RiskRewardRatio = ratio
			}

			req := planner.Request{Signal: ts, Settings: settings, RefreshEntry: refresh, Notify: notify}
			if cmd.Flags().Changed("daily-loss") {
				req.CurrentDailyLoss = &dailyLoss
			}
			if cmd.Flags().Changed("trades") {
				req.TodayTradeCount = &trades
			}

			result, err := a.planner.Plan(cmd.Context(), req)
			if err != nil {
				return err
			}

			report := reporting.SetupReport{
				Setup:       result.Setup,
				EntryPrice:  result.EntryPrice,
				Code:        result.Code,
				Advisories:  result.Advisories,
				GeneratedAt: time.Now(),
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				data, err := reporting.NewDefaultJSONFormatter().Format(result)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			default:
				reporting.NewDefaultConsoleReporter().RenderSetup(out, report)
			}

			if err := writeReports(out, report, outDir, xlsxOut, jsonOut); err != nil {
				return err
			}

			if record && result.Setup.IsValid {
				entry, err := a.journal.Record(journal.EntryFromSetup(result.Setup, result.EntryPrice))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "📝 Recorded %s in %s\n", entry.ID, a.journal.Path())
			}
			return nil
		},
	}

	sig.register(cmd)
	cmd.Flags().StringVar(&ratio, "ratio", "", "Risk:reward ratio, overrides settings")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Replace a market order's entry with the live quote")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send a Telegram alert for a valid setup")
	cmd.Flags().BoolVar(&record, "record", false, "Record a valid setup in the journal")
	cmd.Flags().Float64Var(&dailyLoss, "daily-loss", 0, "Today's realized loss, skips the journal")
	cmd.Flags().IntVar(&trades, "trades", 0, "Trades taken today, skips the journal")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "Write an Excel report (\"auto\" picks a path under --out-dir)")
	cmd.Flags().StringVar(&jsonOut, "json-out", "", "Write a JSON report (\"auto\" picks a path under --out-dir)")
	cmd.Flags().StringVar(&outDir, "out-dir", "results", "Directory for auto report paths")
	return cmd
}

func writeReports(out io.Writer, report reporting.SetupReport, dir, xlsxOut, jsonOut string) error {
	resolve := func(path, ext string) string {
		if path == "auto" {
			return reporting.DefaultOutputPath(dir, report.Setup.Asset, ext, report.GeneratedAt)
		}
		return path
	}

	if xlsxOut != "" {
		path := resolve(xlsxOut, "xlsx")
		if err := reporting.NewDefaultExcelReporter().WriteSetupXLSX(report, path); err != nil {
			return err
		}
		fmt.Fprintf(out, "📊 Excel report: %s\n", path)
	}
	if jsonOut != "" {
		path := resolve(jsonOut, "json")
		if err := reporting.NewDefaultJSONFormatter().WriteSetupJSON(report, path); err != nil {
			return err
		}
		fmt.Fprintf(out, "📄 JSON report: %s\n", path)
	}
	return nil
}

func newLevelsCmd(opts *globalOptions) *cobra.Command {
	var (
		asset string
		side  string
		entry float64
		ratio string
	)

	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Derive stop-loss and take-profit levels for an entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if asset == "" || entry <= 0 {
				return fmt.Errorf("--asset and a positive --entry are required")
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if ratio == "" {
				ratio = a.settings.RiskRewardRatio
			}

			levels, err := risk.NewCalculator(a.catalog).CalculateTPSL(entry, types.ParseSignal(side), asset, ratio)
			if err != nil {
				return err
			}
			_, symbol := a.catalog.Resolve(asset)

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.SetTitle(fmt.Sprintf("LEVELS %s %s @ %g (%s, catalog %s)", strings.ToUpper(asset), types.ParseSignal(side), entry, ratio, symbol))
			t.AppendHeader(table.Row{"Level", "Price", "Distance"})
			t.AppendRow(table.Row{"Stop Loss", fmt.Sprintf("%.5f", levels.StopLoss), fmt.Sprintf("%.5f", levels.SLDistance)})
			for i, tp := range levels.TakeProfits {
				t.AppendRow(table.Row{fmt.Sprintf("TP%d", i+1), fmt.Sprintf("%.5f", tp), fmt.Sprintf("%.5f", levels.TPDistances[i])})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "", "Instrument ticker")
	cmd.Flags().StringVar(&side, "side", "BUY", "BUY, SELL or NEUTRAL")
	cmd.Flags().Float64Var(&entry, "entry", 0, "Entry price")
	cmd.Flags().StringVar(&ratio, "ratio", "", "Risk:reward ratio, defaults to settings")
	return cmd
}

func newClassifyCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [symbol...]",
		Short: "Show contract metadata and market parameters for tickers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"Symbol", "Category", "Contract", "Pip", "Decimals", "Catalog", "Min SL", "Max SL"})
			for _, symbol := range args {
				asset := a.classifier.Detect(symbol)
				cfg, catalogSymbol := a.catalog.Resolve(symbol)
				t.AppendRow(table.Row{
					strings.ToUpper(symbol), asset.Category, asset.ContractSize, asset.PipValue, asset.Decimals,
					catalogSymbol, cfg.MinStopLoss, cfg.MaxStopLoss,
				})
			}
			t.Render()
			return nil
		},
	}
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the setup API with health and metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}

			handlers := api.NewHandlers(a.planner, a.classifier, a.catalog, a.log).WithDefaultSettings(a.settings)
			router := api.NewRouter(handlers, a.health, monitoring.NewMetricsHandler())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "🚀 Serving on :%d (env %s)\n", port, a.cfg.Environment)
			return api.Serve(ctx, port, router, a.log)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Listen port (overrides SERVER_PORT)")
	return cmd
}

func newJournalCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Record, close and summarize journaled trades",
	}
	cmd.AddCommand(newJournalRecordCmd(opts), newJournalCloseCmd(opts), newJournalStatsCmd(opts))
	return cmd
}

func newJournalRecordCmd(opts *globalOptions) *cobra.Command {
	var (
		asset   string
		side    string
		entry   float64
		stop    float64
		lots    float64
		riskAmt float64
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record an opened trade",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.journal.Record(journal.Entry{
				Asset:      asset,
				Signal:     types.ParseSignal(side),
				EntryPrice: entry,
				StopLoss:   stop,
				LotSize:    lots,
				RiskAmount: riskAmt,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📝 Recorded %s %s %s (%s)\n", e.Signal, e.Asset, e.ID, a.journal.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "", "Instrument ticker")
	cmd.Flags().StringVar(&side, "side", "BUY", "BUY or SELL")
	cmd.Flags().Float64Var(&entry, "entry", 0, "Entry price")
	cmd.Flags().Float64Var(&stop, "stop", 0, "Stop-loss price")
	cmd.Flags().Float64Var(&lots, "lots", 0, "Position size in lots")
	cmd.Flags().Float64Var(&riskAmt, "risk", 0, "Risk amount in account currency")
	return cmd
}

func newJournalCloseCmd(opts *globalOptions) *cobra.Command {
	var (
		exit float64
		pnl  float64
	)

	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Close a journaled trade with its realized PnL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.journal.Close(args[0], exit, pnl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Closed %s %s at %g, PnL $%.2f\n", e.Asset, e.ID, e.ExitPrice, e.PnL)
			return nil
		},
	}

	cmd.Flags().Float64Var(&exit, "exit", 0, "Exit price")
	cmd.Flags().Float64Var(&pnl, "pnl", 0, "Realized PnL, negative for a loss")
	return cmd
}

func newJournalStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "List journaled trades and today's totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.journal.Entries()
			if err != nil {
				return err
			}
			stats := journal.ComputeDailyStats(entries, time.Now())
			reporting.NewDefaultConsoleReporter().RenderJournal(cmd.OutOrStdout(), entries, stats)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}
