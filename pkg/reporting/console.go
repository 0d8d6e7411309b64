package reporting

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/trade-setup-engine/internal/journal"
)

// DefaultConsoleReporter renders tables with go-pretty
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// RenderSetup prints the setup summary and, for valid setups, its partial-close legs
func (r *DefaultConsoleReporter) RenderSetup(w io.Writer, report SetupReport) {
	s := report.Setup

	status := "✅ VALID"
	if !s.IsValid {
		status = "❌ REJECTED"
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("TRADE SETUP %s %s", s.Asset, s.Signal))
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📋 Status", status},
		{"💬 Message", s.ValidationMessage},
	})
	if report.Code != "" {
		t.AppendRow(table.Row{"🏷️ Code", report.Code})
	}
	for _, advisory := range report.Advisories {
		t.AppendRow(table.Row{"⚠️ Advisory", advisory})
	}
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"🏪 Category", s.AssetCategory},
		{"📥 Entry", fmt.Sprintf("%g (%s)", report.EntryPrice, s.EntryType)},
		{"🛑 Stop Loss", fmt.Sprintf("%g", s.StopLoss)},
		{"📦 Lot Size", s.FormattedLotSize},
		{"📐 Contract Size", fmt.Sprintf("%g", s.ContractSize)},
		{"💸 Risk", fmt.Sprintf("$%.2f", s.RiskAmount)},
		{"💰 Total Profit", fmt.Sprintf("$%.2f", s.TotalPotentialProfit)},
		{"⚖️ R:R", s.CalculatedRR},
		{"🔒 Breakeven", fmt.Sprintf("%t", s.MoveToBreakeven)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, WidthMax: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 50, Align: text.AlignLeft},
	})
	t.Render()

	if !s.IsValid {
		return
	}

	legs := table.NewWriter()
	legs.SetOutputMirror(w)
	legs.SetTitle("PARTIAL CLOSES")
	legs.SetStyle(table.StyleRounded)
	legs.AppendHeader(table.Row{"Leg", "Target", "Close Lots", "Profit"})
	for i, tp := range s.TakeProfits {
		legs.AppendRow(table.Row{fmt.Sprintf("TP%d", i+1), fmt.Sprintf("%g", tp), s.PartialCloseSizes[i], fmt.Sprintf("$%.2f", s.PotentialProfit[i])})
	}
	legs.AppendFooter(table.Row{"", "", "Total", fmt.Sprintf("$%.2f", s.TotalPotentialProfit)})
	legs.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	legs.Render()
}

// RenderJournal prints the journal entries followed by today's stats
func (r *DefaultConsoleReporter) RenderJournal(w io.Writer, entries []journal.Entry, stats journal.DailyStats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("TRADE JOURNAL")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Asset", "Side", "Entry", "Lots", "Status", "Opened", "PnL"})

	for _, e := range entries {
		t.AppendRow(table.Row{
			shortID(e.ID), e.Asset, e.Signal, fmt.Sprintf("%g", e.EntryPrice), fmt.Sprintf("%g", e.LotSize),
			e.Status, e.OpenedAt.Format("2006-01-02 15:04"), fmt.Sprintf("%.2f", e.PnL),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", stats.Date, fmt.Sprintf("%.2f", stats.RealizedPnL)})
	t.Render()

	fmt.Fprintf(w, "📊 Today: %d trades | Realized PnL: $%.2f | Daily loss: $%.2f\n", stats.TradeCount, stats.RealizedPnL, stats.DailyLoss)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
