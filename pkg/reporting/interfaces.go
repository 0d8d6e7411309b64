package reporting

import (
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/trade-setup-engine/internal/journal"
	"github.com/ducminhle1904/trade-setup-engine/pkg/types"
)

// Package reporting renders trade setups and journal contents

// SetupReport is a setup together with the context it was planned in
type SetupReport struct {
	Setup       types.TradeSetup `json:"setup"`
	EntryPrice  float64          `json:"entryPrice"`
	Code        string           `json:"code,omitempty"`
	Advisories  []string         `json:"advisories,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	RenderSetup(w io.Writer, report SetupReport)
	RenderJournal(w io.Writer, entries []journal.Entry, stats journal.DailyStats)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteSetupXLSX(report SetupReport, path string) error
	WriteSetupJSON(report SetupReport, path string) error
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	LabelStyle    int
	CurrencyStyle int
	PriceStyle    int
	InvalidStyle  int
}

// excelWriter is the subset of excelize used to fill a sheet
type excelWriter interface {
	SetCellValue(sheet, cell string, value interface{}) error
	SetCellStyle(sheet, topLeftCell, bottomRightCell string, styleID int) error
}

var _ excelWriter = (*excelize.File)(nil)
