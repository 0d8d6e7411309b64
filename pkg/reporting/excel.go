package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	setupSheet = "Setup"
	legsSheet  = "Legs"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteSetupXLSX writes a Setup sheet of label/value pairs and a Legs sheet
func (r *DefaultExcelReporter) WriteSetupXLSX(report SetupReport, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), setupSheet)
	if _, err := fx.NewSheet(legsSheet); err != nil {
		return err
	}

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := writeSetupSheet(fx, setupSheet, report, styles); err != nil {
		return err
	}
	if err := writeLegsSheet(fx, legsSheet, report, styles); err != nil {
		return err
	}

	fx.SetColWidth(setupSheet, "A", "A", 22)
	fx.SetColWidth(setupSheet, "B", "B", 36)
	fx.SetColWidth(legsSheet, "A", "E", 14)

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	// Header style - dark slate background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.LabelStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return styles, err
	}

	// Currency format with $ symbol
	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.PriceStyle, err = fx.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.InvalidStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "C00000"},
	})
	return styles, err
}

func writeSetupSheet(fx excelWriter, sheet string, report SetupReport, styles ExcelStyles) error {
	s := report.Setup

	rows := []struct {
		label string
		value interface{}
		style int
	}{
		{"Asset", s.Asset, 0},
		{"Signal", string(s.Signal), 0},
		{"Entry Type", string(s.EntryType), 0},
		{"Entry Price", report.EntryPrice, styles.PriceStyle},
		{"Stop Loss", s.StopLoss, styles.PriceStyle},
		{"Confidence", s.Confidence, 0},
		{"Category", s.AssetCategory, 0},
		{"Contract Size", s.ContractSize, 0},
		{"Lot Size", s.FormattedLotSize, 0},
		{"Risk Amount", s.RiskAmount, styles.CurrencyStyle},
		{"Total Potential Profit", s.TotalPotentialProfit, styles.CurrencyStyle},
		{"R:R", s.CalculatedRR, 0},
		{"Move To Breakeven", s.MoveToBreakeven, 0},
		{"Valid", s.IsValid, 0},
		{"Message", s.ValidationMessage, 0},
		{"Code", report.Code, 0},
		{"Generated At", report.GeneratedAt.Format("2006-01-02 15:04:05"), 0},
	}
	if !s.IsValid {
		rows[13].style = styles.InvalidStyle
	}

	if err := writeRow(fx, sheet, 1, []interface{}{"Field", "Value"}, styles.HeaderStyle); err != nil {
		return err
	}
	for i, row := range rows {
		r := i + 2
		if err := writeRow(fx, sheet, r, []interface{}{row.label, row.value}, 0); err != nil {
			return err
		}
		if err := styleCell(fx, sheet, 1, r, styles.LabelStyle); err != nil {
			return err
		}
		if row.style != 0 {
			if err := styleCell(fx, sheet, 2, r, row.style); err != nil {
				return err
			}
		}
	}

	next := len(rows) + 2
	for _, advisory := range report.Advisories {
		if err := writeRow(fx, sheet, next, []interface{}{"Advisory", advisory}, 0); err != nil {
			return err
		}
		next++
	}
	return nil
}

func writeLegsSheet(fx excelWriter, sheet string, report SetupReport, styles ExcelStyles) error {
	s := report.Setup

	if err := writeRow(fx, sheet, 1, []interface{}{"Leg", "Target", "Close Lots", "Close Amount", "Profit"}, styles.HeaderStyle); err != nil {
		return err
	}
	for i, tp := range s.TakeProfits {
		row := []interface{}{fmt.Sprintf("TP%d", i+1), tp, s.PartialCloseSizes[i], s.PartialCloseAmounts[i], s.PotentialProfit[i]}
		if err := writeRow(fx, sheet, i+2, row, 0); err != nil {
			return err
		}
		if err := styleCell(fx, sheet, 5, i+2, styles.CurrencyStyle); err != nil {
			return err
		}
	}

	total := []interface{}{"Total", "", "", s.LotSize, s.TotalPotentialProfit}
	if err := writeRow(fx, sheet, 5, total, styles.LabelStyle); err != nil {
		return err
	}
	return nil
}

func writeRow(fx excelWriter, sheet string, row int, values []interface{}, style int) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		if style != 0 {
			if err := fx.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func styleCell(fx excelWriter, sheet string, col, row, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return fx.SetCellStyle(sheet, cell, cell, style)
}
