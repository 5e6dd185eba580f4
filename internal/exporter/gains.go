package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"optscan/pkg/contracts/domain"
)

const gainsSheet = "Gains"

// GainsHeader is the column order of the gain report.
var GainsHeader = []string{
	ColTicker, ColExpiry, ColType, ColStrike, ColKind,
	"REF_LOW", "LAST_CLOSE", "GAIN_PCT", "DAYS_OBSERVED", "UNDERLYING",
}

// WriteGainsCSV writes the day-wise gain report as CSV.
func (w *CSVWriter) WriteGainsCSV(filePath string, gains []domain.GainRecord) error {
	rows := make([][]string, 0, len(gains))
	for _, g := range gains {
		underlying := ""
		if g.HasDisplayUnderlying {
			underlying = formatPrice(g.DisplayUnderlying)
		}
		rows = append(rows, []string{
			g.Ticker,
			g.Expiry,
			string(g.Type),
			domain.FormatStrike(g.Strike),
			string(g.Kind),
			formatPrice(g.ReferenceLow),
			formatPrice(g.LatestClose),
			strconv.FormatFloat(g.GainPercent, 'f', 2, 64),
			strconv.Itoa(g.Observations),
			underlying,
		})
	}
	return w.WriteSimpleCSV(filePath, GainsHeader, rows)
}

// WriteGainsXLSX writes the day-wise gain report as an Excel workbook, with
// numeric columns kept numeric so the sheet sorts and filters correctly.
func WriteGainsXLSX(filePath string, gains []domain.GainRecord) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(gainsSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	for col, name := range GainsHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(gainsSheet, cell, name); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, g := range gains {
		values := []interface{}{
			g.Ticker,
			g.Expiry,
			string(g.Type),
			g.Strike,
			string(g.Kind),
			g.ReferenceLow,
			g.LatestClose,
			g.GainPercent,
			g.Observations,
		}
		if g.HasDisplayUnderlying {
			values = append(values, g.DisplayUnderlying)
		} else {
			values = append(values, "")
		}

		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(gainsSheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
