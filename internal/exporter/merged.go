package exporter

import (
	"strconv"

	"optscan/pkg/contracts/domain"
)

// Column names of the merged table. The price columns keep the bhav-copy
// header spellings so a merged table reads back with the same column map the
// source files use; the decomposed contract fields get their own names.
const (
	ColSymbol     = "CONTRACT_D"
	ColKind       = "OPTION_KIND"
	ColTicker     = "TICKER"
	ColExpiry     = "EXPIRY"
	ColType       = "TYPE"
	ColStrike     = "STRIKE_PRICE"
	ColPrevSettle = "PREVIOUS_S"
	ColOpen       = "OPEN_PRICE"
	ColHigh       = "HIGH_PRICE"
	ColLow        = "LOW_PRICE"
	ColClose      = "CLOSE_PRIC"
	ColUnderlying = "UNDRLNG_ST"
	ColDate       = "DATE"
)

// MergedHeader is the column order of the merged table.
var MergedHeader = []string{
	ColSymbol, ColKind, ColTicker, ColExpiry, ColType, ColStrike,
	ColPrevSettle, ColOpen, ColHigh, ColLow, ColClose, ColUnderlying, ColDate,
}

// WriteMerged writes the merged option table. Rows whose symbol never
// decomposed keep empty contract fields; rows without an underlying quote
// keep an empty underlying cell.
func (w *CSVWriter) WriteMerged(filePath string, records []domain.OptionRecord) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, 0, len(MergedHeader))
		row = append(row, rec.Symbol)

		if rec.Ticker != "" {
			row = append(row, string(rec.Kind), rec.Ticker, rec.Expiry,
				string(rec.Type), domain.FormatStrike(rec.Strike))
		} else {
			row = append(row, "", "", "", "", "")
		}

		row = append(row,
			formatPrice(rec.PrevSettle),
			formatPrice(rec.Open),
			formatPrice(rec.High),
			formatPrice(rec.Low),
			formatPrice(rec.Close))

		if rec.HasUnderlying {
			row = append(row, formatPrice(rec.Underlying))
		} else {
			row = append(row, "")
		}

		row = append(row, rec.DateLabel())
		rows = append(rows, row)
	}

	return w.WriteSimpleCSV(filePath, MergedHeader, rows)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
