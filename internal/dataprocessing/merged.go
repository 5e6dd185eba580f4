package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"optscan/internal/exporter"
	"optscan/pkg/contracts/domain"
)

// ReadMerged loads a merged table written by the pipeline back into option
// records. Rows with an unparsable date keep the zero time; rows whose symbol
// never decomposed come back with a zero-value key, exactly as persisted.
func ReadMerged(path string) ([]domain.OptionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open merged table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read merged header: %w", err)
	}

	columnMap := make(map[string]int, len(header))
	for i, name := range header {
		columnMap[strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))] = i
	}

	var records []domain.OptionRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read merged row: %w", err)
		}

		rec := domain.OptionRecord{
			Symbol: fieldString(row, columnMap, exporter.ColSymbol),
			Kind:   domain.OptionKind(fieldString(row, columnMap, exporter.ColKind)),
			Ticker: fieldString(row, columnMap, exporter.ColTicker),
			Expiry: fieldString(row, columnMap, exporter.ColExpiry),
			Type:   domain.OptionType(fieldString(row, columnMap, exporter.ColType)),
		}
		rec.Strike = fieldFloat(row, columnMap, exporter.ColStrike)
		rec.PrevSettle = fieldFloat(row, columnMap, exporter.ColPrevSettle)
		rec.Open = fieldFloat(row, columnMap, exporter.ColOpen)
		rec.High = fieldFloat(row, columnMap, exporter.ColHigh)
		rec.Low = fieldFloat(row, columnMap, exporter.ColLow)
		rec.Close = fieldFloat(row, columnMap, exporter.ColClose)
		rec.Underlying, rec.HasUnderlying = fieldFloatOK(row, columnMap, exporter.ColUnderlying)

		if label := fieldString(row, columnMap, exporter.ColDate); label != "" {
			if t, err := domain.ParseBhavDate(label); err == nil {
				rec.Date = t
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

func fieldString(row []string, columnMap map[string]int, name string) string {
	idx, ok := columnMap[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
