package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"optscan/pkg/contracts/domain"
)

// ErrShortFile marks a source file whose header has fewer columns than the
// bhav-copy schema requires. Such files are skipped, not fatal to the batch.
var ErrShortFile = errors.New("source file has too few columns")

// Column names in the bhav-copy schema that the merged table retains. The
// composite symbol is always the first column regardless of its header name;
// PREVIOUS_S doubles as the anchor whose presence enables symbol decomposition.
const (
	colPrevSettle = "PREVIOUS_S"
	colOpen       = "OPEN_PRICE"
	colHigh       = "HIGH_PRICE"
	colLow        = "LOW_PRICE"
	colClose      = "CLOSE_PRIC"
	colUnderlying = "UNDRLNG_ST"
)

// ReadBhavFile parses one bhav-copy CSV file into option records. The date is
// attached to every row; prices are normalized (zero close replaced with the
// floor value) and the configured strike filter applied per row. A file with
// fewer than minColumns header fields returns ErrShortFile.
func ReadBhavFile(path string, date time.Time, cfg PipelineConfig, logger *slog.Logger) ([]domain.OptionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bhav file: %w", err)
	}
	defer f.Close()

	return readBhavCSV(f, date, cfg, logger)
}

func readBhavCSV(r io.Reader, date time.Time, cfg PipelineConfig, logger *slog.Logger) ([]domain.OptionRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrShortFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if len(header) < cfg.MinColumns {
		return nil, fmt.Errorf("%w: got %d, want at least %d", ErrShortFile, len(header), cfg.MinColumns)
	}

	// Map column positions by header name, the same way the daily-report
	// parser locates its trading columns.
	columnMap := make(map[string]int, len(header))
	for i, name := range header {
		columnMap[strings.TrimSpace(name)] = i
	}
	_, hasAnchor := columnMap[colPrevSettle]

	var records []domain.OptionRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Warn("skipping unreadable row",
				slog.Int("line", line),
				slog.String("error", err.Error()))
			continue
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		rec := domain.OptionRecord{
			Symbol: strings.TrimSpace(row[0]),
			Date:   date,
		}

		rec.PrevSettle = fieldFloat(row, columnMap, colPrevSettle)
		rec.Open = fieldFloat(row, columnMap, colOpen)
		rec.High = fieldFloat(row, columnMap, colHigh)
		rec.Low = fieldFloat(row, columnMap, colLow)
		rec.Close = fieldFloat(row, columnMap, colClose)
		rec.Underlying, rec.HasUnderlying = fieldFloatOK(row, columnMap, colUnderlying)

		// Zero settlement closes would poison the downstream gain division.
		if rec.Close == 0 {
			rec.Close = cfg.CloseFloor
		}

		if hasAnchor {
			if d, ok := ParseSymbol(rec.Symbol); ok {
				rec.Kind = d.Kind
				rec.Ticker = d.Ticker
				rec.Expiry = d.Expiry
				rec.Type = d.Type
				rec.Strike = d.Strike
			}
		}

		if !cfg.StrikeFilter.keep(rec) {
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}

func fieldFloat(row []string, columnMap map[string]int, name string) float64 {
	v, _ := fieldFloatOK(row, columnMap, name)
	return v
}

func fieldFloatOK(row []string, columnMap map[string]int, name string) (float64, bool) {
	idx, ok := columnMap[name]
	if !ok || idx >= len(row) {
		return 0, false
	}
	cell := strings.ReplaceAll(strings.TrimSpace(row[idx]), ",", "")
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
