// Command gainreport computes the day-wise gain table from an existing merged
// CSV and writes it as CSV or XLSX.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"optscan/internal/config"
	"optscan/internal/dataprocessing"
	"optscan/internal/exporter"
	"optscan/internal/gains"
	"optscan/internal/services"
)

func main() {
	mergedPath := flag.String("merged", "", "merged CSV to read (defaults to data/reports/merged.csv)")
	outPath := flag.String("out", "", "report destination (defaults to data/reports/gains.csv or .xlsx)")
	format := flag.String("format", "csv", "output format: csv or xlsx")
	days := flag.Int("days", 0, "reference-low window in trading days (0 means the whole history)")
	ticker := flag.String("ticker", "", "restrict to one ticker")
	expiry := flag.String("expiry", "", "restrict to one expiry (DD-MMM-YYYY)")
	optionType := flag.String("type", "", "restrict to CE or PE")
	kind := flag.String("kind", "", "restrict to OPTSTK or OPTIDX")
	strike := flag.Float64("strike", 0, "restrict to one strike price")
	minGain := flag.Float64("min-gain", 0, "drop rows below this gain percent")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *format != services.FormatCSV && *format != services.FormatXLSX {
		logger.Error("Invalid format", slog.String("format", *format))
		os.Exit(1)
	}
	if *days < 0 {
		logger.Error("Days must not be negative", slog.Int("days", *days))
		os.Exit(1)
	}

	paths, err := config.GetPaths()
	if err != nil {
		logger.Error("Failed to initialize paths", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *mergedPath == "" {
		*mergedPath = paths.MergedCSV
	}
	if *outPath == "" {
		*outPath = paths.GainsCSV
		if *format == services.FormatXLSX {
			*outPath = paths.GainsXLSX
		}
	}

	records, err := dataprocessing.ReadMerged(*mergedPath)
	if err != nil {
		logger.Error("Failed to read merged table",
			slog.String("path", *mergedPath),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	query := services.GainsQuery{
		Ticker:  strings.ToUpper(*ticker),
		Expiry:  strings.ToUpper(*expiry),
		Type:    strings.ToUpper(*optionType),
		Kind:    strings.ToUpper(*kind),
		Strike:  *strike,
		Days:    *days,
		MinGain: *minGain,
	}

	gainRecords := gains.Calculate(records, *days)
	gains.AttachUnderlying(gainRecords, gains.ResolveUnderlying(records))

	filtered := gainRecords[:0]
	for _, g := range gainRecords {
		if query.Matches(g) {
			filtered = append(filtered, g)
		}
	}

	if *format == services.FormatXLSX {
		err = exporter.WriteGainsXLSX(*outPath, filtered)
	} else {
		err = exporter.NewCSVWriter().WriteGainsCSV(*outPath, filtered)
	}
	if err != nil {
		logger.Error("Failed to write gain report", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Wrote %d gain rows to %s\n", len(filtered), *outPath)
}
