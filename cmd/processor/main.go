// Command processor runs one merge over the bhav-copy source directory and
// writes the merged table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"optscan/internal/config"
	"optscan/internal/dataprocessing"
	"optscan/internal/validation"
)

func main() {
	sourceDir := flag.String("source", "", "source directory with fo* archives (defaults to data/source relative to executable)")
	outputPath := flag.String("out", "", "merged CSV destination (defaults to data/reports/merged.csv)")
	strikeFilter := flag.String("filter", "none", "strike filter: none, above or within10pct")
	timeout := flag.Duration("timeout", 30*time.Minute, "abort the run after this duration")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	paths, err := config.GetPaths()
	if err != nil {
		logger.Error("Failed to initialize paths", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *sourceDir == "" {
		*sourceDir = paths.SourceDir
	}
	if *outputPath == "" {
		*outputPath = paths.MergedCSV
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg := dataprocessing.DefaultPipelineConfig(*sourceDir, *outputPath)
	cfg.StrikeFilter = dataprocessing.StrikeFilterMode(*strikeFilter)
	if !cfg.StrikeFilter.Valid() {
		logger.Error("Invalid strike filter", slog.String("filter", *strikeFilter))
		os.Exit(1)
	}

	validator := validation.NewSourceValidator(logger)
	if err := validator.ValidateSourceDir(cfg.SourceDir, cfg.ArchivePrefix); err != nil {
		logger.Error("Source directory validation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := validator.ValidateOutputPath(cfg.OutputPath); err != nil {
		logger.Error("Output path validation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	pipeline := dataprocessing.NewPipeline(cfg, logger)
	pipeline.OnProgress(func(message string, current, total int) {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", current, total, message)
	})

	summary, err := pipeline.Run(ctx)
	if err != nil {
		logger.Error("Merge run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if !summary.Written {
		fmt.Println("No valid source files found, merged table not written")
		return
	}

	fmt.Printf("Merged %d rows from %d files (%d skipped) in %s\n",
		summary.Rows, summary.FilesProcessed, summary.FilesSkipped, summary.Duration.Round(time.Millisecond))
	fmt.Printf("Output: %s\n", summary.OutputPath)
}
