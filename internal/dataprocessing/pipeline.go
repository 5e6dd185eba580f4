package dataprocessing

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"optscan/internal/exporter"
	"optscan/internal/files"
	"optscan/pkg/contracts/domain"
)

// StrikeFilterMode selects the per-row moneyness predicate applied while
// merging. The modes mirror the scanner variants: unfiltered, out-of-the-money
// only, and out-of-the-money within 10% of the underlying.
type StrikeFilterMode string

const (
	FilterNone            StrikeFilterMode = "none"
	FilterAboveUnderlying StrikeFilterMode = "above"
	FilterWithin10Pct     StrikeFilterMode = "within10pct"
)

// Valid reports whether the mode is one of the recognized filter modes.
func (m StrikeFilterMode) Valid() bool {
	switch m {
	case FilterNone, FilterAboveUnderlying, FilterWithin10Pct:
		return true
	}
	return false
}

// keep applies the moneyness predicate to one merged row. The filtering modes
// require both a parsed strike and an underlying value; rows missing either
// are dropped, matching the dropna semantics of the original filters.
func (m StrikeFilterMode) keep(rec domain.OptionRecord) bool {
	switch m {
	case FilterAboveUnderlying, FilterWithin10Pct:
		if rec.Strike <= 0 || !rec.HasUnderlying {
			return false
		}
		if rec.Strike <= rec.Underlying {
			return false
		}
		if m == FilterWithin10Pct && rec.Strike < rec.Underlying*0.9 {
			return false
		}
		return true
	default:
		return true
	}
}

// PipelineConfig parameterizes one merge run. All the scanner variants
// collapse into this single structure; directory paths are injected here
// rather than baked into the pipeline.
type PipelineConfig struct {
	// SourceDir holds the dated fo* archives or folders.
	SourceDir string
	// OutputPath is the merged CSV destination, fully overwritten per run.
	OutputPath string

	// ArchivePrefix names source entries (archives and folders) to consider.
	ArchivePrefix string
	// FilePrefix and FileExt select candidate tabular files inside an entry.
	FilePrefix string
	FileExt    string

	// MinColumns is the smallest header width accepted; shorter files are
	// malformed bhav copies and get skipped.
	MinColumns int
	// CloseFloor replaces zero close prices to keep gain divisions finite.
	CloseFloor float64

	StrikeFilter StrikeFilterMode
}

// DefaultPipelineConfig returns the standard bhav-copy conventions for the
// given source directory and output path.
func DefaultPipelineConfig(sourceDir, outputPath string) PipelineConfig {
	return PipelineConfig{
		SourceDir:     sourceDir,
		OutputPath:    outputPath,
		ArchivePrefix: "fo",
		FilePrefix:    "op",
		FileExt:       ".csv",
		MinColumns:    14,
		CloseFloor:    0.05,
		StrikeFilter:  FilterNone,
	}
}

// ProgressFunc receives pipeline progress events for live display.
type ProgressFunc func(message string, current, total int)

// Summary describes one completed merge run.
type Summary struct {
	EntriesScanned int           `json:"entries_scanned"`
	FilesProcessed int           `json:"files_processed"`
	FilesSkipped   int           `json:"files_skipped"`
	Rows           int           `json:"rows"`
	Written        bool          `json:"written"`
	OutputPath     string        `json:"output_path,omitempty"`
	Duration       time.Duration `json:"-"`
	DurationMillis int64         `json:"duration_ms"`
}

// Pipeline is the ingestion/merge stage: it scans the source directory,
// parses every candidate bhav file and rebuilds the merged table from
// scratch. Stateless between runs.
type Pipeline struct {
	cfg      PipelineConfig
	logger   *slog.Logger
	writer   *exporter.CSVWriter
	progress ProgressFunc
}

// NewPipeline creates a merge pipeline with the given configuration.
func NewPipeline(cfg PipelineConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "merge_pipeline")),
		writer: exporter.NewCSVWriter(),
	}
}

// OnProgress registers a progress callback. Pass nil to disable.
func (p *Pipeline) OnProgress(fn ProgressFunc) {
	p.progress = fn
}

func (p *Pipeline) emit(message string, current, total int) {
	if p.progress != nil {
		p.progress(message, current, total)
	}
}

// Run executes one full merge. It never fails the batch for a malformed
// source file; those are skipped with a log line. An empty source directory
// produces a summary with Written=false and a nil error.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	discovery := files.NewDiscovery(p.cfg.SourceDir)
	entries, err := discovery.FindSourceEntries(p.cfg.ArchivePrefix)
	if err != nil {
		return nil, fmt.Errorf("scan source directory: %w", err)
	}
	summary.EntriesScanned = len(entries)

	p.logger.Info("starting merge run",
		slog.String("source_dir", p.cfg.SourceDir),
		slog.Int("entries", len(entries)),
		slog.String("strike_filter", string(p.cfg.StrikeFilter)))
	p.emit(fmt.Sprintf("Found %d source entries", len(entries)), 0, len(entries))

	var merged []domain.OptionRecord
	for i, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("merge cancelled: %w", ctx.Err())
		default:
		}

		p.emit(fmt.Sprintf("Processing %s", entry.Name), i+1, len(entries))

		var records []domain.OptionRecord
		if entry.IsDir {
			records = p.processDirectory(entry.Path, entry.Name, summary)
		} else {
			records = p.processArchive(entry.Path, entry.Name, summary)
		}
		merged = append(merged, records...)
	}

	summary.Rows = len(merged)
	summary.Duration = time.Since(start)
	summary.DurationMillis = summary.Duration.Milliseconds()

	if len(merged) == 0 {
		p.logger.Info("no valid source files found, merged table not written",
			slog.String("source_dir", p.cfg.SourceDir))
		p.emit("No valid source files found", summary.EntriesScanned, summary.EntriesScanned)
		return summary, nil
	}

	if err := p.writer.WriteMerged(p.cfg.OutputPath, merged); err != nil {
		return nil, fmt.Errorf("write merged table: %w", err)
	}
	summary.Written = true
	summary.OutputPath = p.cfg.OutputPath

	p.logger.Info("merge run complete",
		slog.Int("files_processed", summary.FilesProcessed),
		slog.Int("files_skipped", summary.FilesSkipped),
		slog.Int("rows", summary.Rows),
		slog.String("output", p.cfg.OutputPath),
		slog.Duration("duration", summary.Duration))
	p.emit(fmt.Sprintf("Merged %d rows from %d files", summary.Rows, summary.FilesProcessed),
		summary.EntriesScanned, summary.EntriesScanned)

	return summary, nil
}

// processArchive extracts a zip archive to a temporary directory, merges the
// candidate files inside and removes the extraction again.
func (p *Pipeline) processArchive(path, name string, summary *Summary) []domain.OptionRecord {
	date := ExtractDate(name)

	extractDir, err := os.MkdirTemp("", "optscan-extract-")
	if err != nil {
		p.logger.Warn("cannot create extraction directory, skipping archive",
			slog.String("archive", name),
			slog.String("error", err.Error()))
		summary.FilesSkipped++
		return nil
	}
	defer os.RemoveAll(extractDir)

	if err := extractArchive(path, extractDir); err != nil {
		p.logger.Warn("cannot extract archive, skipping",
			slog.String("archive", name),
			slog.String("error", err.Error()))
		summary.FilesSkipped++
		return nil
	}

	return p.mergeDataFiles(extractDir, name, date, summary)
}

// processDirectory merges candidate files from an already-unpacked folder.
func (p *Pipeline) processDirectory(path, name string, summary *Summary) []domain.OptionRecord {
	return p.mergeDataFiles(path, name, ExtractDate(name), summary)
}

func (p *Pipeline) mergeDataFiles(dir, entryName string, date time.Time, summary *Summary) []domain.OptionRecord {
	discovery := files.NewDiscovery(dir)
	dataFiles, err := discovery.FindDataFiles(".", p.cfg.FilePrefix, p.cfg.FileExt)
	if err != nil {
		p.logger.Warn("cannot list entry contents, skipping",
			slog.String("entry", entryName),
			slog.String("error", err.Error()))
		return nil
	}

	var merged []domain.OptionRecord
	for _, f := range dataFiles {
		records, err := ReadBhavFile(f.Path, date, p.cfg, p.logger)
		if err != nil {
			summary.FilesSkipped++
			p.logger.Info("skipping source file",
				slog.String("entry", entryName),
				slog.String("file", f.Name),
				slog.String("reason", err.Error()))
			continue
		}
		summary.FilesProcessed++
		p.logger.Debug("merged source file",
			slog.String("file", f.Name),
			slog.String("date", ExtractDateLabel(entryName)),
			slog.Int("rows", len(records)))
		merged = append(merged, records...)
	}
	return merged
}

// extractArchive unpacks a zip archive into destDir. Member paths are
// confined to destDir; entries escaping it are rejected.
func extractArchive(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	for _, member := range r.File {
		target := filepath.Join(destDir, filepath.Clean(member.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive member %q escapes extraction directory", member.Name)
		}

		if member.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create member directory: %w", err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("create member directory: %w", err)
		}

		src, err := member.Open()
		if err != nil {
			return fmt.Errorf("open archive member %q: %w", member.Name, err)
		}

		dst, err := os.Create(target)
		if err != nil {
			src.Close()
			return fmt.Errorf("create extracted file: %w", err)
		}

		_, err = io.Copy(dst, src)
		src.Close()
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("extract %q: %w", member.Name, err)
		}
	}

	return nil
}
