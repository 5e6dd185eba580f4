package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"optscan/internal/dataprocessing"
	"optscan/internal/exporter"
	"optscan/internal/files"
	"optscan/internal/gains"
	"optscan/pkg/contracts/domain"
)

// Service-level sentinel errors.
var (
	// ErrMergeRunning signals that a merge run is already in progress.
	ErrMergeRunning = errors.New("merge already running")
	// ErrNoMergedTable signals that no merged table exists and none could be
	// produced from the source directory.
	ErrNoMergedTable = errors.New("merged table not found")
)

// MergeObserver receives merge lifecycle events. The websocket hub satisfies
// this; tests use lighter fakes.
type MergeObserver interface {
	BroadcastProgress(message string, current, total int)
	BroadcastStatus(status, message string)
	BroadcastMergeComplete(summary interface{})
	BroadcastError(message string)
}

// MergeRecorder receives merge outcome measurements.
type MergeRecorder interface {
	ObserveMerge(summary *dataprocessing.Summary, err error)
}

// ScanService owns the merged option table: it rebuilds the table when stale,
// serves gain queries against it and exposes the raw records for export.
type ScanService struct {
	cfg        dataprocessing.PipelineConfig
	staleAfter time.Duration
	logger     *slog.Logger

	observer MergeObserver
	recorder MergeRecorder

	// now is injectable for staleness tests.
	now func() time.Time

	mergeMu sync.Mutex
	merging bool
}

// NewScanService creates a scan service over the given pipeline
// configuration. staleAfter bounds the merged table's age before queries
// trigger a rebuild.
func NewScanService(cfg dataprocessing.PipelineConfig, staleAfter time.Duration, logger *slog.Logger) *ScanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanService{
		cfg:        cfg,
		staleAfter: staleAfter,
		logger:     logger.With(slog.String("component", "scan_service")),
		now:        time.Now,
	}
}

// WithObserver attaches a merge lifecycle observer.
func (s *ScanService) WithObserver(observer MergeObserver) *ScanService {
	s.observer = observer
	return s
}

// WithRecorder attaches a merge outcome recorder.
func (s *ScanService) WithRecorder(recorder MergeRecorder) *ScanService {
	s.recorder = recorder
	return s
}

// MergedPath returns the merged table's location.
func (s *ScanService) MergedPath() string {
	return s.cfg.OutputPath
}

// MergedInfo returns file information for the merged table, with ok=false
// when no table has been produced yet.
func (s *ScanService) MergedInfo() (files.FileInfo, bool) {
	return files.Stat(s.cfg.OutputPath)
}

// Stale reports whether the merged table is missing or older than the
// configured bound.
func (s *ScanService) Stale() bool {
	info, ok := s.MergedInfo()
	if !ok {
		return true
	}
	return info.OlderThan(s.staleAfter, s.now())
}

// TryBeginMerge reserves the merge slot without starting a run. A false
// return means a run is already in flight. The slot is released by
// RunReservedMerge.
func (s *ScanService) TryBeginMerge() bool {
	s.mergeMu.Lock()
	defer s.mergeMu.Unlock()
	if s.merging {
		return false
	}
	s.merging = true
	return true
}

// RunMerge executes one merge run. Only one run may be in flight; concurrent
// calls fail fast with ErrMergeRunning.
func (s *ScanService) RunMerge(ctx context.Context) (*dataprocessing.Summary, error) {
	if !s.TryBeginMerge() {
		return nil, ErrMergeRunning
	}
	return s.RunReservedMerge(ctx)
}

// RunReservedMerge executes a merge run on a slot reserved with
// TryBeginMerge, releasing the slot when the run finishes.
func (s *ScanService) RunReservedMerge(ctx context.Context) (*dataprocessing.Summary, error) {
	defer func() {
		s.mergeMu.Lock()
		s.merging = false
		s.mergeMu.Unlock()
	}()

	pipeline := dataprocessing.NewPipeline(s.cfg, s.logger)
	if s.observer != nil {
		s.observer.BroadcastStatus("running", "Merge run started")
		pipeline.OnProgress(s.observer.BroadcastProgress)
	}

	summary, err := pipeline.Run(ctx)
	if s.recorder != nil {
		s.recorder.ObserveMerge(summary, err)
	}
	if err != nil {
		if s.observer != nil {
			s.observer.BroadcastError(fmt.Sprintf("Merge failed: %v", err))
		}
		return nil, err
	}

	if s.observer != nil {
		s.observer.BroadcastMergeComplete(summary)
	}
	return summary, nil
}

// Merging reports whether a merge run is currently in flight.
func (s *ScanService) Merging() bool {
	s.mergeMu.Lock()
	defer s.mergeMu.Unlock()
	return s.merging
}

// EnsureFresh rebuilds the merged table when it is missing or stale. A merge
// already in flight counts as freshening; the existing table keeps serving.
func (s *ScanService) EnsureFresh(ctx context.Context) error {
	if !s.Stale() {
		return nil
	}

	s.logger.Info("merged table missing or stale, rebuilding",
		slog.String("path", s.cfg.OutputPath),
		slog.Duration("stale_after", s.staleAfter))

	if _, err := s.RunMerge(ctx); err != nil {
		if errors.Is(err, ErrMergeRunning) {
			return nil
		}
		return err
	}
	return nil
}

// LoadRecords returns the merged table's records, rebuilding the table first
// when stale. ErrNoMergedTable is returned when the source directory yielded
// nothing to merge.
func (s *ScanService) LoadRecords(ctx context.Context) ([]domain.OptionRecord, error) {
	if err := s.EnsureFresh(ctx); err != nil {
		return nil, fmt.Errorf("refresh merged table: %w", err)
	}

	if _, ok := s.MergedInfo(); !ok {
		return nil, ErrNoMergedTable
	}

	records, err := dataprocessing.ReadMerged(s.cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("load merged table: %w", err)
	}
	return records, nil
}

// GainsQuery narrows the gain report. Zero values leave a dimension
// unfiltered; Days selects the reference-low window.
type GainsQuery struct {
	Ticker  string  `validate:"omitempty,ticker"`
	Expiry  string  `validate:"omitempty,bhavdate"`
	Type    string  `validate:"omitempty,oneof=CE PE"`
	Kind    string  `validate:"omitempty,oneof=OPTSTK OPTIDX"`
	Strike  float64 `validate:"gte=0"`
	Days    int     `validate:"gte=0,lte=365"`
	MinGain float64
}

// Matches reports whether a gain record passes every filter in the query.
func (q GainsQuery) Matches(g domain.GainRecord) bool {
	if q.Ticker != "" && !strings.EqualFold(g.Ticker, q.Ticker) {
		return false
	}
	if q.Expiry != "" && !strings.EqualFold(g.Expiry, q.Expiry) {
		return false
	}
	if q.Type != "" && string(g.Type) != q.Type {
		return false
	}
	if q.Kind != "" && string(g.Kind) != q.Kind {
		return false
	}
	if q.Strike > 0 && g.Strike != q.Strike {
		return false
	}
	if q.MinGain != 0 && g.GainPercent < q.MinGain {
		return false
	}
	return true
}

// Gains computes the day-wise gain report with underlying quotes attached,
// filtered by the query.
func (s *ScanService) Gains(ctx context.Context, query GainsQuery) ([]domain.GainRecord, error) {
	records, err := s.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}

	gainRecords := gains.Calculate(records, query.Days)
	gains.AttachUnderlying(gainRecords, gains.ResolveUnderlying(records))

	filtered := gainRecords[:0]
	for _, g := range gainRecords {
		if query.Matches(g) {
			filtered = append(filtered, g)
		}
	}
	return filtered, nil
}

// Instrument summarizes one ticker's presence in the merged table.
type Instrument struct {
	Ticker    string   `json:"ticker"`
	Kind      string   `json:"kind"`
	Expiries  []string `json:"expiries"`
	Contracts int      `json:"contracts"`
}

// Instruments lists the tickers present in the merged table with their
// expiries, sorted by ticker.
func (s *ScanService) Instruments(ctx context.Context) ([]Instrument, error) {
	records, err := s.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}

	type tickerAgg struct {
		kind     domain.OptionKind
		expiries map[string]struct{}
		keys     map[domain.ContractKey]struct{}
	}

	byTicker := make(map[string]*tickerAgg)
	for _, rec := range records {
		if !rec.Key().IsComplete() {
			continue
		}
		agg, ok := byTicker[rec.Ticker]
		if !ok {
			agg = &tickerAgg{
				kind:     rec.Kind,
				expiries: make(map[string]struct{}),
				keys:     make(map[domain.ContractKey]struct{}),
			}
			byTicker[rec.Ticker] = agg
		}
		agg.expiries[rec.Expiry] = struct{}{}
		agg.keys[rec.Key()] = struct{}{}
	}

	instruments := make([]Instrument, 0, len(byTicker))
	for ticker, agg := range byTicker {
		expiries := make([]string, 0, len(agg.expiries))
		for expiry := range agg.expiries {
			expiries = append(expiries, expiry)
		}
		sort.Slice(expiries, func(i, j int) bool {
			return expiryLess(expiries[i], expiries[j])
		})

		instruments = append(instruments, Instrument{
			Ticker:    ticker,
			Kind:      string(agg.kind),
			Expiries:  expiries,
			Contracts: len(agg.keys),
		})
	}

	sort.Slice(instruments, func(i, j int) bool {
		return instruments[i].Ticker < instruments[j].Ticker
	})
	return instruments, nil
}

// Underlying resolves underlying reference prices, optionally narrowed to one
// ticker.
func (s *ScanService) Underlying(ctx context.Context, ticker string) ([]domain.UnderlyingQuote, error) {
	records, err := s.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}

	quotes := gains.ResolveUnderlying(records)
	if ticker == "" {
		return quotes, nil
	}

	filtered := quotes[:0]
	for _, q := range quotes {
		if strings.EqualFold(q.Ticker, ticker) {
			filtered = append(filtered, q)
		}
	}
	return filtered, nil
}

// Gain report export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportGains writes the filtered gain report to path in the given format.
func (s *ScanService) ExportGains(ctx context.Context, query GainsQuery, format, path string) error {
	gainRecords, err := s.Gains(ctx, query)
	if err != nil {
		return err
	}

	switch format {
	case FormatXLSX:
		err = exporter.WriteGainsXLSX(path, gainRecords)
	case FormatCSV:
		err = exporter.NewCSVWriter().WriteGainsCSV(path, gainRecords)
	default:
		return fmt.Errorf("unsupported gain report format %q", format)
	}
	if err != nil {
		return fmt.Errorf("export gain report: %w", err)
	}

	s.logger.Info("gain report written",
		slog.String("path", path),
		slog.String("format", format),
		slog.Int("rows", len(gainRecords)))
	return nil
}

// expiryLess orders DD-MMM-YYYY expiry labels chronologically, falling back
// to a lexical comparison for labels that do not parse.
func expiryLess(a, b string) bool {
	ta, errA := domain.ParseBhavDate(a)
	tb, errB := domain.ParseBhavDate(b)
	if errA == nil && errB == nil {
		return ta.Before(tb)
	}
	return a < b
}
