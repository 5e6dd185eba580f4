package http

import (
	"context"

	"optscan/internal/dataprocessing"
	"optscan/internal/files"
	"optscan/internal/services"
	"optscan/pkg/contracts/domain"
)

// GainService is the read side of the scan service consumed by the data and
// download handlers.
type GainService interface {
	Gains(ctx context.Context, query services.GainsQuery) ([]domain.GainRecord, error)
	Instruments(ctx context.Context) ([]services.Instrument, error)
	Underlying(ctx context.Context, ticker string) ([]domain.UnderlyingQuote, error)
	ExportGains(ctx context.Context, query services.GainsQuery, format, path string) error
	MergedPath() string
	MergedInfo() (files.FileInfo, bool)
}

// MergeService is the operational side of the scan service consumed by the
// operations and health handlers.
type MergeService interface {
	TryBeginMerge() bool
	RunReservedMerge(ctx context.Context) (*dataprocessing.Summary, error)
	Merging() bool
	Stale() bool
	MergedInfo() (files.FileInfo, bool)
	MergedPath() string
}
