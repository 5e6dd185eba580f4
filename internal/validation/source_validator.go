// Package validation provides pre-flight checks for the merge CLI: the source
// directory must exist and look like a bhav-copy drop before a run starts.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SourceValidator checks a source directory before a merge run.
type SourceValidator struct {
	logger *slog.Logger
}

// NewSourceValidator creates a source validator.
func NewSourceValidator(logger *slog.Logger) *SourceValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceValidator{logger: logger}
}

// ValidateSourceDir verifies that dir exists, is a directory, and holds at
// least one entry with the archive prefix. A directory without matching
// entries is valid but logged, since a merge over it writes nothing.
func (v *SourceValidator) ValidateSourceDir(dir, archivePrefix string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("source directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("stat source directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read source directory %s: %w", dir, err)
	}

	matching := 0
	for _, entry := range entries {
		if strings.HasPrefix(strings.ToLower(entry.Name()), strings.ToLower(archivePrefix)) {
			matching++
		}
	}

	if matching == 0 {
		v.logger.Warn("no source entries found, merge will write nothing",
			slog.String("directory", dir),
			slog.String("prefix", archivePrefix))
	} else {
		v.logger.Info("source directory validated",
			slog.String("directory", dir),
			slog.Int("entries", matching))
	}
	return nil
}

// ValidateOutputPath verifies that the output file's directory exists or can
// be created, and that an existing file at the path is a regular file.
func (v *SourceValidator) ValidateOutputPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat output path %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("output path %s is a directory", path)
	}
	return nil
}
