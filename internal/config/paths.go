package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the standard filesystem layout, resolved relative to the
// executable directory so binaries behave the same regardless of the working
// directory they are launched from.
//
//	<exe dir>/
//	  ├── data/
//	  │   ├── source/     (fo* bhav-copy archives and folders)
//	  │   └── reports/    (merged table and gain reports)
//	  ├── logs/
//	  └── web/            (frontend assets)
type Paths struct {
	ExecutableDir string
	DataDir       string
	SourceDir     string
	ReportsDir    string
	LogsDir       string
	WebDir        string

	// Well-known report files.
	MergedCSV string
	GainsCSV  string
	GainsXLSX string
}

// GetPaths resolves the standard layout from the executable location.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("resolve executable symlinks: %w", err)
	}

	return pathsUnder(filepath.Dir(exe)), nil
}

func pathsUnder(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, "data")
	reportsDir := filepath.Join(dataDir, "reports")

	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		SourceDir:     filepath.Join(dataDir, "source"),
		ReportsDir:    reportsDir,
		LogsDir:       filepath.Join(baseDir, "logs"),
		WebDir:        filepath.Join(baseDir, "web"),
		MergedCSV:     filepath.Join(reportsDir, "merged.csv"),
		GainsCSV:      filepath.Join(reportsDir, "gains.csv"),
		GainsXLSX:     filepath.Join(reportsDir, "gains.xlsx"),
	}
}

// EnsureDirectories creates the layout's directories when absent.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.DataDir, p.SourceDir, p.ReportsDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
