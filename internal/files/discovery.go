package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file or directory.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Discovery provides file discovery operations rooted at a base path.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindSourceEntries finds the dated source entries in the base directory:
// zip archives and plain directories whose name starts with prefix. Entries
// come back sorted by name, which for the DDMMYY-suffixed convention is a
// stable (if not strictly chronological) order.
func (d *Discovery) FindSourceEntries(prefix string) ([]FileInfo, error) {
	entries, err := os.ReadDir(d.basePath)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", d.basePath, err)
	}

	var found []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if !entry.IsDir() && !strings.HasSuffix(strings.ToLower(name), ".zip") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		found = append(found, FileInfo{
			Path:    filepath.Join(d.basePath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   entry.IsDir(),
		})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})

	return found, nil
}

// FindDataFiles finds the candidate tabular files in the specified directory:
// names starting with prefix and ending with ext (case-insensitive on the
// extension, the way exchange downloads vary).
func (d *Discovery) FindDataFiles(dir, prefix, ext string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", fullPath, err)
	}

	var found []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		found = append(found, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   false,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})

	return found, nil
}

// Stat returns file information for an arbitrary path, with ok=false when the
// file does not exist.
func Stat(path string) (FileInfo, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, false
	}
	return FileInfo{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, true
}

// OlderThan reports whether the file's last modification is further in the
// past than maxAge. Used as the default freshness predicate for the merged
// table: regenerate when the previous run is a day old.
func (f FileInfo) OlderThan(maxAge time.Duration, now time.Time) bool {
	return now.Sub(f.ModTime) > maxAge
}
