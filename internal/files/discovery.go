package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds raw data exports. Relative paths that do not exist as
// given are looked up under basePath.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// resolve returns path unchanged when it is absolute or exists relative to
// the working directory, else joins it with basePath.
func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(d.basePath, path)
}

// FindCSVFiles lists the CSV files of dir, oldest first. Hidden files are
// skipped.
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !isCSV(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// ResolveInput turns a file or directory argument into one CSV path. A
// directory yields its most recently modified CSV file.
func (d *Discovery) ResolveInput(path string) (string, error) {
	fullPath := d.resolve(path)
	info, err := os.Stat(fullPath)
	if err != nil {
		return "", fmt.Errorf("input %s: %w", path, err)
	}
	if !info.IsDir() {
		return fullPath, nil
	}

	files, err := d.FindCSVFiles(fullPath)
	if err != nil {
		return "", err
	}
	latest, ok := GetLatestFile(files)
	if !ok {
		return "", fmt.Errorf("no CSV files in %s", fullPath)
	}
	return latest.Path, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if !file.ModTime.Before(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
