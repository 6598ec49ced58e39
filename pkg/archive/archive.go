// Package archive extracts downloaded export archives and locates their
// tabular members.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Unzip extracts every member of the archive at zipPath into destDir and
// returns the extracted file paths. Member names that would escape destDir
// are rejected.
func Unzip(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", zipPath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("creating extract directory: %w", err)
	}

	var paths []string
	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return nil, fmt.Errorf("archive member %q escapes extract directory", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, fmt.Errorf("creating directory %s: %w", target, err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return nil, err
		}
		paths = append(paths, target)
	}
	return paths, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", target, err)
	}
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening archive member %s: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return nil
}

// FirstTabular returns the first path with a recognized tabular extension
// (.csv, case-insensitive), or the empty string when there is none.
func FirstTabular(paths []string) string {
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ".csv") {
			return p
		}
	}
	return ""
}
