package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for spreadsheets the backend cannot read.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format, use .csv, .xlsx or .xls")

// SupportedExtensions lists the spreadsheet formats the backend accepts.
var SupportedExtensions = []string{".csv", ".xlsx", ".xls"}

// SourceFile is a spreadsheet selected for upload.
type SourceFile struct {
	Path string
	Size int64
}

// OpenSourceFile checks that path is a readable spreadsheet of a supported format.
func OpenSourceFile(path string) (SourceFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return SourceFile{}, errors.New("file path is empty")
	}

	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, s := range SupportedExtensions {
		if ext == s {
			supported = true
			break
		}
	}
	if !supported {
		return SourceFile{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return SourceFile{}, fmt.Errorf("%s is a directory", path)
	}

	return SourceFile{Path: path, Size: info.Size()}, nil
}

// IsSet reports whether a file has been selected.
func (f SourceFile) IsSet() bool {
	return f.Path != ""
}

// Name returns the file name sent to the backend.
func (f SourceFile) Name() string {
	return filepath.Base(f.Path)
}
