package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/autopages/internal/record"
)

// Loader converts a data file into ordered rows.
type Loader interface {
	Load(r io.Reader, filename string) ([]*record.Fields, error)
}

// Options tunes the loaders that have knobs.
type Options struct {
	// Delimiter separates CSV fields. Zero means DefaultDelimiter.
	Delimiter rune
	// StripMarkup removes HTML markup from every loaded string value.
	StripMarkup bool
}

// DefaultDelimiter is the CSV field separator used when none is configured.
const DefaultDelimiter = ';'

// DataFormatError reports a data file that could not be loaded.
type DataFormatError struct {
	File string
	Err  error
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("data file %s: %v", e.File, e.Err)
}

func (e *DataFormatError) Unwrap() error { return e.Err }

// SupportedExtensions lists file extensions a loader exists for.
var SupportedExtensions = map[string]bool{
	".json":     true,
	".csv":      true,
	".yaml":     true,
	".yml":      true,
	".md":       true,
	".markdown": true,
	".docx":     true,
	".html":     true,
	".htm":      true,
}

// ForFile returns the loader for a filename, chosen by extension only.
func ForFile(filename string, opts Options) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONLoader{}, nil
	case ".csv":
		delim := opts.Delimiter
		if delim == 0 {
			delim = DefaultDelimiter
		}
		return &CSVLoader{Delimiter: delim}, nil
	case ".yaml", ".yml":
		return &YAMLLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	case ".html", ".htm":
		return &HTMLLoader{}, nil
	default:
		return nil, &DataFormatError{
			File: filename,
			Err:  fmt.Errorf("unsupported file extension %q (supported: json, csv, yaml, md, docx, html)", ext),
		}
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// LoadFile opens path and loads it with the loader picked by its extension.
// Every failure is reported as a *DataFormatError.
func LoadFile(path string, opts Options) ([]*record.Fields, error) {
	l, err := ForFile(path, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataFormatError{File: path, Err: err}
	}
	defer f.Close()

	return load(l, f, path, opts)
}

// LoadReader is LoadFile for data that is already in memory, e.g. an upload.
func LoadReader(r io.Reader, filename string, opts Options) ([]*record.Fields, error) {
	l, err := ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	return load(l, r, filename, opts)
}

func load(l Loader, r io.Reader, name string, opts Options) ([]*record.Fields, error) {
	rows, err := l.Load(r, filepath.Base(name))
	if err != nil {
		return nil, &DataFormatError{File: name, Err: err}
	}
	if opts.StripMarkup {
		for _, row := range rows {
			stripFields(row)
		}
	}
	return rows, nil
}
