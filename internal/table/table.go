// Package table reads uploaded spreadsheets and delimited text into raw
// tables and normalizes them into NPS records.
package table

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Table is a raw tabular dataset with unnormalized column names.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Loader reads one file format into a Table.
type Loader interface {
	CanLoad(filename string) bool
	Load(r io.Reader) (*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupportedFormat indicates no loader accepts the file name.
var ErrUnsupportedFormat = errors.New("unsupported file format (use .csv, .tsv, .txt or .xlsx)")

// LoadError is a user-facing load failure for one file.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("failed to load file: %v", e.Err)
	}
	return fmt.Sprintf("failed to load %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load selects a loader by file name and reads r.
func Load(filename string, r io.Reader) (*Table, error) {
	name := filepath.Base(filename)
	for _, l := range registry {
		if !l.CanLoad(name) {
			continue
		}
		t, err := l.Load(r)
		if err != nil {
			return nil, &LoadError{File: name, Err: err}
		}
		t.Name = name
		return t, nil
	}
	return nil, &LoadError{File: name, Err: ErrUnsupportedFormat}
}

// LoadFile opens path and loads it.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{File: filepath.Base(path), Err: err}
	}
	defer f.Close()
	return Load(path, f)
}

// padRows extends ragged rows to the header width.
func padRows(rows [][]string, width int) [][]string {
	for i, row := range rows {
		if len(row) < width {
			tmp := make([]string, width)
			copy(tmp, row)
			rows[i] = tmp
		}
	}
	return rows
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}
