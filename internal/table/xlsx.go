package table

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct {
	sheet string
}

func (xlsxLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (l xlsxLoader) Load(r io.Reader) (*Table, error) {
	return readWorkbook(r, l.sheet)
}

// LoadXLSXSheet reads a named sheet of a workbook. An empty sheet name
// selects the first sheet.
func LoadXLSXSheet(filename string, r io.Reader, sheet string) (*Table, error) {
	t, err := readWorkbook(r, sheet)
	if err != nil {
		return nil, &LoadError{File: filename, Err: err}
	}
	t.Name = filename
	return t, nil
}

func readWorkbook(r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	target := sheets[0]
	if sheet != "" {
		target = ""
		for _, s := range sheets {
			if strings.EqualFold(s, sheet) {
				target = s
				break
			}
		}
		if target == "" {
			return nil, fmt.Errorf("sheet '%s' not found.\nAvailable sheets: %s", sheet, strings.Join(sheets, ", "))
		}
	}
	rows, err := f.GetRows(target)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", target, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", target)
	}
	t := &Table{Header: rows[0], Rows: rows[1:]}
	t.Rows = padRows(t.Rows, len(t.Header))
	return t, nil
}
