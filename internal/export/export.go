// Package export writes sample rows to spreadsheet formats for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
	"github.com/KaramelBytes/npsmentor-cli/internal/table"
)

const (
	// DefaultFilename is the suggested name for a downloaded sample.
	DefaultFilename = "nps_sample.xlsx"
	// SheetName is the single worksheet written by WriteXLSX.
	SheetName = "NPS"
	// SeqColumn is the display-only 1-based row number column.
	SeqColumn = "No"
)

// Header returns the exported column order.
func Header() []string {
	return []string{SeqColumn, table.ColPersonID, table.ColName, table.ColCategory, table.ColScore, table.ColNPSID, table.ColCreatedAt}
}

// WriteXLSX writes records to w as a one-sheet workbook. Scores are stored as numbers.
func WriteXLSX(w io.Writer, records []nps.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := Header()
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{i + 1, r.PersonID, r.Name, r.Category, r.Score, r.NPSID, r.CreatedAt}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(SheetName, "C", "C", 28); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes records to w with the same columns as WriteXLSX.
func WriteCSV(w io.Writer, records []nps.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		row := []string{strconv.Itoa(i + 1), r.PersonID, r.Name, r.Category, strconv.Itoa(r.Score), r.NPSID, r.CreatedAt}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write picks the format from the filename extension, defaulting to XLSX.
func Write(w io.Writer, filename string, records []nps.Record) error {
	if IsCSV(filename) {
		return WriteCSV(w, records)
	}
	return WriteXLSX(w, records)
}

// IsCSV reports whether filename asks for CSV output.
func IsCSV(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}
