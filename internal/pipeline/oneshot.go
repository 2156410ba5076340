package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"tkbconv/internal"
)

// SourceKindFor picks the reader from the file extension.
func SourceKindFor(path string) (internal.SourceKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return internal.SourceXLSX, nil
	case ".csv":
		return internal.SourceCSV, nil
	case ".html", ".htm":
		return internal.SourceHTML, nil
	default:
		return "", fmt.Errorf("unsupported input type: %s", filepath.Ext(path))
	}
}

func ReadTable(path string, opts ReadOptions) (*internal.RawTable, error) {
	kind, err := SourceKindFor(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	var table *internal.RawTable
	switch kind {
	case internal.SourceXLSX:
		table, err = ReadXLSX(f, opts)
	case internal.SourceCSV:
		table, err = ReadCSV(f, opts)
	case internal.SourceHTML:
		table, err = ReadHTML(f, opts)
	}
	if err != nil {
		return nil, err
	}
	table.Path = path
	return table, nil
}

type SheetInfo struct {
	Name      string
	Rows      int
	HeaderRow int
}

// InspectWorkbook lists the sheets of a workbook with their row count and
// the row holding probe, 0 when the probe label is not found.
func InspectWorkbook(path, probe string) ([]SheetInfo, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	out := []SheetInfo{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		info := SheetInfo{Name: sheet, Rows: len(rows)}
		if idx, err := locateHeader(rows, ReadOptions{HeaderProbe: probe}); err == nil {
			info.HeaderRow = idx + 1
		}
		out = append(out, info)
	}
	return out, nil
}
