package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"tkbconv/internal"
	"tkbconv/internal/util"
)

var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSheetNotFound     = errors.New("sheet not found")
	ErrHeaderNotFound    = errors.New("header row not found")
)

// headerProbeRows bounds the header search when HeaderRow is 0.
const headerProbeRows = 30

var spaceRe = regexp.MustCompile(`\s+`)

// ReadOptions selects the sheet and header row of a source table.
// HeaderRow is 1-based; 0 searches the first rows for HeaderProbe.
type ReadOptions struct {
	Sheet       string
	HeaderRow   int
	HeaderProbe string
}

func ReadXLSX(r io.Reader, opts ReadOptions) (*internal.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	sheet := strings.TrimSpace(opts.Sheet)
	if sheet == "" && len(sheets) > 0 {
		sheet = sheets[0]
	}
	if !containsString(sheets, sheet) {
		return nil, fmt.Errorf("%w: %w: %q (have %s)", ErrSourceUnavailable, ErrSheetNotFound, sheet, strings.Join(sheets, ", "))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %w", ErrSourceUnavailable, sheet, err)
	}
	table, err := tableFromGrid(rows, opts)
	if err != nil {
		return nil, err
	}
	table.Source = internal.SourceXLSX
	table.Sheet = sheet
	return table, nil
}

// ReadCSV reads a comma separated export of the timetable sheet.
func ReadCSV(r io.Reader, opts ReadOptions) (*internal.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %w", ErrSourceUnavailable, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	table, err := tableFromGrid(rows, opts)
	if err != nil {
		return nil, err
	}
	table.Source = internal.SourceCSV
	return table, nil
}

// ReadHTML reads the first <table> whose header row can be located.
// Cells spanning several columns are widened with empty cells so column
// positions line up with the spreadsheet layout.
func ReadHTML(r io.Reader, opts ReadOptions) (*internal.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", ErrSourceUnavailable, err)
	}

	var found *internal.RawTable
	lastErr := fmt.Errorf("%w: no <table> in document", ErrHeaderNotFound)
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		grid := [][]string{}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, normalizeSpaces(cell.Text()))
				span, _ := strconv.Atoi(cell.AttrOr("colspan", "1"))
				for i := 1; i < span; i++ {
					cells = append(cells, "")
				}
			})
			grid = append(grid, cells)
		})

		t, err := tableFromGrid(grid, opts)
		if err != nil {
			lastErr = err
			return true
		}
		found = t
		return false
	})
	if found == nil {
		return nil, lastErr
	}
	found.Source = internal.SourceHTML
	return found, nil
}

// tableFromGrid locates the header row, labels the columns and keys every
// following non-empty row by label.
func tableFromGrid(grid [][]string, opts ReadOptions) (*internal.RawTable, error) {
	headerIdx, err := locateHeader(grid, opts)
	if err != nil {
		return nil, err
	}

	width := 0
	for _, row := range grid[headerIdx:] {
		width = max(width, len(row))
	}
	headers := ColumnLabels(grid[headerIdx], width)

	rows := make([]internal.Row, 0, len(grid)-headerIdx-1)
	for i := headerIdx + 1; i < len(grid); i++ {
		cells := make(internal.RawRow, len(grid[i]))
		blank := true
		for c, v := range grid[i] {
			cells[headers[c]] = v
			if !util.IsBlank(v) {
				blank = false
			}
		}
		if blank {
			continue
		}
		rows = append(rows, internal.Row{Line: i + 1, Cells: cells})
	}

	return &internal.RawTable{
		HeaderRow: headerIdx + 1,
		Headers:   headers,
		Rows:      rows,
	}, nil
}

func locateHeader(grid [][]string, opts ReadOptions) (int, error) {
	if opts.HeaderRow > 0 {
		if opts.HeaderRow > len(grid) {
			return 0, fmt.Errorf("%w: row %d is past the end of the sheet (%d rows)", ErrHeaderNotFound, opts.HeaderRow, len(grid))
		}
		return opts.HeaderRow - 1, nil
	}

	probe := util.NormalizeLabel(opts.HeaderProbe)
	if probe == "" {
		return 0, fmt.Errorf("%w: no header row and no probe label", ErrHeaderNotFound)
	}
	for i, row := range grid {
		if i >= headerProbeRows {
			break
		}
		for _, cell := range row {
			if util.NormalizeLabel(cell) == probe {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q not in the first %d rows", ErrHeaderNotFound, opts.HeaderProbe, headerProbeRows)
}

// ColumnLabels names width columns from a header row the way a pandas
// read_excel header does: blank cells become "Unnamed: <index>" and repeats
// of a label get ".1", ".2" suffixes.
func ColumnLabels(header []string, width int) []string {
	width = max(width, len(header))
	labels := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		label := ""
		if i < len(header) {
			label = util.NormalizeLabel(header[i])
		}
		if label == "" {
			label = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[label]; dup {
			seen[label] = n + 1
			label = fmt.Sprintf("%s.%d", label, n+1)
		} else {
			seen[label] = 0
		}
		labels[i] = label
	}
	return labels
}

func normalizeSpaces(input string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(input, " "))
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
