package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"tkbconv/internal"
	"tkbconv/internal/config"
	"tkbconv/internal/logging"
	"tkbconv/internal/report"
	"tkbconv/internal/storage"
)

type ConvertOptions struct {
	Input string
	// Output ending in .db stores the run in sqlite; anything else is
	// written as an xlsx workbook.
	Output    string
	Read      ReadOptions
	Profile   config.Profile
	Workers   int
	Observers []Observer
}

type ConvertResult struct {
	Table  *internal.RawTable
	Batch  BatchResult
	Stats  *report.Stats
	Output string
	// MissingPeriods lists calendar labels absent from the header row.
	MissingPeriods []string
}

// Convert reads one timetable, normalizes it and writes the result. Only a
// source, calendar or output failure returns an error; row faults are
// reported through the batch summary.
func Convert(ctx context.Context, opts ConvertOptions) (ConvertResult, error) {
	logger := logging.WithFields(ctx, "input", opts.Input, "profile", opts.Profile.Name)

	read := opts.Read
	if read.HeaderProbe == "" {
		read.HeaderProbe = opts.Profile.Columns.SubjectName
	}
	table, err := ReadTable(opts.Input, read)
	if err != nil {
		return ConvertResult{}, err
	}
	logger.Info("table read", "sheet", table.Sheet, "header_row", table.HeaderRow, "rows", len(table.Rows))

	specs, def, err := opts.Profile.PeriodSpecs()
	if err != nil {
		return ConvertResult{}, err
	}
	cal, missing, err := BindCalendar(specs, def, table.Headers)
	if err != nil {
		return ConvertResult{}, err
	}
	if len(missing) > 0 {
		logger.Warn("period columns not in header", "labels", missing)
	}

	stats := report.NewStats()
	observers := append([]Observer{stats}, opts.Observers...)
	batch, err := Run(ctx, NewNormalizer(opts.Profile, cal), table.Rows, RunOptions{
		Workers:   opts.Workers,
		Observers: observers,
	})
	if err != nil {
		return ConvertResult{}, err
	}

	if strings.EqualFold(filepath.Ext(opts.Output), ".db") {
		db, err := storage.Open(opts.Output)
		if err != nil {
			return ConvertResult{}, err
		}
		defer db.Close()
		info := storage.RunInfo{Input: opts.Input, Sheet: table.Sheet, Profile: opts.Profile.Name}
		if err := db.SaveRun(info, batch.Summary, batch.Records); err != nil {
			return ConvertResult{}, err
		}
	} else if err := ExportXLSX(batch.Records, cal.Labels(), stats.Lines(), opts.Output); err != nil {
		return ConvertResult{}, err
	}
	logger.Info("output written", "output", opts.Output, "records", len(batch.Records))

	return ConvertResult{
		Table:          table,
		Batch:          batch,
		Stats:          stats,
		Output:         opts.Output,
		MissingPeriods: missing,
	}, nil
}

// DefaultOutput names the workbook written for input inside dir. The source
// extension stays in the name so tkb.xlsx and tkb.csv do not collide.
func DefaultOutput(dir, input string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	if kind := strings.ToLower(strings.TrimPrefix(ext, ".")); kind != "" {
		base += "_" + kind
	}
	return filepath.Join(dir, base+"_normalized.xlsx")
}
