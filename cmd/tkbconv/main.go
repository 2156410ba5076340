package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"tkbconv/internal/calendar"
	"tkbconv/internal/config"
	"tkbconv/internal/logging"
	"tkbconv/internal/pipeline"
	"tkbconv/internal/report"
	"tkbconv/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "convert":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "timetable file (.xlsx, .csv, .html)")
		sheet := fs.String("sheet", cfg.Sheet, "worksheet name")
		headerRow := fs.Int("header-row", cfg.HeaderRow, "1-based header row, 0 to detect")
		profileRef := fs.String("profile", cfg.Profile, "embedded profile name or .toml path")
		output := fs.String("output", "", "output path (.xlsx or .db)")
		workers := fs.Int("workers", cfg.Workers, "rows normalized in parallel")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		out := *output
		if out == "" {
			out = pipeline.DefaultOutput(cfg.OutputDir, *input)
		}

		profile, err := config.LoadProfile(*profileRef)
		must(err)
		if cfg.RequireActivePeriod {
			profile.Policy.RequireActivePeriod = true
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		ctx = logging.WithRunID(ctx, uuid.NewString())

		res, err := pipeline.Convert(ctx, pipeline.ConvertOptions{
			Input:   *input,
			Output:  out,
			Read:    pipeline.ReadOptions{Sheet: *sheet, HeaderRow: *headerRow},
			Profile: profile,
			Workers: *workers,
		})
		must(err)

		report.PrintSample(os.Stdout, res.Batch.Records, cfg.SampleRows)
		report.PrintSummary(os.Stdout, res.Stats)
		fmt.Printf("convert done rows=%d output=%s\n", len(res.Batch.Records), res.Output)
	case "inspect":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "timetable workbook (.xlsx)")
		profileRef := fs.String("profile", cfg.Profile, "embedded profile name or .toml path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		profile, err := config.LoadProfile(*profileRef)
		must(err)

		sheets, err := pipeline.InspectWorkbook(*input, profile.Columns.SubjectName)
		must(err)
		for _, s := range sheets {
			fmt.Printf("sheet %q rows=%d header_row=%d\n", s.Name, s.Rows, s.HeaderRow)
			if s.HeaderRow == 0 {
				continue
			}
			table, err := pipeline.ReadTable(*input, pipeline.ReadOptions{Sheet: s.Name, HeaderRow: s.HeaderRow})
			must(err)
			specs, def, err := profile.PeriodSpecs()
			must(err)
			cal, missing, err := pipeline.BindCalendar(specs, def, table.Headers)
			if err != nil {
				fmt.Printf("  calendar does not bind: %v\n", err)
				continue
			}
			fmt.Printf("  data rows=%d period columns=%d missing=%d\n", len(table.Rows), len(cal.Labels()), len(missing))
			for _, label := range missing {
				fmt.Printf("  missing column %q\n", label)
			}
		}
	case "calendar:weekly":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		start := fs.String("start", "", "first Monday, YYYY-MM-DD")
		weeks := fs.Int("weeks", 17, "number of weeks")
		firstColumn := fs.String("first-column", "", "sheet column of week 1 (labels are left blank to fill in)")
		_ = fs.Parse(os.Args[2:])
		anchor, err := calendar.ParseDate(*start)
		must(err)
		first := 0
		if *firstColumn != "" {
			first, err = excelize.ColumnNameToNumber(*firstColumn)
			must(err)
		}

		entries := calendar.Weekly(anchor, *weeks, func(i int) string {
			if first == 0 {
				return fmt.Sprintf("W%d", i+1)
			}
			name, _ := excelize.ColumnNumberToName(first + i)
			return name
		})
		periods := make([]config.PeriodConfig, 0, len(entries))
		for _, e := range entries {
			p := config.PeriodConfig{Start: calendar.Format(e.Start), End: calendar.Format(e.End), Index: e.Index}
			if first == 0 {
				p.Label = e.Label
			} else {
				p.Column = e.Label
			}
			periods = append(periods, p)
		}
		body, err := config.MarshalPeriods(periods)
		must(err)
		fmt.Print(string(body))
	case "calendar:show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		profileRef := fs.String("profile", cfg.Profile, "embedded profile name or .toml path")
		_ = fs.Parse(os.Args[2:])
		profile, err := config.LoadProfile(*profileRef)
		must(err)
		specs, def, err := profile.PeriodSpecs()
		must(err)
		entries := make([]calendar.Entry, 0, len(specs))
		for _, s := range specs {
			label := s.Label
			if label == "" {
				label = "[" + s.Column + "]"
			}
			entries = append(entries, calendar.Entry{Label: label, Start: s.Start, End: s.End, Index: s.Index})
		}
		fmt.Printf("profile %s (embedded: %s)\n", profile.Name, strings.Join(config.ProfileNames(), ", "))
		report.PrintCalendar(os.Stdout, entries, def)
	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dbPath := fs.String("db", "", "sqlite file written by convert --output=*.db")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*dbPath) == "" {
			must(fmt.Errorf("--db is required"))
		}
		db, err := storage.Open(*dbPath)
		must(err)
		defer db.Close()
		runs, err := db.ListRuns()
		must(err)
		for _, r := range runs {
			fmt.Printf("%s %s input=%s sheet=%s total=%d kept=%d sentinel=%d failed=%d\n",
				r.CreatedAt, r.RunID, r.Input, r.Sheet, r.Total, r.Kept, r.Sentinel, r.Failed)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: tkbconv <command>")
	fmt.Println("commands:")
	fmt.Println("  convert --input=tkb.xlsx [--sheet=TKB CHINH] [--header-row=9] [--profile=hk1-2025] [--output=out.xlsx|out.db] [--workers=1]")
	fmt.Println("  inspect --input=tkb.xlsx [--profile=hk1-2025]")
	fmt.Println("  calendar:weekly --start=2025-08-11 [--weeks=17] [--first-column=R]")
	fmt.Println("  calendar:show [--profile=hk1-2025]")
	fmt.Println("  runs --db=out/tkb.db")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
