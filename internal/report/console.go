package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"tkbconv/internal"
	"tkbconv/internal/calendar"
	"tkbconv/internal/util"
)

// PrintSummary writes the batch totals, the top majors and the cohort counts.
func PrintSummary(w io.Writer, s *Stats) {
	sum := s.Summary
	fmt.Fprintf(w, "run %s: %s rows, %s kept, %s sentinel, %s failed (%s)\n",
		sum.RunID,
		humanize.Comma(int64(sum.Total)),
		humanize.Comma(int64(sum.Kept)),
		humanize.Comma(int64(sum.Sentinel)),
		humanize.Comma(int64(sum.Failed)),
		sum.Duration.Round(time.Millisecond),
	)
	if spread, ok := s.Weeks(); ok {
		fmt.Fprintf(w, "weeks per section: min=%g median=%g mean=%.1f max=%g\n", spread.Min, spread.Median, spread.Mean, spread.Max)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Nhóm", "Giá trị", "Số lượng"})
	table.SetAutoWrapText(false)
	for _, line := range s.Lines() {
		if line.Group != GroupStatus && line.Group != GroupMajor && line.Group != GroupCohort {
			continue
		}
		table.Append([]string{line.Group, line.Name, humanize.Comma(int64(line.Count))})
	}
	table.Render()
}

// PrintSample writes the first n records as a table.
func PrintSample(w io.Writer, records []internal.NormalizedRecord, n int) {
	if n <= 0 || len(records) == 0 {
		return
	}
	if n > len(records) {
		n = len(records)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"STT", "Môn học", "Lớp", "Thứ", "Thời gian", "Địa điểm", "Số TC", "Bắt đầu", "Kết thúc", "Tuần học"})
	table.SetAutoWrapText(false)
	for i, rec := range records[:n] {
		credits := util.FormatNumber(rec.Credits)
		if credits == "" {
			credits = rec.CreditsRaw
		}
		table.Append([]string{
			fmt.Sprint(i + 1),
			rec.SubjectName,
			rec.ClassName,
			rec.Weekday,
			rec.TimeSlot,
			rec.Location,
			credits,
			calendar.Format(rec.Start),
			calendar.Format(rec.End),
			rec.WeekList,
		})
	}
	table.Render()
}

// PrintCalendar writes a period table with its default span.
func PrintCalendar(w io.Writer, entries []calendar.Entry, def calendar.Span) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Tuần", "Cột", "Bắt đầu", "Kết thúc", "Ngày"})
	for _, e := range entries {
		days := int(e.End.Sub(e.Start).Hours()/24) + 1
		table.Append([]string{
			fmt.Sprint(e.Index),
			e.Label,
			calendar.Format(e.Start),
			calendar.Format(e.End),
			fmt.Sprint(days),
		})
	}
	table.SetFooter([]string{"", "mặc định", calendar.Format(def.Start), calendar.Format(def.End), ""})
	table.Render()
}
