package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"tkbconv/internal"
	"tkbconv/internal/calendar"
)

const (
	SheetFull    = "TKB đầy đủ"
	SheetSummary = "Tóm tắt"
	SheetStats   = "Thống kê"

	rawPeriodPrefix = "Gốc_"
)

var fullHeaders = []string{
	"STT", "Lớp", "Mã lớp", "Bắt đầu", "Kết thúc", "Thứ", "Giảng viên", "Môn học", "Mã môn học",
	"Khóa", "Ngành", "Khoa", "Bộ môn", "Tổ hợp", "Tổ TH", "Tiết BĐ", "Số tiết", "Thời gian",
	"Phòng", "Nhà", "Địa điểm", "Số tín chỉ", "Ghi chú", "Tuần học", "Cột tuần",
}

var summaryHeaders = []string{
	"STT", "Mã môn học", "Môn học", "Lớp", "Mã lớp", "Thứ", "Thời gian",
	"Giảng viên", "Địa điểm", "Bắt đầu", "Kết thúc", "Tuần học",
}

// ExportXLSX writes the normalized timetable workbook: every field plus the
// raw marker of each period column, a short listing, and the statistics.
// periodLabels fixes the order of the raw marker columns.
func ExportXLSX(records []internal.NormalizedRecord, periodLabels []string, stats []internal.StatLine, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetFull); err != nil {
		return err
	}
	for _, name := range []string{SheetSummary, SheetStats} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	headers := append([]string{}, fullHeaders...)
	for _, label := range periodLabels {
		headers = append(headers, rawPeriodPrefix+label)
	}
	writeHeader(f, SheetFull, headers)

	for i, rec := range records {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(SheetFull, cell, value)
		}

		set(1, rec.RowNumber)
		set(2, rec.ClassName)
		set(3, rec.ClassCode)
		set(4, calendar.Format(rec.Start))
		set(5, calendar.Format(rec.End))
		set(6, rec.Weekday)
		set(7, rec.Instructor)
		set(8, rec.SubjectName)
		set(9, rec.SubjectCode)
		set(10, rec.Cohort)
		set(11, rec.Major)
		set(12, rec.Faculty)
		set(13, rec.Department)
		set(14, rec.CourseGroup)
		set(15, rec.PracticeGroup)
		set(16, rec.StartPeriod)
		set(17, rec.PeriodCount)
		set(18, rec.TimeSlot)
		set(19, rec.Room)
		set(20, rec.Building)
		set(21, rec.Location)
		set(22, creditsValue(rec))
		set(23, rec.Notes)
		set(24, rec.WeekList)
		set(25, rec.ActiveColumns)
		for j, label := range periodLabels {
			set(len(fullHeaders)+j+1, rec.RawPeriods[label])
		}
	}

	writeHeader(f, SheetSummary, summaryHeaders)
	for i, rec := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			i + 1, rec.SubjectCode, rec.SubjectName, rec.ClassName, rec.ClassCode, rec.Weekday,
			rec.TimeSlot, rec.Instructor, rec.Location,
			calendar.Format(rec.Start), calendar.Format(rec.End), rec.WeekList,
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}

	writeHeader(f, SheetStats, []string{"Nhóm", "Giá trị", "Số lượng"})
	for i, line := range stats {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{line.Group, line.Name, line.Count}
		if err := f.SetSheetRow(SheetStats, cell, &row); err != nil {
			return err
		}
	}

	for _, sheet := range []string{SheetFull, SheetSummary, SheetStats} {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freeze header on %s: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func creditsValue(rec internal.NormalizedRecord) any {
	if rec.Credits == nil {
		return rec.CreditsRaw
	}
	return *rec.Credits
}
