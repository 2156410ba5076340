package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tkbconv/internal"
	"tkbconv/internal/calendar"
	"tkbconv/internal/config"
	"tkbconv/internal/util"
)

// Normalizer turns raw timetable rows into NormalizedRecords. It holds no
// mutable state and is safe to share between goroutines.
type Normalizer struct {
	columns  config.ColumnConfig
	policy   config.PolicyConfig
	labels   config.LabelConfig
	weekdays map[int]string
	calendar *calendar.Calendar

	subjectHeader string
}

func NewNormalizer(profile config.Profile, cal *calendar.Calendar) *Normalizer {
	cols := profile.Columns
	for _, f := range []*string{
		&cols.RowNumber, &cols.ClassName, &cols.ClassCode, &cols.SubjectName, &cols.SubjectCode,
		&cols.Instructor, &cols.Cohort, &cols.Major, &cols.Faculty, &cols.Department,
		&cols.CourseGroup, &cols.PracticeGroup, &cols.Weekday, &cols.StartPeriod, &cols.PeriodCount,
		&cols.Room, &cols.Building, &cols.Credits, &cols.Notes,
	} {
		*f = util.NormalizeLabel(*f)
	}

	policy := profile.Policy
	if strings.TrimSpace(policy.ErrorMarker) == "" {
		policy.ErrorMarker = "ERROR"
	}
	if strings.TrimSpace(policy.ErrorTemplate) == "" {
		policy.ErrorTemplate = config.DefaultErrorTemplate
	}

	return &Normalizer{
		columns:       cols,
		policy:        policy,
		labels:        profile.Labels,
		weekdays:      profile.WeekdayLabels(),
		calendar:      cal,
		subjectHeader: cols.SubjectName,
	}
}

// Normalize builds the record for one row. It never panics: faults are
// turned into a sentinel record or a skip according to on_row_error.
func (n *Normalizer) Normalize(index int, row internal.Row) (res internal.RowResult) {
	line := row.Line
	if line <= 0 {
		line = index + 1
	}
	res = internal.RowResult{Index: index, Line: line}

	defer func() {
		if r := recover(); r != nil {
			res = n.failed(res, fmt.Errorf("panic: %v", r))
		}
	}()

	record, status, err := n.build(line, row.Cells)
	if err != nil {
		return n.failed(res, err)
	}
	res.Status = status
	res.Record = record
	return res
}

func (n *Normalizer) failed(res internal.RowResult, err error) internal.RowResult {
	res.Err = err
	res.Record = nil
	if n.policy.OnRowError == config.OnRowErrorSkip {
		res.Status = internal.RowFailedSkipped
		return res
	}
	res.Status = internal.RowSentinel
	res.Record = n.sentinel(res.Line, err)
	return res
}

func (n *Normalizer) build(line int, cells internal.RawRow) (*internal.NormalizedRecord, internal.RowStatus, error) {
	// Missing or unsupported cells read as "".
	get := func(label string) string {
		if label == "" {
			return ""
		}
		return util.CellText(cells[label])
	}

	subject := get(n.columns.SubjectName)
	if n.policy.RequireSubjectName && subject == "" {
		return nil, internal.RowNoSubject, nil
	}
	if n.policy.SkipRepeatedHeader && subject != "" && util.NormalizeLabel(subject) == n.subjectHeader {
		return nil, internal.RowRepeatedHeader, nil
	}

	if n.calendar == nil {
		return nil, "", errors.New("normalizer has no period calendar")
	}
	markers := make(map[string]any, len(n.calendar.Labels()))
	rawPeriods := make(map[string]string, len(markers))
	for _, label := range n.calendar.Labels() {
		rawPeriods[label] = ""
		if v, ok := cells[label]; ok {
			markers[label] = v
			rawPeriods[label] = util.CellText(v)
		}
	}

	span, err := n.calendar.Resolve(markers)
	if err != nil {
		return nil, "", err
	}
	if n.policy.RequireActivePeriod && span.Defaulted {
		return nil, internal.RowNoActivePeriod, nil
	}

	room := get(n.columns.Room)
	building := get(n.columns.Building)
	creditsRaw := get(n.columns.Credits)
	startPeriod := cells[n.columns.StartPeriod]
	periodCount := cells[n.columns.PeriodCount]

	record := &internal.NormalizedRecord{
		Line:          line,
		RowNumber:     get(n.columns.RowNumber),
		ClassName:     get(n.columns.ClassName),
		ClassCode:     get(n.columns.ClassCode),
		SubjectName:   subject,
		SubjectCode:   get(n.columns.SubjectCode),
		Instructor:    get(n.columns.Instructor),
		Cohort:        get(n.columns.Cohort),
		Major:         get(n.columns.Major),
		Faculty:       get(n.columns.Faculty),
		Department:    get(n.columns.Department),
		CourseGroup:   get(n.columns.CourseGroup),
		PracticeGroup: get(n.columns.PracticeGroup),
		CreditsRaw:    creditsRaw,
		Weekday:       WeekdayLabel(cells[n.columns.Weekday], n.weekdays, n.labels.WeekdayFallback),
		StartPeriod:   util.CellText(startPeriod),
		PeriodCount:   util.CellText(periodCount),
		TimeSlot:      TimeSlot(startPeriod, periodCount),
		Room:          room,
		Building:      building,
		Location:      Location(room, building, n.labels.RoomPrefix, n.labels.BuildingPrefix),
		Start:         span.Start,
		End:           span.End,
		Weeks:         span.Periods,
		WeekList:      calendar.Describe(span.Periods),
		ActiveColumns: strings.Join(span.Labels, ", "),
		Notes:         get(n.columns.Notes),
		RawPeriods:    rawPeriods,
	}
	if credits, ok := util.ParseNumber(cells[n.columns.Credits]); ok {
		record.Credits = util.FloatPtr(credits)
	}
	return record, internal.RowKept, nil
}

func (n *Normalizer) sentinel(line int, err error) *internal.NormalizedRecord {
	marker := n.policy.ErrorMarker
	message := strings.NewReplacer(
		"{marker}", marker,
		"{line}", strconv.Itoa(line),
		"{error}", err.Error(),
	).Replace(n.policy.ErrorTemplate)

	var def calendar.Span
	rawPeriods := map[string]string{}
	if n.calendar != nil {
		def = n.calendar.DefaultSpan()
		for _, label := range n.calendar.Labels() {
			rawPeriods[label] = marker
		}
	}

	return &internal.NormalizedRecord{
		Line:          line,
		RowNumber:     strconv.Itoa(line),
		ClassName:     marker,
		ClassCode:     marker,
		SubjectName:   message,
		SubjectCode:   marker,
		Instructor:    marker,
		Cohort:        marker,
		Major:         marker,
		Faculty:       marker,
		Department:    marker,
		CourseGroup:   marker,
		PracticeGroup: marker,
		CreditsRaw:    marker,
		Weekday:       marker,
		StartPeriod:   marker,
		PeriodCount:   marker,
		TimeSlot:      marker,
		Room:          marker,
		Building:      marker,
		Location:      marker,
		Start:         def.Start,
		End:           def.End,
		Weeks:         []int{},
		WeekList:      marker,
		ActiveColumns: marker,
		Notes:         marker,
		RawPeriods:    rawPeriods,
		Sentinel:      true,
		Error:         err.Error(),
	}
}

// WeekdayLabel maps a source weekday number through labels. Numbers with no
// label, and non-numeric text, render through fallback; a blank cell is "".
func WeekdayLabel(v any, labels map[int]string, fallback string) string {
	text := util.CellText(v)
	if text == "" {
		return ""
	}
	if f, ok := util.ParseNumber(v); ok {
		if day, isInt := util.AsInt(f); isInt {
			if label, found := labels[day]; found {
				return label
			}
			return renderFallback(fallback, strconv.Itoa(day))
		}
	}
	return renderFallback(fallback, text)
}

func renderFallback(fallback, value string) string {
	if fallback == "" {
		fallback = "Weekday {n}"
	}
	if !strings.Contains(fallback, "{n}") {
		return fallback + " " + value
	}
	return strings.ReplaceAll(fallback, "{n}", value)
}

// TimeSlot renders "start-end" for an inclusive 1-indexed period range.
// A missing or non-numeric input gives ""; numbers that are not a usable
// integer pair fall back to the raw start value.
func TimeSlot(start, count any) string {
	startText := util.CellText(start)
	if startText == "" || util.CellText(count) == "" {
		return ""
	}
	s, okStart := util.ParseNumber(start)
	c, okCount := util.ParseNumber(count)
	if !okStart || !okCount {
		return ""
	}
	first, intStart := util.AsInt(s)
	span, intCount := util.AsInt(c)
	if !intStart || !intCount || span < 1 {
		return startText
	}
	return fmt.Sprintf("%d-%d", first, first+span-1)
}

// Location joins room and building as "Room r, Building b", dropping an
// absent term together with its connector.
func Location(room, building, roomPrefix, buildingPrefix string) string {
	room = strings.TrimSpace(room)
	building = strings.TrimSpace(building)
	var parts []string
	if room != "" {
		parts = append(parts, strings.TrimSpace(roomPrefix+" "+room))
	}
	if building != "" {
		parts = append(parts, strings.TrimSpace(buildingPrefix+" "+building))
	}
	return strings.Join(parts, ", ")
}
