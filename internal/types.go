package internal

import "time"

type SourceKind string

const (
	SourceXLSX SourceKind = "xlsx"
	SourceCSV  SourceKind = "csv"
	SourceHTML SourceKind = "html"
)

// RawRow maps a column label to a cell value. Values are string, a Go
// numeric type, bool, or nil. Any label may be absent.
type RawRow map[string]any

type Row struct {
	Line  int
	Cells RawRow
}

type RawTable struct {
	Source    SourceKind
	Path      string
	Sheet     string
	HeaderRow int
	Headers   []string
	Rows      []Row
}

type RowStatus string

const (
	RowKept           RowStatus = "kept"
	RowSentinel       RowStatus = "sentinel"
	RowNoSubject      RowStatus = "no_subject"
	RowNoActivePeriod RowStatus = "no_active_period"
	RowRepeatedHeader RowStatus = "repeated_header"
	RowFailedSkipped  RowStatus = "failed_skipped"
)

type NormalizedRecord struct {
	Line          int
	RowNumber     string
	ClassName     string
	ClassCode     string
	SubjectName   string
	SubjectCode   string
	Instructor    string
	Cohort        string
	Major         string
	Faculty       string
	Department    string
	CourseGroup   string
	PracticeGroup string
	Credits       *float64
	CreditsRaw    string
	Weekday       string
	StartPeriod   string
	PeriodCount   string
	TimeSlot      string
	Room          string
	Building      string
	Location      string
	Start         time.Time
	End           time.Time
	Weeks         []int
	WeekList      string
	ActiveColumns string
	Notes         string
	RawPeriods    map[string]string
	Sentinel      bool
	Error         string
}

type RowResult struct {
	Index  int
	Line   int
	Status RowStatus
	Record *NormalizedRecord
	Err    error
}

type BatchSummary struct {
	RunID    string
	Total    int
	Kept     int
	Sentinel int
	Skipped  map[RowStatus]int
	Failed   int
	Duration time.Duration
}

// StatLine is one row of the statistics sheet.
type StatLine struct {
	Group string
	Name  string
	Count int
}
