package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"tkbconv/internal/calendar"
)

// DefaultProfileName is the embedded profile used when TKB_PROFILE is unset.
const DefaultProfileName = "hk1-2025"

// DefaultErrorTemplate renders the subject field of a sentinel record.
const DefaultErrorTemplate = "{marker} row {line}: {error}"

//go:embed profiles/*.toml
var embeddedProfiles embed.FS

type RowErrorPolicy string

const (
	OnRowErrorSkip     RowErrorPolicy = "skip"
	OnRowErrorSentinel RowErrorPolicy = "emit_sentinel"
)

// Profile is the per-semester normalization setup: which source columns
// hold which fields, how labels render, and the period calendar.
type Profile struct {
	Name        string         `toml:"name"`
	Policy      PolicyConfig   `toml:"policy"`
	Labels      LabelConfig    `toml:"labels"`
	Columns     ColumnConfig   `toml:"columns"`
	DefaultSpan DateRange      `toml:"default_span"`
	Periods     []PeriodConfig `toml:"period"`
}

type PolicyConfig struct {
	OnRowError          RowErrorPolicy `toml:"on_row_error"`
	RequireSubjectName  bool           `toml:"require_subject_name"`
	RequireActivePeriod bool           `toml:"require_active_period"`
	SkipRepeatedHeader  bool           `toml:"skip_repeated_header"`
	ErrorMarker         string         `toml:"error_marker"`
	ErrorTemplate       string         `toml:"error_template"`
}

type LabelConfig struct {
	// Weekdays maps the source weekday number (2 = Monday .. 8 = Sunday)
	// to its display label. TOML keys are the numbers as strings.
	Weekdays map[string]string `toml:"weekdays"`
	// WeekdayFallback renders numbers outside Weekdays; "{n}" is replaced
	// by the source value.
	WeekdayFallback string `toml:"weekday_fallback"`
	RoomPrefix      string `toml:"room_prefix"`
	BuildingPrefix  string `toml:"building_prefix"`
}

type ColumnConfig struct {
	RowNumber     string `toml:"row_number"`
	ClassName     string `toml:"class_name"`
	ClassCode     string `toml:"class_code"`
	SubjectName   string `toml:"subject_name"`
	SubjectCode   string `toml:"subject_code"`
	Instructor    string `toml:"instructor"`
	Cohort        string `toml:"cohort"`
	Major         string `toml:"major"`
	Faculty       string `toml:"faculty"`
	Department    string `toml:"department"`
	CourseGroup   string `toml:"course_group"`
	PracticeGroup string `toml:"practice_group"`
	Weekday       string `toml:"weekday"`
	StartPeriod   string `toml:"start_period"`
	PeriodCount   string `toml:"period_count"`
	Room          string `toml:"room"`
	Building      string `toml:"building"`
	Credits       string `toml:"credits"`
	Notes         string `toml:"notes"`
}

type DateRange struct {
	Start string `toml:"start"`
	End   string `toml:"end"`
}

// PeriodConfig names a marker column either by its header label or by its
// sheet column letter. Letters are bound to labels once the header row is
// known.
type PeriodConfig struct {
	Label  string `toml:"label,omitempty"`
	Column string `toml:"column,omitempty"`
	Start  string `toml:"start"`
	End    string `toml:"end"`
	Index  int    `toml:"index"`
}

type PeriodSpec struct {
	Label  string
	Column string
	Start  time.Time
	End    time.Time
	Index  int
}

func DefaultProfile() Profile {
	return Profile{
		Name: "default",
		Policy: PolicyConfig{
			OnRowError:          OnRowErrorSentinel,
			RequireSubjectName:  true,
			RequireActivePeriod: false,
			SkipRepeatedHeader:  true,
			ErrorMarker:         "ERROR",
			ErrorTemplate:       DefaultErrorTemplate,
		},
		Labels: LabelConfig{
			Weekdays: map[string]string{
				"2": "Monday",
				"3": "Tuesday",
				"4": "Wednesday",
				"5": "Thursday",
				"6": "Friday",
				"7": "Saturday",
				"8": "Sunday",
			},
			WeekdayFallback: "Weekday {n}",
			RoomPrefix:      "Room",
			BuildingPrefix:  "Building",
		},
		Columns: ColumnConfig{
			RowNumber:     "TT",
			ClassName:     "Lớp",
			ClassCode:     "Nhóm",
			SubjectName:   "Tên môn học/ học phần",
			SubjectCode:   "Mã môn học",
			Instructor:    "Giảng viên giảng dạy",
			Cohort:        "Khóa",
			Major:         "Ngành",
			Faculty:       "Khoa",
			Department:    "Bộ môn",
			CourseGroup:   "Tổ hợp",
			PracticeGroup: "Tổ TH",
			Weekday:       "Thứ",
			StartPeriod:   "Tiết BĐ",
			PeriodCount:   "Số tiết",
			Room:          "Phòng",
			Building:      "Nhà",
			Credits:       "Số TC",
			Notes:         "Ghi chú",
		},
	}
}

// LoadProfile reads a profile from a TOML file path, or from the embedded
// set when ref names one of them. Unset keys keep DefaultProfile values.
func LoadProfile(ref string) (Profile, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = DefaultProfileName
	}

	data, err := readProfile(ref)
	if err != nil {
		return Profile{}, err
	}
	return ParseProfile(data)
}

func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()
	p.Labels.Weekdays = nil
	if err := toml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	if p.Labels.Weekdays == nil {
		p.Labels.Weekdays = DefaultProfile().Labels.Weekdays
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func readProfile(ref string) ([]byte, error) {
	if strings.HasSuffix(strings.ToLower(ref), ".toml") || strings.ContainsAny(ref, `/\`) {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("read profile %s: %w", ref, err)
		}
		return data, nil
	}
	data, err := embeddedProfiles.ReadFile(path.Join("profiles", ref+".toml"))
	if err != nil {
		return nil, fmt.Errorf("unknown profile %q (embedded: %s)", ref, strings.Join(ProfileNames(), ", "))
	}
	return data, nil
}

// ProfileNames lists the embedded profiles.
func ProfileNames() []string {
	entries, err := embeddedProfiles.ReadDir("profiles")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".toml"))
	}
	sort.Strings(out)
	return out
}

func (p Profile) Validate() error {
	switch p.Policy.OnRowError {
	case OnRowErrorSkip, OnRowErrorSentinel:
	default:
		return fmt.Errorf("policy.on_row_error must be %q or %q, got %q", OnRowErrorSkip, OnRowErrorSentinel, p.Policy.OnRowError)
	}
	if strings.TrimSpace(p.Columns.SubjectName) == "" {
		return errors.New("columns.subject_name is required")
	}
	for key := range p.Labels.Weekdays {
		if _, err := strconv.Atoi(key); err != nil {
			return fmt.Errorf("labels.weekdays key %q is not a number", key)
		}
	}
	if len(p.Periods) == 0 {
		return errors.New("profile has no [[period]] entries")
	}
	if _, _, err := p.PeriodSpecs(); err != nil {
		return err
	}
	return nil
}

// WeekdayLabels returns the weekday table keyed by number.
func (p Profile) WeekdayLabels() map[int]string {
	out := make(map[int]string, len(p.Labels.Weekdays))
	for key, label := range p.Labels.Weekdays {
		n, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		out[n] = label
	}
	return out
}

// PeriodSpecs parses the period table and the default span.
func (p Profile) PeriodSpecs() ([]PeriodSpec, calendar.Span, error) {
	def, err := parseRange("default_span", p.DefaultSpan)
	if err != nil {
		return nil, calendar.Span{}, err
	}

	out := make([]PeriodSpec, 0, len(p.Periods))
	for i, period := range p.Periods {
		if strings.TrimSpace(period.Label) == "" && strings.TrimSpace(period.Column) == "" {
			return nil, calendar.Span{}, fmt.Errorf("period #%d: label or column is required", i+1)
		}
		span, err := parseRange(fmt.Sprintf("period #%d", i+1), DateRange{Start: period.Start, End: period.End})
		if err != nil {
			return nil, calendar.Span{}, err
		}
		index := period.Index
		if index == 0 {
			index = i + 1
		}
		out = append(out, PeriodSpec{
			Label:  strings.TrimSpace(period.Label),
			Column: strings.ToUpper(strings.TrimSpace(period.Column)),
			Start:  span.Start,
			End:    span.End,
			Index:  index,
		})
	}
	return out, def, nil
}

func parseRange(name string, r DateRange) (calendar.Span, error) {
	start, err := calendar.ParseDate(r.Start)
	if err != nil {
		return calendar.Span{}, fmt.Errorf("%s: bad start date %q: %w", name, r.Start, err)
	}
	end, err := calendar.ParseDate(r.End)
	if err != nil {
		return calendar.Span{}, fmt.Errorf("%s: bad end date %q: %w", name, r.End, err)
	}
	if end.Before(start) {
		return calendar.Span{}, fmt.Errorf("%s %s..%s: %w", name, r.Start, r.End, calendar.ErrInvalidInterval)
	}
	return calendar.Span{Start: start, End: end}, nil
}

// MarshalPeriods renders a [[period]] table as TOML, ready to paste into a
// profile.
func MarshalPeriods(periods []PeriodConfig) ([]byte, error) {
	return toml.Marshal(struct {
		Periods []PeriodConfig `toml:"period"`
	}{periods})
}
