// Package calendar maps period-marker columns to literal calendar intervals
// and resolves the date span a class section is taught in.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tkbconv/internal/util"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidInterval = errors.New("interval ends before it starts")
	ErrDuplicateLabel  = errors.New("duplicate period column label")
	ErrEmptyLabel      = errors.New("period column label is empty")
)

// Entry is one teaching period: a marker column and the dates it covers.
type Entry struct {
	Label string
	Start time.Time
	End   time.Time
	Index int
}

type Span struct {
	Start time.Time
	End   time.Time
}

// ResolvedSpan is the result of resolving one row's markers. Periods is
// ascending and deduplicated; Defaulted is set when no marker was active.
type ResolvedSpan struct {
	Start     time.Time
	End       time.Time
	Periods   []int
	Labels    []string
	Defaulted bool
}

type Calendar struct {
	entries     []Entry
	defaultSpan Span
}

// New validates the table and returns a calendar. Entries keep their
// declared order; resolution does not depend on it.
func New(entries []Entry, defaultSpan Span) (*Calendar, error) {
	if defaultSpan.End.Before(defaultSpan.Start) {
		return nil, fmt.Errorf("default span %s..%s: %w", Format(defaultSpan.Start), Format(defaultSpan.End), ErrInvalidInterval)
	}
	c := &Calendar{
		entries:     make([]Entry, 0, len(entries)),
		defaultSpan: defaultSpan,
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		e.Label = util.NormalizeLabel(e.Label)
		if e.Label == "" {
			return nil, fmt.Errorf("period %d: %w", e.Index, ErrEmptyLabel)
		}
		if e.End.Before(e.Start) {
			return nil, fmt.Errorf("period %q %s..%s: %w", e.Label, Format(e.Start), Format(e.End), ErrInvalidInterval)
		}
		if _, exists := seen[e.Label]; exists {
			return nil, fmt.Errorf("period %q: %w", e.Label, ErrDuplicateLabel)
		}
		seen[e.Label] = struct{}{}
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Unchecked builds a calendar without validation. Resolve still refuses
// inverted intervals, reporting ErrInvalidInterval for the row.
func Unchecked(entries []Entry, defaultSpan Span) *Calendar {
	return &Calendar{entries: entries, defaultSpan: defaultSpan}
}

func (c *Calendar) Labels() []string {
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Label)
	}
	return out
}

func (c *Calendar) DefaultSpan() Span {
	return c.defaultSpan
}

// Resolve reduces the active entries to one span: the earliest start and the
// latest end among them, whatever their column order.
func (c *Calendar) Resolve(markers map[string]any) (ResolvedSpan, error) {
	var active []Entry
	for _, e := range c.entries {
		value, ok := markers[e.Label]
		if !ok || !util.HasMarker(value) {
			continue
		}
		if e.End.Before(e.Start) {
			return ResolvedSpan{}, fmt.Errorf("period %q: %w", e.Label, ErrInvalidInterval)
		}
		active = append(active, e)
	}

	if len(active) == 0 {
		return ResolvedSpan{
			Start:     c.defaultSpan.Start,
			End:       c.defaultSpan.End,
			Periods:   []int{},
			Labels:    []string{},
			Defaulted: true,
		}, nil
	}

	out := ResolvedSpan{Start: active[0].Start, End: active[0].End}
	seen := map[int]struct{}{}
	periods := make([]int, 0, len(active))
	labels := make([]string, 0, len(active))
	for _, e := range active {
		if e.Start.Before(out.Start) {
			out.Start = e.Start
		}
		if e.End.After(out.End) {
			out.End = e.End
		}
		labels = append(labels, e.Label)
		if _, dup := seen[e.Index]; dup {
			continue
		}
		seen[e.Index] = struct{}{}
		periods = append(periods, e.Index)
	}
	sort.Ints(periods)
	out.Periods = periods
	out.Labels = labels
	return out, nil
}

// Describe renders period indices as "1, 2, 5".
func Describe(periods []int) string {
	parts := make([]string, 0, len(periods))
	for _, p := range periods {
		parts = append(parts, strconv.Itoa(p))
	}
	return strings.Join(parts, ", ")
}

func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.UTC)
}

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Weekly lays out n consecutive seven-day periods from anchor, labelled by
// labelFor. It is an authoring aid: the output is meant to be written out
// as a literal table and corrected by hand for holidays and short weeks.
func Weekly(anchor time.Time, n int, labelFor func(i int) string) []Entry {
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		start := anchor.AddDate(0, 0, 7*i)
		out = append(out, Entry{
			Label: labelFor(i),
			Start: start,
			End:   start.AddDate(0, 0, 6),
			Index: i + 1,
		})
	}
	return out
}
