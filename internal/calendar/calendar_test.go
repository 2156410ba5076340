package calendar

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func mustCalendar(t *testing.T, entries []Entry) *Calendar {
	t.Helper()
	c, err := New(entries, Span{Start: Date(2025, 8, 11), End: Date(2025, 9, 14)})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestResolveOutOfOrderColumns(t *testing.T) {
	c := mustCalendar(t, []Entry{
		{Label: "A", Start: Date(2025, 8, 18), End: Date(2025, 8, 24), Index: 2},
		{Label: "B", Start: Date(2025, 8, 11), End: Date(2025, 8, 17), Index: 1},
	})

	span, err := c.Resolve(map[string]any{"A": "x", "B": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if Format(span.Start) != "2025-08-11" || Format(span.End) != "2025-08-24" {
		t.Fatalf("span=%s..%s", Format(span.Start), Format(span.End))
	}
	if !reflect.DeepEqual(span.Periods, []int{1, 2}) {
		t.Fatalf("periods=%v", span.Periods)
	}
	if span.Defaulted {
		t.Fatalf("span should not be defaulted")
	}
}

func TestResolveNoMarkers(t *testing.T) {
	c := mustCalendar(t, []Entry{
		{Label: "08/25", Start: Date(2025, 8, 11), End: Date(2025, 8, 17), Index: 1},
		{Label: "Unnamed: 18", Start: Date(2025, 8, 18), End: Date(2025, 8, 24), Index: 2},
	})

	span, err := c.Resolve(map[string]any{"08/25": "", "Unnamed: 18": nil})
	if err != nil {
		t.Fatal(err)
	}
	if !span.Defaulted {
		t.Fatalf("expected default span")
	}
	if Format(span.Start) != "2025-08-11" || Format(span.End) != "2025-09-14" {
		t.Fatalf("span=%s..%s", Format(span.Start), Format(span.End))
	}
	if span.Periods == nil || len(span.Periods) != 0 {
		t.Fatalf("periods=%#v", span.Periods)
	}
}

func TestResolveSingleEntryKeepsInterval(t *testing.T) {
	c := mustCalendar(t, []Entry{
		{Label: "Unnamed: 24", Start: Date(2025, 9, 29), End: Date(2025, 9, 30), Index: 8},
	})
	span, err := c.Resolve(map[string]any{"Unnamed: 24": "X "})
	if err != nil {
		t.Fatal(err)
	}
	if !span.Start.Equal(Date(2025, 9, 29)) || !span.End.Equal(Date(2025, 9, 30)) {
		t.Fatalf("span=%s..%s", Format(span.Start), Format(span.End))
	}
}

func TestResolveMarkerRules(t *testing.T) {
	c := mustCalendar(t, []Entry{
		{Label: "W1", Start: Date(2025, 8, 11), End: Date(2025, 8, 17), Index: 1},
		{Label: "W2", Start: Date(2025, 8, 18), End: Date(2025, 8, 24), Index: 2},
		{Label: "W3", Start: Date(2025, 8, 25), End: Date(2025, 8, 31), Index: 3},
	})
	span, err := c.Resolve(map[string]any{"W1": "-", "W2": "X ", "W4": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(span.Periods, []int{2}) {
		t.Fatalf("periods=%v", span.Periods)
	}
	if !reflect.DeepEqual(span.Labels, []string{"W2"}) {
		t.Fatalf("labels=%v", span.Labels)
	}
}

func TestResolveDeduplicatesIndices(t *testing.T) {
	c := mustCalendar(t, []Entry{
		{Label: "W5a", Start: Date(2025, 9, 8), End: Date(2025, 9, 10), Index: 5},
		{Label: "W5b", Start: Date(2025, 9, 11), End: Date(2025, 9, 14), Index: 5},
		{Label: "W4", Start: Date(2025, 9, 1), End: Date(2025, 9, 7), Index: 4},
	})
	span, err := c.Resolve(map[string]any{"W5a": "x", "W5b": "x", "W4": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(span.Periods, []int{4, 5}) {
		t.Fatalf("periods=%v", span.Periods)
	}
	if Format(span.Start) != "2025-09-01" || Format(span.End) != "2025-09-14" {
		t.Fatalf("span=%s..%s", Format(span.Start), Format(span.End))
	}
}

func TestResolveAcrossYearBoundary(t *testing.T) {
	c := mustCalendar(t, []Entry{
		{Label: "W1", Start: Date(2025, 12, 29), End: Date(2026, 1, 4), Index: 20},
		{Label: "W0", Start: Date(2025, 12, 22), End: Date(2025, 12, 28), Index: 19},
	})
	span, err := c.Resolve(map[string]any{"W1": "x", "W0": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if Format(span.Start) != "2025-12-22" || Format(span.End) != "2026-01-04" {
		t.Fatalf("span=%s..%s", Format(span.Start), Format(span.End))
	}
}

func TestNewRejectsBadTables(t *testing.T) {
	def := Span{Start: Date(2025, 8, 11), End: Date(2025, 9, 14)}

	_, err := New([]Entry{{Label: "A", Start: Date(2025, 8, 17), End: Date(2025, 8, 11)}}, def)
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("err=%v", err)
	}
	_, err = New([]Entry{
		{Label: "A", Start: Date(2025, 8, 11), End: Date(2025, 8, 17)},
		{Label: " A ", Start: Date(2025, 8, 18), End: Date(2025, 8, 24)},
	}, def)
	if !errors.Is(err, ErrDuplicateLabel) {
		t.Fatalf("err=%v", err)
	}
	_, err = New([]Entry{{Label: " "}}, def)
	if !errors.Is(err, ErrEmptyLabel) {
		t.Fatalf("err=%v", err)
	}
	_, err = New(nil, Span{Start: Date(2025, 9, 14), End: Date(2025, 8, 11)})
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("err=%v", err)
	}
}

func TestUncheckedResolveReportsInvertedInterval(t *testing.T) {
	c := Unchecked([]Entry{{Label: "A", Start: Date(2025, 8, 17), End: Date(2025, 8, 11), Index: 1}}, Span{})
	if _, err := c.Resolve(map[string]any{"A": "x"}); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("err=%v", err)
	}
	if _, err := c.Resolve(map[string]any{"A": ""}); err != nil {
		t.Fatalf("inactive entry should not fail: %v", err)
	}
}

func TestWeekly(t *testing.T) {
	entries := Weekly(Date(2025, 12, 22), 3, func(i int) string { return string(rune('A' + i)) })
	if len(entries) != 3 {
		t.Fatalf("len=%d", len(entries))
	}
	last := entries[2]
	if Format(last.Start) != "2026-01-05" || Format(last.End) != "2026-01-11" || last.Index != 3 {
		t.Fatalf("last=%+v", last)
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe([]int{1, 2, 17}); got != "1, 2, 17" {
		t.Fatalf("got %q", got)
	}
	if got := Describe(nil); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-09-29 ")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("d=%v", d)
	}
}
