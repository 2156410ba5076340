package report

import (
	"bytes"
	"strings"
	"testing"

	"tkbconv/internal"
)

func weeksFor(slot string) []int {
	switch slot {
	case "1-3":
		return []int{1, 2, 3, 4}
	case "4-6":
		return []int{1}
	}
	return nil
}

func feed(s *Stats) {
	kept := func(major, cohort, slot string) internal.RowResult {
		return internal.RowResult{
			Status: internal.RowKept,
			Record: &internal.NormalizedRecord{Major: major, Cohort: cohort, Weekday: "2", TimeSlot: slot, SubjectName: "Môn", Weeks: weeksFor(slot)},
		}
	}
	s.RowProcessed(kept("CNTT", "K65", "1-3"))
	s.RowProcessed(kept("CNTT", "K66", "4-6"))
	s.RowProcessed(kept("Điện", "K65", "1-3"))
	s.RowProcessed(kept("", "", ""))
	s.RowProcessed(internal.RowResult{Status: internal.RowNoSubject})
	s.RowProcessed(internal.RowResult{
		Status: internal.RowSentinel,
		Record: &internal.NormalizedRecord{Major: "Lỗi", Sentinel: true},
	})
	s.BatchDone(internal.BatchSummary{RunID: "run-7", Total: 1234, Kept: 4, Sentinel: 1, Failed: 1})
}

func TestStatsCounts(t *testing.T) {
	s := NewStats()
	feed(s)

	if s.Status(internal.RowKept) != 4 || s.Status(internal.RowNoSubject) != 1 || s.Status(internal.RowSentinel) != 1 {
		t.Fatalf("status counts wrong")
	}
	top := s.Top(GroupMajor, 0)
	if len(top) != 2 || top[0].Name != "CNTT" || top[0].Count != 2 {
		t.Fatalf("majors=%+v", top)
	}
	if got := s.Top(GroupCohort, 1); len(got) != 1 || got[0].Name != "K65" {
		t.Fatalf("cohorts=%+v", got)
	}

	spread, ok := s.Weeks()
	if !ok || spread.Min != 1 || spread.Max != 4 || spread.Median != 4 || spread.Mean != 3 {
		t.Fatalf("spread=%+v ok=%v", spread, ok)
	}
	if _, ok := NewStats().Weeks(); ok {
		t.Fatal("empty stats reported a spread")
	}

	lines := s.Lines()
	if lines[0].Group != GroupStatus || lines[0].Name != "kept" {
		t.Fatalf("first line=%+v", lines[0])
	}
}

func TestPrintSummaryAndSample(t *testing.T) {
	s := NewStats()
	feed(s)

	var buf bytes.Buffer
	PrintSummary(&buf, s)
	out := buf.String()
	if !strings.Contains(out, "run run-7: 1,234 rows") || !strings.Contains(out, "CNTT") || !strings.Contains(out, "median=4") ||
		!strings.Contains(out, GroupCohort) || !strings.Contains(out, "K66") {
		t.Fatalf("summary=%s", out)
	}

	buf.Reset()
	credits := 2.5
	PrintSample(&buf, []internal.NormalizedRecord{
		{SubjectName: "Giải tích 1", TimeSlot: "1-3", Credits: &credits},
		{SubjectName: "Vật lý", CreditsRaw: "3 (2+1)"},
	}, 15)
	if !strings.Contains(buf.String(), "Giải tích 1") || !strings.Contains(buf.String(), "2.5") || !strings.Contains(buf.String(), "3 (2+1)") {
		t.Fatalf("sample=%s", buf.String())
	}
}
