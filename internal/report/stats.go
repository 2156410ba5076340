// Package report collects batch statistics from the normalizer and renders
// them for the console and the statistics sheet.
package report

import (
	"sort"

	"github.com/montanaflynn/stats"

	"tkbconv/internal"
)

const (
	GroupStatus   = "Trạng thái"
	GroupMajor    = "Ngành"
	GroupCohort   = "Khóa"
	GroupWeekday  = "Thứ"
	GroupTimeSlot = "Thời gian"
)

// Stats is a pipeline observer. Run delivers rows sequentially, so it
// needs no locking.
type Stats struct {
	Summary internal.BatchSummary

	byStatus map[internal.RowStatus]int
	groups   map[string]map[string]int
	weeks    []float64
}

// WeekSpread describes how many teaching periods the kept sections span.
type WeekSpread struct {
	Min    float64
	Median float64
	Mean   float64
	Max    float64
}

func NewStats() *Stats {
	return &Stats{
		byStatus: map[internal.RowStatus]int{},
		groups: map[string]map[string]int{
			GroupMajor:    {},
			GroupCohort:   {},
			GroupWeekday:  {},
			GroupTimeSlot: {},
		},
	}
}

func (s *Stats) RowProcessed(res internal.RowResult) {
	s.byStatus[res.Status]++
	if res.Record == nil || res.Record.Sentinel {
		return
	}
	rec := res.Record
	s.count(GroupMajor, rec.Major)
	s.count(GroupCohort, rec.Cohort)
	s.count(GroupWeekday, rec.Weekday)
	s.count(GroupTimeSlot, rec.TimeSlot)
	if len(rec.Weeks) > 0 {
		s.weeks = append(s.weeks, float64(len(rec.Weeks)))
	}
}

func (s *Stats) BatchDone(summary internal.BatchSummary) {
	s.Summary = summary
}

func (s *Stats) count(group, value string) {
	if value == "" {
		return
	}
	s.groups[group][value]++
}

func (s *Stats) Status(status internal.RowStatus) int {
	return s.byStatus[status]
}

// Top returns the n most frequent values of group, count descending then
// name ascending. n <= 0 returns all of them.
func (s *Stats) Top(group string, n int) []internal.StatLine {
	counts := s.groups[group]
	out := make([]internal.StatLine, 0, len(counts))
	for name, c := range counts {
		out = append(out, internal.StatLine{Group: group, Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Lines flattens the statistics for the statistics sheet: row outcomes
// first, then the ten largest majors and every cohort, weekday and slot.
func (s *Stats) Lines() []internal.StatLine {
	statuses := make([]string, 0, len(s.byStatus))
	for status := range s.byStatus {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)

	out := make([]internal.StatLine, 0, len(statuses)+32)
	for _, status := range statuses {
		out = append(out, internal.StatLine{Group: GroupStatus, Name: status, Count: s.byStatus[internal.RowStatus(status)]})
	}
	out = append(out, s.Top(GroupMajor, 10)...)
	out = append(out, s.Top(GroupCohort, 0)...)
	out = append(out, s.Top(GroupWeekday, 0)...)
	out = append(out, s.Top(GroupTimeSlot, 0)...)
	return out
}

// Weeks summarizes the period count of every kept section that marked at
// least one period. ok is false when there is none.
func (s *Stats) Weeks() (spread WeekSpread, ok bool) {
	if len(s.weeks) == 0 {
		return WeekSpread{}, false
	}
	data := stats.Float64Data(s.weeks)
	var err error
	if spread.Min, err = stats.Min(data); err != nil {
		return WeekSpread{}, false
	}
	if spread.Max, err = stats.Max(data); err != nil {
		return WeekSpread{}, false
	}
	if spread.Median, err = stats.Median(data); err != nil {
		return WeekSpread{}, false
	}
	if spread.Mean, err = stats.Mean(data); err != nil {
		return WeekSpread{}, false
	}
	return spread, true
}
