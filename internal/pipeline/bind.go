package pipeline

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"tkbconv/internal/calendar"
	"tkbconv/internal/config"
	"tkbconv/internal/util"
)

// BindCalendar turns the profile's period table into a calendar keyed by
// header label. Periods given by column letter take the label of that
// column in headers. The returned list holds labels that no header column
// carries; rows can never mark those periods active.
func BindCalendar(specs []config.PeriodSpec, def calendar.Span, headers []string) (*calendar.Calendar, []string, error) {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}

	entries := make([]calendar.Entry, 0, len(specs))
	var missing []string
	for _, spec := range specs {
		label := util.NormalizeLabel(spec.Label)
		if label == "" {
			col, err := excelize.ColumnNameToNumber(spec.Column)
			if err != nil {
				return nil, nil, fmt.Errorf("period %d: column %q: %w", spec.Index, spec.Column, err)
			}
			if col > len(headers) {
				return nil, nil, fmt.Errorf("period %d: column %s is past the header width (%d columns)", spec.Index, spec.Column, len(headers))
			}
			label = headers[col-1]
		}
		if _, ok := present[label]; !ok {
			missing = append(missing, label)
		}
		entries = append(entries, calendar.Entry{
			Label: label,
			Start: spec.Start,
			End:   spec.End,
			Index: spec.Index,
		})
	}

	cal, err := calendar.New(entries, def)
	if err != nil {
		return nil, nil, err
	}
	return cal, missing, nil
}
