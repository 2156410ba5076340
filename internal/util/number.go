package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reThousandDot   = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	reThousandComma = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// ParseNumber reads a numeric cell. Text cells accept decimal commas and
// thousand separators; anything else reports ok=false.
func ParseNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case float32:
		return ParseNumber(float64(t))
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	}

	s := CellText(v)
	if s == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(normalizeNumericToken(s), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

// AsInt reports whether f is an exact integer that fits an int.
func AsInt(f float64) (int, bool) {
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, "\u00A0", "")
	compact = strings.ReplaceAll(compact, " ", "")
	if reThousandDot.MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if reThousandComma.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}

func FloatPtr(v float64) *float64 {
	return &v
}

func FormatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
