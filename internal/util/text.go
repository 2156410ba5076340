package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var reSpaces = regexp.MustCompile(`\s+`)

// CellText renders a raw cell value as trimmed NFC text. Blank cells,
// pandas "nan" markers and unsupported value types render as "".
func CellText(v any) string {
	s, ok := cellString(v)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(norm.NFC.String(s))
	if IsBlank(s) {
		return ""
	}
	return s
}

func IsBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan")
}

func cellString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case []byte:
		return string(t), true
	case float64:
		return formatFloat(t), true
	case float32:
		return formatFloat(float64(t)), true
	case int:
		return strconv.Itoa(t), true
	case int8:
		return strconv.FormatInt(int64(t), 10), true
	case int16:
		return strconv.FormatInt(int64(t), 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case uint8:
		return strconv.FormatUint(uint64(t), 10), true
	case uint16:
		return strconv.FormatUint(uint64(t), 10), true
	case uint32:
		return strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// NormalizeLabel folds a header label for lookups: NFC, trimmed, inner
// whitespace collapsed to one space.
func NormalizeLabel(input string) string {
	s := norm.NFC.String(input)
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// HasMarker reports whether a period cell carries the "x" marker.
func HasMarker(v any) bool {
	s, ok := cellString(v)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(s), "x")
}
