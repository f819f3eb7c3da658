package layout

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	decimalComma = regexp.MustCompile(`^\d{1,3}(\.\d{3})*,\d+$`)
	decimalPoint = regexp.MustCompile(`^\d{1,3}(,\d{3})*\.\d+$`)
)

// ParseNumericValue interprets a grouped-thousands numeric literal in
// either European ("123.456,78") or Anglo ("123,456.78") style and
// returns its value. Plain float syntax is accepted as a fallback.
// The second return is false when the string is not numeric.
func ParseNumericValue(value string) (float64, bool) {
	v := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	if v == "" {
		return 0, false
	}
	switch {
	case decimalComma.MatchString(v):
		v = strings.ReplaceAll(v, ".", "")
		v = strings.ReplaceAll(v, ",", ".")
	case decimalPoint.MatchString(v):
		v = strings.ReplaceAll(v, ",", "")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
